package datadog

import (
	"github.com/DataDog/datadog-go/statsd"
	"github.com/rs/zerolog/log"

	"github.com/ksobolewski/multirelay-controller/internal/env"
)

var dogstatsd *statsd.Client

func InitMetrics() {
	if env.Cfg.StatsdAddr == "" {
		log.Info().Msg("Statsd address not configured - metrics disabled")
		return
	}

	var err error
	dogstatsd, err = statsd.New(env.Cfg.StatsdAddr)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create DogStatsD client")
		return
	}

	dogstatsd.Namespace = env.Cfg.StatsdNamespace
	dogstatsd.Tags = env.Cfg.StatsdTags

	log.Info().
		Str("addr", env.Cfg.StatsdAddr).
		Str("namespace", env.Cfg.StatsdNamespace).
		Strs("tags", env.Cfg.StatsdTags).
		Msg("Datadog metrics initialized")
}

func Gauge(name string, value float64, tags ...string) {
	if dogstatsd != nil {
		err := dogstatsd.Gauge(name, value, tags, 1)
		if err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to emit gauge metric")
		}
	}
}

func Count(name string, value int64, tags ...string) {
	if dogstatsd != nil {
		err := dogstatsd.Count(name, value, tags, 1)
		if err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to emit count metric")
		}
	}
}
