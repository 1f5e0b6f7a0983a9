package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/ksobolewski/multirelay-controller/internal/button"
	"github.com/ksobolewski/multirelay-controller/internal/clock"
	"github.com/ksobolewski/multirelay-controller/internal/config"
	"github.com/ksobolewski/multirelay-controller/internal/controller"
	"github.com/ksobolewski/multirelay-controller/internal/datadog"
	"github.com/ksobolewski/multirelay-controller/internal/eeprom"
	"github.com/ksobolewski/multirelay-controller/internal/env"
	"github.com/ksobolewski/multirelay-controller/internal/gpio"
	"github.com/ksobolewski/multirelay-controller/internal/logging"
	"github.com/ksobolewski/multirelay-controller/internal/pininput"
	"github.com/ksobolewski/multirelay-controller/internal/relay"
	"github.com/ksobolewski/multirelay-controller/internal/relayservice"
	"github.com/ksobolewski/multirelay-controller/internal/telemetry"
)

func main() {
	cfg := config.Load()
	env.Cfg = &cfg
	logging.Init(cfg.LogLevel)

	log.Info().
		Str("config_file", cfg.ConfigFile).
		Str("state_db", cfg.StateDB).
		Bool("reset_state", cfg.ResetState).
		Msg("Starting multirelay controller")

	datadog.InitMetrics()

	chip, err := gpio.OpenChip(cfg.GPIOChip)
	if err != nil {
		log.Fatal().Err(err).Str("chip", cfg.GPIOChip).Msg("Failed to open GPIO chip")
	}
	defer chip.Close()

	store, err := eeprom.OpenSQLite(cfg.StateDB)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.StateDB).Msg("Failed to open relay state store")
	}
	defer store.Close()

	var pub telemetry.Publisher
	if cfg.MQTTBroker != "" {
		p, err := telemetry.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			log.Warn().Err(err).Str("broker", cfg.MQTTBroker).Msg("MQTT broker unavailable - telemetry disabled")
		} else {
			pub = p
			defer p.Close()
		}
	}

	clk := clock.New(clockwork.NewRealClock())

	relayCfgs := cfg.ResolveRelays()
	relays := make([]*relay.Relay, 0, len(relayCfgs))
	for _, rc := range relayCfgs {
		out, err := chip.RequestOutput(rc.Pin, false)
		if err != nil {
			log.Fatal().Err(err).Int("sensor_id", rc.SensorID).Msg("Failed to request relay output pin")
		}
		r := relay.New(rc.SensorID, rc.Description)
		r.Attach(out)
		relays = append(relays, r)
	}

	svc := relayservice.New(relays, relayCfgs, clk, store, uint32(cfg.ImpulseMs))
	svc.SetOnChange(func(sensorID int, on bool) {
		v := 0.0
		if on {
			v = 1.0
		}
		datadog.Gauge("relay.state", v, fmt.Sprintf("sensor_id:%d", sensorID))
		if pub != nil {
			if err := pub.PublishRelayState(sensorID, on, time.Now()); err != nil {
				log.Warn().Err(err).Int("sensor_id", sensorID).Msg("Failed to publish relay state")
			}
		}
	})
	if err := svc.Initialize(cfg.ResetState); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize relay service")
	}
	for _, r := range relays {
		log.Debug().Msg(r.String())
	}

	iv := button.Intervals{
		DoubleClickMs:     uint32(cfg.DoubleClickMs),
		LongClickMs:       uint32(cfg.LongClickMs),
		MonoStableTrigger: cfg.MonoStableTriggerHigh,
	}
	buttonCfgs := cfg.ResolveButtons()
	buttons := make([]*button.Button, 0, len(buttonCfgs))
	for _, bc := range buttonCfgs {
		in, err := chip.RequestInput(bc.Pin, gpio.PullUp)
		if err != nil {
			log.Fatal().Err(err).Int("sensor_id", bc.SensorID).Msg("Failed to request button input pin")
		}
		pin := pininput.New(in, clk, uint32(cfg.DebounceMs))
		buttons = append(buttons, button.New(button.Config{
			SensorID:         bc.SensorID,
			Kind:             bc.Kind,
			Description:      bc.Description,
			Exposed:          bc.Exposed,
			PressedLevel:     bc.PressedLevelHigh,
			ClickRelay:       svc.RelayNum(bc.ClickTarget),
			LongClickRelay:   svc.RelayNum(bc.LongClickTarget),
			DoubleClickRelay: svc.RelayNum(bc.DoubleClickTarget),
		}, pin, iv))
	}
	for _, b := range buttons {
		log.Debug().Msg(b.String())
	}

	ctl := controller.New(buttons, svc, clk, pub, time.Duration(cfg.PollIntervalMs)*time.Millisecond)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctl.Run(ctx)
	log.Info().Msg("Shutdown complete")
}
