package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ksobolewski/multirelay-controller/internal/model"
)

// ButtonConfig is the raw JSON record for one button. Pointer fields are
// required unless noted; nil targets mean "no target".
type ButtonConfig struct {
	SensorID          *int   `json:"sensor_id"`
	Kind              string `json:"kind"`
	PressedLevelHigh  bool   `json:"pressed_level_high"`
	Pin               *int   `json:"pin"`
	Description       string `json:"description"`
	Exposed           bool   `json:"exposed"`
	ClickTarget       *int   `json:"click_target"`
	LongClickTarget   *int   `json:"long_click_target"`
	DoubleClickTarget *int   `json:"double_click_target"`
}

// RelayConfig is the raw JSON record for one relay. A nil DependsOn means
// the relay has no master.
type RelayConfig struct {
	SensorID    *int     `json:"sensor_id"`
	Description string   `json:"description"`
	Pin         *int     `json:"pin"`
	Options     []string `json:"options"`
	DependsOn   *int     `json:"depends_on"`
}

type Config struct {
	ConfigFile string
	StateDB    string
	LogLevel   zerolog.Level
	ResetState bool

	PollIntervalMs        int  `json:"poll_interval_ms"`
	DebounceMs            int  `json:"debounce_ms"`
	DoubleClickMs         int  `json:"double_click_ms"`
	LongClickMs           int  `json:"long_click_ms"`
	ImpulseMs             int  `json:"impulse_ms"`
	MonoStableTriggerHigh bool `json:"mono_stable_trigger_high"`

	GPIOChip string `json:"gpio_chip"`

	MQTTBroker   string `json:"mqtt_broker"`
	MQTTClientID string `json:"mqtt_client_id"`

	StatsdAddr      string   `json:"statsd_addr"`
	StatsdNamespace string   `json:"statsd_namespace"`
	StatsdTags      []string `json:"statsd_tags"`

	Buttons []ButtonConfig `json:"buttons"`
	Relays  []RelayConfig  `json:"relays"`
}

func Load() Config {
	var cfg Config
	var logLevel string

	flag.StringVar(&cfg.ConfigFile, "config-file", "config.json", "Path to controller config file")
	flag.StringVar(&cfg.StateDB, "state-db", "data/relaystate.db", "Path to the relay state database")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&cfg.ResetState, "reset-state", false, "Zero persisted relay states on startup")
	flag.Parse()

	cfg.LogLevel = parseLogLevel(logLevel)

	file, err := os.Open(cfg.ConfigFile)
	if err != nil {
		panic("Failed to load config file: " + err.Error())
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		panic("Failed to parse config file: " + err.Error())
	}

	cfg.applyDefaults()
	cfg.validate()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.PollIntervalMs == 0 {
		cfg.PollIntervalMs = 20
	}
	if cfg.DebounceMs == 0 {
		cfg.DebounceMs = 20
	}
	if cfg.DoubleClickMs == 0 {
		cfg.DoubleClickMs = 350
	}
	if cfg.LongClickMs == 0 {
		cfg.LongClickMs = 800
	}
	if cfg.ImpulseMs == 0 {
		cfg.ImpulseMs = 250
	}
	if cfg.GPIOChip == "" {
		cfg.GPIOChip = "gpiochip0"
	}
	if cfg.MQTTClientID == "" {
		cfg.MQTTClientID = "multirelay-controller"
	}
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

var optionNames = map[string]model.RelayOptions{
	"trigger_high": model.TriggerHigh,
	"startup_on":   model.StartupOn,
	"startup_off":  model.StartupOff,
	"impulse":      model.Impulse,
	"independent":  model.Independent,
}

func (cfg *Config) validate() {
	var problems []string
	usedPins := map[int]string{}
	usedIDs := map[int]string{}
	relayIDs := map[int]int{} // sensor id -> relay index

	for i, r := range cfg.Relays {
		name := fmt.Sprintf("relays[%d]", i)
		if r.SensorID == nil {
			problems = append(problems, name+": missing sensor_id")
			continue
		}
		if other, taken := usedIDs[*r.SensorID]; taken {
			problems = append(problems, fmt.Sprintf("%s and %s both use sensor_id %d", name, other, *r.SensorID))
		} else {
			usedIDs[*r.SensorID] = name
			relayIDs[*r.SensorID] = i
		}
		if r.Pin == nil {
			problems = append(problems, name+": missing pin")
		} else if other, taken := usedPins[*r.Pin]; taken {
			problems = append(problems, fmt.Sprintf("%s and %s both use pin %d", name, other, *r.Pin))
		} else {
			usedPins[*r.Pin] = name
		}
		opts, err := parseOptions(r.Options)
		if err != nil {
			problems = append(problems, name+": "+err.Error())
		}
		if opts.Has(model.StartupOn) && opts.Has(model.StartupOff) {
			problems = append(problems, name+": startup_on and startup_off are mutually exclusive")
		}
	}

	for i, r := range cfg.Relays {
		if r.SensorID == nil || r.DependsOn == nil {
			continue
		}
		name := fmt.Sprintf("relays[%d]", i)
		if _, ok := relayIDs[*r.DependsOn]; !ok && *r.DependsOn != *r.SensorID {
			problems = append(problems, fmt.Sprintf("%s: depends_on %d does not match any relay", name, *r.DependsOn))
		}
	}
	problems = append(problems, cfg.dependencyCycles(relayIDs)...)

	for i, b := range cfg.Buttons {
		name := fmt.Sprintf("buttons[%d]", i)
		if b.SensorID == nil {
			problems = append(problems, name+": missing sensor_id")
		} else if other, taken := usedIDs[*b.SensorID]; taken {
			problems = append(problems, fmt.Sprintf("%s and %s both use sensor_id %d", name, other, *b.SensorID))
		} else {
			usedIDs[*b.SensorID] = name
		}
		if b.Pin == nil {
			problems = append(problems, name+": missing pin")
		} else if other, taken := usedPins[*b.Pin]; taken {
			problems = append(problems, fmt.Sprintf("%s and %s both use pin %d", name, other, *b.Pin))
		} else {
			usedPins[*b.Pin] = name
		}
		if !model.ButtonKind(b.Kind).Valid() {
			problems = append(problems, fmt.Sprintf("%s: unknown kind %q", name, b.Kind))
		}
		for field, target := range map[string]*int{
			"click_target":        b.ClickTarget,
			"long_click_target":   b.LongClickTarget,
			"double_click_target": b.DoubleClickTarget,
		} {
			if target == nil {
				continue
			}
			if _, ok := relayIDs[*target]; !ok {
				problems = append(problems, fmt.Sprintf("%s: %s %d does not match any relay", name, field, *target))
			}
		}
	}

	if len(problems) > 0 {
		panic("Invalid configuration: " + strings.Join(problems, "; "))
	}
}

// dependencyCycles follows each relay's master chain; change_state recurses
// on masters, so the graph must be acyclic.
func (cfg *Config) dependencyCycles(relayIDs map[int]int) []string {
	var problems []string
	for i := range cfg.Relays {
		seen := map[int]bool{}
		cur := i
		for {
			seen[cur] = true
			r := cfg.Relays[cur]
			if r.SensorID == nil || r.DependsOn == nil || *r.DependsOn == *r.SensorID {
				break
			}
			next, ok := relayIDs[*r.DependsOn]
			if !ok {
				break
			}
			if seen[next] {
				problems = append(problems, fmt.Sprintf("relays[%d]: dependency cycle via sensor_id %d", i, *r.DependsOn))
				break
			}
			cur = next
		}
	}
	return problems
}

func parseOptions(names []string) (model.RelayOptions, error) {
	var opts model.RelayOptions
	var unknown []string
	for _, n := range names {
		o, ok := optionNames[n]
		if !ok {
			unknown = append(unknown, n)
			continue
		}
		opts |= o
	}
	if len(unknown) > 0 {
		return opts, fmt.Errorf("unknown options: %s", strings.Join(unknown, ", "))
	}
	return opts, nil
}

// ResolveRelays hydrates the raw relay records into immutable model records.
// Must only be called on a validated config.
func (cfg *Config) ResolveRelays() []model.RelayConfig {
	out := make([]model.RelayConfig, 0, len(cfg.Relays))
	for _, r := range cfg.Relays {
		opts, _ := parseOptions(r.Options)
		dependsOn := *r.SensorID
		if r.DependsOn != nil {
			dependsOn = *r.DependsOn
		}
		out = append(out, model.RelayConfig{
			SensorID:    *r.SensorID,
			Description: r.Description,
			Pin:         *r.Pin,
			Options:     opts,
			DependsOn:   dependsOn,
		})
	}
	return out
}

// ResolveButtons hydrates the raw button records into immutable model
// records. Absent targets become -1.
func (cfg *Config) ResolveButtons() []model.ButtonConfig {
	out := make([]model.ButtonConfig, 0, len(cfg.Buttons))
	for _, b := range cfg.Buttons {
		out = append(out, model.ButtonConfig{
			SensorID:          *b.SensorID,
			Kind:              model.ButtonKind(b.Kind),
			PressedLevelHigh:  b.PressedLevelHigh,
			Pin:               *b.Pin,
			Description:       b.Description,
			Exposed:           b.Exposed,
			ClickTarget:       targetOrNone(b.ClickTarget),
			LongClickTarget:   targetOrNone(b.LongClickTarget),
			DoubleClickTarget: targetOrNone(b.DoubleClickTarget),
		})
	}
	return out
}

func targetOrNone(t *int) int {
	if t == nil {
		return -1
	}
	return *t
}
