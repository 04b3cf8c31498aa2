package botvac

import (
	"fmt"
	"time"

	"github.com/joshp123/botvac/internal/config"
)

// Config defines runtime configuration for the botvac plugin.
type Config struct {
	Credentials   Credentials
	Sequencer     SequencerConfig
	Timeout       time.Duration
	RatePerMinute int
	BudgetFloor   int
	MQTT          *BridgeConfig
}

// BridgeConfig enables the MQTT command bridge.
type BridgeConfig struct {
	Options      MQTTOptions
	CommandTopic string
	ResultTopic  string
}

func ConfigFromFile(cfg *config.Config) (Config, error) {
	if cfg == nil || cfg.Botvac == nil {
		return Config{}, fmt.Errorf("botvac config is required")
	}
	bv := cfg.Botvac

	creds, err := NewCredentials(bv.Username, bv.Password)
	if err != nil {
		return Config{}, err
	}

	out := Config{
		Credentials: creds,
		Sequencer:   DefaultSequencerConfig(),
	}
	if bv.Dock != nil {
		out.Sequencer = SequencerConfig{
			MaxDockAttempts: bv.Dock.MaxAttempts,
			RedockAttempts:  bv.Dock.RedockAttempts,
			PollInterval:    bv.Dock.PollInterval,
			StopStrategy:    StopStrategy(bv.Dock.StopStrategy),
		}.withDefaults()
		out.Timeout = bv.Dock.Timeout
	}
	if bv.RateLimit != nil {
		out.RatePerMinute = bv.RateLimit.PerMinute
		out.BudgetFloor = bv.RateLimit.BudgetFloor
	}

	if m := cfg.MQTT; m != nil {
		out.MQTT = &BridgeConfig{
			Options: MQTTOptions{
				Broker:   m.Broker,
				ClientID: m.ClientID,
				Username: m.Username,
				Password: m.Password,
			},
			CommandTopic: m.CommandTopic,
			ResultTopic:  m.ResultTopic,
		}
	}
	return out, nil
}
