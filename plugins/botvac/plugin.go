package botvac

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/apex/log"
	"github.com/joshp123/botvac/internal/config"
	"github.com/joshp123/botvac/internal/core"
	"github.com/joshp123/botvac/internal/rate"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
)

//go:embed AGENTS.md
var agentsMD string

// Plugin implements the daemon plugin contract.
type Plugin struct {
	cfg        Config
	sequencer  *Sequencer
	controller *Controller
	logger     log.Interface
	dial       func(MQTTOptions) (Broker, error)

	health        core.HealthStatus
	healthMessage string

	mu     sync.Mutex
	broker Broker
	bridge *Bridge
}

// NewPlugin constructs the botvac plugin from config, driving client.
func NewPlugin(cfg *config.Config, client Client, logger log.Interface) (*Plugin, bool) {
	if cfg == nil || cfg.Botvac == nil {
		return nil, false
	}
	logger = loggerOrDiscard(logger)

	runtimeCfg, err := ConfigFromFile(cfg)
	if err != nil {
		return &Plugin{health: core.HealthError, healthMessage: err.Error(), logger: logger}, true
	}
	if client == nil {
		return &Plugin{health: core.HealthError, healthMessage: "no remote client configured", logger: logger}, true
	}

	if runtimeCfg.RatePerMinute > 0 {
		decl := rate.Provider("botvac").MaxRequestsPer(rate.Minute, runtimeCfg.RatePerMinute)
		if runtimeCfg.BudgetFloor > 0 {
			decl = decl.BudgetFloor(rate.Minute, runtimeCfg.BudgetFloor)
		}
		client = WithRateGuard(client, rate.NewGuard(decl))
	}

	sequencer, err := NewSequencer(client, runtimeCfg.Credentials, runtimeCfg.Sequencer, logger)
	if err != nil {
		return &Plugin{health: core.HealthError, healthMessage: err.Error(), logger: logger}, true
	}

	return &Plugin{
		cfg:        runtimeCfg,
		sequencer:  sequencer,
		controller: NewController(sequencer, runtimeCfg.Timeout),
		logger:     logger,
		dial:       DialBroker,
		health:     core.HealthHealthy,
	}, true
}

func (p *Plugin) ID() string {
	return "botvac"
}

func (p *Plugin) Manifest() core.Manifest {
	return core.Manifest{
		PluginID:    "botvac",
		DisplayName: "Botvac",
		Version:     "0.1.0",
		Services:    []string{ServiceName},
	}
}

func (p *Plugin) AgentsMD() string {
	return agentsMD
}

// Controller is nil when the plugin failed to configure.
func (p *Plugin) Controller() *Controller {
	return p.controller
}

func (p *Plugin) RegisterGRPC(server *grpc.Server) {
	RegisterBotvacService(server, p.controller)
}

func (p *Plugin) Collectors() []prometheus.Collector {
	return append(MetricsCollectors(), rate.MetricsCollectors()...)
}

// Health degrades when the last operation could not reach the robot.
func (p *Plugin) Health() core.HealthStatus {
	if p.health != core.HealthHealthy || p.controller == nil {
		return p.health
	}
	_, _, err := p.controller.LastResult()
	switch Outcome(err) {
	case "auth_error", "no_device", "state_error":
		return core.HealthDegraded
	}
	return core.HealthHealthy
}

func (p *Plugin) HealthMessage() string {
	if p.healthMessage != "" || p.controller == nil {
		return p.healthMessage
	}
	op, _, err := p.controller.LastResult()
	if err == nil {
		return ""
	}
	return fmt.Sprintf("last %s failed: %v", op, err)
}

// Start connects the MQTT command bridge when configured.
func (p *Plugin) Start(ctx context.Context) error {
	if p.cfg.MQTT == nil || p.controller == nil {
		return nil
	}
	broker, err := p.dial(p.cfg.MQTT.Options)
	if err != nil {
		return fmt.Errorf("connect mqtt: %w", err)
	}
	bridge := NewBridge(broker, p.controller, p.cfg.MQTT.CommandTopic, p.cfg.MQTT.ResultTopic, p.logger)
	if err := bridge.Start(ctx); err != nil {
		broker.Close()
		return err
	}

	p.mu.Lock()
	p.broker = broker
	p.bridge = bridge
	p.mu.Unlock()
	return nil
}

// Close waits for in-flight bridge commands and disconnects the broker.
func (p *Plugin) Close() error {
	p.mu.Lock()
	broker, bridge := p.broker, p.bridge
	p.broker, p.bridge = nil, nil
	p.mu.Unlock()

	if bridge != nil {
		bridge.Wait()
	}
	if broker != nil {
		broker.Close()
	}
	return nil
}
