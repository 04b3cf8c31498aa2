package plugins

import (
	"github.com/apex/log"

	"github.com/joshp123/botvac/internal/config"
	"github.com/joshp123/botvac/internal/core"
	"github.com/joshp123/botvac/internal/simbot"
	"github.com/joshp123/botvac/plugins/botvac"
)

func init() {
	Register(func(cfg *config.Config, logger log.Interface) (core.Plugin, bool) {
		if cfg.Botvac == nil {
			return nil, false
		}
		plugin, ok := botvac.NewPlugin(cfg, remoteClient(cfg.Botvac), logger)
		if !ok {
			return nil, false
		}
		return plugin, true
	})
}

// remoteClient selects the cloud transport. Only the simulator ships with
// this build; unknown remotes leave the plugin in the error state.
func remoteClient(cfg *config.BotvacConfig) botvac.Client {
	switch cfg.Remote {
	case "", config.DefaultRemote:
		sim := simbot.Config{}
		if cfg.Simulator != nil {
			sim = simbot.Config{
				Name:        cfg.Simulator.Name,
				Serial:      cfg.Simulator.Serial,
				DockAfter:   cfg.Simulator.DockAfter,
				ExtraRobots: cfg.Simulator.ExtraRobots,
			}
		}
		return simbot.New(sim)
	default:
		return nil
	}
}
