package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joshp123/botvac/internal/config"
	"gopkg.in/yaml.v3"
)

const defaultAddr = "localhost:9000"

func resolveAddr() string {
	if value := os.Getenv("BOTVAC_GRPC_ADDR"); value != "" {
		return value
	}
	for _, path := range configSearchPaths() {
		if addr := addrFromConfig(path); addr != "" {
			return addr
		}
	}
	return defaultAddr
}

func configSearchPaths() []string {
	var paths []string
	if value := os.Getenv("BOTVAC_CONFIG"); value != "" {
		paths = append(paths, value)
	}
	paths = append(paths, config.DefaultPath)
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "botvac", "config.yaml"))
	}
	return paths
}

// addrFromConfig reads only core.grpc_addr; the CLI has no use for the
// secrets a full config.Load would demand.
func addrFromConfig(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil || cfg.Core == nil {
		return ""
	}
	return dialable(cfg.Core.GRPCAddr)
}

// dialable rewrites a wildcard listen address to loopback.
func dialable(addr string) string {
	if addr == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(addr, "0.0.0.0:"); ok {
		return "localhost:" + rest
	}
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}
