package router

import (
	"net/http"

	"google.golang.org/grpc"

	"github.com/joshp123/botvac/internal/core"
)

// RegisterPlugins registers plugin services on the gRPC server.
func RegisterPlugins(server *grpc.Server, plugins []core.Plugin) {
	for _, p := range plugins {
		p.RegisterGRPC(server)
	}
}

// RegisterHTTP mounts plugin HTTP handlers on mux.
func RegisterHTTP(mux *http.ServeMux, plugins []core.Plugin) {
	for _, p := range plugins {
		if registrant, ok := p.(core.HTTPRegistrant); ok {
			registrant.RegisterHTTP(mux)
		}
	}
}
