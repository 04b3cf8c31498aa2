package botvac

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/joshp123/botvac/internal/rate"
)

// RegisterHTTP exposes the robot state and commands over plain HTTP.
func (p *Plugin) RegisterHTTP(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/state", p.handleState)
	mux.HandleFunc("POST /v1/commands/{operation}", p.handleCommand)
}

func (p *Plugin) handleState(w http.ResponseWriter, r *http.Request) {
	if p.controller == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: p.healthMessage})
		return
	}
	state, err := p.controller.State(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewStateView(state))
}

func (p *Plugin) handleCommand(w http.ResponseWriter, r *http.Request) {
	op, err := ParseOperation(r.PathValue("operation"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}
	if p.controller == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: p.healthMessage})
		return
	}
	if err := p.controller.Run(r.Context(), op); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"operation": string(op), "outcome": Outcome(nil)})
}

type errorBody struct {
	Outcome string `json:"outcome,omitempty"`
	Error   string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatus(err), errorBody{Outcome: Outcome(err), Error: err.Error()})
}

func httpStatus(err error) int {
	var limitErr rate.RateLimitError
	if errors.As(err, &limitErr) {
		return http.StatusTooManyRequests
	}
	switch Outcome(err) {
	case "auth_error":
		return http.StatusUnauthorized
	case "no_device":
		return http.StatusNotFound
	case "cannot_start", "cannot_return":
		return http.StatusConflict
	case "state_error", "pause_error", "command_error":
		return http.StatusBadGateway
	case "dock_timeout", "canceled":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
