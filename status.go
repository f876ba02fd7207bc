package main

import (
	"encoding/json"
	"net/http"

	"github.com/elijahnyp/room_node/state"
	. "github.com/elijahnyp/room_node/util"
)

type statusResponse struct {
	Name     string          `json:"name"`
	Endpoint string          `json:"endpoint"`
	Address  string          `json:"address"`
	State    state.NodeState `json:"state"`
	Fan      bool            `json:"fan_on"`
	Light    bool            `json:"light_on"`
}

// StatusHandler reports the node's latest cycle as JSON.
func StatusHandler(n *Node, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Bad Request Method", http.StatusMethodNotAllowed)
			return
		}
		n.mu.RLock()
		fan, light := n.control.Fan, n.control.Light
		endpoint := n.reporter.Endpoint
		n.mu.RUnlock()

		resp := statusResponse{
			Name:     name,
			Endpoint: endpoint,
			Address:  n.Radio.Address(),
			State:    n.State(),
			Fan:      fan.Get(),
			Light:    light.Get(),
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			Logger.Error().Err(err).Msg("Error encoding node status")
		}
	}
}
