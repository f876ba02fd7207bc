package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/elijahnyp/room_node/util"
)

func TestStatusHandler(t *testing.T) {
	rig := newTestRig(t, `{"fan":true,"light":false}`, Sim{Temperature: 23, Presence: true})
	rig.node.Cycle(context.Background())

	w := httptest.NewRecorder()
	StatusHandler(rig.node, "office").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s", ct)
	}

	var resp statusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Name != "office" || resp.Address != "192.0.2.20" {
		t.Errorf("status = %+v", resp)
	}
	if !resp.Fan || resp.Light {
		t.Errorf("outputs fan=%v light=%v", resp.Fan, resp.Light)
	}
	if resp.State.Reading.Temperature != 23 || resp.State.Cycles != 1 {
		t.Errorf("state = %+v", resp.State)
	}
	if resp.Endpoint != rig.server.URL+"/reading" {
		t.Errorf("endpoint = %s", resp.Endpoint)
	}
}

func TestStatusHandler_Method(t *testing.T) {
	rig := newTestRig(t, `{}`, Sim{})

	w := httptest.NewRecorder()
	StatusHandler(rig.node, "office").ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/status", nil))

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}
