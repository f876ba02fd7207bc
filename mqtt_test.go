package main

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/elijahnyp/room_node/state"
	. "github.com/elijahnyp/room_node/util"
)

// Mock MQTT client for testing
type MockMQTTClient struct {
	publishErr   error
	publishCalls map[string]interface{}
	retained     map[string]bool
	mu           sync.Mutex
	connected    bool
	pending      bool
}

func (m *MockMQTTClient) IsConnected() bool      { return m.connected }
func (m *MockMQTTClient) IsConnectionOpen() bool { return m.connected }
func (m *MockMQTTClient) Connect() MQTT.Token {
	m.connected = true
	return &MockToken{}
}
func (m *MockMQTTClient) Disconnect(quiesce uint) { m.connected = false }

func (m *MockMQTTClient) Publish(topic string, qos byte, retained bool, payload interface{}) MQTT.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishCalls == nil {
		m.publishCalls = make(map[string]interface{})
		m.retained = make(map[string]bool)
	}
	m.publishCalls[topic] = payload
	m.retained[topic] = retained
	return &MockToken{err: m.publishErr, pending: m.pending}
}

func (m *MockMQTTClient) Subscribe(topic string, qos byte, callback MQTT.MessageHandler) MQTT.Token {
	return &MockToken{}
}
func (m *MockMQTTClient) SubscribeMultiple(filters map[string]byte, callback MQTT.MessageHandler) MQTT.Token {
	return &MockToken{}
}
func (m *MockMQTTClient) Unsubscribe(topics ...string) MQTT.Token             { return &MockToken{} }
func (m *MockMQTTClient) AddRoute(topic string, callback MQTT.MessageHandler) {}
func (m *MockMQTTClient) OptionsReader() MQTT.ClientOptionsReader             { return MQTT.ClientOptionsReader{} }

// Mock MQTT token
type MockToken struct {
	err     error
	pending bool
}

func (m *MockToken) Wait() bool { return !m.pending }

// WaitTimeout on a pending token blocks for the full timeout, like a broker
// that never acknowledges.
func (m *MockToken) WaitTimeout(d time.Duration) bool {
	if m.pending {
		time.Sleep(d)
		return false
	}
	return true
}
func (m *MockToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (m *MockToken) Error() error { return m.err }

func testMirror(client MQTT.Client) *Mirror {
	mirror := NewMirror(Model{Name: "office"}, "room_node")
	mirror.Client = func() MQTT.Client { return client }
	return mirror
}

func TestMirror_Publish(t *testing.T) {
	client := &MockMQTTClient{connected: true}
	st := state.NodeState{
		Connection: state.Connected,
		Reading:    state.SensorReading{Temperature: 21.5, Presence: true},
		Command:    state.ControlCommand{Fan: true},
		Cycles:     4,
	}

	testMirror(client).Publish(st)

	expected := map[string]string{
		"room_node/office/temperature": "21.50",
		"room_node/office/presence":    "true",
		"room_node/office/fan":         "true",
		"room_node/office/light":       "false",
	}
	for topic, payload := range expected {
		if got := client.publishCalls[topic]; got != payload {
			t.Errorf("%s = %v, expected %s", topic, got, payload)
		}
	}

	raw, ok := client.publishCalls["room_node/office/state"].([]byte)
	if !ok {
		t.Fatal("full state should be published as JSON")
	}
	var decoded state.NodeState
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("invalid state JSON: %v", err)
	}
	if decoded.Cycles != 4 || decoded.Connection != state.Connected {
		t.Errorf("decoded state = %+v", decoded)
	}
	if !client.retained["room_node/office/state"] {
		t.Error("full state should be retained")
	}
}

func TestMirror_SkipsWhenOffline(t *testing.T) {
	tests := []struct {
		name   string
		client MQTT.Client
		st     state.NodeState
	}{
		{"No client", nil, state.NodeState{Connection: state.Connected}},
		{"Broker down", &MockMQTTClient{connected: false}, state.NodeState{Connection: state.Connected}},
		{"Wifi down", &MockMQTTClient{connected: true}, state.NodeState{Connection: state.Disconnected}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testMirror(tt.client).Publish(tt.st)
			if mock, ok := tt.client.(*MockMQTTClient); ok && len(mock.publishCalls) != 0 {
				t.Errorf("expected no publishes, got %d", len(mock.publishCalls))
			}
		})
	}
}

func TestMirror_PublishErrorsAreAbsorbed(t *testing.T) {
	client := &MockMQTTClient{connected: true, publishErr: errors.New("not authorised")}
	testMirror(client).Publish(state.NodeState{Connection: state.Connected})

	if len(client.publishCalls) != 5 {
		t.Errorf("every entity should still be attempted, got %d publishes", len(client.publishCalls))
	}
}

func TestMirror_SlowBrokerBoundsWait(t *testing.T) {
	client := &MockMQTTClient{connected: true, pending: true}
	mirror := testMirror(client)
	mirror.Wait = 50 * time.Millisecond

	start := time.Now()
	mirror.Publish(state.NodeState{Connection: state.Connected})
	elapsed := time.Since(start)

	if len(client.publishCalls) != 5 {
		t.Errorf("every topic should be published before waiting, got %d", len(client.publishCalls))
	}
	// one shared budget, not one per topic
	if elapsed > 4*mirror.Wait {
		t.Errorf("Publish blocked for %v with a %v budget", elapsed, mirror.Wait)
	}
}

func TestHAAdvertiser_Stops(t *testing.T) {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		HAAdvertiser(Model{Name: "office"}, "room_node", time.Hour, done)
		close(finished)
	}()

	close(done)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("HAAdvertiser should return when done is closed")
	}
}
