package main

import (
	"encoding/json"
	"strconv"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/elijahnyp/room_node/state"
	. "github.com/elijahnyp/room_node/util"
)

// Mirror publishes each connected cycle's state to the broker so Home Assistant
// can follow the node. It is a side channel; failures never affect the loop.
type Mirror struct {
	Client func() MQTT.Client
	Model  Model
	Prefix string
	// Wait caps the total time one Publish spends waiting for acknowledgements.
	Wait time.Duration
}

func NewMirror(m Model, prefix string) *Mirror {
	return &Mirror{
		Client: func() MQTT.Client { return Client },
		Model:  m,
		Prefix: prefix,
		Wait:   500 * time.Millisecond,
	}
}

func (m *Mirror) values(st state.NodeState) map[string]string {
	return map[string]string{
		"temperature": strconv.FormatFloat(st.Reading.Temperature, 'f', 2, 64),
		"presence":    strconv.FormatBool(st.Reading.Presence),
		"fan":         strconv.FormatBool(st.Command.Fan),
		"light":       strconv.FormatBool(st.Command.Light),
	}
}

func (m *Mirror) Publish(st state.NodeState) {
	client := m.Client()
	if client == nil || !client.IsConnected() || st.Connection != state.Connected {
		return
	}

	tokens := make(map[string]MQTT.Token, 5)
	for entity, payload := range m.values(st) {
		topic := m.Model.StateTopic(m.Prefix, entity)
		tokens[topic] = client.Publish(topic, 0, false, payload)
	}

	data, err := json.Marshal(st)
	if err != nil {
		Logger.Error().Err(err).Msg("encoding node state")
	} else {
		topic := m.Model.StateTopic(m.Prefix, "state")
		tokens[topic] = client.Publish(topic, 0, true, data)
	}

	deadline := time.Now().Add(m.Wait)
	for topic, token := range tokens {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			Logger.Debug().Str("topic", topic).Msg("publish still pending")
			continue
		}
		if token.WaitTimeout(remaining) && token.Error() != nil {
			Logger.Warn().Err(token.Error()).Str("topic", topic).Msg("error publishing state")
		}
	}
}

// HAAdvertiser re-sends discovery every period so a restarted Home Assistant
// finds the node again.
func HAAdvertiser(m Model, prefix string, period time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if Client != nil && Client.IsConnected() {
				Logger.Debug().Msg("Advertising Home Assistant discovery messages")
				if err := AdvertiseHA(m, prefix, Client); err != nil {
					Logger.Warn().Err(err).Msg("Home Assistant discovery")
				}
			}
		}
	}
}
