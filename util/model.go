package util

import (
	"fmt"
	"strings"
	"time"
)

// Pins names the GPIO lines and one-wire bus of the node, as known to the host
// pin registry (e.g. "GPIO17").
type Pins struct {
	Presence  string `mapstructure:"presence"`
	Fan       string `mapstructure:"fan"`
	Light     string `mapstructure:"light"`
	OneWire   string `mapstructure:"onewire"`
	ActiveLow bool   `mapstructure:"active_low"`
}

type Wifi struct {
	SSID      string        `mapstructure:"ssid"`
	Password  string        `mapstructure:"password"`
	Interface string        `mapstructure:"interface"`
	Channel   int           `mapstructure:"channel"`
	JoinDelay time.Duration `mapstructure:"join_delay"`
	Simulated bool          `mapstructure:"simulated"`
}

// Sim holds the values a simulated board reports.
type Sim struct {
	Temperature float64 `mapstructure:"temperature"`
	Presence    bool    `mapstructure:"presence"`
}

type Model struct {
	Name      string `mapstructure:"name"`
	Endpoint  string `mapstructure:"endpoint"`
	Pins      Pins   `mapstructure:"pins"`
	Wifi      Wifi   `mapstructure:"wifi"`
	Sim       Sim    `mapstructure:"sim"`
	Simulated bool   `mapstructure:"simulated"`
}

func DefaultModel() Model {
	return Model{
		Name:     "room_node",
		Endpoint: "http://localhost:8000/reading",
		Pins: Pins{
			Presence: "GPIO17",
			Fan:      "GPIO22",
			Light:    "GPIO23",
		},
		Wifi: Wifi{
			Interface: "wlan0",
			Channel:   6,
			JoinDelay: time.Second,
		},
		Sim: Sim{
			Temperature: 24,
		},
	}
}

// BuildModel loads the "model" tree over the defaults; keys absent from the
// config keep their default value.
func (m *Model) BuildModel() error {
	*m = DefaultModel()
	err := Config.UnmarshalKey("model", m)
	if err != nil {
		Logger.Error().Msgf("error unmarshaling model: %v", err)
		return fmt.Errorf("error unmarshaling model: %w", err)
	}
	if m.Endpoint == "" {
		return fmt.Errorf("model.endpoint is required")
	}
	return nil
}

func (m Model) ReportURL() string {
	return m.Endpoint
}

func (m Model) ControlURL() string {
	return strings.TrimSuffix(m.Endpoint, "/") + "/control"
}

func (m Model) StateTopic(prefix, entity string) string {
	return prefix + "/" + m.Name + "/" + entity
}

func (m Model) AvailabilityTopic(prefix string) string {
	return prefix + "/" + m.Name + "/online"
}
