package state

import (
	"fmt"
	"time"
)

type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connected
)

func (c ConnectionState) String() string {
	if c == Connected {
		return "connected"
	}
	return "disconnected"
}

func (c ConnectionState) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ConnectionState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "connected":
		*c = Connected
	case "disconnected":
		*c = Disconnected
	default:
		return fmt.Errorf("unknown connection state %q", text)
	}
	return nil
}

// SensorReading is the wire body of the report PUT.
type SensorReading struct {
	Temperature float64 `json:"temperature"`
	Presence    bool    `json:"presence"`
}

type ControlCommand struct {
	Fan   bool `json:"fan"`
	Light bool `json:"light"`
}

// NodeState is threaded through every cycle. Reading and Command hold the current
// values only and are overwritten each cycle.
type NodeState struct {
	LastCycle  time.Time       `json:"last_cycle"`
	Connection ConnectionState `json:"connection"`
	Reading    SensorReading   `json:"reading"`
	Command    ControlCommand  `json:"command"`
	Cycles     uint64          `json:"cycles"`
	Reported   bool            `json:"reported"`
	Applied    bool            `json:"applied"`
}
