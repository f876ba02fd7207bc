package state

import "context"

// Thermometer reads the temperature of the first device on the bus.
type Thermometer interface {
	Celsius() (float64, error)
}

type PresenceSensor interface {
	Present() (bool, error)
}

// Output is a boolean-driven digital output such as a relay.
type Output interface {
	Name() string
	Set(on bool) error
	Get() bool
}

// Radio is the network link the node reports over. Begin starts association and
// returns without waiting for it to finish; Status is polled afterwards.
type Radio interface {
	Begin(ctx context.Context) error
	Status() ConnectionState
	Address() string
}

// DisconnectedCelsius is reported when the thermometer cannot be read.
const DisconnectedCelsius = -127.0
