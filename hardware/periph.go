package hardware

import (
	"fmt"
	"sync"

	"github.com/elijahnyp/room_node/state"
	. "github.com/elijahnyp/room_node/util"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/onewire"
	"periph.io/x/conn/v3/onewire/onewirereg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ds18b20"
	"periph.io/x/host/v3"
)

// Open initialises the host drivers and claims the pins named in p.
// A missing one-wire bus is not fatal: the thermometer then reads as disconnected.
func Open(p Pins) (*Board, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}

	b := &Board{}

	presence, err := openPin(p.Presence)
	if err != nil {
		return nil, err
	}
	if b.Presence, err = NewPinInput(presence); err != nil {
		return nil, err
	}

	fan, err := openPin(p.Fan)
	if err != nil {
		return nil, err
	}
	if b.Fan, err = NewPinOutput("fan", fan, p.ActiveLow); err != nil {
		return nil, err
	}

	light, err := openPin(p.Light)
	if err != nil {
		return nil, err
	}
	if b.Light, err = NewPinOutput("light", light, p.ActiveLow); err != nil {
		return nil, err
	}

	bus, err := onewirereg.Open(p.OneWire)
	if err != nil {
		Logger.Warn().Err(err).Str("bus", p.OneWire).Msg("one-wire bus unavailable, temperature will read as disconnected")
		b.Thermometer = NewBusThermometer(nil)
		return b, nil
	}
	b.closers = append(b.closers, bus)
	b.Thermometer = NewBusThermometer(bus)
	return b, nil
}

func openPin(name string) (gpio.PinIO, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("gpio %q not found", name)
	}
	return pin, nil
}

// PinInput reads a PIR style sensor: High means presence.
type PinInput struct {
	pin gpio.PinIn
}

func NewPinInput(pin gpio.PinIn) (*PinInput, error) {
	if err := pin.In(gpio.PullDown, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("%s as input: %w", pin, err)
	}
	return &PinInput{pin: pin}, nil
}

func (i *PinInput) Present() (bool, error) {
	return i.pin.Read() == gpio.High, nil
}

// PinOutput drives a relay. With activeLow the electrical level is inverted so
// Set(true) always means "on".
type PinOutput struct {
	pin       gpio.PinOut
	name      string
	mu        sync.Mutex
	activeLow bool
	on        bool
}

// NewPinOutput claims pin as an output and drives it off.
func NewPinOutput(name string, pin gpio.PinOut, activeLow bool) (*PinOutput, error) {
	o := &PinOutput{pin: pin, name: name, activeLow: activeLow}
	if err := o.Set(false); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *PinOutput) Name() string { return o.name }

func (o *PinOutput) Set(on bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	level := gpio.Level(on != o.activeLow)
	if err := o.pin.Out(level); err != nil {
		return fmt.Errorf("%s output: %w", o.name, err)
	}
	o.on = on
	return nil
}

func (o *PinOutput) Get() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.on
}

// BusThermometer reads the DS18B20 at index 0 of the one-wire search. The device
// is looked up again after a failure so a probe plugged in later is picked up.
type BusThermometer struct {
	bus onewire.Bus
	dev *ds18b20.Dev
	mu  sync.Mutex
}

func NewBusThermometer(bus onewire.Bus) *BusThermometer {
	return &BusThermometer{bus: bus}
}

func (t *BusThermometer) Celsius() (float64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bus == nil {
		return state.DisconnectedCelsius, fmt.Errorf("no one-wire bus")
	}
	if t.dev == nil {
		addrs, err := t.bus.Search(false)
		if err != nil {
			return state.DisconnectedCelsius, fmt.Errorf("one-wire search: %w", err)
		}
		if len(addrs) == 0 {
			return state.DisconnectedCelsius, fmt.Errorf("no device on one-wire bus")
		}
		dev, err := ds18b20.New(t.bus, addrs[0], 12)
		if err != nil {
			return state.DisconnectedCelsius, fmt.Errorf("ds18b20 at %#x: %w", uint64(addrs[0]), err)
		}
		t.dev = dev
	}

	var env physic.Env
	if err := t.dev.Sense(&env); err != nil {
		t.dev = nil
		return state.DisconnectedCelsius, fmt.Errorf("ds18b20 sense: %w", err)
	}
	return env.Temperature.Celsius(), nil
}
