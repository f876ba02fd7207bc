package hardware

import (
	"sync"

	. "github.com/elijahnyp/room_node/util"
)

// NewSimBoard builds a board with no hardware behind it, for bench runs.
func NewSimBoard(s Sim) *Board {
	return &Board{
		Thermometer: &SimThermometer{celsius: s.Temperature},
		Presence:    &SimPresence{present: s.Presence},
		Fan:         NewMemoryOutput("fan"),
		Light:       NewMemoryOutput("light"),
	}
}

type SimThermometer struct {
	err     error
	mu      sync.Mutex
	celsius float64
}

func (t *SimThermometer) Set(celsius float64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.celsius, t.err = celsius, err
}

func (t *SimThermometer) Celsius() (float64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.celsius, t.err
}

type SimPresence struct {
	mu      sync.Mutex
	present bool
}

func (p *SimPresence) Set(present bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.present = present
}

func (p *SimPresence) Present() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.present, nil
}

// MemoryOutput keeps its level in memory and counts writes.
type MemoryOutput struct {
	name   string
	mu     sync.Mutex
	writes int
	on     bool
}

func NewMemoryOutput(name string) *MemoryOutput {
	return &MemoryOutput{name: name}
}

func (o *MemoryOutput) Name() string { return o.name }

func (o *MemoryOutput) Set(on bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if on != o.on {
		Logger.Debug().Str("output", o.name).Bool("on", on).Msg("simulated output changed")
	}
	o.on = on
	o.writes++
	return nil
}

func (o *MemoryOutput) Get() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.on
}

func (o *MemoryOutput) Writes() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.writes
}
