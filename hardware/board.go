package hardware

import (
	"errors"
	"io"

	"github.com/elijahnyp/room_node/state"
)

// Board holds the handles of every device on the node. They are created once at
// startup and shared by reference with the loop.
type Board struct {
	Thermometer state.Thermometer
	Presence    state.PresenceSensor
	Fan         state.Output
	Light       state.Output
	closers     []io.Closer
}

// Close switches both outputs off and releases the buses.
func (b *Board) Close() error {
	var errs []error
	for _, o := range []state.Output{b.Fan, b.Light} {
		if o == nil {
			continue
		}
		if err := o.Set(false); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range b.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
