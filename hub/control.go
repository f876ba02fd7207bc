package hub

import "time"

// Control is the document served to nodes. CurrentTemp and Presence are only
// present when a reading exists.
type Control struct {
	CurrentTemp *float64 `json:"current_temp,omitempty"`
	Presence    *bool    `json:"presence,omitempty"`
	Fan         bool     `json:"fan"`
	Light       bool     `json:"light"`
}

// InWindow reports whether clock lies in [on, off]. A window whose off time is
// before its on time spans midnight.
func InWindow(on, off, clock time.Duration) bool {
	if on <= off {
		return on <= clock && clock <= off
	}
	return clock >= on || clock <= off
}

// Decide computes the command from the settings, the latest reading and the
// local time. The fan runs when someone is present and it is warmer than the
// target; the light runs when someone is present inside the light window.
func Decide(s Settings, r Reading, now time.Time) (Control, error) {
	c := Control{CurrentTemp: &r.Temperature, Presence: &r.Presence}

	on, err := ParseClock(s.UserLight)
	if err != nil {
		return Control{}, err
	}
	off, err := ParseClock(s.LightTimeOff)
	if err != nil {
		return Control{}, err
	}

	c.Fan = r.Presence && r.Temperature > s.UserTemp
	c.Light = r.Presence && InWindow(on, off, ClockOf(now))
	return c, nil
}
