package hub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidClock    = errors.New("invalid clock time")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrNotFound        = errors.New("not found")
)

const day = 24 * time.Hour

// Settings is the singleton user configuration. UserLight is stored resolved
// ("HH:MM:SS"), never as "sunset".
type Settings struct {
	ID            string  `json:"_id"`
	UserLight     string  `json:"user_light"`
	LightDuration string  `json:"light_duration"`
	LightTimeOff  string  `json:"light_time_off"`
	UserTemp      float64 `json:"user_temp"`
}

// ParseClock returns the offset from midnight of "HH:MM" or "HH:MM:SS".
func ParseClock(s string) (time.Duration, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
}

// FormatClock renders an offset from midnight as "HH:MM:SS", wrapping at 24h.
func FormatClock(d time.Duration) string {
	d %= day
	if d < 0 {
		d += day
	}
	d = d.Truncate(time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute), int(d%time.Minute/time.Second))
}

// ClockOf is the offset of t from its own midnight.
func ClockOf(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}

// ParseLightDuration accepts Go durations such as "1h30m" or "45m".
func ParseLightDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	return d, nil
}

// SunsetSource looks up today's sunset.
type SunsetSource interface {
	Sunset(ctx context.Context) (time.Time, error)
}

// Resolve turns user input into stored settings: "sunset" becomes a clock time
// in loc, and the off time is computed from the duration.
func Resolve(ctx context.Context, s Settings, sun SunsetSource, loc *time.Location) (Settings, error) {
	var on time.Duration
	if strings.EqualFold(strings.TrimSpace(s.UserLight), "sunset") {
		if sun == nil {
			return s, fmt.Errorf("sunset lookup not configured")
		}
		t, err := sun.Sunset(ctx)
		if err != nil {
			return s, fmt.Errorf("sunset lookup: %w", err)
		}
		on = ClockOf(t.In(loc))
	} else {
		var err error
		if on, err = ParseClock(s.UserLight); err != nil {
			return s, err
		}
	}

	dur, err := ParseLightDuration(s.LightDuration)
	if err != nil {
		return s, err
	}

	s.UserLight = FormatClock(on)
	s.LightTimeOff = FormatClock(on + dur)
	return s, nil
}
