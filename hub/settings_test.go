package hub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSun struct {
	err    error
	sunset time.Time
	calls  int
}

func (f *fakeSun) Sunset(ctx context.Context) (time.Time, error) {
	f.calls++
	return f.sunset, f.err
}

func mustLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Jamaica")
	require.NoError(t, err)
	return loc
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in       string
		expected time.Duration
		wantErr  bool
	}{
		{"18:30", 18*time.Hour + 30*time.Minute, false},
		{"18:30:15", 18*time.Hour + 30*time.Minute + 15*time.Second, false},
		{"00:00", 0, false},
		{" 07:05 ", 7*time.Hour + 5*time.Minute, false},
		{"24:00", 0, true},
		{"6pm", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidClock)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "18:30:00", FormatClock(18*time.Hour+30*time.Minute))
	assert.Equal(t, "01:15:00", FormatClock(25*time.Hour+15*time.Minute))
	assert.Equal(t, "23:00:00", FormatClock(-time.Hour))
	assert.Equal(t, "00:00:09", FormatClock(9*time.Second+400*time.Millisecond))
}

func TestParseLightDuration(t *testing.T) {
	d, err := ParseLightDuration("1h30m")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)

	for _, bad := range []string{"", "0s", "-1h", "forever", "2"} {
		_, err := ParseLightDuration(bad)
		assert.ErrorIs(t, err, ErrInvalidDuration, bad)
	}
}

func TestResolve_Clock(t *testing.T) {
	sun := &fakeSun{}
	s, err := Resolve(context.Background(), Settings{UserTemp: 28, UserLight: "18:00", LightDuration: "4h"}, sun, mustLoc(t))
	require.NoError(t, err)

	assert.Equal(t, "18:00:00", s.UserLight)
	assert.Equal(t, "22:00:00", s.LightTimeOff)
	assert.Equal(t, 28.0, s.UserTemp)
	assert.Zero(t, sun.calls, "clock input should not hit the sunset api")
}

func TestResolve_WrapsPastMidnight(t *testing.T) {
	s, err := Resolve(context.Background(), Settings{UserLight: "22:30:00", LightDuration: "3h"}, nil, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "01:30:00", s.LightTimeOff)
}

func TestResolve_Sunset(t *testing.T) {
	// 23:45 UTC is 18:45 in Kingston (UTC-5, no DST)
	sun := &fakeSun{sunset: time.Date(2024, 3, 1, 23, 45, 12, 0, time.UTC)}

	s, err := Resolve(context.Background(), Settings{UserLight: "Sunset", LightDuration: "1h"}, sun, mustLoc(t))
	require.NoError(t, err)

	assert.Equal(t, 1, sun.calls)
	assert.Equal(t, "18:45:12", s.UserLight)
	assert.Equal(t, "19:45:12", s.LightTimeOff)
}

func TestResolve_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Resolve(ctx, Settings{UserLight: "dusk", LightDuration: "1h"}, nil, time.UTC)
	assert.ErrorIs(t, err, ErrInvalidClock)

	_, err = Resolve(ctx, Settings{UserLight: "18:00", LightDuration: "soon"}, nil, time.UTC)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = Resolve(ctx, Settings{UserLight: "sunset", LightDuration: "1h"}, &fakeSun{err: errors.New("api down")}, time.UTC)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidClock)

	_, err = Resolve(ctx, Settings{UserLight: "sunset", LightDuration: "1h"}, nil, time.UTC)
	assert.Error(t, err)
}
