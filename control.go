package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/elijahnyp/room_node/state"
	. "github.com/elijahnyp/room_node/util"
)

var ErrMalformedControl = errors.New("malformed control document")

// ParseControl decodes a control document. Only a body that is not valid JSON
// is rejected. Any other document yields a command: booleans are taken as is,
// numbers are on when non-zero, and everything else (missing, null, strings,
// arrays, objects, or a top level that is not an object) reads as off.
func ParseControl(body []byte) (state.ControlCommand, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return state.ControlCommand{}, fmt.Errorf("%w: %v", ErrMalformedControl, err)
	}
	fields, _ := doc.(map[string]any)
	return state.ControlCommand{
		Fan:   truthy(fields["fan"]),
		Light: truthy(fields["light"]),
	}, nil
}

func truthy(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	default:
		return false
	}
}

// ControlFetcher polls the hub for the fan and light commands and drives the
// outputs. Outputs are only written after a document parsed cleanly.
type ControlFetcher struct {
	Client *http.Client
	Fan    state.Output
	Light  state.Output
	URL    string
}

// Fetch GETs the control document. Any response is parsed regardless of its
// status code; a transport error skips parsing.
func (f *ControlFetcher) Fetch(ctx context.Context) (state.ControlCommand, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return state.ControlCommand{}, fmt.Errorf("build control request: %w", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		Logger.Warn().Err(err).Msg("error on HTTP request")
		return state.ControlCommand{}, fmt.Errorf("fetch control: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			Logger.Debug().Err(err).Msg("closing control response")
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return state.ControlCommand{}, fmt.Errorf("read control: %w", err)
	}
	Logger.Info().Int("status", resp.StatusCode).Str("response", string(body)).Msg("control received")

	cmd, err := ParseControl(body)
	if err != nil {
		Logger.Warn().Err(err).Msg("JSON parse failed, outputs unchanged")
		return state.ControlCommand{}, err
	}
	return cmd, nil
}

func (f *ControlFetcher) Apply(cmd state.ControlCommand) error {
	var errs []error
	if err := f.Fan.Set(cmd.Fan); err != nil {
		errs = append(errs, err)
	}
	if err := f.Light.Set(cmd.Light); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Update fetches the command and applies it.
func (f *ControlFetcher) Update(ctx context.Context) (state.ControlCommand, error) {
	cmd, err := f.Fetch(ctx)
	if err != nil {
		return cmd, err
	}
	if err := f.Apply(cmd); err != nil {
		Logger.Error().Err(err).Msg("driving outputs")
		return cmd, err
	}
	Logger.Debug().Bool("fan", cmd.Fan).Bool("light", cmd.Light).Msg("outputs applied")
	return cmd, nil
}
