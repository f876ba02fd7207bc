package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elijahnyp/room_node/state"
	. "github.com/elijahnyp/room_node/util"
)

// responses are logged, not processed; cap what we read of them
const maxBody = 64 << 10

// Reporter PUTs each reading to the hub. There is no retry: a failed report is
// logged and the next cycle sends a fresh one.
type Reporter struct {
	Client   *http.Client
	Endpoint string
}

func (r *Reporter) Report(ctx context.Context, reading state.SensorReading) error {
	body, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("encode reading: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, r.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	Logger.Info().RawJSON("body", body).Str("endpoint", r.Endpoint).Msg("reporting")
	resp, err := r.Client.Do(req)
	if err != nil {
		Logger.Warn().Err(err).Msg("error on sending PUT")
		return fmt.Errorf("report: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			Logger.Debug().Err(err).Msg("closing report response")
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		Logger.Warn().Err(err).Msg("reading report response")
	}
	Logger.Info().Int("status", resp.StatusCode).Str("response", string(data)).Msg("report sent")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("report: unexpected status %d", resp.StatusCode)
	}
	return nil
}
