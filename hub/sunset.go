package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// SunClient queries a sunrise-sunset.org compatible API.
type SunClient struct {
	Client    *http.Client
	URL       string
	Latitude  float64
	Longitude float64
}

type sunResponse struct {
	Status  string `json:"status"`
	Results struct {
		Sunrise string `json:"sunrise"`
		Sunset  string `json:"sunset"`
	} `json:"results"`
}

func (c *SunClient) Sunset(ctx context.Context) (time.Time, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(c.Latitude, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(c.Longitude, 'f', -1, 64))
	q.Set("formatted", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL+"?"+q.Encode(), nil)
	if err != nil {
		return time.Time{}, err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return time.Time{}, err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024)) //nolint:errcheck // best effort for the message
		return time.Time{}, fmt.Errorf("sunset api status %d: %s", resp.StatusCode, body)
	}

	var sr sunResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return time.Time{}, fmt.Errorf("decode sunset response: %w", err)
	}
	if sr.Status != "" && sr.Status != "OK" {
		return time.Time{}, fmt.Errorf("sunset api status %s", sr.Status)
	}
	t, err := time.Parse(time.RFC3339, sr.Results.Sunset)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse sunset %q: %w", sr.Results.Sunset, err)
	}
	return t, nil
}
