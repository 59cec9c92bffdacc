package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"book-catalogue/internal/core/model"
)

// MaxPayloadBytes bounds the catalogue document read from the source.
const MaxPayloadBytes = 32 << 20

// RemoteSource fetches the catalogue JSON with a single GET. It does not
// retry; every failure is reported as model.ErrTransport.
type RemoteSource struct {
	URL    string
	Client *http.Client
	Now    func() time.Time
}

func NewRemoteSource(rawURL string, httpClient *http.Client) *RemoteSource {
	if rawURL == "" {
		rawURL = model.DefaultSourceURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RemoteSource{URL: rawURL, Client: httpClient, Now: time.Now}
}

func (s *RemoteSource) Fetch(ctx context.Context) (any, error) {
	u, err := s.bustedURL()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrTransport, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: HTTP error %d: %s", model.ErrTransport, resp.StatusCode, string(b))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxPayloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read payload: %w", model.ErrTransport, err)
	}
	if len(body) > MaxPayloadBytes {
		return nil, fmt.Errorf("%w: payload exceeds %d bytes", model.ErrTransport, MaxPayloadBytes)
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %w", model.ErrTransport, err)
	}
	return payload, nil
}

// bustedURL appends a volatile t=<epoch millis> parameter so intermediate
// caches cannot serve a stale document.
func (s *RemoteSource) bustedURL() (string, error) {
	u, err := url.Parse(s.URL)
	if err != nil {
		return "", err
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
