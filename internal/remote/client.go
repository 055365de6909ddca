// Package remote talks to the mapsync trip-creation service.
// It only reports what happened; deciding whether to fall back to a locally
// generated trip is the caller's job.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tripsync/backend/internal/domain"
)

// DefaultURL is the public mapsync trip-creation endpoint.
const DefaultURL = "https://mapsync.onrender.com/newtrip"

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// statusSuccess is the only status value that counts as success.
const statusSuccess = "success"

// Client posts new trips to the remote service.
// The zero value and a nil *Client are both usable and always report
// domain.ErrRemoteDisabled.
type Client struct {
	url  string
	http *http.Client
}

// NewClient returns a Client for the endpoint at url. Each call is bounded by
// timeout in addition to the caller's context. An empty url disables the client.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether the client has an endpoint to call.
func (c *Client) Enabled() bool {
	return c != nil && c.url != ""
}

type createTripRequest struct {
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	Stops       []string `json:"stops"`
}

type createTripResponse struct {
	Status    string `json:"status"`
	ShareLink string `json:"shareLink"`
	Message   string `json:"message"`
}

// CreateTrip asks the remote service to create a trip. Transport errors,
// non-2xx statuses, undecodable bodies and explicit failure payloads all
// come back as domain.RemoteFailure with the reason attached. There is no retry.
func (c *Client) CreateTrip(ctx context.Context, origin, destination string, stops []string) domain.RemoteResult {
	if !c.Enabled() {
		return domain.RemoteFailure(domain.ErrRemoteDisabled)
	}
	if stops == nil {
		stops = []string{}
	}

	payload, err := json.Marshal(createTripRequest{Origin: origin, Destination: destination, Stops: stops})
	if err != nil {
		return domain.RemoteFailure(fmt.Errorf("remote.Client.CreateTrip: encode: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return domain.RemoteFailure(fmt.Errorf("remote.Client.CreateTrip: build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.RemoteFailure(fmt.Errorf("remote.Client.CreateTrip: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.RemoteFailure(fmt.Errorf("remote.Client.CreateTrip: read body: %w", err))
	}

	var out createTripResponse
	decodeErr := json.Unmarshal(body, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(out.Message)
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return domain.RemoteFailure(fmt.Errorf("remote.Client.CreateTrip: status %d: %s", resp.StatusCode, msg))
	}
	if decodeErr != nil {
		return domain.RemoteFailure(fmt.Errorf("remote.Client.CreateTrip: decode: %w", decodeErr))
	}
	if out.Status != statusSuccess {
		msg := strings.TrimSpace(out.Message)
		if msg == "" {
			msg = "failed to create trip"
		}
		return domain.RemoteFailure(fmt.Errorf("remote.Client.CreateTrip: %s", msg))
	}

	link := strings.TrimSpace(out.ShareLink)
	if link == "" {
		return domain.RemoteFailure(errors.New("remote.Client.CreateTrip: success response without shareLink"))
	}
	return domain.RemoteSuccess(link)
}
