// Package provider handles interactions with the external conferencing provider
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/navikt/huddle/internal/config"
)

// MeetingFeatures selects optional provider-side meeting features
type MeetingFeatures struct {
	EchoReduction bool `json:"echo_reduction"`
}

// CreateMeetingRequest is the payload for creating a provider meeting
type CreateMeetingRequest struct {
	ClientRequestToken string          `json:"client_request_token"`
	MediaRegion        string          `json:"media_region"`
	Features           MeetingFeatures `json:"features"`
}

// Meeting is a provider meeting descriptor. Raw carries the full provider
// payload untouched; only the id is interpreted locally.
type Meeting struct {
	ID  string          `json:"meeting_id"`
	Raw json.RawMessage `json:"-"`
}

// Attendee is a provider attendee descriptor, opaque beyond its ids.
type Attendee struct {
	ID             string `json:"attendee_id"`
	ExternalUserID string `json:"external_user_id"`
	JoinToken      string          `json:"join_token"`
	Raw            json.RawMessage `json:"-"`
}

// Gateway abstracts the provider operations the session workflow needs.
// Implementations keep no local state and never retry internally.
type Gateway interface {
	CreateMeeting(ctx context.Context, req CreateMeetingRequest) (*Meeting, error)
	CreateAttendee(ctx context.Context, meetingID, externalUserID string) (*Attendee, error)
	DeleteMeeting(ctx context.Context, meetingID string) error
}

// APIClient handles interactions with the conferencing provider API
type APIClient struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
}

// NewAPIClient creates a new provider API client
func NewAPIClient(cfg config.ProviderConfig) *APIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &APIClient{
		accessToken: cfg.AccessToken,
		baseURL:     cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateMeeting creates a new meeting at the provider
func (c *APIClient) CreateMeeting(ctx context.Context, req CreateMeetingRequest) (*Meeting, error) {
	body, status, err := c.do(ctx, http.MethodPost, "/meetings", req)
	if err != nil {
		return nil, err
	}
	if err := classify(status, body); err != nil {
		return nil, err
	}

	var meeting Meeting
	if err := json.Unmarshal(body, &meeting); err != nil {
		return nil, fmt.Errorf("failed to parse meeting response: %w", err)
	}
	if meeting.ID == "" {
		return nil, fmt.Errorf("provider response missing meeting id: %w", ErrBadRequest)
	}
	meeting.Raw = body

	return &meeting, nil
}

// CreateAttendee admits a new attendee to an existing provider meeting
func (c *APIClient) CreateAttendee(ctx context.Context, meetingID, externalUserID string) (*Attendee, error) {
	path := fmt.Sprintf("/meetings/%s/attendees", meetingID)
	payload := struct {
		ExternalUserID string `json:"external_user_id"`
	}{ExternalUserID: externalUserID}

	body, status, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	if err := classify(status, body); err != nil {
		return nil, err
	}

	var attendee Attendee
	if err := json.Unmarshal(body, &attendee); err != nil {
		return nil, fmt.Errorf("failed to parse attendee response: %w", err)
	}
	attendee.Raw = body

	return &attendee, nil
}

// DeleteMeeting deletes a provider meeting. Deleting a meeting that is
// already gone returns ErrMeetingNotFound; callers treat that as success.
func (c *APIClient) DeleteMeeting(ctx context.Context, meetingID string) error {
	path := fmt.Sprintf("/meetings/%s", meetingID)
	body, status, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return classify(status, body)
}

// do performs a single provider API call and returns the raw response body
// and status code. Transport failures, including timeouts, surface as
// ErrUnavailable.
func (c *APIClient) do(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to read response body: %v", ErrUnavailable, err)
	}

	return body, resp.StatusCode, nil
}

// classify maps a provider HTTP status to the error taxonomy
func classify(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return fmt.Errorf("%w (status %d)", ErrMeetingNotFound, status)
	case status >= 400 && status < 500:
		return fmt.Errorf("%w (status %d): %s", ErrBadRequest, status, body)
	default:
		return fmt.Errorf("%w (status %d): %s", ErrUnavailable, status, body)
	}
}
