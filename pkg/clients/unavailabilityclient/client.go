package unavailabilityclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/facilitatorhub/dashboard/pkg/core/model"
)

const basePath = "/facilitator/unavailability"

// ErrorResponse is an {"error": "..."} payload or a non-2xx status from the backend
type ErrorResponse struct {
	StatusCode int
	Message    string
}

func (e *ErrorResponse) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend error (status %d): %s", e.StatusCode, e.Message)
}

type listResponse struct {
	Unavailabilities []model.UnavailabilityRecord `json:"unavailabilities"`
	Error            *string                      `json:"error,omitempty"`
}

type recordResponse struct {
	Unavailability *model.UnavailabilityRecord `json:"unavailability"`
	Error          *string                     `json:"error,omitempty"`
}

// Client talks to the facilitator unavailability endpoints
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the backend at baseURL. Each request is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// List fetches the unavailability records of a unit
func (c *Client) List(ctx context.Context, unitID int) ([]model.UnavailabilityRecord, error) {
	query := url.Values{"unit_id": {strconv.Itoa(unitID)}}

	var resp listResponse
	if err := c.do(ctx, http.MethodGet, basePath+"?"+query.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, &ErrorResponse{StatusCode: http.StatusOK, Message: *resp.Error}
	}
	if resp.Unavailabilities == nil {
		return []model.UnavailabilityRecord{}, nil
	}

	return resp.Unavailabilities, nil
}

// Create submits a new record and returns it as stored
func (c *Client) Create(ctx context.Context, record model.UnavailabilityRecord) (model.UnavailabilityRecord, error) {
	return c.write(ctx, http.MethodPost, basePath, record)
}

// Update replaces the record with record.ID
func (c *Client) Update(ctx context.Context, record model.UnavailabilityRecord) (model.UnavailabilityRecord, error) {
	return c.write(ctx, http.MethodPut, basePath+"/"+strconv.Itoa(record.ID), record)
}

func (c *Client) Delete(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, basePath+"/"+strconv.Itoa(id), nil, nil)
}

func (c *Client) write(ctx context.Context, method, path string, record model.UnavailabilityRecord) (model.UnavailabilityRecord, error) {
	var resp recordResponse
	if err := c.do(ctx, method, path, record, &resp); err != nil {
		return model.UnavailabilityRecord{}, err
	}
	if resp.Error != nil {
		return model.UnavailabilityRecord{}, &ErrorResponse{StatusCode: http.StatusOK, Message: *resp.Error}
	}
	if resp.Unavailability == nil {
		return model.UnavailabilityRecord{}, fmt.Errorf("response did not include the unavailability record")
	}
	return *resp.Unavailability, nil
}

// do sends a JSON request and decodes the response into out when out is non-nil
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromBody(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func errorFromBody(status int, data []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return &ErrorResponse{StatusCode: status, Message: payload.Error}
	}
	return &ErrorResponse{StatusCode: status, Message: strings.TrimSpace(string(data))}
}
