package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/facilitatorhub/dashboard/pkg/clients/unavailabilityclient"
	"github.com/facilitatorhub/dashboard/pkg/core/model"
	"github.com/facilitatorhub/dashboard/pkg/db"
)

func strPtr(s string) *string {
	return &s
}

func newTestServer(t *testing.T, store db.UnavailabilityStore, units []model.Unit) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(Routes(NewHandler(store, units, zap.NewNop())))
	t.Cleanup(server.Close)
	return server
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	}
	return resp, payload
}

func TestList(t *testing.T) {
	store := db.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.CreateUnavailability(ctx, &model.UnavailabilityRecord{UnitID: 1, Date: "2025-03-10", IsFullDay: true}))
	require.NoError(t, store.CreateUnavailability(ctx, &model.UnavailabilityRecord{UnitID: 2, Date: "2025-03-11", IsFullDay: true}))

	server := newTestServer(t, store, nil)

	resp, payload := do(t, http.MethodGet, server.URL+"/facilitator/unavailability?unit_id=1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))

	list, ok := payload["unavailabilities"].([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "2025-03-10", list[0].(map[string]any)["date"])
}

func TestList_EmptyIsArray(t *testing.T) {
	server := newTestServer(t, db.NewMemoryStore(), nil)

	resp, payload := do(t, http.MethodGet, server.URL+"/facilitator/unavailability?unit_id=5", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{}, payload["unavailabilities"])
}

func TestList_Errors(t *testing.T) {
	units := []model.Unit{{ID: 1, Code: "CITS1001", Status: "active"}}
	server := newTestServer(t, db.NewMemoryStore(), units)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantError  string
	}{
		{"missing unit id", "", http.StatusBadRequest, "unit_id must be a positive integer"},
		{"non numeric", "?unit_id=abc", http.StatusBadRequest, "unit_id must be a positive integer"},
		{"unknown unit", "?unit_id=99", http.StatusNotFound, "unit not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, payload := do(t, http.MethodGet, server.URL+"/facilitator/unavailability"+tt.query, "")
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantError, payload["error"])
		})
	}
}

func TestCreate_SanitisesReason(t *testing.T) {
	store := db.NewMemoryStore()
	server := newTestServer(t, store, nil)

	body := `{"unit_id":1,"date":"2025-03-10","is_full_day":false,"start_time":"09:00","end_time":"12:30",
		"reason":"  <b>Dentist</b><script>alert(1)</script> "}`
	resp, payload := do(t, http.MethodPost, server.URL+"/facilitator/unavailability", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := payload["unavailability"].(map[string]any)
	assert.Equal(t, float64(1), created["id"])
	assert.Equal(t, "Dentist", created["reason"])

	stored, err := store.GetUnavailability(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Dentist", stored.Reason)
	require.NotNil(t, stored.StartTime)
	assert.Equal(t, "09:00", *stored.StartTime)
}

func TestCreate_Validation(t *testing.T) {
	units := []model.Unit{{ID: 1, Code: "CITS1001", Status: "active"}}
	server := newTestServer(t, db.NewMemoryStore(), units)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"malformed json", `{"unit_id":`, http.StatusBadRequest, "invalid JSON body"},
		{"unknown field", `{"unit_id":1,"date":"2025-03-10","is_full_day":true,"colour":"red"}`, http.StatusBadRequest, "invalid JSON body"},
		{"missing date", `{"unit_id":1,"is_full_day":true}`, http.StatusBadRequest, "date is required"},
		{"bad date", `{"unit_id":1,"date":"10/03/2025","is_full_day":true}`, http.StatusBadRequest, "date must be a date in YYYY-MM-DD format"},
		{"missing unit", `{"date":"2025-03-10","is_full_day":true}`, http.StatusBadRequest, "unit_id is required"},
		{"unknown unit", `{"unit_id":7,"date":"2025-03-10","is_full_day":true}`, http.StatusNotFound, "unit not found"},
		{"times on full day", `{"unit_id":1,"date":"2025-03-10","is_full_day":true,"start_time":"09:00","end_time":"10:00"}`,
			http.StatusBadRequest, "start_time and end_time must be omitted for full-day unavailability"},
		{"missing times", `{"unit_id":1,"date":"2025-03-10","is_full_day":false,"start_time":"09:00"}`,
			http.StatusBadRequest, "start_time and end_time are required unless is_full_day is true"},
		{"bad time", `{"unit_id":1,"date":"2025-03-10","is_full_day":false,"start_time":"9am","end_time":"10:00"}`,
			http.StatusBadRequest, "start_time must be a time in HH:MM format"},
		{"end before start", `{"unit_id":1,"date":"2025-03-10","is_full_day":false,"start_time":"11:00","end_time":"10:00"}`,
			http.StatusBadRequest, "end_time must be after start_time"},
		{"unknown pattern", `{"unit_id":1,"date":"2025-03-10","is_full_day":true,"recurring_pattern":"daily"}`,
			http.StatusBadRequest, "recurring_pattern must be one of: weekly fortnightly monthly custom"},
		{"custom without rule", `{"unit_id":1,"date":"2025-03-10","is_full_day":true,"recurring_pattern":"custom"}`,
			http.StatusBadRequest, "recurrence_rule is required for a custom recurring_pattern"},
		{"rule without custom", `{"unit_id":1,"date":"2025-03-10","is_full_day":true,"recurring_pattern":"weekly","recurrence_rule":"FREQ=DAILY"}`,
			http.StatusBadRequest, "recurrence_rule is only allowed for a custom recurring_pattern"},
		{"end date without pattern", `{"unit_id":1,"date":"2025-03-10","is_full_day":true,"recurring_end_date":"2025-04-10"}`,
			http.StatusBadRequest, "recurring_end_date and recurrence_rule require a recurring_pattern"},
		{"end date before date", `{"unit_id":1,"date":"2025-03-10","is_full_day":true,"recurring_pattern":"weekly","recurring_end_date":"2025-03-01"}`,
			http.StatusBadRequest, "recurring_end_date must not be before date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, payload := do(t, http.MethodPost, server.URL+"/facilitator/unavailability", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantError, payload["error"])
		})
	}
}

func TestCreate_InvalidCustomRule(t *testing.T) {
	server := newTestServer(t, db.NewMemoryStore(), nil)

	body := `{"unit_id":1,"date":"2025-03-10","is_full_day":true,"recurring_pattern":"custom","recurrence_rule":"NOT_A_RULE"}`
	resp, payload := do(t, http.MethodPost, server.URL+"/facilitator/unavailability", body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, payload["error"], "invalid rrule")
}

func TestCreate_SubDailyRuleRejected(t *testing.T) {
	server := newTestServer(t, db.NewMemoryStore(), nil)

	body := `{"unit_id":1,"date":"2025-03-01","is_full_day":true,"recurring_pattern":"custom","recurrence_rule":"FREQ=SECONDLY"}`
	resp, payload := do(t, http.MethodPost, server.URL+"/facilitator/unavailability", body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, payload["error"], "at most daily")
}

func TestCreate_RecurringAccepted(t *testing.T) {
	server := newTestServer(t, db.NewMemoryStore(), nil)

	body := `{"unit_id":1,"date":"2025-03-10","is_full_day":true,"recurring_pattern":"custom",
		"recurrence_rule":"FREQ=WEEKLY;BYDAY=MO,WE","recurring_end_date":"2025-06-30"}`
	resp, payload := do(t, http.MethodPost, server.URL+"/facilitator/unavailability", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := payload["unavailability"].(map[string]any)
	assert.Equal(t, "custom", created["recurring_pattern"])
	assert.Equal(t, "2025-06-30", created["recurring_end_date"])
}

func TestUpdateAndDelete(t *testing.T) {
	store := db.NewMemoryStore()
	require.NoError(t, store.CreateUnavailability(context.Background(), &model.UnavailabilityRecord{UnitID: 1, Date: "2025-03-10", IsFullDay: true}))
	server := newTestServer(t, store, nil)

	resp, payload := do(t, http.MethodPut, server.URL+"/facilitator/unavailability/1",
		`{"unit_id":1,"date":"2025-03-12","is_full_day":true,"reason":"Moved"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2025-03-12", payload["unavailability"].(map[string]any)["date"])

	resp, payload = do(t, http.MethodPut, server.URL+"/facilitator/unavailability/99",
		`{"unit_id":1,"date":"2025-03-12","is_full_day":true}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "unavailability not found", payload["error"])

	resp, payload = do(t, http.MethodPut, server.URL+"/facilitator/unavailability/abc", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "id must be a positive integer", payload["error"])

	resp, _ = do(t, http.MethodDelete, server.URL+"/facilitator/unavailability/1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, payload = do(t, http.MethodDelete, server.URL+"/facilitator/unavailability/1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "unavailability not found", payload["error"])
}

// failingStore fails every operation and reports itself unreachable
type failingStore struct {
	db.MemoryStore
	err error
}

func (f *failingStore) ListUnavailability(ctx context.Context, unitID int) ([]model.UnavailabilityRecord, error) {
	return nil, f.err
}

func (f *failingStore) Ping(ctx context.Context) error {
	return f.err
}

func TestList_StoreError(t *testing.T) {
	server := newTestServer(t, &failingStore{err: errors.New("connection refused")}, nil)

	resp, payload := do(t, http.MethodGet, server.URL+"/facilitator/unavailability?unit_id=1", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "failed to load unavailability", payload["error"])
}

func TestHealth(t *testing.T) {
	server := newTestServer(t, db.NewMemoryStore(), nil)
	resp, payload := do(t, http.MethodGet, server.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, "memory", payload["database"])

	down := newTestServer(t, &failingStore{err: errors.New("connection refused")}, nil)
	resp, payload = do(t, http.MethodGet, down.URL+"/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "disconnected", payload["database"])
	assert.Equal(t, "connection refused", payload["error"])
}

func TestRequestIDPropagated(t *testing.T) {
	server := newTestServer(t, db.NewMemoryStore(), nil)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "abc-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get(requestIDHeader))
}

func TestClientRoundTrip(t *testing.T) {
	units := []model.Unit{{ID: 1, Code: "CITS1001", Status: "active"}}
	server := newTestServer(t, db.NewMemoryStore(), units)
	client := unavailabilityclient.NewClient(server.URL, 5*time.Second)
	ctx := context.Background()

	created, err := client.Create(ctx, model.UnavailabilityRecord{
		UnitID: 1, Date: "2025-03-10", StartTime: strPtr("13:00"), EndTime: strPtr("15:00"), Reason: "Exam marking",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)

	records, err := client.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Exam marking", records[0].Reason)

	created.IsFullDay = true
	created.StartTime, created.EndTime = nil, nil
	updated, err := client.Update(ctx, created)
	require.NoError(t, err)
	assert.True(t, updated.IsFullDay)

	require.NoError(t, client.Delete(ctx, created.ID))

	_, err = client.List(ctx, 2)
	var errResp *unavailabilityclient.ErrorResponse
	require.True(t, errors.As(err, &errResp))
	assert.Equal(t, "unit not found", errResp.Message)

	records, err = client.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, records)
}
