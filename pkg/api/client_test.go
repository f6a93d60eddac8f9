package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/staffmonitr-go/pkg/models"
)

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]any
}

func newTestServer(t *testing.T, status int, reply string) (*Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.auth = r.Header.Get("Authorization")
		rec.body = nil
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL + "/api"), rec
}

func TestClient_BearerToken(t *testing.T) {
	c, rec := newTestServer(t, http.StatusOK, `{"staff":{"id":"s1","role":"Staff","email":"a@b.co"},"accounts":[]}`)

	_, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rec.auth)

	c.SetToken("tok")
	_, err = c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", rec.auth)
	assert.Equal(t, "/api/auth/me", rec.path)

	c.SetToken("")
	_, err = c.Me(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rec.auth)
}

func TestClient_ErrorMessage(t *testing.T) {
	c, _ := newTestServer(t, http.StatusUnauthorized, `{"error":"Invalid credentials"}`)

	_, err := c.Login(context.Background(), "a@b.co", "nope")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.True(t, apiErr.Unauthorized())
	assert.Equal(t, "Invalid credentials", Message(err, "Unable to sign in."))
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
}

func TestClient_ErrorWithoutBody(t *testing.T) {
	c, _ := newTestServer(t, http.StatusInternalServerError, `oops`)

	err := c.UpdateShift(context.Background(), models.ShiftDraft{ID: "s1", RatioMin: models.Int(2)})
	require.Error(t, err)
	assert.Equal(t, "Unable to sign in.", Message(err, "Unable to sign in."))
	assert.Equal(t, "fallback", Message(errors.New("dial tcp"), "fallback"))
	assert.Zero(t, StatusCode(errors.New("dial tcp")))
}

func TestClient_MalformedResponse(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not json", `<html>`},
		{"wrong shape", `{"id":"s1"}`},
		{"missing id", `[{"site":"North"}]`},
		{"bad difficulty", `[{"id":"s1","assignments":[{"id":"a1","difficulty":9}]}]`},
		{"bad role", `[{"id":"s1","role":"Janitor"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestServer(t, http.StatusOK, tt.reply)
			shifts, err := c.ListShifts(context.Background(), "acc-1", "")
			require.Error(t, err)
			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, "/shifts", decodeErr.Path)
			assert.Empty(t, shifts)
		})
	}
}

func TestClient_ListShifts(t *testing.T) {
	reply := `[{
		"id":"s1","account_group_id":"acc-1","site":"North",
		"start_time":"2024-05-01T08:00:00","end_time":"2024-05-01T16:00:00",
		"ratio_min":2,"leadsRequired":1,"difficulty":"standard","role":"Lead",
		"is_special":false,"openShift":true,"pendingAssignmentId":"a2",
		"assignments":[
			{"id":"a1","shift_id":"s1","staff_id":"st1","title":"Kid assignment","difficulty":3,"kids":[{"id":"k1","name":"Ava","ratio":"1:1","requiresOneOnOne":true}],"kidsCount":1,"staff_role":"Lead","requiresOneOnOne":false},
			{"id":"a2","shift_id":"s1","staff_id":null,"title":"Open slot","difficulty":2,"kids":[],"requiresOneOnOne":false}
		],
		"kids":[],"durationHours":8
	}]`
	c, rec := newTestServer(t, http.StatusOK, reply)

	shifts, err := c.ListShifts(context.Background(), "acc-1", models.RoleLead)
	require.NoError(t, err)
	assert.Equal(t, "account_id=acc-1&expand=assignments%2Ckids&role=Lead", rec.query)

	require.Len(t, shifts, 1)
	sh := shifts[0]
	assert.Equal(t, 2, sh.MinimumRatio())
	assert.True(t, sh.RatioMet())
	assert.True(t, sh.IsOpen())
	assert.Equal(t, "a2", sh.PendingAssignmentID)
	assert.Equal(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), sh.StartTime.Time)
	assert.False(t, sh.Assignments[1].Filled())
	assert.Equal(t, "Ava", sh.Assignments[0].Kids[0].Name)
}

func TestClient_UpdateShiftSendsOnlySetFields(t *testing.T) {
	c, rec := newTestServer(t, http.StatusOK, `{"message":"Shift updated"}`)

	err := c.UpdateShift(context.Background(), models.ShiftDraft{ID: "s 1", RatioMin: models.Int(3)})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, rec.method)
	assert.Equal(t, "/api/shifts/s 1", rec.path)
	assert.Equal(t, map[string]any{"ratio_min": float64(3)}, rec.body)
}

func TestClient_RequestOpenShift(t *testing.T) {
	c, rec := newTestServer(t, http.StatusOK, `{"message":"Request received","assignment_id":"a2"}`)

	receipt, err := c.RequestOpenShift(context.Background(), "a2", "st9")
	require.NoError(t, err)
	assert.Equal(t, "/api/assignments/a2/request", rec.path)
	assert.Equal(t, map[string]any{"staff_id": "st9"}, rec.body)
	assert.Equal(t, "a2", receipt.AssignmentID)

	_, err = c.RequestOpenShift(context.Background(), "a2", "")
	require.NoError(t, err)
	assert.Empty(t, rec.body["staff_id"])
}

func TestClient_ValidateGeofence(t *testing.T) {
	c, rec := newTestServer(t, http.StatusOK, `{"allowed":true}`)

	ok, err := c.ValidateGeofence(context.Background(), "a1", 34.0522, -118.2437)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "lat=34.0522&lon=-118.2437", rec.query)
}

func TestClient_CreateShift(t *testing.T) {
	c, rec := newTestServer(t, http.StatusCreated, `{"id":"sh-9"}`)
	start := time.Date(2030, 6, 1, 9, 0, 0, 0, time.UTC)

	id, err := c.CreateShift(context.Background(), models.NewShift{
		AccountGroupID: "acc-1",
		Site:           "Pool Deck",
		StartTime:      models.NewTimestamp(start),
		EndTime:        models.NewTimestamp(start.Add(6 * time.Hour)),
		RatioMin:       models.Int(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "sh-9", id)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/shifts", rec.path)
	assert.Equal(t, "2030-06-01T09:00:00", rec.body["start_time"])
	assert.Equal(t, "2030-06-01T15:00:00", rec.body["end_time"])
	assert.Equal(t, float64(2), rec.body["ratio_min"])
	assert.NotContains(t, rec.body, "leads_required")
}

func TestClient_CreateKid(t *testing.T) {
	c, rec := newTestServer(t, http.StatusCreated, `{"id":"k9","name":"Ola","ratio":"2:1","requiresOneOnOne":false}`)

	kid, err := c.CreateKid(context.Background(), "acc-1", models.NewKid{Name: "Ola", Ratio: "2:1"})
	require.NoError(t, err)
	assert.Equal(t, "/api/accounts/acc-1/kids", rec.path)
	assert.Equal(t, "Ola", rec.body["name"])
	assert.Equal(t, "k9", kid.ID)

	c, _ = newTestServer(t, http.StatusCreated, `{"name":"Ola"}`)
	_, err = c.CreateKid(context.Background(), "acc-1", models.NewKid{Name: "Ola"})
	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestClient_Notifications(t *testing.T) {
	c, rec := newTestServer(t, http.StatusCreated, `{"message":"Push token recorded"}`)

	require.NoError(t, c.RegisterPushToken(context.Background(), "st1", "tok-1"))
	assert.Equal(t, "/api/notifications/register", rec.path)
	assert.Equal(t, map[string]any{"staff_id": "st1", "token": "tok-1"}, rec.body)

	require.NoError(t, c.SendAssignmentAlert(context.Background(), "a1"))
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/notifications/assignment/a1", rec.path)
}

func TestClient_ListAccountStaff(t *testing.T) {
	c, rec := newTestServer(t, http.StatusOK, `{"staff":[{"id":"st1","full_name":"Lee","role":"Lead","email":"lee@example.com"}]}`)

	staff, err := c.ListAccountStaff(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "/api/accounts/acc-1/staff", rec.path)
	require.Len(t, staff, 1)
	assert.Equal(t, models.RoleLead, staff[0].Role)
}

func TestClient_ListAccountStaffRejectsInvalidMembers(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"missing id", `{"staff":[{"full_name":"Lee","role":"Lead"}]}`},
		{"bad role", `{"staff":[{"id":"st1","role":"Janitor"}]}`},
		{"bad email", `{"staff":[{"id":"st1","role":"Lead","email":"not-an-email"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestServer(t, http.StatusOK, tt.reply)
			staff, err := c.ListAccountStaff(context.Background(), "acc-1")
			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, "/accounts/acc-1/staff", decodeErr.Path)
			assert.Empty(t, staff)
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(srv.URL, WithTimeout(20*time.Millisecond))
	err := c.SendAssignmentAlert(context.Background(), "a1")
	require.Error(t, err)
	assert.Zero(t, StatusCode(err))
}

func TestNew_Defaults(t *testing.T) {
	c := New("")
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, DefaultTimeout, c.http.Timeout)

	c = New("http://example.com/api/")
	assert.Equal(t, "http://example.com/api", c.BaseURL())
}

func TestWithHTTPClient_KeepsTimeout(t *testing.T) {
	c := New("", WithTimeout(3*time.Second), WithHTTPClient(&http.Client{}))
	assert.Equal(t, 3*time.Second, c.Timeout())

	c = New("", WithHTTPClient(&http.Client{}))
	assert.Equal(t, DefaultTimeout, c.Timeout())

	own := &http.Client{Timeout: time.Second}
	c = New("", WithTimeout(3*time.Second), WithHTTPClient(own))
	assert.Equal(t, time.Second, c.Timeout())

	c = New("", WithHTTPClient(own), WithTimeout(5*time.Second))
	assert.Equal(t, 5*time.Second, c.Timeout())
	assert.Equal(t, time.Second, own.Timeout)
}
