package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/koscakluka/ema-live/core/crm"
	"github.com/koscakluka/ema-live/core/crm/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewRouter(crm.NewService(store.NewMemory()))
}

func do(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), "body: %s", rec.Body.String())
	return rec, decoded
}

func createLead(t *testing.T, router http.Handler) string {
	t.Helper()
	rec, body := do(t, router, http.MethodPost, "/crm/leads", `{"name":"Ana","phone":"+385911234567","city":"Zagreb","source":"web"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	return body["lead_id"].(string)
}

func TestStart_NilService(t *testing.T) {
	err := Start(context.Background(), StartOpts{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service is required")
}

func TestCreateLead(t *testing.T) {
	router := newTestRouter(t)

	rec, body := do(t, router, http.MethodPost, "/crm/leads", `{"name":"Ana","phone":"1","city":"Zagreb"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "NEW", body["status"])
	assert.Len(t, body["lead_id"], 36)
}

func TestCreateLead_MissingField(t *testing.T) {
	router := newTestRouter(t)

	rec, body := do(t, router, http.MethodPost, "/crm/leads", `{"name":"Ana","phone":"1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body["detail"], "City")
}

func TestScheduleVisit(t *testing.T) {
	router := newTestRouter(t)
	leadID := createLead(t, router)

	rec, body := do(t, router, http.MethodPost, "/crm/visits",
		`{"lead_id":"`+leadID+`","visit_time":"2025-10-22T15:00:00","notes":"keys at reception"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SCHEDULED", body["status"])
	assert.NotEmpty(t, body["visit_id"])

	rec, body = do(t, router, http.MethodGet, "/crm/visits", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["visits"], 1)
}

func TestScheduleVisit_UnknownLead(t *testing.T) {
	router := newTestRouter(t)

	rec, body := do(t, router, http.MethodPost, "/crm/visits", `{"lead_id":"nope","visit_time":"2025-10-22T15:00:00"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Lead not found", body["detail"])
}

func TestScheduleVisit_BadTime(t *testing.T) {
	router := newTestRouter(t)
	leadID := createLead(t, router)

	rec, _ := do(t, router, http.MethodPost, "/crm/visits", `{"lead_id":"`+leadID+`","visit_time":"tomorrow"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUpdateStatus(t *testing.T) {
	router := newTestRouter(t)
	leadID := createLead(t, router)

	rec, body := do(t, router, http.MethodPost, "/crm/leads/"+leadID+"/status", `{"status":"IN_PROGRESS","notes":"called"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, leadID, body["lead_id"])
	assert.Equal(t, "IN_PROGRESS", body["status"])

	rec, body = do(t, router, http.MethodGet, "/crm/leads/"+leadID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "called", body["notes"])

	rec, body = do(t, router, http.MethodGet, "/crm/leads/"+leadID+"/history", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["history"], 1)
}

func TestUpdateStatus_ValidatesStatusBeforeLookup(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := do(t, router, http.MethodPost, "/crm/leads/missing/status", `{"status":"won"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, body := do(t, router, http.MethodPost, "/crm/leads/missing/status", `{"status":"WON"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Lead not found", body["detail"])
}

func TestListLeads(t *testing.T) {
	router := newTestRouter(t)
	first := createLead(t, router)
	second := createLead(t, router)

	rec, body := do(t, router, http.MethodGet, "/crm/leads", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	leads := body["leads"].([]any)
	require.Len(t, leads, 2)
	ids := []string{leads[0].(map[string]any)["lead_id"].(string), leads[1].(map[string]any)["lead_id"].(string)}
	assert.ElementsMatch(t, []string{first, second}, ids)
}

func TestShutdownLogsFailure(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
	})}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(ln)
	defer srv.Close()
	defer close(release)

	go func() {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err == nil {
			resp.Body.Close()
		}
	}()
	<-started

	var logs bytes.Buffer
	err = shutdown(srv, 20*time.Millisecond, slog.New(slog.NewTextHandler(&logs, nil)))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, logs.String(), "crm server shutdown failed")
}
