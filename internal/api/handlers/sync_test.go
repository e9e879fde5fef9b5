package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"catalogsync/internal/database"
	"catalogsync/internal/importer"
	"catalogsync/internal/logger"
	"catalogsync/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStarter struct {
	err      error
	triggers []string
	stages   []importer.Stage
}

func (f *fakeStarter) Start(ctx context.Context, trigger string, stage importer.Stage) (<-chan *importer.RunResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.triggers = append(f.triggers, trigger)
	f.stages = append(f.stages, stage)
	done := make(chan *importer.RunResult, 1)
	done <- &importer.RunResult{Trigger: trigger, Stage: stage}
	close(done)
	return done, nil
}

type fakeRuns struct {
	runs      []models.SyncRun
	err       error
	lastLimit int
}

func (f *fakeRuns) List(ctx context.Context, limit int) ([]models.SyncRun, error) {
	f.lastLimit = limit
	return f.runs, f.err
}

func (f *fakeRuns) Get(ctx context.Context, id string) (*models.SyncRun, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.runs {
		if f.runs[i].ID == id {
			return &f.runs[i], nil
		}
	}
	return nil, database.ErrRunNotFound
}

func newSyncRouter(starter SyncStarter, runs RunLister) *gin.Engine {
	h := NewSyncHandler(starter, runs, logger.NewWithWriter("error", io.Discard))
	r := gin.New()
	r.POST("/sync", h.Trigger)
	r.GET("/sync/runs", h.ListRuns)
	r.GET("/sync/runs/:id", h.GetRun)
	return r
}

func request(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestTrigger(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		stage  importer.Stage
	}{
		{"no body runs everything", "", http.StatusAccepted, importer.StageAll},
		{"single stage", `{"stage":"categories"}`, http.StatusAccepted, importer.StageCategories},
		{"unknown stage", `{"stage":"orders"}`, http.StatusBadRequest, ""},
		{"malformed body", `{"stage":`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			starter := &fakeStarter{}
			rec := request(newSyncRouter(starter, &fakeRuns{}), http.MethodPost, "/sync", tt.body)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusAccepted {
				require.Len(t, starter.stages, 1)
				assert.Equal(t, tt.stage, starter.stages[0])
				assert.Equal(t, "api", starter.triggers[0])
			} else {
				assert.Empty(t, starter.stages)
			}
		})
	}
}

func TestTrigger_AlreadyRunning(t *testing.T) {
	starter := &fakeStarter{err: importer.ErrRunInProgress}

	rec := request(newSyncRouter(starter, &fakeRuns{}), http.MethodPost, "/sync", "")

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTrigger_StartFailure(t *testing.T) {
	starter := &fakeStarter{err: errors.New("boom")}

	rec := request(newSyncRouter(starter, &fakeRuns{}), http.MethodPost, "/sync", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListRuns(t *testing.T) {
	runs := &fakeRuns{runs: []models.SyncRun{
		{ID: "run-2", Trigger: "api", Status: models.SyncRunSucceeded},
		{ID: "run-1", Trigger: "cli", Status: models.SyncRunFailed},
	}}
	r := newSyncRouter(&fakeStarter{}, runs)

	rec := request(r, http.MethodGet, "/sync/runs?limit=5", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, runs.lastLimit)
	var body struct {
		Data []models.SyncRun `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "run-2", body.Data[0].ID)

	assert.Equal(t, http.StatusBadRequest, request(r, http.MethodGet, "/sync/runs?limit=x", "").Code)
}

func TestListRuns_LimitIsCapped(t *testing.T) {
	runs := &fakeRuns{}
	r := newSyncRouter(&fakeStarter{}, runs)

	rec := request(r, http.MethodGet, "/sync/runs?limit=1000000", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, database.MaxListLimit, runs.lastLimit)
}

func TestGetRun(t *testing.T) {
	runs := &fakeRuns{runs: []models.SyncRun{{ID: "run-1", Trigger: "cli", Status: models.SyncRunSucceeded}}}
	r := newSyncRouter(&fakeStarter{}, runs)

	rec := request(r, http.MethodGet, "/sync/runs/run-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"run-1"`)

	assert.Equal(t, http.StatusNotFound, request(r, http.MethodGet, "/sync/runs/missing", "").Code)

	runs.err = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, request(r, http.MethodGet, "/sync/runs/run-1", "").Code)
}
