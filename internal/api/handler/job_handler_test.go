package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bsvalues/terrafusion-sync/internal/api/dto"
	"github.com/bsvalues/terrafusion-sync/internal/ledger"
	"github.com/bsvalues/terrafusion-sync/internal/ledger/memory"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPublisher struct {
	published [][]byte
	err       error
}

func (p *stubPublisher) PublishWithRetry(_ context.Context, body []byte, _ string) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, body)
	return nil
}

func newTestServer(t *testing.T, pub *stubPublisher) (*gin.Engine, *ledger.Ledger) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	l := ledger.New(&ledger.Config{
		Store:  memory.NewStore(),
		Scopes: ledger.NewStaticScopes("benton-wa", "franklin-wa"),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	h := NewJobHandler(&Dependencies{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Ledger:    l,
		Publisher: pub,
	})

	router := gin.New()
	v1 := router.Group("/api/v1")
	{
		v1.POST("/jobs", h.SubmitJob)
		v1.GET("/jobs", h.ListJobs)
		v1.GET("/jobs/:job_id", h.GetJob)
	}

	return router, l
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJobHandler_SubmitJob(t *testing.T) {
	pub := &stubPublisher{}
	router, _ := newTestServer(t, pub)

	w := doRequest(router, http.MethodPost, "/api/v1/jobs",
		`{"job_type":"export","county_id":"benton-wa","parameters":{"format":"geojson"}}`)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp dto.JobDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, "export", resp.JobType)
	assert.Equal(t, "benton-wa", resp.CountyID)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Empty(t, resp.StartedAt)

	require.Len(t, pub.published, 1)
	var msg map[string]string
	require.NoError(t, json.Unmarshal(pub.published[0], &msg))
	assert.Equal(t, resp.JobID, msg["job_id"])
}

func TestJobHandler_SubmitJob_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "missing body fields",
			body:       `{"job_type":"export"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid parameters",
			body:       `{"job_type":"export","county_id":"benton-wa","parameters":{"format":"gpkg"}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown job type",
			body:       `{"job_type":"reindex","county_id":"benton-wa","parameters":{}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown county",
			body:       `{"job_type":"export","county_id":"atlantis","parameters":{"format":"geojson"}}`,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestServer(t, &stubPublisher{})

			w := doRequest(router, http.MethodPost, "/api/v1/jobs", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestJobHandler_SubmitJob_PublishFailure(t *testing.T) {
	pub := &stubPublisher{err: errors.New("broker unreachable")}
	router, l := newTestServer(t, pub)

	w := doRequest(router, http.MethodPost, "/api/v1/jobs",
		`{"job_type":"export","county_id":"benton-wa","parameters":{"format":"geojson"}}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)

	// The job was recorded before the publish attempt; it must end up
	// FAILED, not stuck PENDING.
	jobs, err := l.List(context.Background(), ledger.JobFilter{CountyID: "benton-wa"})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, ledger.StatusFailed, jobs[0].Status)
	assert.Equal(t, "failed to enqueue job message", jobs[0].Message)
}

func TestJobHandler_GetJob(t *testing.T) {
	router, l := newTestServer(t, &stubPublisher{})
	ctx := context.Background()

	job, err := l.Submit(ctx, ledger.JobTypeReport, "benton-wa",
		json.RawMessage(`{"report_type":"levy-summary","year":2025}`))
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/jobs/"+job.JobID, "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.JobDTO
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, job.JobID, resp.JobID)
		assert.Equal(t, "report", resp.JobType)
	})

	t.Run("not a uuid", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/jobs/not-a-uuid", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/jobs/00000000-0000-0000-0000-000000000000", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestJobHandler_ListJobs(t *testing.T) {
	router, l := newTestServer(t, &stubPublisher{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := l.Submit(ctx, ledger.JobTypeExport, "benton-wa",
			json.RawMessage(fmt.Sprintf(`{"format":"geojson","layers":["layer-%d"]}`, i)))
		require.NoError(t, err)
	}
	_, err := l.Submit(ctx, ledger.JobTypeSync, "franklin-wa",
		json.RawMessage(`{"source_system":"cama"}`))
	require.NoError(t, err)

	t.Run("filters and paginates", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/jobs?county_id=benton-wa&job_type=export&page_size=3", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.ListJobsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Jobs, 3)
		require.NotEmpty(t, resp.NextCursor)

		w = doRequest(router, http.MethodGet,
			"/api/v1/jobs?county_id=benton-wa&job_type=export&page_size=3&cursor="+resp.NextCursor, "")
		require.Equal(t, http.StatusOK, w.Code)

		var rest dto.ListJobsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rest))
		assert.Len(t, rest.Jobs, 2)
		assert.Empty(t, rest.NextCursor)

		seen := make(map[string]bool)
		for _, j := range append(resp.Jobs, rest.Jobs...) {
			assert.Equal(t, "benton-wa", j.CountyID)
			assert.Equal(t, "export", j.JobType)
			assert.False(t, seen[j.JobID], "job %s repeated across pages", j.JobID)
			seen[j.JobID] = true
		}
	})

	t.Run("invalid status filter", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/jobs?status=DONE", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid cursor", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/jobs?cursor=%21%21%21", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
