package server

import (
	"net/http"
	"testing"

	"github.com/saadk408/victry/internal/fetch"
	"github.com/saadk408/victry/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobDescriptionLifecycle(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/job-descriptions", aliceToken, map[string]string{
		"title":   "Platform Engineer",
		"content": "Kubernetes and Go.",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	job := decode[types.JobDescription](t, w)
	assert.Equal(t, ts.alice, job.UserID)
	path := "/api/job-descriptions/" + job.ID.String()

	w = ts.do(http.MethodGet, "/api/job-descriptions", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]types.JobDescription](t, w), 1)

	w = ts.do(http.MethodGet, "/api/job-descriptions", bobToken, nil)
	assert.JSONEq(t, `[]`, w.Body.String())

	// No analysis yet
	w = ts.do(http.MethodGet, path+"/analysis", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(http.MethodPost, path+"/analyze", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "senior", decode[types.JobAnalysis](t, w).ExperienceLevel)

	w = ts.do(http.MethodGet, path+"/analysis", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, job.ID, decode[types.JobAnalysis](t, w).JobDescriptionID)

	w = ts.do(http.MethodGet, path, aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[types.JobDescription](t, w)
	require.NotNil(t, got.Analysis)
	assert.Equal(t, 80, got.Analysis.ATSCompatibilityScore)

	w = ts.do(http.MethodPatch, path, aliceToken, map[string]any{"title": "Staff Platform Engineer", "url": ""})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Staff Platform Engineer", decode[types.JobDescription](t, w).Title)
	require.NotNil(t, ts.jobs.lastPatch.URL)
	assert.Equal(t, "", *ts.jobs.lastPatch.URL, "empty strings reach the service to clear the column")
	assert.Nil(t, ts.jobs.lastPatch.Company)

	w = ts.do(http.MethodGet, path, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(http.MethodDelete, path, aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(http.MethodGet, path+"/analysis", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleCreateJobDescription_Invalid(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/job-descriptions", aliceToken, map[string]string{"content": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "title", decode[errorBody](t, w).Field)

	w = ts.do(http.MethodPost, "/api/job-descriptions", aliceToken, "[1,2]")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleImportJobDescription(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/job-descriptions/import", aliceToken, map[string]string{
		"url": "https://jobs.ashbyhq.com/acme/123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "https://jobs.ashbyhq.com/acme/123", ts.jobs.importedURL)

	w = ts.do(http.MethodPost, "/api/job-descriptions/import", aliceToken, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "url", decode[errorBody](t, w).Field)
}

func TestHandleImportJobDescription_FetchFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.jobs.err = &fetch.Error{URL: "https://example.com/job", Message: "HTTP 404", StatusCode: http.StatusNotFound}

	w := ts.do(http.MethodPost, "/api/job-descriptions/import", aliceToken, map[string]string{
		"url": "https://example.com/job",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, errorBody{Error: "could not import job posting: HTTP 404", Code: "import_failed"}, decode[errorBody](t, w))
}
