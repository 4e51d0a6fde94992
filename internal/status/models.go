package status

import "github.com/bundlerig/bundlerig/internal/store"

// RunSummary is one entry in GET /api/v1/runs.
type RunSummary struct {
	ID         string `json:"id"`
	Workspace  string `json:"workspace"`
	Mode       string `json:"mode"`
	Watch      bool   `json:"watch"`
	Filter     string `json:"filter,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt int64  `json:"finished_at,omitempty"`
}

// ResultSummary is one bundler outcome within a run.
type ResultSummary struct {
	Project    string `json:"project"`
	Kind       string `json:"kind"`
	Vendor     bool   `json:"vendor"`
	Digest     string `json:"digest,omitempty"`
	Status     string `json:"status"`
	Warnings   int    `json:"warnings"`
	Errors     int    `json:"errors"`
	DurationMS int64  `json:"duration_ms"`
}

// RunListResponse is the response for GET /api/v1/runs.
type RunListResponse struct {
	Runs []RunSummary `json:"runs"`
}

// RunDetailResponse is the response for GET /api/v1/runs/:id.
type RunDetailResponse struct {
	Run     RunSummary      `json:"run"`
	Results []ResultSummary `json:"results"`
}

// HistoryResponse is the response for GET /api/v1/projects/:name/history.
type HistoryResponse struct {
	Project string          `json:"project"`
	Results []ResultSummary `json:"results"`
}

// StatusResponse is the response for GET /status: the most recent run
// and the latest build outcome for each project within it.
type StatusResponse struct {
	Run      *RunSummary     `json:"run,omitempty"`
	Projects []ResultSummary `json:"projects,omitempty"`
}

// HealthResponse is the response for GET /healthz.
type HealthResponse struct {
	Status      string `json:"status"`
	Uptime      string `json:"uptime"`
	DBSizeBytes int64  `json:"db_size_bytes,omitempty"`
}

// ProblemDetail follows RFC 7807 for error responses.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func runSummary(r *store.BuildRun) RunSummary {
	return RunSummary{
		ID:         r.ID,
		Workspace:  r.Workspace,
		Mode:       r.Mode,
		Watch:      r.Watch,
		Filter:     r.Filter,
		Status:     r.Status,
		Error:      r.Error,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

func resultSummary(r *store.BuildResult) ResultSummary {
	return ResultSummary{
		Project:    r.Project,
		Kind:       r.Kind,
		Vendor:     r.Vendor,
		Digest:     r.Digest,
		Status:     r.Status,
		Warnings:   r.Warnings,
		Errors:     r.Errors,
		DurationMS: r.DurationMS,
	}
}
