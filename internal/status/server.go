// Package status serves build history and metrics over HTTP during
// watch sessions.
package status

import (
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/bundlerig/bundlerig/internal/metrics"
	"github.com/bundlerig/bundlerig/internal/store"
)

// Server is the status API Fiber application.
type Server struct {
	app       *fiber.App
	store     *store.Store
	logger    zerolog.Logger
	addr      string
	startTime time.Time
}

// New creates and configures a status server. The store may be nil,
// in which case history endpoints report the store as unavailable.
func New(addr string, st *store.Store, m *metrics.Metrics, logger zerolog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	s := &Server{
		app:       app,
		store:     st,
		logger:    logger.With().Str("component", "status_server").Logger(),
		addr:      addr,
		startTime: time.Now(),
	}

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Get("/healthz", s.health)
	app.Get("/status", s.currentStatus)
	if m != nil {
		app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}

	v1 := app.Group("/api/v1")
	v1.Get("/runs", s.listRuns)
	v1.Get("/runs/:id", s.getRun)
	v1.Get("/projects/:name/history", s.projectHistory)

	return s
}

func (s *Server) health(c *fiber.Ctx) error {
	resp := HealthResponse{
		Status: "ok",
		Uptime: time.Since(s.startTime).Round(time.Second).String(),
	}
	if s.store != nil {
		if size, err := s.store.DBSizeBytes(); err == nil {
			resp.DBSizeBytes = size
		}
	}
	return c.JSON(resp)
}

func (s *Server) currentStatus(c *fiber.Ctx) error {
	if s.store == nil {
		return storeUnavailable(c)
	}

	runs, err := s.store.RecentRuns(1)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return c.JSON(StatusResponse{})
	}

	run := runs[0]
	results, err := s.store.ResultsForRun(run.ID)
	if err != nil {
		return err
	}

	// A watch session appends a result per rebuild, so report only the
	// latest outcome per project (vendor variants are separate rows).
	type key struct {
		project string
		vendor  bool
	}
	order := make([]key, 0, len(results))
	latest := make(map[key]*store.BuildResult, len(results))
	for _, r := range results {
		k := key{r.Project, r.Vendor}
		if _, seen := latest[k]; !seen {
			order = append(order, k)
		}
		latest[k] = r
	}

	summary := runSummary(run)
	resp := StatusResponse{
		Run:      &summary,
		Projects: make([]ResultSummary, 0, len(order)),
	}
	for _, k := range order {
		resp.Projects = append(resp.Projects, resultSummary(latest[k]))
	}
	return c.JSON(resp)
}

func (s *Server) listRuns(c *fiber.Ctx) error {
	if s.store == nil {
		return storeUnavailable(c)
	}

	runs, err := s.store.RecentRuns(c.QueryInt("limit", 20))
	if err != nil {
		return err
	}

	out := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		out = append(out, runSummary(r))
	}
	return c.JSON(RunListResponse{Runs: out})
}

func (s *Server) getRun(c *fiber.Ctx) error {
	if s.store == nil {
		return storeUnavailable(c)
	}

	id := c.Params("id")
	run, err := s.store.GetRun(id)
	if err != nil {
		return err
	}
	if run == nil {
		return problemResponse(c, fiber.StatusNotFound,
			"run_not_found", "Not Found",
			"Run not found: "+id)
	}

	results, err := s.store.ResultsForRun(id)
	if err != nil {
		return err
	}

	resp := RunDetailResponse{
		Run:     runSummary(run),
		Results: make([]ResultSummary, 0, len(results)),
	}
	for _, r := range results {
		resp.Results = append(resp.Results, resultSummary(r))
	}
	return c.JSON(resp)
}

func (s *Server) projectHistory(c *fiber.Ctx) error {
	if s.store == nil {
		return storeUnavailable(c)
	}

	name := c.Params("name")
	results, err := s.store.ProjectHistory(name, c.QueryInt("limit", 20))
	if err != nil {
		return err
	}

	resp := HistoryResponse{
		Project: name,
		Results: make([]ResultSummary, 0, len(results)),
	}
	for _, r := range results {
		resp.Results = append(resp.Results, resultSummary(r))
	}
	return c.JSON(resp)
}

// Start starts the server. Blocks until stopped.
func (s *Server) Start() error {
	addr := s.addr
	if addr == "" {
		addr = "127.0.0.1:9321"
	}

	s.logger.Info().Str("addr", addr).Msg("status server starting")
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info().Msg("status server shutting down")
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

func storeUnavailable(c *fiber.Ctx) error {
	return problemResponse(c, fiber.StatusServiceUnavailable,
		"history_unavailable", "Service Unavailable",
		"Build history store is not configured")
}

func problemResponse(c *fiber.Ctx, status int, errType, title, detail string) error {
	return c.Status(status).JSON(ProblemDetail{
		Type:     errType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Path(),
	})
}

func errorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error().
			Err(err).
			Int("status", code).
			Str("path", c.Path()).
			Str("method", c.Method()).
			Msg("unhandled error")

		detail := err.Error()
		if code == fiber.StatusInternalServerError {
			detail = "An internal error occurred"
		}

		return c.Status(code).JSON(ProblemDetail{
			Type:     "internal_error",
			Title:    "Internal Server Error",
			Status:   code,
			Detail:   detail,
			Instance: c.Path(),
		})
	}
}
