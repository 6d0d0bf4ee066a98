package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"switchwrapper/internal/analysis"
	"switchwrapper/internal/api/middleware"
	"switchwrapper/internal/api/models"
	"switchwrapper/internal/config"
	"switchwrapper/internal/data"
	"switchwrapper/internal/extract"
	"switchwrapper/internal/launch"
	"switchwrapper/internal/model"
	"switchwrapper/internal/prepare"
	"switchwrapper/internal/switchio"
)

// maxLaunchOutput bounds the solver output echoed back to the client.
const maxLaunchOutput = 64 << 10

// Runner runs the optimizer; launch.Launch in production.
type Runner func(ctx context.Context, logger *zap.Logger, folder string, opts launch.Options) error

// PipelineHandler serves the prepare, launch and extract endpoints.
type PipelineHandler struct {
	cfg     *config.Config
	logger  *zap.Logger
	results *data.ResultStore
	run     Runner
}

func NewPipelineHandler(cfg *config.Config, logger *zap.Logger, results *data.ResultStore, run Runner) *PipelineHandler {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if results == nil {
		results = data.NewResultStore(0)
	}
	if run == nil {
		run = launch.Launch
	}
	return &PipelineHandler{cfg: cfg, logger: logger, results: results, run: run}
}

// Prepare handles POST /api/v1/prepare
func (h *PipelineHandler) Prepare(c *gin.Context) {
	var req models.PrepareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}

	grid, err := data.LoadGridJSON(req.GridFile)
	if err != nil {
		badRequest(c, "INVALID_GRID", err)
		return
	}
	profiles, err := data.LoadProfiles(req.ProfilesDir)
	if err != nil {
		badRequest(c, "INVALID_PROFILES", err)
		return
	}
	records, err := switchio.ReadTimepoints(req.TimepointsFile)
	if err != nil {
		badRequest(c, "INVALID_TIMEPOINTS", err)
		return
	}
	mapping, err := switchio.ReadTimestampMap(req.TimestampMapFile)
	if err != nil {
		badRequest(c, "INVALID_TIMESTAMP_MAP", err)
		return
	}

	storageBuses := req.StorageBuses
	if storageBuses == nil {
		storageBuses = h.cfg.StorageBuses
	}
	p := prepare.New(h.logger, h.cfg.PrepareOptions())
	if err := p.Prepare(grid, profiles, records, mapping, storageBuses, req.Destination); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PrepareResponse{
		Status:      "prepared",
		Destination: req.Destination,
		Timepoints:  len(records),
		Periods:     recordPeriods(records),
	})
}

// Launch handles POST /api/v1/launch. The solver runs for the lifetime of the
// request; a client disconnect cancels it.
func (h *PipelineHandler) Launch(c *gin.Context) {
	var req models.LaunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	if err := launch.ValidateFolder(req.Folder); err != nil {
		badRequest(c, "INVALID_FOLDER", err)
		return
	}

	opts := h.cfg.LaunchOptions()
	if req.Solver != "" {
		opts.Solver = req.Solver
	}
	if req.Suffixes != nil {
		opts.Suffixes = req.Suffixes
	}
	if req.Verbose != nil {
		opts.Verbose = *req.Verbose
	}
	out := &tailBuffer{max: maxLaunchOutput}
	opts.Stdout = out
	opts.Stderr = out

	start := time.Now()
	if err := h.run(c.Request.Context(), h.logger, req.Folder, opts); err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "SOLVER_FAILED",
				Message: err.Error(),
				Details: map[string]interface{}{"output": out.String()},
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.LaunchResponse{
		Status:   "solved",
		Folder:   req.Folder,
		Args:     opts.Args(),
		Duration: time.Since(start).Seconds(),
		Output:   out.String(),
	})
}

// Extract handles POST /api/v1/extract
func (h *PipelineHandler) Extract(c *gin.Context) {
	var req models.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}

	opts := h.cfg.ExtractOptions()
	if req.AllowRetirement != nil {
		opts.AllowRetirement = *req.AllowRetirement
	}
	scenarios, err := extract.New(h.logger, opts).Interpret(req.Folder)
	if err != nil {
		respondError(c, err)
		return
	}

	result := h.results.Put(req.Folder, scenarios)
	h.logger.Info("stored result", zap.String("id", result.ID), zap.Int("periods", len(scenarios)))
	c.JSON(http.StatusOK, resultResponse(result))
}

// GetResult handles GET /api/v1/results/:id
func (h *PipelineHandler) GetResult(c *gin.Context) {
	result, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resultResponse(result))
}

// DeleteResult handles DELETE /api/v1/results/:id
func (h *PipelineHandler) DeleteResult(c *gin.Context) {
	result, ok := h.lookup(c)
	if !ok {
		return
	}
	h.results.Delete(result.ID)
	c.Status(http.StatusNoContent)
}

// GetGrid handles GET /api/v1/results/:id/periods/:period/grid
func (h *PipelineHandler) GetGrid(c *gin.Context) {
	scenario, ok := h.lookupScenario(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, scenario.Grid)
}

// GetTable handles GET /api/v1/results/:id/periods/:period/tables/:table and
// streams the table as CSV.
func (h *PipelineHandler) GetTable(c *gin.Context) {
	scenario, ok := h.lookupScenario(c)
	if !ok {
		return
	}
	name := c.Param("table")
	profile := scenario.Output(name)
	if profile == nil {
		notFound(c, "TABLE_NOT_FOUND", fmt.Sprintf("table %q is not available for this period", name))
		return
	}

	var buf bytes.Buffer
	if err := data.WriteProfileCSV(&buf, profile); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_%d.csv", name, scenario.Period))
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

func (h *PipelineHandler) lookup(c *gin.Context) (*data.Result, bool) {
	result, ok := h.results.Get(c.Param("id"))
	if !ok {
		notFound(c, "RESULT_NOT_FOUND", "no stored result with this id")
		return nil, false
	}
	return result, true
}

func (h *PipelineHandler) lookupScenario(c *gin.Context) (*model.Scenario, bool) {
	result, ok := h.lookup(c)
	if !ok {
		return nil, false
	}
	period, err := strconv.Atoi(c.Param("period"))
	if err != nil {
		badRequest(c, "INVALID_PERIOD", err)
		return nil, false
	}
	scenario, ok := result.Scenarios[period]
	if !ok {
		notFound(c, "PERIOD_NOT_FOUND", fmt.Sprintf("period %d is not in this result", period))
		return nil, false
	}
	return scenario, true
}

func resultResponse(r *data.Result) models.ExtractResponse {
	return models.ExtractResponse{
		ID:        r.ID,
		Source:    r.Source,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
		Periods:   analysis.SummarizeAll(r.Scenarios),
	}
}

func recordPeriods(records []model.TimepointRecord) []int {
	seen := map[int]bool{}
	var out []int
	for _, r := range records {
		if !seen[r.Period] {
			seen[r.Period] = true
			out = append(out, r.Period)
		}
	}
	sort.Ints(out)
	return out
}

func respondError(c *gin.Context, err error) {
	status, code := middleware.Classify(err)
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: err.Error(),
			Details: middleware.Details(err),
		},
	})
}

func badRequest(c *gin.Context, code string, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: err.Error(),
		},
	})
}

func notFound(c *gin.Context, code, message string) {
	c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
