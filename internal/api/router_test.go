package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"switchwrapper/internal/api/handlers"
	"switchwrapper/internal/api/models"
	"switchwrapper/internal/config"
	"switchwrapper/internal/data"
	"switchwrapper/internal/extract"
	"switchwrapper/internal/launch"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testConfig matches the periods of smallCase: two 48-hour periods.
func testConfig() *config.Config {
	cfg := config.Default()
	for _, year := range []int{2030, 2040} {
		cfg.Periods = append(cfg.Periods, config.PeriodConfig{Year: year, Start: year, End: year + 9, RepresentedHours: 48})
	}
	return cfg
}

func newTestRouter(run handlers.Runner) *gin.Engine {
	pipeline := handlers.NewPipelineHandler(testConfig(), zap.NewNop(), data.NewResultStore(0), run)
	return NewRouter(zap.NewNop(), pipeline, RouterOptions{})
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorDetail {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func smallCase(t *testing.T) (*data.SyntheticCase, data.CaseFiles) {
	t.Helper()
	opts := data.DefaultSyntheticOptions()
	opts.HoursPerPeriod = 48
	opts.TimepointsPerPeriod = 4
	c, err := data.Synthetic(opts)
	require.NoError(t, err)
	files, err := data.SaveCase(c, t.TempDir())
	require.NoError(t, err)
	return c, files
}

func prepareRequest(files data.CaseFiles, destination string) models.PrepareRequest {
	return models.PrepareRequest{
		Destination:      destination,
		GridFile:         files.Grid,
		ProfilesDir:      files.ProfilesDir,
		TimepointsFile:   files.Timepoints,
		TimestampMapFile: files.TimestampMap,
	}
}

func TestHealth(t *testing.T) {
	w := do(t, newTestRouter(nil), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestPrepareExtractAndBrowseResult(t *testing.T) {
	r := newTestRouter(nil)
	_, files := smallCase(t)
	dest := filepath.Join(t.TempDir(), "run")

	w := do(t, r, http.MethodPost, "/api/v1/prepare", prepareRequest(files, dest))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var prepared models.PrepareResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prepared))
	assert.Equal(t, "prepared", prepared.Status)
	assert.Equal(t, 8, prepared.Timepoints)
	assert.Equal(t, []int{2030, 2040}, prepared.Periods)

	require.NoError(t, extract.WriteStubOutputs(dest))

	w = do(t, r, http.MethodPost, "/api/v1/extract", models.ExtractRequest{Folder: dest})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var extracted models.ExtractResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &extracted))
	require.NotEmpty(t, extracted.ID)
	require.Len(t, extracted.Periods, 2)
	assert.Equal(t, 2030, extracted.Periods[0].Period)
	assert.Equal(t, 48, extracted.Periods[0].Hours)
	assert.Equal(t, 200.0, extracted.Periods[0].CapacityByType["ng"])

	base := "/api/v1/results/" + extracted.ID
	w = do(t, r, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, base+"/periods/2040/grid", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"plant_id"`)

	w = do(t, r, http.MethodGet, base+"/periods/2030/tables/demand", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Equal(t, "UTC,1", lines[0])
	assert.Len(t, lines, 49)

	w = do(t, r, http.MethodGet, base+"/periods/2030/tables/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "TABLE_NOT_FOUND", decodeError(t, w).Code)

	w = do(t, r, http.MethodGet, base+"/periods/2050/grid", nil)
	assert.Equal(t, "PERIOD_NOT_FOUND", decodeError(t, w).Code)

	w = do(t, r, http.MethodGet, base+"/periods/soon/grid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, r, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RESULT_NOT_FOUND", decodeError(t, w).Code)
}

func TestPrepareTypedErrorsAre422(t *testing.T) {
	r := newTestRouter(nil)
	c, files := smallCase(t)
	c.Grid.Plants[0].BusID = 99
	require.NoError(t, data.SaveGridJSON(c.Grid, files.Grid))

	dest := filepath.Join(t.TempDir(), "run")
	w := do(t, r, http.MethodPost, "/api/v1/prepare", prepareRequest(files, dest))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	detail := decodeError(t, w)
	assert.Equal(t, "TOPOLOGY_ERROR", detail.Code)
	assert.NotEmpty(t, detail.Details["table"])

	_, err := os.Stat(dest)
	assert.True(t, os.IsNotExist(err), "nothing is written on failure")
}

func TestPrepareBadRequests(t *testing.T) {
	r := newTestRouter(nil)
	_, files := smallCase(t)

	w := do(t, r, http.MethodPost, "/api/v1/prepare", map[string]string{"destination": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeError(t, w).Code)

	req := prepareRequest(files, t.TempDir())
	req.GridFile = filepath.Join(t.TempDir(), "missing.json")
	w = do(t, r, http.MethodPost, "/api/v1/prepare", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_GRID", decodeError(t, w).Code)
}

func TestExtractWithoutOutputsIs422(t *testing.T) {
	r := newTestRouter(nil)
	_, files := smallCase(t)
	dest := filepath.Join(t.TempDir(), "run")
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/api/v1/prepare", prepareRequest(files, dest)).Code)

	w := do(t, r, http.MethodPost, "/api/v1/extract", models.ExtractRequest{Folder: dest})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INTERPRETATION_ERROR", decodeError(t, w).Code)
}

func TestLaunch(t *testing.T) {
	folder := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(folder, "inputs"), 0o755))

	var got launch.Options
	r := newTestRouter(func(ctx context.Context, logger *zap.Logger, dir string, opts launch.Options) error {
		got = opts
		fmt.Fprint(opts.Stdout, "optimal solution found")
		return nil
	})
	verbose := false
	w := do(t, r, http.MethodPost, "/api/v1/launch", models.LaunchRequest{Folder: folder, Solver: "cbc", Verbose: &verbose})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.LaunchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "solved", resp.Status)
	assert.Equal(t, []string{"solve", "--solver", "cbc", "--suffixes", "dual"}, resp.Args)
	assert.Equal(t, "optimal solution found", resp.Output)
	assert.Equal(t, "cbc", got.Solver)
	assert.False(t, got.Verbose)
}

func TestLaunchFailures(t *testing.T) {
	r := newTestRouter(func(ctx context.Context, logger *zap.Logger, dir string, opts launch.Options) error {
		return errors.New("exit status 1")
	})

	w := do(t, r, http.MethodPost, "/api/v1/launch", models.LaunchRequest{Folder: t.TempDir()})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FOLDER", decodeError(t, w).Code)

	folder := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(folder, "inputs"), 0o755))
	w = do(t, r, http.MethodPost, "/api/v1/launch", models.LaunchRequest{Folder: folder})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "SOLVER_FAILED", decodeError(t, w).Code)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/prepare", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	w := do(t, newTestRouter(nil), http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
