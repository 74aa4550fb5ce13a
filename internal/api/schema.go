package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/sqler/sqler/internal/chart"
)

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Schema == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema source is not configured", false, nil)
		return
	}
	sch, err := deps.Schema.Get(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "SCHEMA_UNAVAILABLE", "failed to read database schema", true, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tables": sch.Tables,
		"text":   sch.Text(),
	})
}

func handleExamples(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Examples == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "EXAMPLES_NOT_CONFIGURED", "example questions are not configured", false, nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	writeJSON(w, http.StatusOK, deps.Examples(ctx))
}

func handleChart(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.ChartDir == "" {
		writeError(r.Context(), w, http.StatusNotImplemented, "CHARTS_NOT_CONFIGURED", "chart directory is not configured", false, nil)
		return
	}
	path, err := chart.PathFor(deps.ChartDir, r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_CHART_ID", err.Error(), false, nil)
		return
	}
	image, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		writeError(r.Context(), w, http.StatusNotFound, "CHART_NOT_FOUND", "chart was not found", false, nil)
		return
	}
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "CHART_READ_FAILED", "failed to read chart", true, nil)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(image)
}
