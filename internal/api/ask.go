package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sqler/sqler/internal/auth"
	"github.com/sqler/sqler/internal/chart"
	"github.com/sqler/sqler/internal/observability"
	"github.com/sqler/sqler/internal/pipeline"
)

const maxQuestionBytes = 4 << 10

type askRequest struct {
	Question string `json:"question"`
	// Chart defaults to true.
	Chart  *bool `json:"chart"`
	Export bool  `json:"export"`
}

type askResponse struct {
	ID         string          `json:"id"`
	Question   string          `json:"question"`
	Status     pipeline.Status `json:"status"`
	Message    string          `json:"message,omitempty"`
	SQL        string          `json:"sql,omitempty"`
	Columns    []string        `json:"columns,omitempty"`
	Rows       [][]any         `json:"rows,omitempty"`
	Truncated  bool            `json:"truncated,omitempty"`
	Table      string          `json:"table,omitempty"`
	Chart      *chartPayload   `json:"chart,omitempty"`
	Export     string          `json:"export,omitempty"`
	ExportURL  string          `json:"export_url,omitempty"`
	DurationMs int64           `json:"duration_ms"`
}

type chartPayload struct {
	Spec     chart.Spec `json:"spec"`
	URL      string     `json:"url"`
	Key      string     `json:"key,omitempty"`
	ShareURL string     `json:"share_url,omitempty"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASK_NOT_CONFIGURED", "question pipeline is not configured", false, nil)
		return
	}

	var request askRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQuestionBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}
	question := strings.TrimSpace(request.Question)
	if question == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}
	if request.Export {
		if identity, _ := auth.IdentityFromContext(r.Context()); !identity.HasRole(auth.RoleExporter) {
			writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", "missing role "+auth.RoleExporter, false, nil)
			return
		}
	}

	out := deps.Pipeline.Ask(r.Context(), question, pipeline.Options{
		SkipChart: request.Chart != nil && !*request.Chart,
		Export:    request.Export,
	})

	response := askResponse{
		ID:         out.ID,
		Question:   out.Question,
		Status:     out.Status,
		Message:    out.Message(),
		SQL:        out.SQL,
		Table:      out.Table,
		Export:     out.Export,
		ExportURL:  out.ExportURL,
		DurationMs: out.Duration.Milliseconds(),
	}
	if out.Result != nil {
		response.Columns = out.Result.Columns
		response.Rows = out.Result.Rows
		response.Truncated = out.Result.Truncated
	}
	if out.Chart != nil && out.ChartPath != "" {
		response.Chart = &chartPayload{Spec: *out.Chart, URL: "/v1/charts/" + out.ID, Key: out.ChartKey, ShareURL: out.ChartURL}
	}
	w.Header().Set(observability.QuestionIDHeader, out.ID)
	writeJSON(w, http.StatusOK, response)
}
