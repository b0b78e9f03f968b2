package api

import (
	"context"
	"net/http"

	"github.com/newthinker/macrolens/internal/api/response"
	"github.com/newthinker/macrolens/internal/dataset"
	"github.com/newthinker/macrolens/internal/report"
	"github.com/newthinker/macrolens/internal/source"
)

// AnalysisApp defines the interface needed from app.App.
type AnalysisApp interface {
	Analyze(ctx context.Context, snap source.Snapshot) (*report.Report, error)
}

// AnalysisHandler runs an analysis over a posted snapshot.
type AnalysisHandler struct {
	app          AnalysisApp
	maxBodyBytes int64
}

// NewAnalysisHandler creates a new analysis handler. A non-positive
// maxBodyBytes leaves the body unbounded.
func NewAnalysisHandler(app AnalysisApp, maxBodyBytes int64) *AnalysisHandler {
	return &AnalysisHandler{app: app, maxBodyBytes: maxBodyBytes}
}

// Run decodes a JSON snapshot and returns the resulting report.
func (h *AnalysisHandler) Run(w http.ResponseWriter, r *http.Request) {
	body := r.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	snap, err := dataset.DecodeSnapshot(body)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	rep, err := h.app.Analyze(r.Context(), snap)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, rep)
}
