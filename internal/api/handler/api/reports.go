package api

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/newthinker/macrolens/internal/api/response"
	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/storage/history"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

var globalRegimes = []core.GlobalRegime{
	core.GlobalRiskOn,
	core.GlobalRiskOff,
	core.GlobalMixedSignals,
	core.GlobalTransition,
	core.GlobalUncertain,
}

// ReportsHandler serves the report history.
type ReportsHandler struct {
	store history.Store
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(store history.Store) *ReportsHandler {
	return &ReportsHandler{store: store}
}

// List returns reports matching query parameters, newest first.
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	reports, err := h.store.List(r.Context(), filter)
	if err != nil {
		response.Fail(w, err)
		return
	}

	countFilter := filter
	countFilter.Limit, countFilter.Offset = 0, 0
	count, err := h.store.Count(r.Context(), countFilter)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"reports": reports,
		"total":   count,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

// Get returns a single report by the {id} path value.
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rep, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, rep)
}

func parseFilter(r *http.Request) (history.ListFilter, error) {
	q := r.URL.Query()
	filter := history.ListFilter{Limit: defaultListLimit}

	if regime := q.Get("regime"); regime != "" {
		filter.GlobalRegime = core.GlobalRegime(regime)
		if !slices.Contains(globalRegimes, filter.GlobalRegime) {
			return filter, invalidParam("unknown regime %q", regime)
		}
	}

	var err error
	if filter.From, err = parseTime(q.Get("from")); err != nil {
		return filter, invalidParam("from: %v", err)
	}
	if filter.To, err = parseTime(q.Get("to")); err != nil {
		return filter, invalidParam("to: %v", err)
	}

	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			return filter, invalidParam("limit must be a positive integer, got %q", limit)
		}
		filter.Limit = min(n, maxListLimit)
	}

	if offset := q.Get("offset"); offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			return filter, invalidParam("offset must be a non-negative integer, got %q", offset)
		}
		filter.Offset = n
	}

	return filter, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func invalidParam(format string, args ...any) error {
	return core.WrapError(core.ErrInputInvalid, fmt.Errorf(format, args...))
}
