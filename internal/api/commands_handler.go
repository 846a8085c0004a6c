package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/revittco/storeadmin/internal/store"
)

type commandsHandler struct {
	store store.CommandStore
}

func (h *commandsHandler) query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.CommandFilter{
		Limit:  50,
		Offset: 0,
	}

	if v := q.Get("resource"); v != "" {
		filter.Resource = &v
	}
	if v := q.Get("op"); v != "" {
		filter.Op = &v
	}
	if v := q.Get("status"); v != "" {
		filter.Status = &v
	}
	if v := q.Get("after"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.After = &t
		}
	}
	if v := q.Get("before"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.Before = &t
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	records, total, err := h.store.QueryCommandRecords(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query command records")
		return
	}

	if records == nil {
		records = []store.CommandRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":   records,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}
