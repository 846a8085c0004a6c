package api

import (
	"errors"
	"net/http"

	"github.com/revittco/storeadmin/internal/catalog"
	"github.com/revittco/storeadmin/internal/resource"
)

// resourceHandler exposes one dispatcher over HTTP.
type resourceHandler[T resource.Entity, D resource.Draft] struct {
	disp *resource.Dispatcher[T, D]
}

// registerResource mounts the collection routes for disp under
// /api/v1/{name}. guard wraps the mutating routes.
func registerResource[T resource.Entity, D resource.Draft](
	mux *http.ServeMux, name string, disp *resource.Dispatcher[T, D],
	guard func(http.HandlerFunc) http.HandlerFunc,
) {
	h := &resourceHandler[T, D]{disp: disp}
	base := "/api/v1/" + name
	mux.HandleFunc("GET "+base, h.list)
	mux.HandleFunc("GET "+base+"/{id}", h.get)
	mux.HandleFunc("POST "+base+"/refresh", guard(h.refresh))
	mux.HandleFunc("POST "+base, guard(h.create))
	mux.HandleFunc("PUT "+base+"/{id}", guard(h.update))
	mux.HandleFunc("DELETE "+base+"/{id}", guard(h.delete))
}

func (h *resourceHandler[T, D]) list(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.disp.Store().Snapshot())
}

func (h *resourceHandler[T, D]) get(w http.ResponseWriter, r *http.Request) {
	id, err := catalog.ParseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	e, ok := h.disp.Store().Get(int(id))
	if !ok {
		writeError(w, http.StatusNotFound, h.disp.Store().Name()+" not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *resourceHandler[T, D]) refresh(w http.ResponseWriter, r *http.Request) {
	out := h.disp.Refresh(r.Context())
	if h.writeOutcome(w, out) {
		return
	}
	writeJSON(w, http.StatusOK, h.disp.Store().Snapshot())
}

func (h *resourceHandler[T, D]) create(w http.ResponseWriter, r *http.Request) {
	var draft D
	if err := decodeJSON(r, &draft); err != nil {
		writeErrorDetail(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	out := h.disp.Create(r.Context(), draft, nil)
	if h.writeOutcome(w, out) {
		return
	}
	writeJSON(w, http.StatusCreated, out.Entity)
}

func (h *resourceHandler[T, D]) update(w http.ResponseWriter, r *http.Request) {
	id, err := catalog.ParseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var draft D
	if err := decodeJSON(r, &draft); err != nil {
		writeErrorDetail(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	out := h.disp.Update(r.Context(), int(id), draft, nil)
	if h.writeOutcome(w, out) {
		return
	}
	writeJSON(w, http.StatusOK, out.Entity)
}

func (h *resourceHandler[T, D]) delete(w http.ResponseWriter, r *http.Request) {
	id, err := catalog.ParseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out := h.disp.Delete(r.Context(), int(id), nil)
	if h.writeOutcome(w, out) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"id": out.ID})
}

// writeOutcome answers every non-success phase and reports whether it
// wrote a response.
func (h *resourceHandler[T, D]) writeOutcome(w http.ResponseWriter, out resource.Outcome[T]) bool {
	switch out.Phase {
	case resource.PhaseSucceeded:
		return false
	case resource.PhaseInvalid:
		writeValidationError(w, out.Err)
	case resource.PhaseStale:
		writeError(w, http.StatusConflict, "superseded by a newer command")
	case resource.PhaseIdle:
		writeErrorDetail(w, http.StatusServiceUnavailable, "request abandoned", errString(out.Err))
	default:
		if errors.Is(out.Err, resource.ErrDuplicateID) {
			writeErrorDetail(w, http.StatusConflict, "duplicate id", out.Err.Error())
			return true
		}
		writeErrorDetail(w, http.StatusBadGateway, "remote request failed", errString(out.Err))
	}
	return true
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
