package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"seleniumrobot/infoserver/pkg/elementinfo"
	"seleniumrobot/infoserver/pkg/telemetry/logging"
)

const elementInfoArea = "elementinfo"

func (a *API) registerElementInfo() {
	a.handle(http.MethodGet, "/elementinfo/api/elementinfos", elementInfoArea, a.listElements)
	a.handle(http.MethodGet, "/elementinfo/api/elementinfo", elementInfoArea, a.listElements)
	a.handle(http.MethodPost, "/elementinfo/api/elementinfo", elementInfoArea, a.createElement)
	a.handle(http.MethodGet, "/elementinfo/api/elementinfo/{id}", elementInfoArea, a.getElement)
	a.handle(http.MethodPut, "/elementinfo/api/elementinfo/{id}", elementInfoArea, a.replaceElement)
	a.handle(http.MethodPatch, "/elementinfo/api/elementinfo/{id}", elementInfoArea, a.patchElement)
	a.handle(http.MethodDelete, "/elementinfo/api/elementinfo/{id}", elementInfoArea, a.deleteElement)
}

// listElements deletes every stale element, across all applications, then
// lists the remaining ones matching application and ids. A failed sweep
// does not fail the request.
func (a *API) listElements(w http.ResponseWriter, r *http.Request) {
	var query elementinfo.Query
	var err error
	if query.Application, err = queryID(r, "application"); err != nil {
		writeError(w, r, err)
		return
	}
	if query.IDs, err = queryIDs(r, "ids"); err != nil {
		writeError(w, r, err)
		return
	}

	if a.deps.Sweeper != nil {
		if _, err := a.deps.Sweeper.Sweep(r.Context()); err != nil {
			logging.FromContext(r.Context()).WarnContext(r.Context(), "element info sweep failed", "error", err)
		}
	}

	elements, err := a.deps.Elements.List(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if elements == nil {
		elements = []elementinfo.Element{}
	}
	writeJSON(w, http.StatusOK, elements)
}

func (a *API) createElement(w http.ResponseWriter, r *http.Request) {
	var e elementinfo.Element
	if err := decodeBody(r, &e); err != nil {
		writeError(w, r, err)
		return
	}
	e.ID = 0
	if err := a.saveElement(r, &e, a.deps.Elements.Create); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (a *API) getElement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := a.deps.Elements.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// replaceElement overwrites every field. The stability counters are stored
// as the client computed them.
func (a *API) replaceElement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := a.deps.Elements.Get(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	var e elementinfo.Element
	if err := decodeBody(r, &e); err != nil {
		writeError(w, r, err)
		return
	}
	e.ID = id
	if err := a.saveElement(r, &e, a.deps.Elements.Update); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// patchElement decodes the body over the stored element so absent fields
// keep their values.
func (a *API) patchElement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := a.deps.Elements.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, badRequestf("failed to read body: %v", err))
		return
	}
	if err := json.Unmarshal(body, e); err != nil {
		writeError(w, r, badRequestf("invalid JSON body: %v", err))
		return
	}
	e.ID = id
	if err := a.saveElement(r, e, a.deps.Elements.Update); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (a *API) deleteElement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := a.deps.Elements.Get(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.deps.Elements.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// saveElement checks fields and references before handing e to write.
func (a *API) saveElement(r *http.Request, e *elementinfo.Element, write func(context.Context, *elementinfo.Element) error) error {
	e.Normalize()
	if err := e.Validate(); err != nil {
		return err
	}
	ctx := r.Context()
	if e.Application != nil {
		if err := reference(a.deps.Commons.GetApplication(ctx, *e.Application)); err != nil {
			return err
		}
	}
	if e.Version != nil {
		if err := reference(a.deps.Commons.GetVersion(ctx, *e.Version)); err != nil {
			return err
		}
	}
	return write(ctx, e)
}
