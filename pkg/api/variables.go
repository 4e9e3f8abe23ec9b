package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"seleniumrobot/infoserver/pkg/store"
	"seleniumrobot/infoserver/pkg/telemetry/logging"
	"seleniumrobot/infoserver/pkg/variables"
)

const variableArea = "variable"

func (a *API) registerVariables() {
	a.handle(http.MethodGet, "/variable/api/variable", variableArea, a.listVariables)
	a.handle(http.MethodPost, "/variable/api/variable", variableArea, a.createVariable)
	a.handle(http.MethodGet, "/variable/api/variable/{id}", variableArea, a.getVariable)
	a.handle(http.MethodPatch, "/variable/api/variable/{id}", variableArea, a.patchVariable)
	a.handle(http.MethodDelete, "/variable/api/variable/{id}", variableArea, a.deleteVariable)
}

// listVariables resolves the variables of a test run, reserving the
// reservable ones, then drops those the caller may not see and masks
// protected values.
func (a *API) listVariables(w http.ResponseWriter, r *http.Request) {
	req, err := a.resolveRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := a.deps.Resolver.Resolve(r.Context(), req)
	if err != nil {
		var reserved *variables.ReservedError
		if errors.As(err, &reserved) && a.deps.Metrics != nil {
			a.deps.Metrics.RecordReservation(0, true)
		}
		writeError(w, r, err)
		return
	}
	if a.deps.Metrics != nil && req.Reserve {
		a.deps.Metrics.RecordReservation(countReserved(res.Variables), false)
	}

	p := principal(r)
	visible, err := a.deps.Visibility.Filter(r.Context(), p, res.Variables)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := a.deps.Redactor.Apply(p, visible)
	if out == nil {
		out = []variables.Variable{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) resolveRequest(r *http.Request) (variables.Request, error) {
	q := r.URL.Query()
	req := variables.Request{
		Version:     strings.TrimSpace(q.Get("version")),
		Application: strings.TrimSpace(q.Get("application")),
		Environment: strings.TrimSpace(q.Get("environment")),
		Test:        strings.TrimSpace(q.Get("test")),
		Name:        q.Get("name"),
		Value:       q.Get("value"),
	}

	var err error
	if req.OlderThan, err = queryInt(r, "olderThan", 0); err != nil {
		return req, err
	}
	if req.Reserve, err = queryBool(r, "reserve", true); err != nil {
		return req, err
	}
	if req.ReservationDuration, err = querySeconds(r, "reservationDuration", a.defaultReservation()); err != nil {
		return req, err
	}
	return req, nil
}

func countReserved(vars []variables.Variable) int {
	n := 0
	for _, v := range vars {
		if v.ID != 0 && v.Reservable && v.ReleaseDate != nil {
			n++
		}
	}
	return n
}

func (a *API) createVariable(w http.ResponseWriter, r *http.Request) {
	var v variables.Variable
	if err := decodeBody(r, &v); err != nil {
		writeError(w, r, err)
		return
	}
	v.ID = 0
	if err := a.checkVariable(r, &v); err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.deps.Variables.Create(r.Context(), &v); err != nil {
		writeError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).InfoContext(r.Context(), "variable created",
		"variable_id", v.ID,
		"name", v.Name,
		"protected", v.Protected,
	)
	writeJSON(w, http.StatusCreated, a.deps.Redactor.ApplyOne(principal(r), v))
}

// visibleVariable loads a variable and hides it, as not found, from
// callers restricted away from its application.
func (a *API) visibleVariable(r *http.Request) (*variables.Variable, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	v, err := a.deps.Variables.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	ok, err := a.deps.Visibility.Visible(r.Context(), principal(r), *v)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, store.NewNotFoundError("variable", id)
	}
	return v, nil
}

func (a *API) getVariable(w http.ResponseWriter, r *http.Request) {
	v, err := a.visibleVariable(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.deps.Redactor.ApplyOne(principal(r), *v))
}

// patchVariable applies a partial update. Sending releaseDate "" releases
// a reservation.
func (a *API) patchVariable(w http.ResponseWriter, r *http.Request) {
	v, err := a.visibleVariable(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var fields map[string]json.RawMessage
	if err := decodeBody(r, &fields); err != nil {
		writeError(w, r, err)
		return
	}
	wasReserved := v.Reserved()
	if err := variables.ApplyPatch(v, fields); err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.checkVariable(r, v); err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.deps.Variables.Update(r.Context(), v); err != nil {
		writeError(w, r, err)
		return
	}

	if wasReserved && !v.Reserved() {
		logging.FromContext(r.Context()).InfoContext(r.Context(), "variable released",
			"variable_id", v.ID,
			"name", v.Name,
		)
	}
	writeJSON(w, http.StatusOK, a.deps.Redactor.ApplyOne(principal(r), *v))
}

// deleteVariable removes internal variables only. Others answer 404 as if
// they did not exist.
func (a *API) deleteVariable(w http.ResponseWriter, r *http.Request) {
	v, err := a.visibleVariable(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !v.Internal {
		writeError(w, r, store.NewNotFoundError("variable", v.ID))
		return
	}
	if err := a.deps.Variables.Delete(r.Context(), v.ID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// checkVariable validates v and the rows it references.
func (a *API) checkVariable(r *http.Request, v *variables.Variable) error {
	if err := v.Validate(); err != nil {
		return err
	}
	ctx := r.Context()
	cs := a.deps.Commons
	if v.Application != nil {
		if err := reference(cs.GetApplication(ctx, *v.Application)); err != nil {
			return err
		}
	}
	if v.Version != nil {
		if err := reference(cs.GetVersion(ctx, *v.Version)); err != nil {
			return err
		}
	}
	if v.Environment != nil {
		if err := reference(cs.GetEnvironment(ctx, *v.Environment)); err != nil {
			return err
		}
	}
	for _, id := range v.Tests {
		if err := reference(cs.GetTestCase(ctx, id)); err != nil {
			return err
		}
	}
	return nil
}
