package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"seleniumrobot/infoserver/pkg/commons"
	"seleniumrobot/infoserver/pkg/store"
)

// resource describes the four operations every commons entity supports.
type resource[T any] struct {
	list        func(r *http.Request) ([]T, error)
	get         func(ctx context.Context, id int64) (*T, error)
	getOrCreate func(ctx context.Context, v *T) (bool, error)
	remove      func(ctx context.Context, id int64) error
}

func register[T any](a *API, path, area string, res resource[T]) {
	a.handle(http.MethodGet, path, area, func(w http.ResponseWriter, r *http.Request) {
		items, err := res.list(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if items == nil {
			items = []T{}
		}
		writeJSON(w, http.StatusOK, items)
	})

	// POST returns the existing row when an identical one is stored.
	a.handle(http.MethodPost, path, area, func(w http.ResponseWriter, r *http.Request) {
		var v T
		if err := decodeBody(r, &v); err != nil {
			writeError(w, r, err)
			return
		}
		created, err := res.getOrCreate(r.Context(), &v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, v)
	})

	a.handle(http.MethodGet, path+"/{id}", area, func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		v, err := res.get(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	})

	a.handle(http.MethodDelete, path+"/{id}", area, func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if _, err := res.get(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		if err := res.remove(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (a *API) registerCommons() {
	cs := a.deps.Commons

	register(a, "/commons/api/application", "application", resource[commons.Application]{
		list: func(r *http.Request) ([]commons.Application, error) {
			return cs.ListApplications(r.Context(), strings.TrimSpace(r.URL.Query().Get("name")))
		},
		get: cs.GetApplication,
		getOrCreate: func(ctx context.Context, app *commons.Application) (bool, error) {
			return commons.GetOrCreateApplication(ctx, cs, app)
		},
		remove: cs.DeleteApplication,
	})

	register(a, "/commons/api/version", "version", resource[commons.Version]{
		list: func(r *http.Request) ([]commons.Version, error) {
			app, err := queryID(r, "application")
			if err != nil {
				return nil, err
			}
			filter := commons.VersionFilter{Name: strings.TrimSpace(r.URL.Query().Get("name"))}
			if app != nil {
				filter.Application = *app
			}
			return cs.ListVersions(r.Context(), filter)
		},
		get: cs.GetVersion,
		getOrCreate: func(ctx context.Context, v *commons.Version) (bool, error) {
			if err := reference(cs.GetApplication(ctx, v.Application)); err != nil && v.Application != 0 {
				return false, err
			}
			return commons.GetOrCreateVersion(ctx, cs, v)
		},
		remove: cs.DeleteVersion,
	})

	register(a, "/commons/api/environment", "environment", resource[commons.Environment]{
		list: func(r *http.Request) ([]commons.Environment, error) {
			return cs.ListEnvironments(r.Context(), strings.TrimSpace(r.URL.Query().Get("name")))
		},
		get: cs.GetEnvironment,
		getOrCreate: func(ctx context.Context, env *commons.Environment) (bool, error) {
			if env.GenericEnvironment != nil {
				if err := reference(cs.GetEnvironment(ctx, *env.GenericEnvironment)); err != nil {
					return false, err
				}
			}
			return commons.GetOrCreateEnvironment(ctx, cs, env)
		},
		remove: cs.DeleteEnvironment,
	})

	register(a, "/commons/api/testcase", "testcase", resource[commons.TestCase]{
		list: func(r *http.Request) ([]commons.TestCase, error) {
			app, err := queryID(r, "application")
			if err != nil {
				return nil, err
			}
			filter := commons.TestCaseFilter{Name: strings.TrimSpace(r.URL.Query().Get("name"))}
			if app != nil {
				filter.Application = *app
			}
			return cs.ListTestCases(r.Context(), filter)
		},
		get: cs.GetTestCase,
		getOrCreate: func(ctx context.Context, tc *commons.TestCase) (bool, error) {
			if err := reference(cs.GetApplication(ctx, tc.Application)); err != nil && tc.Application != 0 {
				return false, err
			}
			return commons.GetOrCreateTestCase(ctx, cs, tc)
		},
		remove: cs.DeleteTestCase,
	})
}

// reference turns a missing referenced row into a 400.
func reference[T any](_ *T, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return badRequestf("invalid reference: %v", err)
	}
	return err
}
