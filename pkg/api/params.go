package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequestf("invalid id %q", raw)
	}
	return id, nil
}

// queryID parses an optional integer query parameter. Absent or empty
// returns nil.
func queryID(r *http.Request, name string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, badRequestf("%s must be an integer", name)
	}
	return &id, nil
}

// queryIDs parses a comma separated id list. Repeated parameters are
// accepted as well.
func queryIDs(r *http.Request, name string) ([]int64, error) {
	var ids []int64
	for _, value := range r.URL.Query()[name] {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, badRequestf("%s must be a comma separated list of integers", name)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequestf("%s must be an integer", name)
	}
	return n, nil
}

// queryBool accepts the spellings test clients send: true/false in any
// case, 1/0 and yes/no.
func queryBool(r *http.Request, name string, def bool) (bool, error) {
	raw := strings.ToLower(strings.TrimSpace(r.URL.Query().Get(name)))
	switch raw {
	case "":
		return def, nil
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, badRequestf("%s must be true or false", name)
}

// querySeconds parses a positive duration given in seconds.
func querySeconds(r *http.Request, name string, def time.Duration) (time.Duration, error) {
	if strings.TrimSpace(r.URL.Query().Get(name)) == "" {
		return def, nil
	}
	n, err := queryInt(r, name, 0)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, badRequestf("%s must be positive", name)
	}
	return time.Duration(n) * time.Second, nil
}
