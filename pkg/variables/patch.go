package variables

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ApplyPatch updates v with the fields present in a partial JSON document.
// Unknown keys, id and creationDate are ignored. A releaseDate of "" or null
// clears the reservation.
func ApplyPatch(v *Variable, fields map[string]json.RawMessage) error {
	for key, raw := range fields {
		var err error
		switch key {
		case "name":
			err = json.Unmarshal(raw, &v.Name)
		case "value":
			err = json.Unmarshal(raw, &v.Value)
		case "application":
			v.Application, err = decodeID(raw)
		case "version":
			v.Version, err = decodeID(raw)
		case "environment":
			v.Environment, err = decodeID(raw)
		case "test":
			var tests []int64
			if err = json.Unmarshal(raw, &tests); err == nil {
				v.Tests = tests
			}
		case "releaseDate":
			v.ReleaseDate, err = decodeReleaseDate(raw)
		case "internal":
			err = json.Unmarshal(raw, &v.Internal)
		case "protected":
			err = json.Unmarshal(raw, &v.Protected)
		case "description":
			err = json.Unmarshal(raw, &v.Description)
		case "reservable":
			err = json.Unmarshal(raw, &v.Reservable)
		case "timeToLive":
			err = json.Unmarshal(raw, &v.TimeToLive)
		default:
			continue
		}
		if err != nil {
			return &ValidationError{Field: key, Message: fmt.Sprintf("invalid value: %v", err)}
		}
	}
	return v.Validate()
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeID(raw json.RawMessage) (*int64, error) {
	if isNull(raw) {
		return nil, nil
	}
	var id int64
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

func decodeReleaseDate(raw json.RawMessage) (*time.Time, error) {
	if isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, err
	}
	t = t.UTC().Truncate(time.Microsecond)
	return &t, nil
}
