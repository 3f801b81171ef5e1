// internal/domain/models/id.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RootParent is the parent reference carried by a workspace's root branch.
const RootParent ID = "-1"

// ID is an opaque backend identifier. The backend emits ids as JSON strings
// in most payloads and as numbers in a few, so both decode to the same value.
type ID string

func (id ID) String() string { return string(id) }

// IsZero reports whether the id is empty.
func (id ID) IsZero() bool { return id == "" }

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// decodeCode reads a small enum the backend sends either as a number or as
// a quoted number ("2"). null and "" decode to zero.
func decodeCode(b []byte) (int, error) {
	var id ID
	if err := id.UnmarshalJSON(b); err != nil {
		return 0, err
	}
	if id == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(id)))
	if err != nil {
		return 0, fmt.Errorf("models: invalid code %s: %w", b, err)
	}
	return n, nil
}

// encodeCode writes n as a quoted number, the form the backend uses for
// workspace and branch statuses.
func encodeCode(n int) []byte {
	return []byte(`"` + strconv.Itoa(n) + `"`)
}
