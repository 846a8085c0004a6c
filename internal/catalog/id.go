// Package catalog defines the three resource types managed by the dashboard
// and their editable drafts.
package catalog

import (
	"bytes"
	"fmt"
	"strconv"
)

// ID is a server-assigned numeric identifier. The demo backends sometimes
// return ids as strings, so both forms decode.
type ID int

// UnmarshalJSON accepts 7, "7" and null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = 0
		return nil
	}
	s := string(bytes.Trim(b, `"`))
	if s == "" {
		*id = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid id %s: %w", b, err)
	}
	*id = ID(n)
	return nil
}

// ParseID parses a path segment into an ID.
func ParseID(s string) (ID, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return ID(n), nil
}
