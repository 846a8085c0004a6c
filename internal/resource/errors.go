package resource

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxErrorDetail caps the response body quoted in an HTTPError message.
const maxErrorDetail = 200

// ErrDuplicateID is recorded when strict id checking is enabled and the
// server confirms a create with an id the store already holds.
var ErrDuplicateID = errors.New("duplicate id")

// TransportError means the request never reached the server or the
// response never arrived.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError means the server answered with a non-2xx status.
type HTTPError struct {
	Op     string
	URL    string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("request failed with status code %d", e.Status)
	if b := strings.TrimSpace(e.Body); b != "" {
		b = truncate(b, maxErrorDetail)
		msg += ": " + b
	}
	return msg
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
