// Package validate implements field-level checks for editable drafts.
//
// Rules are evaluated in the order they are chained; the first failing rule
// of a field wins and later rules for that field are skipped, so a blank
// field reports only its "required" message.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// FieldError is a single failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors holds every failing field of one draft.
type Errors struct {
	Fields []FieldError `json:"fields"`
}

func (e *Errors) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Message returns the message recorded for field, or "".
func (e *Errors) Message(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

// Has reports whether field failed.
func (e *Errors) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Checker accumulates field errors.
type Checker struct {
	errs []FieldError
}

// Field starts a rule chain for a string value.
func (c *Checker) Field(name, value string) *Field {
	return &Field{c: c, name: name, value: value}
}

// Check records msg against field when ok is false.
func (c *Checker) Check(ok bool, field, msg string) {
	if !ok {
		c.add(field, msg)
	}
}

// Err returns nil when every rule passed, otherwise *Errors.
func (c *Checker) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return &Errors{Fields: c.errs}
}

func (c *Checker) add(field, msg string) {
	c.errs = append(c.errs, FieldError{Field: field, Message: msg})
}

// Field is a rule chain over one value.
type Field struct {
	c      *Checker
	name   string
	value  string
	failed bool
}

// Required fails on an empty or all-whitespace value.
func (f *Field) Required(msg string) *Field {
	if f.failed {
		return f
	}
	if strings.TrimSpace(f.value) == "" {
		f.fail(msg)
	}
	return f
}

// Pattern fails when the value does not match re. Empty values are left to
// Required.
func (f *Field) Pattern(re *regexp.Regexp, msg string) *Field {
	if f.failed || f.value == "" {
		return f
	}
	if !re.MatchString(f.value) {
		f.fail(msg)
	}
	return f
}

// MinLength fails when the value has fewer than n characters.
func (f *Field) MinLength(n int, msg string) *Field {
	if f.failed || f.value == "" {
		return f
	}
	if utf8.RuneCountInString(f.value) < n {
		f.fail(msg)
	}
	return f
}

func (f *Field) fail(msg string) {
	f.failed = true
	f.c.add(f.name, msg)
}
