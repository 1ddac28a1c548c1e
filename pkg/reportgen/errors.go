// Custom error types for template, property and document failures.

package reportgen

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// TemplateError represents an error in the template structure or tag syntax
type TemplateError struct {
	Message string
	Key     string
}

func (e *TemplateError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("template error near <%s>: %s", e.Key, e.Message)
	}
	return fmt.Sprintf("template error: %s", e.Message)
}

// NewTemplateError creates a new template error for the given tag key
func NewTemplateError(message, key string) error {
	return &TemplateError{
		Message: message,
		Key:     key,
	}
}

// PropertyError represents a tag whose key resolves to an incompatible or missing property
type PropertyError struct {
	Key     string
	Message string
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("property error for tag <%s>: %s", e.Key, e.Message)
}

// NewPropertyError creates a new property error
func NewPropertyError(key, message string) error {
	return &PropertyError{
		Key:     key,
		Message: message,
	}
}

// DocumentError reports a failure reading, unpacking or writing a document.
// Part names the package entry involved, if any.
type DocumentError struct {
	Operation string
	Path      string
	Part      string
	Cause     error
}

func (e *DocumentError) Error() string {
	var b strings.Builder
	b.WriteString("cannot ")
	b.WriteString(e.Operation)
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Part != "" {
		b.WriteString(" (part ")
		b.WriteString(e.Part)
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}

// NewDocumentError creates a document error for a file path
func NewDocumentError(operation, path string, cause error) error {
	return &DocumentError{Operation: operation, Path: path, Cause: cause}
}

// NewPartError creates a document error for one entry of a packed document
func NewPartError(operation, part string, cause error) error {
	return &DocumentError{Operation: operation, Part: part, Cause: cause}
}

// MultiError collects independent failures, such as key map entries that
// refer to unknown properties.
type MultiError struct {
	errs []error
}

// NewMultiError creates an empty collector
func NewMultiError() *MultiError {
	return &MultiError{}
}

// Add records err; nil is ignored
func (m *MultiError) Add(err error) {
	if err != nil {
		m.errs = append(m.errs, err)
	}
}

func (m *MultiError) Len() int {
	return len(m.errs)
}

// Err returns nil when nothing was added, the only error when one was added,
// and m otherwise.
func (m *MultiError) Err() error {
	switch len(m.errs) {
	case 0:
		return nil
	case 1:
		return m.errs[0]
	}
	return m
}

// Unwrap exposes the collected errors to errors.Is and errors.As
func (m *MultiError) Unwrap() []error {
	return m.errs
}

func (m *MultiError) Error() string {
	msgs := make([]string, len(m.errs))
	for i, err := range m.errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(m.errs), strings.Join(msgs, "; "))
}

// ContextError attaches the step that failed and its location (part, tag,
// row) to an underlying error.
type ContextError struct {
	Operation string
	Fields    Fields
	Cause     error
}

func (e *ContextError) Error() string {
	if len(e.Fields) == 0 {
		return e.Operation + ": " + e.Cause.Error()
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s=%v", k, e.Fields[k])
	}
	return fmt.Sprintf("%s (%s): %v", e.Operation, strings.Join(pairs, " "), e.Cause)
}

func (e *ContextError) Unwrap() error {
	return e.Cause
}

// WithContext wraps err with the failing operation and its location. A nil
// err stays nil.
func WithContext(err error, operation string, fields Fields) error {
	if err == nil {
		return nil
	}
	return &ContextError{Operation: operation, Fields: fields, Cause: err}
}

// RecoverError turns a value recovered from a panic during generation into an error
func RecoverError(r interface{}) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("generation panicked: %w", err)
	}
	return fmt.Errorf("generation panicked: %v", r)
}

// IsTemplateError checks if an error is or wraps a template error
func IsTemplateError(err error) bool {
	var target *TemplateError
	return errors.As(err, &target)
}

// IsPropertyError checks if an error is or wraps a property error
func IsPropertyError(err error) bool {
	var target *PropertyError
	return errors.As(err, &target)
}

// IsDocumentError checks if an error is or wraps a document error
func IsDocumentError(err error) bool {
	var target *DocumentError
	return errors.As(err, &target)
}
