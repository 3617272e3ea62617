package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel markers used to classify failures across the pipeline. Callers
// match with errors.Is; the scheduler maps them onto job error messages and
// the API maps them onto HTTP status codes.
var (
	ErrValidation    = errors.New("validation error")
	ErrFetch         = errors.New("media fetch error")
	ErrTranscription = errors.New("transcription error")
	ErrEncoding      = errors.New("encoding error")
	ErrTimeout       = errors.New("operation timed out")
	ErrConfiguration = errors.New("configuration error")
	ErrUnavailable   = errors.New("service unavailable")
)

// ServiceError carries classification plus context for a pipeline failure.
type ServiceError struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Err       error
	Fields    map[string]string
}

func (e *ServiceError) Error() string {
	var sb strings.Builder
	if e.Stage != "" {
		sb.WriteString(e.Stage)
		sb.WriteString(": ")
	}
	if e.Operation != "" {
		sb.WriteString(e.Operation)
		sb.WriteString(": ")
	}
	if e.Message != "" {
		sb.WriteString(e.Message)
	} else if e.Marker != nil {
		sb.WriteString(e.Marker.Error())
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%s", k, e.Fields[k])
		}
		sb.WriteString(")")
	}
	return sb.String()
}

func (e *ServiceError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Marker != nil {
		out = append(out, e.Marker)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap builds a classified error. marker should be one of the sentinels above.
func Wrap(marker error, stage, operation, message string, err error) *ServiceError {
	return &ServiceError{
		Marker:    marker,
		Stage:     stage,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// WithField attaches a key/value detail and returns the error for chaining.
func (e *ServiceError) WithField(key, value string) *ServiceError {
	if e.Fields == nil {
		e.Fields = make(map[string]string, 2)
	}
	e.Fields[key] = value
	return e
}

// Details extracts the structured parts of err when it is a ServiceError.
func Details(err error) (stage, operation string, ok bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Stage, svcErr.Operation, true
	}
	return "", "", false
}
