package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
)

// Kind classifies a pipeline failure so the orchestrator can decide whether
// to skip a record, hold the watermark, or abort the run.
type Kind string

const (
	KindValidation    Kind = "validation_rejection"
	KindKeyResolution Kind = "key_resolution_failure"
	KindExtraction    Kind = "extraction_error"
	KindLoad          Kind = "load_error"
	KindFatal         Kind = "fatal_run_error"
)

type PipelineError struct {
	Kind     Kind
	Entity   string
	RecordID string
	Op       string
	Message  string
	cause    error
}

func New(kind Kind, msg string) *PipelineError {
	return &PipelineError{
		Kind:    kind,
		Message: msg,
	}
}

func Newf(kind Kind, format string, args ...any) *PipelineError {
	return &PipelineError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap attaches a kind to err. An err that already carries a kind keeps it.
func Wrap(kind Kind, err error, msg string) *PipelineError {
	if err == nil {
		return nil
	}

	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe
	}

	return &PipelineError{
		Kind:    kind,
		Message: msg,
		cause:   err,
	}
}

func Wrapf(kind Kind, err error, format string, args ...any) *PipelineError {
	return Wrap(kind, err, fmt.Sprintf(format, args...))
}

func (e *PipelineError) Error() string {
	path := []string{}
	if e.Entity != "" {
		path = append(path, fmt.Sprintf("entity '%s'", e.Entity))
	}
	if e.RecordID != "" {
		path = append(path, fmt.Sprintf("record '%s'", e.RecordID))
	}
	if e.Op != "" {
		path = append(path, fmt.Sprintf("op '%s'", e.Op))
	}

	msg := e.Message
	if e.cause != nil {
		if msg == "" {
			msg = e.cause.Error()
		} else {
			msg = msg + ": " + e.cause.Error()
		}
	}

	if len(path) == 0 {
		return string(e.Kind) + ": " + msg
	}

	return string(e.Kind) + ": " + strings.Join(path, " -> ") + ": " + msg
}

func (e *PipelineError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a PipelineError of the same kind.
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.cause == nil
}

func (e *PipelineError) AddEntity(entity string) *PipelineError {
	e.Entity = entity
	return e
}

func (e *PipelineError) AddRecord(recordID string) *PipelineError {
	e.RecordID = recordID
	return e
}

func (e *PipelineError) AddOp(op string) *PipelineError {
	e.Op = op
	return e
}

func (e *PipelineError) ToHTTPError() *httperror.HTTPError {
	status := http.StatusInternalServerError
	switch e.Kind {
	case KindValidation:
		status = http.StatusUnprocessableEntity
	case KindExtraction, KindFatal:
		status = http.StatusServiceUnavailable
	}
	return httperror.NewHTTPError(status, e.Error()).AddMetaValue("kind", string(e.Kind)).AddMetaValue("entity", e.Entity).AddMetaValue("record_id", e.RecordID)
}

// Sentinels for errors.Is checks.
var (
	ErrValidation    = &PipelineError{Kind: KindValidation}
	ErrKeyResolution = &PipelineError{Kind: KindKeyResolution}
	ErrExtraction    = &PipelineError{Kind: KindExtraction}
	ErrLoad          = &PipelineError{Kind: KindLoad}
	ErrFatal         = &PipelineError{Kind: KindFatal}
)

func IsPipelineError(err error) bool {
	var pe *PipelineError
	return stderrors.As(err, &pe)
}

// KindOf returns the kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

func IsFatal(err error) bool {
	return KindOf(err) == KindFatal
}
