package transform

import (
	"fmt"

	etlerrors "github.com/sujan-004/etl-pipeline-project/pkg/errors"
	"github.com/sujan-004/etl-pipeline-project/pkg/models"
)

// Result is either a value or a rejection explaining why the input was dropped.
type Result[T any] struct {
	value     T
	rejection *etlerrors.PipelineError
}

func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

func Reject[T any](entity models.EntityType, recordID string, format string, args ...any) Result[T] {
	return Result[T]{
		rejection: etlerrors.New(etlerrors.KindValidation, fmt.Sprintf(format, args...)).AddEntity(string(entity)).AddRecord(recordID),
	}
}

func (r Result[T]) Value() (T, bool) {
	return r.value, r.rejection == nil
}

func (r Result[T]) Rejected() bool {
	return r.rejection != nil
}

// Err returns the rejection, or nil for an accepted value.
func (r Result[T]) Err() error {
	if r.rejection == nil {
		return nil
	}
	return r.rejection
}

func (r Result[T]) Reason() string {
	if r.rejection == nil {
		return ""
	}
	return r.rejection.Message
}
