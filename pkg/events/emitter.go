// Package events publishes run summaries and per-record problems so
// downstream consumers can react to a load without polling the warehouse.
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/sujan-004/etl-pipeline-project/pkg/kafka"
	"github.com/sujan-004/etl-pipeline-project/pkg/models"
	"github.com/sujan-004/etl-pipeline-project/pkg/tracing"
)

const SchemaVersion = "1.0"

const (
	EventRunCompleted  = "run.completed"
	EventRunHeld       = "run.held"
	EventRunFailed     = "run.failed"
	EventRecordSkipped = "record.skipped"
)

type Publisher interface {
	Publish(ctx context.Context, events ...*kafka.Event) error
}

type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
}

func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		logger:    logger,
	}
}

func runEventType(status models.RunStatus) string {
	switch status {
	case models.RunCompleted:
		return EventRunCompleted
	case models.RunHeld:
		return EventRunHeld
	default:
		return EventRunFailed
	}
}

// EmitRun publishes the run summary followed by one record.skipped event per
// problem record, all keyed so a consumer sees them in order.
func (e *Emitter) EmitRun(ctx context.Context, report *models.RunReport) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRun")
	defer span.End()

	summary, err := json.Marshal(map[string]any{
		"schema_version": SchemaVersion,
		"report":         report,
	})
	if err != nil {
		return err
	}

	batch := []*kafka.Event{{
		EventType: runEventType(report.Status),
		Pipeline:  report.Pipeline,
		RunID:     report.RunID,
		Key:       report.Pipeline,
		Data:      summary,
		Timestamp: report.FinishedAt,
	}}

	for _, entity := range report.Entities {
		batch = append(batch, ectolinq.Map(entity.Problems, func(problem models.RecordOutcome) *kafka.Event {
			// RecordOutcome only holds strings, so marshalling cannot fail.
			data, _ := json.Marshal(problem)
			return &kafka.Event{
				EventType: EventRecordSkipped,
				Pipeline:  report.Pipeline,
				RunID:     report.RunID,
				Key:       report.Pipeline,
				Data:      data,
				Timestamp: report.FinishedAt,
			}
		})...)
	}

	if err := e.publisher.Publish(ctx, batch...); err != nil {
		tracing.RecordError(span, err)
		e.logger.WithContext(ctx).WithError(err).WithField("run_id", report.RunID).Error("Failed to emit run events")
		return err
	}
	return nil
}
