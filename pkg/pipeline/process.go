package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	etlerrors "github.com/sujan-004/etl-pipeline-project/pkg/errors"
	"github.com/sujan-004/etl-pipeline-project/pkg/metrics"
	"github.com/sujan-004/etl-pipeline-project/pkg/models"
	"github.com/sujan-004/etl-pipeline-project/pkg/transform"
)

// processOrders returns an extraction error, a fatal error, or nil. Every
// other failure is confined to its record.
func (o *Orchestrator) processOrders(ctx context.Context, wm *time.Time, report *models.EntityReport) error {
	orders, err := o.extractor.ExtractOrders(ctx, wm, o.config.BatchSize)
	metrics.RecordExtraction(string(models.EntityOrders), len(orders), err)
	if err != nil {
		return err
	}
	report.Extracted = len(orders)

	for _, raw := range orders {
		if err := ctx.Err(); err != nil {
			return etlerrors.Wrap(etlerrors.KindFatal, err, "run cancelled").AddEntity(string(models.EntityOrders))
		}

		id := ""
		if raw.OrderID != nil {
			id = *raw.OrderID
		}
		outcome, err := o.isolate(ctx, models.EntityOrders, id, func() (models.RecordOutcome, error) {
			return o.processOrder(ctx, raw)
		})
		if err != nil {
			return err
		}
		report.Record(outcome)
	}
	return nil
}

func (o *Orchestrator) processOrder(ctx context.Context, raw models.StagingOrder) (models.RecordOutcome, error) {
	cleaned := transform.CleanOrder(raw)
	order, ok := cleaned.Value()
	if !ok {
		return rejected(models.EntityOrders, cleaned.Err()), nil
	}
	outcome := models.RecordOutcome{Entity: models.EntityOrders, RecordID: order.OrderID}

	dateKey, err := o.loader.DateKey(ctx, order.OrderDate)
	if err != nil {
		return classify(outcome, err)
	}
	customerKey, err := o.loader.UpsertCustomer(ctx, transform.ForDimCustomer(o.catalog.Customer(order.CustomerID)))
	if err != nil {
		return classify(outcome, err)
	}
	productKey, err := o.loader.UpsertProduct(ctx, transform.ForDimProduct(o.catalog.Product(order.ProductID)))
	if err != nil {
		return classify(outcome, err)
	}
	locationKey, err := o.loader.UpsertLocation(ctx, transform.ForDimLocation(order))
	if err != nil {
		return classify(outcome, err)
	}

	sale := transform.ForFactSales(order, customerKey, productKey, locationKey, dateKey)
	row, ok := sale.Value()
	if !ok {
		return classify(outcome, etlerrors.New(etlerrors.KindKeyResolution, sale.Reason()))
	}

	written, err := o.loader.InsertFactSales(ctx, row)
	if err != nil {
		return classify(outcome, err)
	}
	return loadedOrDuplicate(outcome, written), nil
}

func (o *Orchestrator) processClicks(ctx context.Context, wm *time.Time, report *models.EntityReport) error {
	clicks, err := o.extractor.ExtractClicks(ctx, wm, o.config.BatchSize)
	metrics.RecordExtraction(string(models.EntityClicks), len(clicks), err)
	if err != nil {
		return err
	}
	report.Extracted = len(clicks)

	for _, raw := range clicks {
		if err := ctx.Err(); err != nil {
			return etlerrors.Wrap(etlerrors.KindFatal, err, "run cancelled").AddEntity(string(models.EntityClicks))
		}

		id := ""
		if raw.ClickID != nil {
			id = *raw.ClickID
		}
		outcome, err := o.isolate(ctx, models.EntityClicks, id, func() (models.RecordOutcome, error) {
			return o.processClick(ctx, raw)
		})
		if err != nil {
			return err
		}
		report.Record(outcome)
	}
	return nil
}

// processClick turns an add-to-cart click into a cart abandonment fact. Any
// other click type is ignored before anything is written.
func (o *Orchestrator) processClick(ctx context.Context, raw models.StagingClick) (models.RecordOutcome, error) {
	if !transform.IsAddToCart(raw) {
		id := ""
		if raw.ClickID != nil {
			id = *raw.ClickID
		}
		return models.RecordOutcome{Entity: models.EntityClicks, RecordID: id, Status: models.RecordIgnored}, nil
	}

	cleaned := transform.CleanClick(raw)
	click, ok := cleaned.Value()
	if !ok {
		return rejected(models.EntityClicks, cleaned.Err()), nil
	}
	outcome := models.RecordOutcome{Entity: models.EntityClicks, RecordID: click.ClickID}

	dateKey, err := o.loader.DateKey(ctx, click.ClickTimestamp)
	if err != nil {
		return classify(outcome, err)
	}

	var customerKey int64
	if click.CustomerID != "" {
		customerKey, err = o.loader.UpsertCustomer(ctx, transform.ForDimCustomer(o.catalog.Customer(click.CustomerID)))
		if err != nil {
			return classify(outcome, err)
		}
	}

	productKey, err := o.loader.UpsertProduct(ctx, transform.ForDimProduct(o.catalog.Product(click.ProductID)))
	if err != nil {
		return classify(outcome, err)
	}

	row, ok := transform.CartAbandonment(click, customerKey, productKey, dateKey)
	if !ok {
		return classify(outcome, etlerrors.New(etlerrors.KindKeyResolution, "cart abandonment keys unresolved"))
	}

	written, err := o.loader.InsertFactCartAbandonment(ctx, *row)
	if err != nil {
		return classify(outcome, err)
	}
	return loadedOrDuplicate(outcome, written), nil
}

// isolate runs one record, turning a panic into a failed outcome so the rest
// of the batch carries on.
func (o *Orchestrator) isolate(ctx context.Context, entity models.EntityType, recordID string, fn func() (models.RecordOutcome, error)) (outcome models.RecordOutcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			o.logger.WithContext(ctx).WithFields(map[string]any{
				"entity":    entity,
				"record_id": recordID,
				"panic":     fmt.Sprint(p),
				"stack":     string(debug.Stack()),
			}).Error("Recovered panic while processing record")
			outcome = models.RecordOutcome{
				Entity:   entity,
				RecordID: recordID,
				Status:   models.RecordFailed,
				Kind:     string(etlerrors.KindLoad),
				Cause:    fmt.Sprintf("panic: %v", p),
			}
			err = nil
		}
	}()

	outcome, err = fn()
	if err != nil {
		return outcome, err
	}

	if outcome.Status != models.RecordLoaded && outcome.Status != models.RecordDuplicate && outcome.Status != models.RecordIgnored {
		o.logger.WithContext(ctx).WithFields(map[string]any{
			"entity":    entity,
			"record_id": outcome.RecordID,
			"status":    outcome.Status,
			"kind":      outcome.Kind,
			"cause":     outcome.Cause,
		}).Warn("Record not loaded")
	}
	return outcome, nil
}

func rejected(entity models.EntityType, err error) models.RecordOutcome {
	outcome := models.RecordOutcome{
		Entity: entity,
		Status: models.RecordRejected,
		Kind:   string(etlerrors.KindValidation),
	}
	var pe *etlerrors.PipelineError
	if errors.As(err, &pe) {
		outcome.RecordID = pe.RecordID
		outcome.Cause = pe.Message
	} else if err != nil {
		outcome.Cause = err.Error()
	}
	return outcome
}

// classify maps a loader error onto the record outcome. A fatal error is
// handed back so the run stops.
func classify(outcome models.RecordOutcome, err error) (models.RecordOutcome, error) {
	kind := etlerrors.KindOf(err)
	outcome.Kind = string(kind)
	outcome.Cause = err.Error()

	switch kind {
	case etlerrors.KindFatal:
		outcome.Status = models.RecordFailed
		return outcome, err
	case etlerrors.KindKeyResolution:
		outcome.Status = models.RecordSkipped
	case etlerrors.KindValidation:
		outcome.Status = models.RecordRejected
	default:
		if kind == "" {
			outcome.Kind = string(etlerrors.KindLoad)
		}
		outcome.Status = models.RecordFailed
	}
	return outcome, nil
}

func loadedOrDuplicate(outcome models.RecordOutcome, written bool) models.RecordOutcome {
	if written {
		outcome.Status = models.RecordLoaded
	} else {
		outcome.Status = models.RecordDuplicate
	}
	return outcome
}
