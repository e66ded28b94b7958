package staging

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/sujan-004/etl-pipeline-project/pkg/database"
	"github.com/sujan-004/etl-pipeline-project/pkg/models"
	"github.com/sujan-004/etl-pipeline-project/pkg/tracing"
)

const (
	OrdersTable         = "staging_orders"
	ClicksTable         = "staging_clicks"
	CustomerEventsTable = "staging_customer_events"
)

var orderColumns = []string{
	"id", "order_id", "customer_id", "product_id", "order_date", "order_status", "quantity",
	"unit_price", "total_amount", "discount_amount", "shipping_cost", "shipping_address",
	"city", "state", "country", "postal_code", "region", "delivery_date", "payment_method", "created_at",
}

var clickColumns = []string{
	"id", "click_id", "customer_id", "product_id", "click_type", "click_timestamp",
	"session_id", "device_type", "browser", "ip_address", "created_at",
}

var customerEventColumns = []string{
	"id", "event_id", "customer_id", "event_type", "event_timestamp", "event_data", "session_id", "created_at",
}

// Repository reads the append-only staging tables. It never writes to them
// outside of the Insert helpers used to seed fixtures.
type Repository struct {
	db     database.Querier
	flavor sqlbuilder.Flavor
	logger ectologger.Logger
}

func NewRepository(db database.Querier, flavor sqlbuilder.Flavor, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		flavor: flavor,
		logger: logger,
	}
}

// window selects rows ingested strictly after the watermark, oldest first. A
// nil watermark selects from the beginning of the table.
func (r *Repository) window(table string, columns []string, after *time.Time, limit int) (string, []any) {
	sb := r.flavor.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	if after != nil {
		sb.Where(sb.GreaterThan("created_at", after.UTC()))
	}
	sb.OrderBy("created_at ASC", "id ASC")
	sb.Limit(limit)
	return sb.Build()
}

func (r *Repository) ListOrders(ctx context.Context, after *time.Time, limit int) ([]models.StagingOrder, error) {
	ctx, span := tracing.StartSpan(ctx, "staging.Repository.ListOrders")
	defer span.End()

	query, args := r.window(OrdersTable, orderColumns, after, limit)
	var rows []models.StagingOrder
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"table": OrdersTable, "limit": limit}).Error("Failed to list staging orders")
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to list staging orders: %w", err)
	}
	return rows, nil
}

func (r *Repository) ListClicks(ctx context.Context, after *time.Time, limit int) ([]models.StagingClick, error) {
	ctx, span := tracing.StartSpan(ctx, "staging.Repository.ListClicks")
	defer span.End()

	query, args := r.window(ClicksTable, clickColumns, after, limit)
	var rows []models.StagingClick
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"table": ClicksTable, "limit": limit}).Error("Failed to list staging clicks")
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to list staging clicks: %w", err)
	}
	return rows, nil
}

func (r *Repository) ListCustomerEvents(ctx context.Context, after *time.Time, limit int) ([]models.StagingCustomerEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "staging.Repository.ListCustomerEvents")
	defer span.End()

	query, args := r.window(CustomerEventsTable, customerEventColumns, after, limit)
	var rows []models.StagingCustomerEvent
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"table": CustomerEventsTable, "limit": limit}).Error("Failed to list staging customer events")
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to list staging customer events: %w", err)
	}
	return rows, nil
}

func (r *Repository) InsertOrder(ctx context.Context, o models.StagingOrder) error {
	ib := r.flavor.NewInsertBuilder()
	ib.InsertInto(OrdersTable)
	ib.Cols(orderColumns[1:]...)
	ib.Values(o.OrderID, o.CustomerID, o.ProductID, o.OrderDate, o.OrderStatus, o.Quantity,
		o.UnitPrice, o.TotalAmount, o.DiscountAmount, o.ShippingCost, o.ShippingAddress,
		o.City, o.State, o.Country, o.PostalCode, o.Region, o.DeliveryDate, o.PaymentMethod, o.CreatedAt.UTC())

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert staging order: %w", err)
	}
	return nil
}

func (r *Repository) InsertClick(ctx context.Context, c models.StagingClick) error {
	ib := r.flavor.NewInsertBuilder()
	ib.InsertInto(ClicksTable)
	ib.Cols(clickColumns[1:]...)
	ib.Values(c.ClickID, c.CustomerID, c.ProductID, c.ClickType, c.ClickTimestamp,
		c.SessionID, c.DeviceType, c.Browser, c.IPAddress, c.CreatedAt.UTC())

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert staging click: %w", err)
	}
	return nil
}

func (r *Repository) InsertCustomerEvent(ctx context.Context, e models.StagingCustomerEvent) error {
	ib := r.flavor.NewInsertBuilder()
	ib.InsertInto(CustomerEventsTable)
	ib.Cols(customerEventColumns[1:]...)
	ib.Values(e.EventID, e.CustomerID, e.EventType, e.EventTimestamp, e.EventData, e.SessionID, e.CreatedAt.UTC())

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert staging customer event: %w", err)
	}
	return nil
}
