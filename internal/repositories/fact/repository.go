package fact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/sujan-004/etl-pipeline-project/pkg/database"
	"github.com/sujan-004/etl-pipeline-project/pkg/models"
	"github.com/sujan-004/etl-pipeline-project/pkg/tracing"
)

const (
	SalesTable           = "fact_sales"
	CartAbandonmentTable = "fact_cart_abandonment"
)

var salesColumns = []string{
	"date_key", "customer_key", "product_key", "location_key", "order_id", "order_date",
	"quantity", "unit_price", "total_amount", "discount_amount", "shipping_cost",
	"payment_method", "delivery_date", "delivery_time_hours", "order_status",
}

var cartAbandonmentColumns = []string{
	"click_id", "date_key", "customer_key", "product_key", "session_id", "add_to_cart_time",
	"abandonment_time", "time_to_abandonment_minutes", "cart_value", "items_count",
	"device_type", "browser",
}

// Repository appends fact rows. Facts carry their business id under a unique
// index, so a replayed row is dropped instead of duplicated.
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

// InsertSales returns false when a fact for the same order_id already exists.
func (r *Repository) InsertSales(ctx context.Context, f models.SalesFact) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "fact.Repository.InsertSales")
	defer span.End()

	ib := database.NewInsertBuilder(r.flavor)
	ib.InsertInto(SalesTable)
	ib.Cols(salesColumns...)
	ib.Values(f.DateKey, f.CustomerKey, f.ProductKey, f.LocationKey, f.OrderID, f.OrderDate.UTC(),
		f.Quantity, f.UnitPrice, f.TotalAmount, f.DiscountAmount, f.ShippingCost,
		f.PaymentMethod, utcPtr(f.DeliveryDate), f.DeliveryTimeHours, f.OrderStatus)
	ib.OnConflictDoNothing("order_id")

	written, err := r.exec(ctx, ib)
	if err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithField("order_id", f.OrderID).Error("Failed to insert sales fact")
		return false, fmt.Errorf("failed to insert sales fact %s: %w", f.OrderID, err)
	}
	return written, nil
}

// InsertCartAbandonment returns false when a fact for the same click_id
// already exists.
func (r *Repository) InsertCartAbandonment(ctx context.Context, f models.CartAbandonmentFact) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "fact.Repository.InsertCartAbandonment")
	defer span.End()

	ib := database.NewInsertBuilder(r.flavor)
	ib.InsertInto(CartAbandonmentTable)
	ib.Cols(cartAbandonmentColumns...)
	ib.Values(f.ClickID, f.DateKey, f.CustomerKey, f.ProductKey, f.SessionID, f.AddToCartTime.UTC(),
		f.AbandonmentTime.UTC(), f.TimeToAbandonmentMinutes, f.CartValue, f.ItemsCount,
		f.DeviceType, f.Browser)
	ib.OnConflictDoNothing("click_id")

	written, err := r.exec(ctx, ib)
	if err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithField("click_id", f.ClickID).Error("Failed to insert cart abandonment fact")
		return false, fmt.Errorf("failed to insert cart abandonment fact %s: %w", f.ClickID, err)
	}
	return written, nil
}

func (r *Repository) exec(ctx context.Context, ib *database.InsertBuilder) (bool, error) {
	query, args := ib.Build()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repository) GetSalesByOrderID(ctx context.Context, orderID string) (*models.SalesFact, error) {
	sb := r.flavor.NewSelectBuilder()
	sb.Select(salesColumns...).From(SalesTable).Where(sb.Equal("order_id", orderID))

	query, args := sb.Build()
	var row models.SalesFact
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sales fact %s: %w", orderID, err)
	}
	return &row, nil
}

func (r *Repository) GetCartAbandonmentByClickID(ctx context.Context, clickID string) (*models.CartAbandonmentFact, error) {
	sb := r.flavor.NewSelectBuilder()
	sb.Select(cartAbandonmentColumns...).From(CartAbandonmentTable).Where(sb.Equal("click_id", clickID))

	query, args := sb.Build()
	var row models.CartAbandonmentFact
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cart abandonment fact %s: %w", clickID, err)
	}
	return &row, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
