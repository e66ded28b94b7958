package dimension

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/sujan-004/etl-pipeline-project/pkg/database"
	"github.com/sujan-004/etl-pipeline-project/pkg/models"
	"github.com/sujan-004/etl-pipeline-project/pkg/tracing"
)

const (
	CustomerTable = "dim_customer"
	ProductTable  = "dim_product"
	LocationTable = "dim_location"
)

// ErrKeyNotFound is returned when the surrogate key lookup after an upsert
// finds no row.
var ErrKeyNotFound = errors.New("surrogate key not found")

// Repository upserts dimension rows by natural key and resolves their
// surrogate keys. Each upsert and its key lookup share one transaction.
type Repository struct {
	db     database.Conn
	flavor sqlbuilder.Flavor
	logger ectologger.Logger
}

func NewRepository(db database.Conn, flavor sqlbuilder.Flavor, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		flavor: flavor,
		logger: logger,
	}
}

func (r *Repository) UpsertCustomer(ctx context.Context, c models.CustomerAttributes) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "dimension.Repository.UpsertCustomer")
	defer span.End()

	ib := database.NewInsertBuilder(r.flavor)
	ib.InsertInto(CustomerTable)
	ib.Cols("customer_id", "customer_name", "email", "age", "gender", "registration_date", "customer_segment", "is_active")
	ib.Values(c.CustomerID, c.CustomerName, c.Email, c.Age, c.Gender, c.RegistrationDate, c.CustomerSegment, c.IsActive)
	ib.OnConflictUpdate([]string{"customer_id"}, "customer_name", "email", "age", "gender", "registration_date", "customer_segment", "is_active")

	sb := r.flavor.NewSelectBuilder()
	sb.Select("customer_key").From(CustomerTable).Where(sb.Equal("customer_id", c.CustomerID))

	key, err := r.upsertAndResolve(ctx, ib, sb)
	if err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithField("customer_id", c.CustomerID).Error("Failed to upsert customer")
		return 0, fmt.Errorf("failed to upsert customer %s: %w", c.CustomerID, err)
	}
	return key, nil
}

func (r *Repository) UpsertProduct(ctx context.Context, p models.ProductAttributes) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "dimension.Repository.UpsertProduct")
	defer span.End()

	ib := database.NewInsertBuilder(r.flavor)
	ib.InsertInto(ProductTable)
	ib.Cols("product_id", "product_name", "category", "subcategory", "brand", "price", "stock_quantity", "is_active")
	ib.Values(p.ProductID, p.ProductName, p.Category, p.Subcategory, p.Brand, p.Price, p.StockQuantity, p.IsActive)
	ib.OnConflictUpdate([]string{"product_id"}, "product_name", "category", "subcategory", "brand", "price", "stock_quantity", "is_active")

	sb := r.flavor.NewSelectBuilder()
	sb.Select("product_key").From(ProductTable).Where(sb.Equal("product_id", p.ProductID))

	key, err := r.upsertAndResolve(ctx, ib, sb)
	if err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithField("product_id", p.ProductID).Error("Failed to upsert product")
		return 0, fmt.Errorf("failed to upsert product %s: %w", p.ProductID, err)
	}
	return key, nil
}

// UpsertLocation resolves (city, state, country, postal_code). An empty
// postal code also matches a row stored with NULL; a non-empty one never
// does. When several rows match, the lowest key wins. A matched row only has
// its region refreshed, so legacy NULL rows are reused instead of gaining an
// empty-string twin.
func (r *Repository) UpsertLocation(ctx context.Context, l models.LocationAttributes) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "dimension.Repository.UpsertLocation")
	defer span.End()

	fields := map[string]any{"city": l.City, "state": l.State, "country": l.Country, "postal_code": l.PostalCode}

	var key int64
	err := database.RunInTx(ctx, r.logger, r.db, func(q database.Querier) error {
		existing, err := r.findLocationKey(ctx, q, l)
		if err != nil {
			return err
		}

		if existing != 0 {
			ub := r.flavor.NewUpdateBuilder()
			ub.Update(LocationTable)
			ub.Set(ub.Assign("region", l.Region), "updated_at = CURRENT_TIMESTAMP")
			ub.Where(ub.Equal("location_key", existing))
			query, args := ub.Build()
			if _, err := q.ExecContext(ctx, query, args...); err != nil {
				return err
			}
			key = existing
			return nil
		}

		ib := database.NewInsertBuilder(r.flavor)
		ib.InsertInto(LocationTable)
		ib.Cols("city", "state", "country", "postal_code", "region")
		ib.Values(l.City, l.State, l.Country, l.PostalCode, l.Region)
		ib.OnConflictUpdate([]string{"city", "state", "country", "postal_code"}, "region")
		query, args := ib.Build()
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return err
		}

		key, err = r.findLocationKey(ctx, q, l)
		if err != nil {
			return err
		}
		if key == 0 {
			return ErrKeyNotFound
		}
		return nil
	})
	if err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithFields(fields).Error("Failed to upsert location")
		return 0, fmt.Errorf("failed to upsert location %s: %w", l.NaturalKey(), err)
	}
	return key, nil
}

// findLocationKey returns 0 when no row matches.
func (r *Repository) findLocationKey(ctx context.Context, q database.Querier, l models.LocationAttributes) (int64, error) {
	sb := r.flavor.NewSelectBuilder()
	sb.Select("location_key").From(LocationTable)
	postal := sb.Equal("postal_code", l.PostalCode)
	if l.PostalCode == "" {
		postal = sb.Or(sb.Equal("postal_code", ""), sb.IsNull("postal_code"))
	}
	sb.Where(
		sb.Equal("city", l.City),
		sb.Equal("state", l.State),
		sb.Equal("country", l.Country),
		postal,
	)
	sb.OrderBy("location_key ASC")
	sb.Limit(1)

	query, args := sb.Build()
	var key int64
	if err := q.GetContext(ctx, &key, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return key, nil
}

func (r *Repository) upsertAndResolve(ctx context.Context, ib *database.InsertBuilder, sb *sqlbuilder.SelectBuilder) (int64, error) {
	var key int64
	err := database.RunInTx(ctx, r.logger, r.db, func(q database.Querier) error {
		query, args := ib.Build()
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return err
		}

		query, args = sb.Build()
		if err := q.GetContext(ctx, &key, query, args...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrKeyNotFound
			}
			return err
		}
		return nil
	})
	return key, err
}
