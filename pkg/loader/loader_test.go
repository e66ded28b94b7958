package loader_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujan-004/etl-pipeline-project/internal/repositories/dimension"
	"github.com/sujan-004/etl-pipeline-project/internal/repositories/fact"
	"github.com/sujan-004/etl-pipeline-project/internal/testutil"
	"github.com/sujan-004/etl-pipeline-project/pkg/database"
	etlerrors "github.com/sujan-004/etl-pipeline-project/pkg/errors"
	"github.com/sujan-004/etl-pipeline-project/pkg/loader"
	"github.com/sujan-004/etl-pipeline-project/pkg/models"
)

func newLoader(t *testing.T) (*loader.Loader, database.DB) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	l := loader.New(db, testutil.NewLogger())
	t.Cleanup(func() { _ = l.Close() })
	return l, db
}

func TestLoader_UpsertDimensions(t *testing.T) {
	l, db := newLoader(t)
	ctx := context.Background()

	customer := models.CustomerAttributes{CustomerID: "CUST1001", CustomerName: "Customer CUST1001", CustomerSegment: "Standard", IsActive: true}
	c1, err := l.UpsertCustomer(ctx, customer)
	require.NoError(t, err)
	c2, err := l.UpsertCustomer(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)

	p, err := l.UpsertProduct(ctx, models.ProductAttributes{ProductID: "PROD001", ProductName: "Wireless Headphones", IsActive: true})
	require.NoError(t, err)
	assert.NotZero(t, p)

	loc := models.LocationAttributes{City: "Austin", State: "TX", Country: "USA", PostalCode: "78701"}
	l1, err := l.UpsertLocation(ctx, loc)
	require.NoError(t, err)
	l2, err := l.UpsertDimension(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, l1, l2)

	assert.Equal(t, 1, testutil.Count(t, db, dimension.CustomerTable))
	assert.Equal(t, 1, testutil.Count(t, db, dimension.ProductTable))
	assert.Equal(t, 1, testutil.Count(t, db, dimension.LocationTable))
}

func TestLoader_UpsertDimension_IncompleteKey(t *testing.T) {
	l, db := newLoader(t)

	_, err := l.UpsertLocation(context.Background(), models.LocationAttributes{City: "Austin", State: "TX"})
	require.Error(t, err)
	assert.ErrorIs(t, err, etlerrors.ErrKeyResolution)
	assert.Equal(t, 0, testutil.Count(t, db, dimension.LocationTable))

	_, err = l.UpsertCustomer(context.Background(), models.CustomerAttributes{})
	assert.ErrorIs(t, err, etlerrors.ErrKeyResolution)
}

func TestLoader_DateKey(t *testing.T) {
	l, _ := newLoader(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		date    time.Time
		want    int
		wantErr bool
	}{
		{name: "first populated day", date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), want: 20200101},
		{name: "order day", date: time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC), want: 20240110},
		{name: "last populated day", date: time.Date(2030, 12, 31, 23, 59, 59, 0, time.UTC), want: 20301231},
		{name: "past the end", date: time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC), wantErr: true},
		{name: "before the start", date: time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := l.DateKey(ctx, tt.date)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, etlerrors.ErrKeyResolution)
				assert.Zero(t, key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, key)
		})
	}
}

func TestLoader_DateKey_Cached(t *testing.T) {
	l, db := newLoader(t)
	ctx := context.Background()
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	_, err := l.DateKey(ctx, day)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, "DELETE FROM dim_date WHERE date_key = 20240110")
	require.NoError(t, err)

	key, err := l.DateKey(ctx, day)
	require.NoError(t, err, "a found key is served from cache")
	assert.Equal(t, 20240110, key)
}

func TestLoader_InsertFacts(t *testing.T) {
	l, db := newLoader(t)
	ctx := context.Background()

	customer, err := l.UpsertCustomer(ctx, models.CustomerAttributes{CustomerID: "CUST1001", IsActive: true})
	require.NoError(t, err)
	product, err := l.UpsertProduct(ctx, models.ProductAttributes{ProductID: "PROD001", IsActive: true})
	require.NoError(t, err)
	location, err := l.UpsertLocation(ctx, models.LocationAttributes{City: "Austin", State: "TX", Country: "USA"})
	require.NoError(t, err)

	sale := models.SalesFact{
		DateKey:       20240110,
		CustomerKey:   customer,
		ProductKey:    product,
		LocationKey:   location,
		OrderID:       "ORD001",
		OrderDate:     time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC),
		Quantity:      2,
		UnitPrice:     99.99,
		TotalAmount:   199.98,
		PaymentMethod: "credit_card",
		OrderStatus:   "delivered",
	}

	written, err := l.InsertFactSales(ctx, sale)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = l.InsertFactSales(ctx, sale)
	require.NoError(t, err)
	assert.False(t, written, "replayed order is a duplicate")
	assert.Equal(t, 1, testutil.Count(t, db, fact.SalesTable))

	abandonment := models.CartAbandonmentFact{
		ClickID:       "CLK1",
		DateKey:       20240110,
		ProductKey:    product,
		AddToCartTime: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
		ItemsCount:    1,
	}
	written, err = l.InsertFact(ctx, abandonment)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, 1, testutil.Count(t, db, fact.CartAbandonmentTable))
}

func TestLoader_InsertFact_LoadError(t *testing.T) {
	l, db := newLoader(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, "DROP TABLE fact_sales")
	require.NoError(t, err)

	written, err := l.InsertFactSales(ctx, models.SalesFact{OrderID: "ORD001", DateKey: 20240110})
	require.Error(t, err)
	assert.False(t, written)
	assert.ErrorIs(t, err, etlerrors.ErrLoad)
}

func TestLoader_AcquireFailureIsFatal(t *testing.T) {
	l, db := newLoader(t)
	require.NoError(t, db.Close())

	_, err := l.DateKey(context.Background(), time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.True(t, etlerrors.IsFatal(err))

	_, err = l.UpsertCustomer(context.Background(), models.CustomerAttributes{CustomerID: "CUST1001"})
	assert.True(t, etlerrors.IsFatal(err))
}

func TestLoader_StorageFailureAfterAcquireIsNotFatal(t *testing.T) {
	l, db := newLoader(t)
	ctx := context.Background()

	_, err := l.UpsertCustomer(ctx, models.CustomerAttributes{CustomerID: "CUST1001", IsActive: true})
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, "DROP TABLE dim_customer")
	require.NoError(t, err)

	_, err = l.UpsertCustomer(ctx, models.CustomerAttributes{CustomerID: "CUST1002", IsActive: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, etlerrors.ErrKeyResolution)
	assert.False(t, etlerrors.IsFatal(err))
}

func TestLoader_DateKey_MissReportsCoverage(t *testing.T) {
	l, _ := newLoader(t)

	_, err := l.DateKey(context.Background(), time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.ErrorIs(t, err, etlerrors.ErrKeyResolution)
	assert.Contains(t, err.Error(), "date 20310101 is outside dim_date (populated 20200101..20301231)")
}
