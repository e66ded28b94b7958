package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujan-004/etl-pipeline-project/internal/repositories/dimension"
	"github.com/sujan-004/etl-pipeline-project/internal/repositories/fact"
	"github.com/sujan-004/etl-pipeline-project/internal/repositories/staging"
	"github.com/sujan-004/etl-pipeline-project/internal/testutil"
	"github.com/sujan-004/etl-pipeline-project/pkg/catalog"
	"github.com/sujan-004/etl-pipeline-project/pkg/database"
	"github.com/sujan-004/etl-pipeline-project/pkg/extractor"
	"github.com/sujan-004/etl-pipeline-project/pkg/loader"
	"github.com/sujan-004/etl-pipeline-project/pkg/models"
	"github.com/sujan-004/etl-pipeline-project/pkg/pipeline"
	"github.com/sujan-004/etl-pipeline-project/pkg/watermark"
)

var ingested = time.Date(2024, 1, 10, 10, 0, 5, 0, time.UTC)

type harness struct {
	db      database.DB
	staging *staging.Repository
	facts   *fact.Repository
	store   watermark.Store
	clock   *clock
	orch    *pipeline.Orchestrator
}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := testutil.NewLogger()
	db := testutil.NewSQLiteDB(t)

	h := &harness{
		db:      db,
		staging: staging.NewRepository(db, db.Flavor(), logger),
		facts:   fact.NewRepository(db, db.Flavor(), logger),
		store:   watermark.NewDatabaseStore(db, "ecommerce", logger),
		clock:   &clock{now: time.Date(2024, 1, 10, 11, 0, 0, 0, time.UTC)},
	}
	h.orch = pipeline.New(
		extractor.New(db, 0, logger),
		loader.New(db, logger),
		h.store,
		catalog.NewStaticCatalog(),
		pipeline.Config{Name: "ecommerce"},
		logger,
		pipeline.WithClock(h.clock.Now),
	)
	return h
}

func austinOrder(id string) models.StagingOrder {
	return models.StagingOrder{
		OrderID:      testutil.Ptr(id),
		CustomerID:   testutil.Ptr("CUST1001"),
		ProductID:    testutil.Ptr("PROD001"),
		OrderDate:    testutil.Ptr("2024-01-10 10:00:00"),
		DeliveryDate: testutil.Ptr("2024-01-12 10:00:00"),
		OrderStatus:  testutil.Ptr("delivered"),
		Quantity:     testutil.Ptr(int64(2)),
		UnitPrice:    testutil.Ptr(99.99),
		City:         testutil.Ptr("Austin"),
		State:        testutil.Ptr("TX"),
		Country:      testutil.Ptr("USA"),
		PostalCode:   testutil.Ptr("73301"),
		CreatedAt:    ingested,
	}
}

func click(id, clickType string, customer *string) models.StagingClick {
	return models.StagingClick{
		ClickID:        testutil.Ptr(id),
		CustomerID:     customer,
		ProductID:      testutil.Ptr("PROD002"),
		ClickType:      testutil.Ptr(clickType),
		ClickTimestamp: testutil.Ptr("2024-01-10 09:30:00"),
		SessionID:      testutil.Ptr("SESS1"),
		CreatedAt:      ingested,
	}
}

func TestOrchestrator_AustinOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.staging.InsertOrder(ctx, austinOrder("ORD100001")))

	report, err := h.orch.RunOnce(ctx)
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, models.RunCompleted, report.Status)
	assert.Nil(t, report.WatermarkBefore)
	require.NotNil(t, report.WatermarkAfter)
	assert.True(t, h.clock.now.Equal(*report.WatermarkAfter))

	orders := report.Entity(models.EntityOrders)
	assert.Equal(t, 1, orders.Extracted)
	assert.Equal(t, 1, orders.Loaded)
	assert.Empty(t, orders.Problems)

	sale, err := h.facts.GetSalesByOrderID(ctx, "ORD100001")
	require.NoError(t, err)
	require.NotNil(t, sale)
	assert.Equal(t, 199.98, sale.TotalAmount)
	assert.Equal(t, 20240110, sale.DateKey)
	require.NotNil(t, sale.DeliveryTimeHours)
	assert.Equal(t, 48, *sale.DeliveryTimeHours)

	dims := dimension.NewRepository(h.db, h.db.Flavor(), testutil.NewLogger())
	product, err := dims.GetProduct(ctx, "PROD001")
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, product.ProductKey, sale.ProductKey)
	assert.Equal(t, "Wireless Headphones", product.ProductName)

	wm, err := h.store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, wm)
	assert.True(t, h.clock.now.Equal(*wm))
}

func TestOrchestrator_WatermarkAdvancesAndWindowMoves(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.staging.InsertOrder(ctx, austinOrder("ORD100001")))

	first, err := h.orch.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Entity(models.EntityOrders).Loaded)

	// ingested after the first run started
	late := austinOrder("ORD100002")
	late.CreatedAt = h.clock.now.Add(time.Minute)
	require.NoError(t, h.staging.InsertOrder(ctx, late))

	h.clock.now = h.clock.now.Add(5 * time.Minute)
	second, err := h.orch.RunOnce(ctx)
	require.NoError(t, err)

	orders := second.Entity(models.EntityOrders)
	assert.Equal(t, 1, orders.Extracted, "only rows after the previous watermark are read")
	assert.Equal(t, 1, orders.Loaded)
	require.NotNil(t, second.WatermarkBefore)
	assert.True(t, second.WatermarkAfter.After(*second.WatermarkBefore))
	assert.Equal(t, 2, testutil.Count(t, h.db, fact.SalesTable))

	// same customer, product and location resolve to the existing rows
	assert.Equal(t, 1, testutil.Count(t, h.db, dimension.CustomerTable))
	assert.Equal(t, 1, testutil.Count(t, h.db, dimension.LocationTable))
}

func TestOrchestrator_ReplayedWindowIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.staging.InsertOrder(ctx, austinOrder("ORD100001")))

	_, err := h.orch.RunOnce(ctx)
	require.NoError(t, err)

	// a fresh store replays the whole table
	logger := testutil.NewLogger()
	replay := pipeline.New(extractor.New(h.db, 0, logger), loader.New(h.db, logger), watermark.NewMemoryStore(nil),
		catalog.NewStaticCatalog(), pipeline.Config{}, logger)
	report, err := replay.RunOnce(ctx)
	require.NoError(t, err)

	orders := report.Entity(models.EntityOrders)
	assert.Equal(t, 0, orders.Loaded)
	assert.Equal(t, 1, orders.Duplicates)
	assert.Equal(t, 1, testutil.Count(t, h.db, fact.SalesTable))
}

func TestOrchestrator_MissingOrderDateIsIsolated(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	bad := austinOrder("ORD100002")
	bad.OrderDate = nil
	bad.CustomerID = testutil.Ptr("CUST9999")

	require.NoError(t, h.staging.InsertOrder(ctx, austinOrder("ORD100001")))
	require.NoError(t, h.staging.InsertOrder(ctx, bad))
	require.NoError(t, h.staging.InsertOrder(ctx, austinOrder("ORD100003")))

	report, err := h.orch.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RunCompleted, report.Status)

	orders := report.Entity(models.EntityOrders)
	assert.Equal(t, 3, orders.Extracted)
	assert.Equal(t, 2, orders.Loaded)
	assert.Equal(t, 1, orders.Rejected)
	require.Len(t, orders.Problems, 1)
	assert.Equal(t, "ORD100002", orders.Problems[0].RecordID)
	assert.Equal(t, "validation_rejection", orders.Problems[0].Kind)

	assert.Equal(t, 2, testutil.Count(t, h.db, fact.SalesTable))
	// the rejected order never reached the dimensions
	assert.Equal(t, 1, testutil.Count(t, h.db, dimension.CustomerTable))
}

func TestOrchestrator_DateDimensionBoundary(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	last := austinOrder("ORD-LAST")
	last.OrderDate = testutil.Ptr("2030-12-31 23:00:00")
	last.DeliveryDate = nil
	beyond := austinOrder("ORD-BEYOND")
	beyond.OrderDate = testutil.Ptr("2031-01-01 00:00:00")
	beyond.DeliveryDate = nil

	require.NoError(t, h.staging.InsertOrder(ctx, last))
	require.NoError(t, h.staging.InsertOrder(ctx, beyond))

	report, err := h.orch.RunOnce(ctx)
	require.NoError(t, err)

	orders := report.Entity(models.EntityOrders)
	assert.Equal(t, 1, orders.Loaded)
	assert.Equal(t, 1, orders.Skipped)
	require.Len(t, orders.Problems, 1)
	assert.Equal(t, "ORD-BEYOND", orders.Problems[0].RecordID)
	assert.Equal(t, "key_resolution_failure", orders.Problems[0].Kind)

	sale, err := h.facts.GetSalesByOrderID(ctx, "ORD-LAST")
	require.NoError(t, err)
	require.NotNil(t, sale)
	assert.Equal(t, 20301231, sale.DateKey)
}

func TestOrchestrator_Clicks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.staging.InsertClick(ctx, click("CLK-VIEW", "view", testutil.Ptr("CUST2001"))))
	require.NoError(t, h.staging.InsertClick(ctx, click("CLK-CART", "add_to_cart", testutil.Ptr("CUST1001"))))
	require.NoError(t, h.staging.InsertClick(ctx, click("CLK-ANON", "add_to_cart", nil)))

	report, err := h.orch.RunOnce(ctx)
	require.NoError(t, err)

	clicks := report.Entity(models.EntityClicks)
	assert.Equal(t, 3, clicks.Extracted)
	assert.Equal(t, 1, clicks.Ignored)
	assert.Equal(t, 2, clicks.Loaded)
	assert.Empty(t, clicks.Problems)

	view, err := h.facts.GetCartAbandonmentByClickID(ctx, "CLK-VIEW")
	require.NoError(t, err)
	assert.Nil(t, view)

	cart, err := h.facts.GetCartAbandonmentByClickID(ctx, "CLK-CART")
	require.NoError(t, err)
	require.NotNil(t, cart)
	require.NotNil(t, cart.CustomerKey)
	assert.Equal(t, 20240110, cart.DateKey)
	assert.Equal(t, 30, cart.TimeToAbandonmentMinutes)
	assert.True(t, cart.AddToCartTime.Equal(cart.AbandonmentTime))

	anon, err := h.facts.GetCartAbandonmentByClickID(ctx, "CLK-ANON")
	require.NoError(t, err)
	require.NotNil(t, anon)
	assert.Nil(t, anon.CustomerKey)

	// the view click's customer was never upserted
	assert.Equal(t, 1, testutil.Count(t, h.db, dimension.CustomerTable))
}

func TestOrchestrator_ExtractionErrorHoldsWatermark(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.staging.InsertOrder(ctx, austinOrder("ORD100001")))

	_, err := h.db.ExecContext(ctx, "DROP TABLE staging_clicks")
	require.NoError(t, err)

	report, err := h.orch.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RunHeld, report.Status)
	assert.NotEmpty(t, report.Entity(models.EntityClicks).ExtractionError)
	assert.Equal(t, 1, report.Entity(models.EntityOrders).Loaded)

	wm, err := h.store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, wm, "a held run must not advance the watermark")

	snap := h.orch.State()
	assert.Equal(t, 1, snap.Runs)
	assert.Nil(t, snap.LastCompletedAt)
	require.NotNil(t, snap.LastRun)
	assert.Equal(t, report.RunID, snap.LastRun.RunID)
}
