package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujan-004/etl-pipeline-project/pkg/catalog"
)

func TestForFactSales(t *testing.T) {
	order, ok := CleanOrder(austinOrder()).Value()
	require.True(t, ok)

	fact, ok := ForFactSales(order, 1, 2, 3, 20240110).Value()
	require.True(t, ok)
	assert.Equal(t, "ORD100001", fact.OrderID)
	assert.Equal(t, int64(1), fact.CustomerKey)
	assert.Equal(t, int64(2), fact.ProductKey)
	assert.Equal(t, int64(3), fact.LocationKey)
	assert.Equal(t, 20240110, fact.DateKey)
	assert.Equal(t, 199.98, fact.TotalAmount)
	require.NotNil(t, fact.DeliveryTimeHours)
	assert.Equal(t, 48, *fact.DeliveryTimeHours)
}

func TestForFactSales_UnresolvedKey(t *testing.T) {
	order, ok := CleanOrder(austinOrder()).Value()
	require.True(t, ok)

	tests := []struct {
		name                        string
		customer, product, location int64
		date                        int
		reason                      string
	}{
		{"date", 1, 2, 3, 0, "date_key"},
		{"customer", 0, 2, 3, 20240110, "customer_key"},
		{"product", 1, 0, 3, 20240110, "product_key"},
		{"location", 1, 2, 0, 20240110, "location_key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ForFactSales(order, tt.customer, tt.product, tt.location, tt.date)
			assert.True(t, res.Rejected())
			assert.Contains(t, res.Reason(), tt.reason)
		})
	}
}

func TestForDimensions(t *testing.T) {
	cat := catalog.NewStaticCatalog()

	customer := ForDimCustomer(cat.Customer("CUST1001"))
	assert.Equal(t, "CUST1001", customer.CustomerID)
	assert.Equal(t, "Customer CUST1001", customer.CustomerName)
	assert.Equal(t, DefaultCustomerSegment, customer.CustomerSegment)
	assert.True(t, customer.IsActive)

	product := ForDimProduct(cat.Product("PROD404"))
	assert.Equal(t, "PROD404", product.ProductID)
	assert.Equal(t, catalog.UncategorizedCategory, product.Category)
	assert.Equal(t, UnknownValue, product.Brand)

	order, _ := CleanOrder(austinOrder()).Value()
	location := ForDimLocation(order)
	assert.Equal(t, "Austin", location.City)
	assert.Equal(t, "TX", location.State)
	assert.Equal(t, "USA", location.Country)
	assert.Equal(t, "73301", location.PostalCode)
}

func TestForDimLocation_EmptyFieldsFallBackToUnknown(t *testing.T) {
	raw := austinOrder()
	raw.City = nil
	raw.State = ptr("  ")
	raw.Country = nil
	raw.PostalCode = nil

	order, ok := CleanOrder(raw).Value()
	require.True(t, ok)

	location := ForDimLocation(order)
	assert.Equal(t, UnknownValue, location.City)
	assert.Equal(t, UnknownValue, location.State)
	assert.Equal(t, UnknownValue, location.Country)
	assert.Empty(t, location.PostalCode)
	assert.Equal(t, "Unknown|Unknown|Unknown|", location.NaturalKey())
}
