package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticCatalog_Product(t *testing.T) {
	c := NewStaticCatalog()

	p := c.Product("PROD001")
	assert.Equal(t, "Wireless Headphones", p.Name)
	assert.Equal(t, "Electronics", p.Category)
	assert.Equal(t, "Audio", p.Subcategory)
	assert.Equal(t, "TechSound", p.Brand)
	assert.Equal(t, 99.99, p.Price)

	unknown := c.Product("PROD999")
	assert.Equal(t, "PROD999", unknown.ProductID)
	assert.Equal(t, "Product PROD999", unknown.Name)
	assert.Equal(t, UncategorizedCategory, unknown.Category)
	assert.Equal(t, DefaultBrand, unknown.Brand)
	assert.Zero(t, unknown.Price)
}

func TestStaticCatalog_Customer(t *testing.T) {
	c := NewStaticCatalog()

	cust := c.Customer("CUST1001")
	assert.Equal(t, "CUST1001", cust.CustomerID)
	assert.Equal(t, "Customer CUST1001", cust.Name)
	assert.Equal(t, "CUST1001@example.com", cust.Email)
	assert.Equal(t, DefaultSegment, cust.Segment)
	assert.Nil(t, cust.Age)
	assert.Nil(t, cust.Gender)
}
