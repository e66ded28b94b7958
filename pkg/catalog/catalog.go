package catalog

import (
	"fmt"
	"time"
)

const (
	UncategorizedCategory = "Uncategorized"
	DefaultBrand          = "Unknown"
	DefaultSegment        = "Standard"
)

type ProductInfo struct {
	ProductID     string
	Name          string
	Category      string
	Subcategory   string
	Brand         string
	Price         float64
	StockQuantity int
}

type CustomerInfo struct {
	CustomerID       string
	Name             string
	Email            string
	Age              *int
	Gender           *string
	RegistrationDate *time.Time
	Segment          string
}

// Catalog supplies the descriptive attributes written to the product and
// customer dimensions. Lookups never fail; unknown ids get placeholders.
type Catalog interface {
	Product(productID string) ProductInfo
	Customer(customerID string) CustomerInfo
}

type StaticCatalog struct {
	products map[string]ProductInfo
}

func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{products: defaultProducts()}
}

func NewStaticCatalogWith(products ...ProductInfo) *StaticCatalog {
	c := &StaticCatalog{products: make(map[string]ProductInfo, len(products))}
	for _, p := range products {
		c.products[p.ProductID] = p
	}
	return c
}

func (c *StaticCatalog) Product(productID string) ProductInfo {
	if p, ok := c.products[productID]; ok {
		return p
	}
	return ProductInfo{
		ProductID:   productID,
		Name:        fmt.Sprintf("Product %s", productID),
		Category:    UncategorizedCategory,
		Subcategory: "",
		Brand:       DefaultBrand,
		Price:       0,
	}
}

// Customer synthesises a profile until a customer source is wired in.
func (c *StaticCatalog) Customer(customerID string) CustomerInfo {
	return CustomerInfo{
		CustomerID: customerID,
		Name:       fmt.Sprintf("Customer %s", customerID),
		Email:      fmt.Sprintf("%s@example.com", customerID),
		Segment:    DefaultSegment,
	}
}

func defaultProducts() map[string]ProductInfo {
	products := []ProductInfo{
		{ProductID: "PROD001", Name: "Wireless Headphones", Category: "Electronics", Subcategory: "Audio", Brand: "TechSound", Price: 99.99},
		{ProductID: "PROD002", Name: "Smartphone Case", Category: "Electronics", Subcategory: "Accessories", Brand: "ProtectPlus", Price: 24.99},
		{ProductID: "PROD003", Name: "Laptop Stand", Category: "Electronics", Subcategory: "Accessories", Brand: "ErgoDesk", Price: 49.99},
		{ProductID: "PROD004", Name: "Running Shoes", Category: "Fashion", Subcategory: "Footwear", Brand: "SportMax", Price: 79.99},
		{ProductID: "PROD005", Name: "Yoga Mat", Category: "Sports", Subcategory: "Fitness", Brand: "FlexFit", Price: 29.99},
		{ProductID: "PROD006", Name: "Coffee Maker", Category: "Home", Subcategory: "Appliances", Brand: "BrewMaster", Price: 89.99},
		{ProductID: "PROD007", Name: "Desk Lamp", Category: "Home", Subcategory: "Furniture", Brand: "BrightLight", Price: 34.99},
		{ProductID: "PROD008", Name: "Backpack", Category: "Fashion", Subcategory: "Bags", Brand: "TravelPro", Price: 59.99},
		{ProductID: "PROD009", Name: "Wireless Mouse", Category: "Electronics", Subcategory: "Computer", Brand: "ClickTech", Price: 19.99},
		{ProductID: "PROD010", Name: "Water Bottle", Category: "Sports", Subcategory: "Accessories", Brand: "Hydrate", Price: 14.99},
	}

	m := make(map[string]ProductInfo, len(products))
	for _, p := range products {
		m[p.ProductID] = p
	}
	return m
}
