package transform

import (
	"github.com/sujan-004/etl-pipeline-project/pkg/catalog"
	"github.com/sujan-004/etl-pipeline-project/pkg/models"
)

const (
	DefaultCustomerSegment = "Standard"
	UnknownValue           = "Unknown"
)

// ForDimCustomer shapes catalog customer data into dimension attributes.
func ForDimCustomer(info catalog.CustomerInfo) models.CustomerAttributes {
	segment := info.Segment
	if segment == "" {
		segment = DefaultCustomerSegment
	}
	name := info.Name
	if name == "" {
		name = UnknownValue
	}
	return models.CustomerAttributes{
		CustomerID:       info.CustomerID,
		CustomerName:     name,
		Email:            info.Email,
		Age:              info.Age,
		Gender:           info.Gender,
		RegistrationDate: info.RegistrationDate,
		CustomerSegment:  segment,
		IsActive:         true,
	}
}

// ForDimProduct shapes catalog product data into dimension attributes.
func ForDimProduct(info catalog.ProductInfo) models.ProductAttributes {
	name := info.Name
	if name == "" {
		name = "Unknown Product"
	}
	category := info.Category
	if category == "" {
		category = catalog.UncategorizedCategory
	}
	brand := info.Brand
	if brand == "" {
		brand = UnknownValue
	}
	price := info.Price
	if price < 0 {
		price = 0
	}
	return models.ProductAttributes{
		ProductID:     info.ProductID,
		ProductName:   name,
		Category:      category,
		Subcategory:   info.Subcategory,
		Brand:         brand,
		Price:         round2(price),
		StockQuantity: info.StockQuantity,
		IsActive:      true,
	}
}

// ForDimLocation takes the trimmed location of an order. Empty city, state or
// country become Unknown so the order still resolves a location key. The
// postal code is kept as given, including empty.
func ForDimLocation(order models.CanonicalOrder) models.LocationAttributes {
	return models.LocationAttributes{
		City:       orUnknown(order.City),
		State:      orUnknown(order.State),
		Country:    orUnknown(order.Country),
		PostalCode: order.PostalCode,
		Region:     order.Region,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return UnknownValue
	}
	return s
}
