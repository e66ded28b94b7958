package transform

import (
	"strings"

	"github.com/sujan-004/etl-pipeline-project/pkg/models"
)

const (
	DefaultOrderStatus   = "pending"
	DefaultPaymentMethod = "unknown"
)

// CleanOrder validates and normalises a staging order. Orders missing any of
// order_id, customer_id, product_id or order_date are rejected.
func CleanOrder(raw models.StagingOrder) Result[models.CanonicalOrder] {
	orderID := str(raw.OrderID)
	reject := func(format string, args ...any) Result[models.CanonicalOrder] {
		return Reject[models.CanonicalOrder](models.EntityOrders, orderID, format, args...)
	}

	if orderID == "" {
		return reject("order_id is required")
	}
	customerID := str(raw.CustomerID)
	if customerID == "" {
		return reject("customer_id is required")
	}
	productID := str(raw.ProductID)
	if productID == "" {
		return reject("product_id is required")
	}
	orderDateText := str(raw.OrderDate)
	if orderDateText == "" {
		return reject("order_date is required")
	}
	orderDate, err := ParseTimestamp(orderDateText)
	if err != nil {
		return reject("order_date: %v", err)
	}

	quantity := 1
	if raw.Quantity != nil && *raw.Quantity > 1 {
		quantity = int(*raw.Quantity)
	}

	unitPrice := money(raw.UnitPrice)
	totalAmount := money(raw.TotalAmount)
	if raw.TotalAmount == nil {
		totalAmount = round2(float64(quantity) * unitPrice)
	}

	order := models.CanonicalOrder{
		StagingID:       raw.ID,
		OrderID:         orderID,
		CustomerID:      customerID,
		ProductID:       productID,
		OrderDate:       orderDate,
		OrderStatus:     strings.ToLower(strOr(raw.OrderStatus, DefaultOrderStatus)),
		Quantity:        quantity,
		UnitPrice:       unitPrice,
		TotalAmount:     totalAmount,
		DiscountAmount:  money(raw.DiscountAmount),
		ShippingCost:    money(raw.ShippingCost),
		PaymentMethod:   strOr(raw.PaymentMethod, DefaultPaymentMethod),
		ShippingAddress: str(raw.ShippingAddress),
		City:            str(raw.City),
		State:           str(raw.State),
		Country:         str(raw.Country),
		PostalCode:      str(raw.PostalCode),
		Region:          str(raw.Region),
		IngestedAt:      raw.CreatedAt,
	}

	if deliveryText := str(raw.DeliveryDate); deliveryText != "" {
		deliveryDate, err := ParseTimestamp(deliveryText)
		if err != nil {
			return reject("delivery_date: %v", err)
		}
		hours := int(deliveryDate.Sub(orderDate).Hours())
		order.DeliveryDate = &deliveryDate
		order.DeliveryTimeHours = &hours
	}

	if err := validate.Struct(order); err != nil {
		return reject("invalid order: %v", err)
	}

	return Ok(order)
}
