package transform

import (
	"github.com/sujan-004/etl-pipeline-project/pkg/models"
)

// ForFactSales reshapes a cleaned order and its resolved keys into a sales
// fact. Any unresolved (zero) key rejects the fact.
func ForFactSales(order models.CanonicalOrder, customerKey, productKey, locationKey int64, dateKey int) Result[models.SalesFact] {
	reject := func(key string) Result[models.SalesFact] {
		return Reject[models.SalesFact](models.EntityOrders, order.OrderID, "%s is unresolved", key)
	}

	switch {
	case dateKey == 0:
		return reject("date_key")
	case customerKey == 0:
		return reject("customer_key")
	case productKey == 0:
		return reject("product_key")
	case locationKey == 0:
		return reject("location_key")
	}

	return Ok(models.SalesFact{
		DateKey:           dateKey,
		CustomerKey:       customerKey,
		ProductKey:        productKey,
		LocationKey:       locationKey,
		OrderID:           order.OrderID,
		OrderDate:         order.OrderDate,
		Quantity:          order.Quantity,
		UnitPrice:         order.UnitPrice,
		TotalAmount:       order.TotalAmount,
		DiscountAmount:    order.DiscountAmount,
		ShippingCost:      order.ShippingCost,
		PaymentMethod:     order.PaymentMethod,
		DeliveryDate:      order.DeliveryDate,
		DeliveryTimeHours: order.DeliveryTimeHours,
		OrderStatus:       order.OrderStatus,
	})
}
