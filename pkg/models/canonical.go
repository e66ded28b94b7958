package models

import "time"

// CanonicalOrder is a cleaned order, ready to be keyed against the dimensions.
type CanonicalOrder struct {
	StagingID         int64      `json:"staging_id"`
	OrderID           string     `json:"order_id" validate:"required"`
	CustomerID        string     `json:"customer_id" validate:"required"`
	ProductID         string     `json:"product_id" validate:"required"`
	OrderDate         time.Time  `json:"order_date" validate:"required"`
	OrderStatus       string     `json:"order_status" validate:"required"`
	Quantity          int        `json:"quantity" validate:"gte=1"`
	UnitPrice         float64    `json:"unit_price" validate:"gte=0"`
	TotalAmount       float64    `json:"total_amount" validate:"gte=0"`
	DiscountAmount    float64    `json:"discount_amount" validate:"gte=0"`
	ShippingCost      float64    `json:"shipping_cost" validate:"gte=0"`
	PaymentMethod     string     `json:"payment_method"`
	ShippingAddress   string     `json:"shipping_address"`
	City              string     `json:"city"`
	State             string     `json:"state"`
	Country           string     `json:"country"`
	PostalCode        string     `json:"postal_code"`
	Region            string     `json:"region"`
	DeliveryDate      *time.Time `json:"delivery_date,omitempty"`
	DeliveryTimeHours *int       `json:"delivery_time_hours,omitempty"`
	IngestedAt        time.Time  `json:"ingested_at"`
}

// CanonicalClick is a cleaned add-to-cart click.
type CanonicalClick struct {
	StagingID      int64     `json:"staging_id"`
	ClickID        string    `json:"click_id" validate:"required"`
	CustomerID     string    `json:"customer_id"`
	ProductID      string    `json:"product_id" validate:"required"`
	ClickType      string    `json:"click_type" validate:"required"`
	ClickTimestamp time.Time `json:"click_timestamp" validate:"required"`
	SessionID      string    `json:"session_id"`
	DeviceType     string    `json:"device_type"`
	Browser        string    `json:"browser"`
}
