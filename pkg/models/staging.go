package models

import (
	"time"

	"github.com/sujan-004/etl-pipeline-project/pkg/database"
)

type EntityType string

const (
	EntityOrders         EntityType = "orders"
	EntityClicks         EntityType = "clicks"
	EntityCustomerEvents EntityType = "customer_events"
)

// StagingOrder is a raw row from staging_orders. Every source column is
// nullable; the transformer decides what is usable.
type StagingOrder struct {
	ID              int64     `json:"id" db:"id"`
	OrderID         *string   `json:"order_id,omitempty" db:"order_id"`
	CustomerID      *string   `json:"customer_id,omitempty" db:"customer_id"`
	ProductID       *string   `json:"product_id,omitempty" db:"product_id"`
	OrderDate       *string   `json:"order_date,omitempty" db:"order_date"`
	OrderStatus     *string   `json:"order_status,omitempty" db:"order_status"`
	Quantity        *int64    `json:"quantity,omitempty" db:"quantity"`
	UnitPrice       *float64  `json:"unit_price,omitempty" db:"unit_price"`
	TotalAmount     *float64  `json:"total_amount,omitempty" db:"total_amount"`
	DiscountAmount  *float64  `json:"discount_amount,omitempty" db:"discount_amount"`
	ShippingCost    *float64  `json:"shipping_cost,omitempty" db:"shipping_cost"`
	ShippingAddress *string   `json:"shipping_address,omitempty" db:"shipping_address"`
	City            *string   `json:"city,omitempty" db:"city"`
	State           *string   `json:"state,omitempty" db:"state"`
	Country         *string   `json:"country,omitempty" db:"country"`
	PostalCode      *string   `json:"postal_code,omitempty" db:"postal_code"`
	Region          *string   `json:"region,omitempty" db:"region"`
	DeliveryDate    *string   `json:"delivery_date,omitempty" db:"delivery_date"`
	PaymentMethod   *string   `json:"payment_method,omitempty" db:"payment_method"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

type StagingClick struct {
	ID             int64     `json:"id" db:"id"`
	ClickID        *string   `json:"click_id,omitempty" db:"click_id"`
	CustomerID     *string   `json:"customer_id,omitempty" db:"customer_id"`
	ProductID      *string   `json:"product_id,omitempty" db:"product_id"`
	ClickType      *string   `json:"click_type,omitempty" db:"click_type"`
	ClickTimestamp *string   `json:"click_timestamp,omitempty" db:"click_timestamp"`
	SessionID      *string   `json:"session_id,omitempty" db:"session_id"`
	DeviceType     *string   `json:"device_type,omitempty" db:"device_type"`
	Browser        *string   `json:"browser,omitempty" db:"browser"`
	IPAddress      *string   `json:"ip_address,omitempty" db:"ip_address"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type StagingCustomerEvent struct {
	ID             int64                          `json:"id" db:"id"`
	EventID        *string                        `json:"event_id,omitempty" db:"event_id"`
	CustomerID     *string                        `json:"customer_id,omitempty" db:"customer_id"`
	EventType      *string                        `json:"event_type,omitempty" db:"event_type"`
	EventTimestamp *string                        `json:"event_timestamp,omitempty" db:"event_timestamp"`
	EventData      database.JSONB[map[string]any] `json:"event_data" db:"event_data"`
	SessionID      *string                        `json:"session_id,omitempty" db:"session_id"`
	CreatedAt      time.Time                      `json:"created_at" db:"created_at"`
}
