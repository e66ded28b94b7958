package models

import "time"

type FactKind string

const (
	FactSales           FactKind = "fact_sales"
	FactCartAbandonment FactKind = "fact_cart_abandonment"
)

// FactRow is implemented by rows accepted by the fact inserts.
type FactRow interface {
	FactKind() FactKind
	BusinessKey() string
}

type SalesFact struct {
	DateKey           int        `json:"date_key" db:"date_key"`
	CustomerKey       int64      `json:"customer_key" db:"customer_key"`
	ProductKey        int64      `json:"product_key" db:"product_key"`
	LocationKey       int64      `json:"location_key" db:"location_key"`
	OrderID           string     `json:"order_id" db:"order_id"`
	OrderDate         time.Time  `json:"order_date" db:"order_date"`
	Quantity          int        `json:"quantity" db:"quantity"`
	UnitPrice         float64    `json:"unit_price" db:"unit_price"`
	TotalAmount       float64    `json:"total_amount" db:"total_amount"`
	DiscountAmount    float64    `json:"discount_amount" db:"discount_amount"`
	ShippingCost      float64    `json:"shipping_cost" db:"shipping_cost"`
	PaymentMethod     string     `json:"payment_method" db:"payment_method"`
	DeliveryDate      *time.Time `json:"delivery_date,omitempty" db:"delivery_date"`
	DeliveryTimeHours *int       `json:"delivery_time_hours,omitempty" db:"delivery_time_hours"`
	OrderStatus       string     `json:"order_status" db:"order_status"`
}

func (SalesFact) FactKind() FactKind    { return FactSales }
func (s SalesFact) BusinessKey() string { return s.OrderID }

type CartAbandonmentFact struct {
	ClickID                  string    `json:"click_id" db:"click_id"`
	DateKey                  int       `json:"date_key" db:"date_key"`
	CustomerKey              *int64    `json:"customer_key,omitempty" db:"customer_key"`
	ProductKey               int64     `json:"product_key" db:"product_key"`
	SessionID                string    `json:"session_id" db:"session_id"`
	AddToCartTime            time.Time `json:"add_to_cart_time" db:"add_to_cart_time"`
	AbandonmentTime          time.Time `json:"abandonment_time" db:"abandonment_time"`
	TimeToAbandonmentMinutes int       `json:"time_to_abandonment_minutes" db:"time_to_abandonment_minutes"`
	CartValue                float64   `json:"cart_value" db:"cart_value"`
	ItemsCount               int       `json:"items_count" db:"items_count"`
	DeviceType               string    `json:"device_type" db:"device_type"`
	Browser                  string    `json:"browser" db:"browser"`
}

func (CartAbandonmentFact) FactKind() FactKind    { return FactCartAbandonment }
func (c CartAbandonmentFact) BusinessKey() string { return c.ClickID }
