package models

import "time"

type DimensionKind string

const (
	DimensionCustomer DimensionKind = "customer"
	DimensionProduct  DimensionKind = "product"
	DimensionLocation DimensionKind = "location"
)

// DimensionAttributes is implemented by the attribute sets accepted by the
// dimension upserts.
type DimensionAttributes interface {
	DimensionKind() DimensionKind
	NaturalKey() string
}

type CustomerAttributes struct {
	CustomerID       string     `json:"customer_id" db:"customer_id" validate:"required"`
	CustomerName     string     `json:"customer_name" db:"customer_name"`
	Email            string     `json:"email" db:"email"`
	Age              *int       `json:"age,omitempty" db:"age"`
	Gender           *string    `json:"gender,omitempty" db:"gender"`
	RegistrationDate *time.Time `json:"registration_date,omitempty" db:"registration_date"`
	CustomerSegment  string     `json:"customer_segment" db:"customer_segment"`
	IsActive         bool       `json:"is_active" db:"is_active"`
}

func (CustomerAttributes) DimensionKind() DimensionKind { return DimensionCustomer }
func (c CustomerAttributes) NaturalKey() string         { return c.CustomerID }

type ProductAttributes struct {
	ProductID     string  `json:"product_id" db:"product_id" validate:"required"`
	ProductName   string  `json:"product_name" db:"product_name"`
	Category      string  `json:"category" db:"category"`
	Subcategory   string  `json:"subcategory" db:"subcategory"`
	Brand         string  `json:"brand" db:"brand"`
	Price         float64 `json:"price" db:"price"`
	StockQuantity int     `json:"stock_quantity" db:"stock_quantity"`
	IsActive      bool    `json:"is_active" db:"is_active"`
}

func (ProductAttributes) DimensionKind() DimensionKind { return DimensionProduct }
func (p ProductAttributes) NaturalKey() string         { return p.ProductID }

// LocationAttributes identifies a location by (city, state, country,
// postal_code). An empty PostalCode also matches legacy rows stored as NULL.
type LocationAttributes struct {
	City       string `json:"city" db:"city" validate:"required"`
	State      string `json:"state" db:"state" validate:"required"`
	Country    string `json:"country" db:"country" validate:"required"`
	PostalCode string `json:"postal_code" db:"postal_code"`
	Region     string `json:"region" db:"region"`
}

func (LocationAttributes) DimensionKind() DimensionKind { return DimensionLocation }
func (l LocationAttributes) NaturalKey() string {
	return l.City + "|" + l.State + "|" + l.Country + "|" + l.PostalCode
}

type CustomerDimension struct {
	CustomerKey int64 `json:"customer_key" db:"customer_key"`
	CustomerAttributes
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type LocationDimension struct {
	LocationKey int64   `json:"location_key" db:"location_key"`
	City        string  `json:"city" db:"city"`
	State       string  `json:"state" db:"state"`
	Country     string  `json:"country" db:"country"`
	PostalCode  *string `json:"postal_code,omitempty" db:"postal_code"`
	Region      *string `json:"region,omitempty" db:"region"`
}

type DateDimension struct {
	DateKey    int       `json:"date_key" db:"date_key"`
	FullDate   time.Time `json:"full_date" db:"full_date"`
	DayOfWeek  int       `json:"day_of_week" db:"day_of_week"`
	DayName    string    `json:"day_name" db:"day_name"`
	DayOfMonth int       `json:"day_of_month" db:"day_of_month"`
	DayOfYear  int       `json:"day_of_year" db:"day_of_year"`
	WeekOfYear int       `json:"week_of_year" db:"week_of_year"`
	Month      int       `json:"month" db:"month"`
	MonthName  string    `json:"month_name" db:"month_name"`
	Quarter    int       `json:"quarter" db:"quarter"`
	Year       int       `json:"year" db:"year"`
	IsWeekend  bool      `json:"is_weekend" db:"is_weekend"`
	IsHoliday  bool      `json:"is_holiday" db:"is_holiday"`
}
