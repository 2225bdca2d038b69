package domain

import "github.com/shopspring/decimal"

type Category struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	IsActive    bool   `db:"is_active" json:"isActive"`
}

type Brand struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	IsActive    bool   `db:"is_active" json:"isActive"`
}

type Product struct {
	ID          string          `db:"id" json:"id"`
	CategoryID  string          `db:"category_id" json:"categoryId,omitempty"`
	BrandID     string          `db:"brand_id" json:"brandId,omitempty"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Discount    int             `db:"discount" json:"discount"` // percent, 0..100
	Stock       int             `db:"stock" json:"stock"`
	IsActive    bool            `db:"is_active" json:"isActive"`
	CreatedAt   string          `db:"created_at" json:"createdAt"`
	UpdatedAt   string          `db:"updated_at" json:"updatedAt,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// EffectivePrice is the unit price after the percentage discount, rounded to cents.
func (p Product) EffectivePrice() decimal.Decimal {
	d := p.Discount
	switch {
	case d < 0:
		d = 0
	case d > 100:
		d = 100
	}
	return p.Price.Mul(decimal.NewFromInt(int64(100 - d))).Div(hundred).Round(2)
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty"`
}

// Order statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCanceled  = "canceled"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCanceled:
		return true
	}
	return false
}

type OrderLine struct {
	ProductID string          `db:"product_id" json:"product"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unitPrice"`
}

type Order struct {
	ID          string          `db:"id" json:"id"`
	UserID      string          `db:"user_id" json:"user"`
	Items       []OrderLine     `db:"-" json:"items"`
	Total       decimal.Decimal `db:"total" json:"total"`
	Status      string          `db:"status" json:"status"`
	CreatedAt   string          `db:"created_at" json:"createdAt"`
	PublishedAt string          `db:"published_at" json:"publishedAt"`
}
