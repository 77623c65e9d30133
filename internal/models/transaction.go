package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Column names of the Olist order dataset.
const (
	ColCustomerID        = "customer_unique_id"
	ColOrderID           = "order_id"
	ColPurchaseTimestamp = "order_purchase_timestamp"
	ColCategory          = "product_category_name"
	ColCity              = "customer_city"
	ColSellerID          = "seller_id"
	ColPaymentValue      = "payment_value"
	ColPrice             = "price"
)

// Transaction is one order item row. Empty strings mean the cell was missing.
type Transaction struct {
	CustomerID   string
	OrderID      string
	PurchasedAt  time.Time
	Category     string
	City         string
	SellerID     string
	Price        decimal.NullDecimal
	PaymentValue decimal.NullDecimal
}

// Monetary returns the value of the named monetary column for this row.
func (t Transaction) Monetary(column string) decimal.NullDecimal {
	switch column {
	case ColPaymentValue:
		return t.PaymentValue
	case ColPrice:
		return t.Price
	default:
		return decimal.NullDecimal{}
	}
}

type CityOrders struct {
	City   string `json:"city"`
	Orders int    `json:"orders"`
}

type CategoryOrders struct {
	Category string `json:"category"`
	Orders   int    `json:"orders"`
}

type CategoryRevenue struct {
	Category string          `json:"category"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type SellerShare struct {
	SellerID      string  `json:"seller_id"`
	Orders        int     `json:"orders"`
	CumulativePct float64 `json:"cumulative_pct"`
}

type CityReport struct {
	Top    []CityOrders `json:"top"`
	Bottom []CityOrders `json:"bottom"`
}

type CategoryRevenueReport struct {
	MonetaryColumn string            `json:"monetary_column"`
	Top            []CategoryRevenue `json:"top"`
	Bottom         []CategoryRevenue `json:"bottom"`
}

type ParetoReport struct {
	Sellers     []SellerShare `json:"sellers"`
	TotalOrders int           `json:"total_orders"`
}
