package services

import (
	"time"

	"github.com/shopspring/decimal"

	"olist-dashboard/internal/dataset"
	"olist-dashboard/internal/models"
)

var allColumns = []string{
	models.ColCustomerID,
	models.ColOrderID,
	models.ColPurchaseTimestamp,
	models.ColCategory,
	models.ColCity,
	models.ColSellerID,
	models.ColPrice,
	models.ColPaymentValue,
}

func day0() time.Time {
	return time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
}

func amount(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

// tx builds a transaction purchased dayOffset days after day0.
func tx(customer, order string, dayOffset int, price string) models.Transaction {
	return models.Transaction{
		CustomerID:   customer,
		OrderID:      order,
		PurchasedAt:  day0().AddDate(0, 0, dayOffset),
		Category:     "housewares",
		City:         "sao paulo",
		SellerID:     "seller-1",
		Price:        amount(price),
		PaymentValue: amount(price),
	}
}

func newDataset(txs ...models.Transaction) *dataset.Dataset {
	return dataset.New(allColumns, txs, models.ColPaymentValue)
}
