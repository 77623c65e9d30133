package handlers

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ptBR = message.NewPrinter(language.BrazilianPortuguese)

// formatBRL renders an amount with the Brazilian real symbol.
func formatBRL(d decimal.Decimal) string {
	return ptBR.Sprint(currency.Symbol(currency.BRL.Amount(d.Round(2).InexactFloat64())))
}

func formatCount(n int) string {
	return ptBR.Sprintf("%d", n)
}
