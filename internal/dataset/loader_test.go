package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
)

const header = "customer_unique_id,order_id,order_purchase_timestamp,product_category_name,customer_city,seller_id,price,payment_value\n"

func read(t *testing.T, content string) (*Dataset, error) {
	t.Helper()
	return Read(context.Background(), strings.NewReader(content))
}

func TestRead_ValidData(t *testing.T) {
	ds, err := read(t, header+
		"c1,o1,2018-01-10 10:00:00,bed_bath_table,sao paulo,s1,10.50,12.00\n"+
		"c2,o2,2018-02-01 08:30:00,health_beauty,rio de janeiro,s2,20,25.10\n")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if ds.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ds.Len())
	}
	if ds.MonetaryColumn != models.ColPaymentValue {
		t.Errorf("MonetaryColumn = %q, want %q", ds.MonetaryColumn, models.ColPaymentValue)
	}

	want := time.Date(2018, 2, 1, 8, 30, 0, 0, time.UTC)
	if !ds.ReferenceDate.Equal(want) {
		t.Errorf("ReferenceDate = %v, want %v", ds.ReferenceDate, want)
	}

	tx := ds.Transactions[0]
	if tx.CustomerID != "c1" || tx.OrderID != "o1" || tx.City != "sao paulo" || tx.SellerID != "s1" {
		t.Errorf("unexpected transaction: %+v", tx)
	}
	if got := tx.Monetary(models.ColPaymentValue).Decimal.String(); got != "12" {
		t.Errorf("payment value = %s, want 12", got)
	}
	if got := tx.Monetary(models.ColPrice).Decimal.String(); got != "10.5" {
		t.Errorf("price = %s, want 10.5", got)
	}
}

func TestRead_DropsUnparseableTimestamps(t *testing.T) {
	ds, err := read(t, header+
		"c1,o1,2018-01-10 10:00:00,cat,city,s1,10,10\n"+
		"c2,o2,not-a-date,cat,city,s1,10,10\n"+
		"c3,o3,,cat,city,s1,10,10\n"+
		"c4,o4,2018-01-11,cat,city,s1,10,10\n")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if ds.Len() != 2 {
		t.Errorf("Len() = %d, want 2", ds.Len())
	}
	if ds.DroppedRows != 2 {
		t.Errorf("DroppedRows = %d, want 2", ds.DroppedRows)
	}
	for _, tx := range ds.Transactions {
		if tx.PurchasedAt.IsZero() {
			t.Errorf("transaction %s kept with zero timestamp", tx.OrderID)
		}
	}
}

func TestRead_MissingTimestampColumn(t *testing.T) {
	_, err := read(t, "customer_unique_id,order_id,price\nc1,o1,10\n")

	if !errors.HasCode(err, errors.CodeMissingColumn) {
		t.Fatalf("Read() error = %v, want %s", err, errors.CodeMissingColumn)
	}
	appErr, _ := errors.As(err)
	if appErr.Details != models.ColPurchaseTimestamp {
		t.Errorf("Details = %q", appErr.Details)
	}
}

func TestRead_FallsBackToPrice(t *testing.T) {
	ds, err := read(t, "customer_unique_id,order_id,order_purchase_timestamp,price\n"+
		"c1,o1,2018-01-10 10:00:00,10\n")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if ds.MonetaryColumn != models.ColPrice {
		t.Errorf("MonetaryColumn = %q, want %q", ds.MonetaryColumn, models.ColPrice)
	}
}

func TestRead_NoMonetaryColumn(t *testing.T) {
	_, err := read(t, "customer_unique_id,order_id,order_purchase_timestamp\nc1,o1,2018-01-10\n")

	if !errors.HasCode(err, errors.CodeNoMonetaryColumn) {
		t.Fatalf("Read() error = %v, want %s", err, errors.CodeNoMonetaryColumn)
	}
}

func TestRead_MissingCells(t *testing.T) {
	ds, err := read(t, header+
		"c1,,2018-01-10 10:00:00,NA,,s1,,oops\n")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	tx := ds.Transactions[0]
	if tx.OrderID != "" || tx.Category != "" || tx.City != "" {
		t.Errorf("missing cells should be empty, got %+v", tx)
	}
	if tx.Price.Valid || tx.PaymentValue.Valid {
		t.Error("missing and malformed amounts should not be valid")
	}
	if ds.InvalidAmounts != 1 {
		t.Errorf("InvalidAmounts = %d, want 1", ds.InvalidAmounts)
	}
}

func TestRead_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Read(ctx, strings.NewReader(header+"c1,o1,2018-01-10,cat,city,s1,1,1\n"))
	if err != context.Canceled {
		t.Errorf("Read() error = %v, want context.Canceled", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all_data.csv")
	if err := os.WriteFile(path, []byte(header+"c1,o1,2018-01-10,cat,city,s1,1,1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ds, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ds.Len() != 1 {
		t.Errorf("Len() = %d, want 1", ds.Len())
	}

	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}

func TestRead_EmptyInput(t *testing.T) {
	_, err := read(t, "")
	if !errors.HasCode(err, errors.CodeMissingColumn) {
		t.Errorf("Read() error = %v, want %s", err, errors.CodeMissingColumn)
	}
}

func TestRead_HeaderOnly(t *testing.T) {
	t.Run("full header", func(t *testing.T) {
		ds, err := read(t, header)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if ds.Len() != 0 {
			t.Errorf("Len() = %d, want 0", ds.Len())
		}
		if ds.MonetaryColumn != models.ColPaymentValue {
			t.Errorf("MonetaryColumn = %q, want %q", ds.MonetaryColumn, models.ColPaymentValue)
		}
		if !ds.HasColumn(models.ColSellerID) {
			t.Error("header columns should be recorded")
		}
		if !ds.ReferenceDate.IsZero() {
			t.Errorf("ReferenceDate = %v, want zero", ds.ReferenceDate)
		}
	})

	t.Run("no timestamp column", func(t *testing.T) {
		_, err := read(t, "customer_unique_id,order_id,price\n")
		if !errors.HasCode(err, errors.CodeMissingColumn) {
			t.Errorf("Read() error = %v, want %s", err, errors.CodeMissingColumn)
		}
	})

	t.Run("no monetary column", func(t *testing.T) {
		_, err := read(t, "customer_unique_id,order_id,order_purchase_timestamp\n")
		if !errors.HasCode(err, errors.CodeNoMonetaryColumn) {
			t.Errorf("Read() error = %v, want %s", err, errors.CodeNoMonetaryColumn)
		}
	})
}

func TestRead_MalformedCSV(t *testing.T) {
	_, err := read(t, header+"c1,o1,2018-01-10\n")
	if err == nil {
		t.Fatal("Read() of a short row should fail")
	}
	if _, ok := errors.As(err); ok {
		t.Errorf("malformed CSV should not be a schema error, got %v", err)
	}
}

func TestSelectMonetaryColumn(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    string
		wantErr bool
	}{
		{"prefers payment value", []string{"price", "payment_value"}, "payment_value", false},
		{"price only", []string{"order_id", "price"}, "price", false},
		{"neither", []string{"order_id"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectMonetaryColumn(tt.columns)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDataset_Require(t *testing.T) {
	ds := New([]string{"order_id", "customer_city"}, nil, "")

	if err := ds.Require("order_id", "customer_city"); err != nil {
		t.Errorf("Require() error = %v", err)
	}

	err := ds.Require("order_id", "seller_id", "price")
	appErr, ok := errors.As(err)
	if !ok || appErr.Code != errors.CodeMissingColumn {
		t.Fatalf("Require() error = %v", err)
	}
	if appErr.Details != "seller_id, price" {
		t.Errorf("Details = %q", appErr.Details)
	}

	if diff := cmp.Diff([]string{"customer_city", "order_id"}, ds.Columns()); diff != "" {
		t.Errorf("Columns() mismatch (-want +got):\n%s", diff)
	}
}
