package models

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in      string
		want    Money
		wantErr bool
	}{
		{"1500", 150000, false},
		{"1500.5", 150050, false},
		{"1,500.50", 150050, false},
		{".75", 75, false},
		{"", 0, true},
		{"12.345", 0, true},
		{"-5", 0, true},
		{"12.", 0, true},
		{"92233720368547758", 0, true},
		{"184467440737095517", 0, true},
		{"92233720368547757.99", 9223372036854775799, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseMoney(%q): expected error, got %s", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseMoney(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseMoney(%q): expected %d, got %d", tc.in, tc.want, got)
		}
	}
}

func TestMoneyMul_RefusesToWrap(t *testing.T) {
	price, err := ParseMoney("50000000000000000")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := price.Mul(2); !errors.Is(err, ErrMoneyOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if _, err := Money(math.MaxInt64).Mul(2); !errors.Is(err, ErrMoneyOverflow) {
		t.Fatalf("expected overflow at the int64 limit, got %v", err)
	}

	total, err := MaxPricePerSeat.Mul(60)
	if err != nil || total != MaxPricePerSeat*60 {
		t.Fatalf("expected the largest allowed booking to fit, got %s %v", total, err)
	}
	if total, err := Money(250000).Mul(2); err != nil || total.String() != "5000.00" {
		t.Fatalf("expected 5000.00, got %s %v", total, err)
	}
}

func TestMoneyJSON(t *testing.T) {
	var v struct {
		Price Money `json:"price"`
	}
	if err := json.Unmarshal([]byte(`{"price":"2500.00"}`), &v); err != nil || v.Price != 250000 {
		t.Fatalf("expected 250000, got %d %v", v.Price, err)
	}
	if err := json.Unmarshal([]byte(`{"price":12.5}`), &v); err != nil || v.Price != 1250 {
		t.Fatalf("expected 1250, got %d %v", v.Price, err)
	}
	if err := json.Unmarshal([]byte(`{"price":"184467440737095517"}`), &v); err == nil {
		t.Fatalf("expected overflow to be rejected")
	}
	out, _ := json.Marshal(Money(-150))
	if string(out) != `"-1.50"` {
		t.Fatalf("expected \"-1.50\", got %s", out)
	}
}
