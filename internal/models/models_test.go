package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func amount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCanonicalStatusIsResolved(t *testing.T) {
	resolved := []CanonicalStatus{StatusSuccessful, StatusFailed, StatusPending, StatusExpired, StatusRefunded}
	for _, s := range resolved {
		if !s.IsResolved() {
			t.Errorf("Expected %q to be resolved", s)
		}
	}
	if StatusUnresolved.IsResolved() {
		t.Error("The empty status must not be resolved")
	}
	if CanonicalStatus("authorized").IsResolved() {
		t.Error("Unknown statuses must not be resolved")
	}
}

func TestTransactionTypeClassification(t *testing.T) {
	if !TypePaymentCard.IsPayment() || !TypePaymentERIP.IsPayment() {
		t.Error("Card and ERIP payments must be payments")
	}
	for _, typ := range []TransactionType{TypeRefund, TypeCancel, TypeFee} {
		if typ.IsPayment() {
			t.Errorf("%q must not be a payment", typ)
		}
	}
	if TransactionType("unknown").IsValid() {
		t.Error("Unknown types must not be valid")
	}
}

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		tx      Transaction
		wantErr bool
	}{
		{
			name: "valid transaction",
			tx:   Transaction{UID: "uid-1", Type: TypePaymentCard, Amount: amount("10.00")},
		},
		{
			name:    "missing uid",
			tx:      Transaction{Type: TypePaymentCard, Amount: amount("10.00")},
			wantErr: true,
		},
		{
			name:    "negative amount",
			tx:      Transaction{UID: "uid-1", Type: TypePaymentCard, Amount: amount("-10.00")},
			wantErr: true,
		},
		{
			name:    "invalid type",
			tx:      Transaction{UID: "uid-1", Type: "mystery", Amount: amount("10.00")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHasContactKey(t *testing.T) {
	if (&Transaction{}).HasContactKey() {
		t.Error("Transaction without email and phone must have no contact key")
	}
	if !(&Transaction{Email: "a@example.com"}).HasContactKey() {
		t.Error("Email alone is a contact key")
	}
	if !(&Transaction{Phone: "375291112233"}).HasContactKey() {
		t.Error("Phone alone is a contact key")
	}
	// Card holder and telegram are match aids, not contact keys.
	if (&Transaction{CardHolder: "IVAN PETROV", Telegram: "ivan_petrov"}).HasContactKey() {
		t.Error("Card holder and telegram must not count as contact keys")
	}
}

func TestCompareAmounts(t *testing.T) {
	tests := []struct {
		name         string
		a, b         string
		equal        bool
		signMismatch bool
	}{
		{"exact equal", "100.00", "100.00", true, false},
		{"within epsilon", "100.00", "100.009", true, false},
		{"beyond epsilon", "100.00", "100.02", false, false},
		{"sign mismatch equal magnitude", "-25.00", "25.00", true, true},
		{"sign mismatch diverged magnitude", "-25.00", "30.00", false, true},
		{"both negative no mismatch", "-25.00", "-25.00", true, false},
		{"zero against zero", "0", "0", true, false},
		{"zero against negative", "0", "-0.005", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmp := CompareAmounts(amount(tt.a), amount(tt.b))
			if cmp.Equal != tt.equal {
				t.Errorf("CompareAmounts(%s, %s).Equal = %v, expected %v", tt.a, tt.b, cmp.Equal, tt.equal)
			}
			if cmp.SignMismatch != tt.signMismatch {
				t.Errorf("CompareAmounts(%s, %s).SignMismatch = %v, expected %v", tt.a, tt.b, cmp.SignMismatch, tt.signMismatch)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		wantErr  bool
	}{
		{"plain decimal", "120.50", "120.5", false},
		{"comma separator", "120,50", "120.5", false},
		{"thousands with comma decimals", "1 234,56", "1234.56", false},
		{"thousands comma with dot decimals", "1,234.56", "1234.56", false},
		{"currency suffix", "120.50 BYN", "120.5", false},
		{"negative", "-120.50", "-120.5", false},
		{"empty", "", "", true},
		{"letters only", "free", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmount(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if err == nil && got.String() != tt.expected {
				t.Errorf("ParseAmount(%q) = %s, expected %s", tt.raw, got, tt.expected)
			}
		})
	}
}
