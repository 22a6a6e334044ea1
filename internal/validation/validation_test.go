package validation

import (
	"testing"

	"github.com/shopspring/decimal"

	"kasirpos/backend/internal/domain"
)

func TestStructReportsNestedItemFields(t *testing.T) {
	req := domain.CreateTransactionRequest{
		PaymentMethod: "cash",
		PaidAmount:    decimal.NewFromInt(1000),
		Items: []domain.TransactionItemInput{
			{ProductID: 1, Qty: 1, Price: decimal.NewFromInt(1000)},
			{ProductID: 2, Qty: 0, Price: decimal.NewFromInt(-5)},
		},
	}

	err := Struct(req)
	verr, ok := As(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := verr.Fields["items.1.qty"]; !ok {
		t.Fatalf("expected items.1.qty error, got %v", verr.Fields)
	}
	if _, ok := verr.Fields["items.1.price"]; !ok {
		t.Fatalf("expected items.1.price error, got %v", verr.Fields)
	}
	if _, ok := verr.Fields["items.0.qty"]; ok {
		t.Fatalf("did not expect errors on the valid line: %v", verr.Fields)
	}
}

func TestStructRejectsUnknownPaymentMethod(t *testing.T) {
	req := domain.CreateTransactionRequest{
		PaymentMethod: "voucher",
		Items:         []domain.TransactionItemInput{{ProductID: 1, Qty: 1}},
	}
	verr, ok := As(Struct(req))
	if !ok {
		t.Fatalf("expected validation error")
	}
	if len(verr.Fields["payment_method"]) == 0 {
		t.Fatalf("expected payment_method error, got %v", verr.Fields)
	}
}

func TestStructRequiresItems(t *testing.T) {
	verr, ok := As(Struct(domain.CreateTransactionRequest{PaymentMethod: "qris"}))
	if !ok {
		t.Fatalf("expected validation error")
	}
	if len(verr.Fields["items"]) == 0 {
		t.Fatalf("expected items error, got %v", verr.Fields)
	}
}

func TestStructAcceptsValidRegistration(t *testing.T) {
	err := Struct(domain.RegisterRequest{
		Name:                 "Sari",
		Username:             "sari_01",
		Email:                "sari@example.com",
		Password:             "rahasia",
		PasswordConfirmation: "rahasia",
	})
	if err != nil {
		t.Fatalf("expected registration to validate, got %v", err)
	}
}

func TestStructRejectsBadUsernameAndMismatchedConfirmation(t *testing.T) {
	verr, ok := As(Struct(domain.RegisterRequest{
		Name:                 "Sari",
		Username:             "sari nama",
		Email:                "sari@example.com",
		Password:             "rahasia",
		PasswordConfirmation: "berbeda",
	}))
	if !ok {
		t.Fatalf("expected validation error")
	}
	if len(verr.Fields["username"]) == 0 {
		t.Fatalf("expected username error, got %v", verr.Fields)
	}
	if len(verr.Fields["password_confirmation"]) == 0 {
		t.Fatalf("expected password_confirmation error, got %v", verr.Fields)
	}
}

func TestFieldBuildsSingleMessage(t *testing.T) {
	err := Field("paid_amount", "Jumlah bayar kurang dari total")
	if err.Error() != "Jumlah bayar kurang dari total" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestMoneyTagEnforcesScaleAndRange(t *testing.T) {
	cases := []struct {
		amount string
		ok     bool
	}{
		{"10000", true},
		{"10000.50", true},
		{"9999999999999.99", true},
		{"10.005", false},
		{"10000000000000", false},
	}
	for _, tc := range cases {
		err := Struct(domain.CashFlowRequest{Type: "in", Amount: decimal.RequireFromString(tc.amount), Description: "setoran"})
		if tc.ok && err != nil {
			t.Fatalf("%s: expected valid amount, got %v", tc.amount, err)
		}
		if !tc.ok {
			verr, ok := As(err)
			if !ok || len(verr.Fields["amount"]) == 0 {
				t.Fatalf("%s: expected amount error, got %v", tc.amount, err)
			}
		}
	}
}

func TestMoneyTagAppliesToNestedItems(t *testing.T) {
	verr, ok := As(Struct(domain.CreateTransactionRequest{
		PaymentMethod: "cash",
		PaidAmount:    decimal.RequireFromString("1.001"),
		Items: []domain.TransactionItemInput{
			{ProductID: 1, Qty: 3, Price: decimal.RequireFromString("0.005")},
		},
	}))
	if !ok {
		t.Fatalf("expected validation error")
	}
	for _, field := range []string{"paid_amount", "items.0.price"} {
		if len(verr.Fields[field]) == 0 {
			t.Fatalf("expected %s error, got %v", field, verr.Fields)
		}
	}
}
