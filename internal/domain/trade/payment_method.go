package trade

import (
	"fmt"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how a customer settled (part of) a sale
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodMobileWallet PaymentMethod = "MOBILE_WALLET"
	PaymentMethodCredit       PaymentMethod = "CREDIT"
	PaymentMethodSplit        PaymentMethod = "SPLIT"
)

// IsValid checks if the method is a known payment method
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer,
		PaymentMethodMobileWallet, PaymentMethodCredit, PaymentMethodSplit:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// SplitPayment is one leg of a SPLIT payment
type SplitPayment struct {
	Method    PaymentMethod   `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
}

// ValidatePaymentMethod checks method and, for SPLIT, that the legs are
// non-empty, use concrete methods and add up to amount.
func ValidatePaymentMethod(method PaymentMethod, split []SplitPayment, amount decimal.Decimal) error {
	if !method.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unknown payment method: %s", method)).
			WithField("payment_method", "unknown payment method")
	}
	if method != PaymentMethodSplit {
		if len(split) > 0 {
			return shared.NewDomainError("INVALID_SPLIT_DETAILS", "Split payment details are only allowed with the SPLIT method").
				WithField("split_payment_details", "only allowed with SPLIT")
		}
		return nil
	}
	if len(split) == 0 {
		return shared.NewDomainError("SPLIT_DETAILS_REQUIRED", "Split payment details are required for SPLIT payments").
			WithField("split_payment_details", "required for SPLIT")
	}

	sum := decimal.Zero
	for idx, leg := range split {
		if !leg.Method.IsValid() || leg.Method == PaymentMethodSplit {
			return shared.NewDomainError("INVALID_SPLIT_DETAILS", fmt.Sprintf("Split leg %d has an invalid method", idx+1)).
				WithField("split_payment_details", "invalid method")
		}
		if !leg.Amount.IsPositive() {
			return shared.NewDomainError("INVALID_SPLIT_DETAILS", fmt.Sprintf("Split leg %d must have a positive amount", idx+1)).
				WithField("split_payment_details", "amounts must be positive")
		}
		sum = sum.Add(leg.Amount.Round(2))
	}
	if !sum.Equal(amount.Round(2)) {
		return shared.NewDomainError("SPLIT_MISMATCH",
			fmt.Sprintf("Split payments add up to %s but the payment is %s", sum.StringFixed(2), amount.StringFixed(2))).
			WithField("split_payment_details", "must add up to the payment amount")
	}
	return nil
}

func normalizeSplit(split []SplitPayment) []SplitPayment {
	out := make([]SplitPayment, len(split))
	for idx, leg := range split {
		out[idx] = SplitPayment{Method: leg.Method, Amount: leg.Amount.Round(2), Reference: leg.Reference}
	}
	return out
}
