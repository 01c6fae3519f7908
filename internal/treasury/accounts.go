package treasury

import (
	"strings"

	"github.com/sealworks/seal-erp/internal/shared"
)

// AccountID names a treasury account.
type AccountID string

const (
	AccountCash           AccountID = "cash"
	AccountDeferred       AccountID = "deferred"
	AccountVodafoneElsawy AccountID = "vodafone_elsawy"
	AccountVodafoneWael   AccountID = "vodafone_wael"
	AccountInstapay       AccountID = "instapay"
	AccountYadElsawy      AccountID = "yad_elsawy"
)

// Accounts lists every account in display order.
var Accounts = []AccountID{
	AccountCash,
	AccountDeferred,
	AccountVodafoneElsawy,
	AccountVodafoneWael,
	AccountInstapay,
	AccountYadElsawy,
}

// PaymentMethod is the label stored on invoices and payments.
type PaymentMethod string

const (
	MethodCash           PaymentMethod = "نقدي"
	MethodDeferred       PaymentMethod = "آجل"
	MethodVodafoneElsawy PaymentMethod = "فودافون كاش محمد الصاوي"
	MethodVodafoneWael   PaymentMethod = "فودافون كاش وائل محمد"
	MethodInstapay       PaymentMethod = "انستاباي"
	MethodYadElsawy      PaymentMethod = "يد الصاوي"
)

// methodAccounts is the single mapping between payment methods and accounts.
var methodAccounts = map[PaymentMethod]AccountID{
	MethodCash:           AccountCash,
	MethodDeferred:       AccountDeferred,
	MethodVodafoneElsawy: AccountVodafoneElsawy,
	MethodVodafoneWael:   AccountVodafoneWael,
	MethodInstapay:       AccountInstapay,
	MethodYadElsawy:      AccountYadElsawy,
}

var accountMethods = func() map[AccountID]PaymentMethod {
	out := make(map[AccountID]PaymentMethod, len(methodAccounts))
	for m, a := range methodAccounts {
		out[a] = m
	}
	return out
}()

// ParsePaymentMethod accepts a method label or its account id.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.TrimSpace(s)
	if _, ok := methodAccounts[PaymentMethod(s)]; ok {
		return PaymentMethod(s), nil
	}
	if m, ok := accountMethods[AccountID(strings.ToLower(s))]; ok {
		return m, nil
	}
	return "", &shared.ValidationError{Err: shared.ErrValidation, Field: "payment_method", Details: s, Key: shared.MsgUnsupportedPaymentMethod}
}

// Account returns the treasury account the method settles into.
func (m PaymentMethod) Account() AccountID {
	return methodAccounts[m]
}

// IsDeferred reports whether the method is a credit sale.
func (m PaymentMethod) IsDeferred() bool {
	return m == MethodDeferred
}

// ParseAccount validates an account id.
func ParseAccount(s string) (AccountID, error) {
	id := AccountID(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := accountMethods[id]; ok {
		return id, nil
	}
	return "", shared.Invalid("account_id", "unknown account "+s)
}
