package shared

import (
	"errors"
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Catalog keys. Keys double as the English text.
const (
	MsgInvalidRequest           = "invalid request"
	MsgNotFound                 = "resource not found"
	MsgInsufficientStock        = "insufficient stock"
	MsgConflict                 = "duplicate entry"
	MsgInvalidCredentials       = "invalid username or password"
	MsgUnauthorized             = "authentication required"
	MsgForbidden                = "permission denied"
	MsgInternal                 = "internal server error"
	MsgUnsupportedPaymentMethod = "unsupported payment method"
	MsgUnsupportedDiscountType  = "unsupported discount type"
	MsgInvoiceCancelled         = "invoice cancelled successfully"
	MsgPaymentMethodUnchanged   = "payment method unchanged"
	MsgPaymentMethodChanged     = "payment method changed successfully"
	MsgTreasuryReset            = "treasury reset completed"
	MsgTransferCompleted        = "transfer completed successfully"
	MsgDeleted                  = "deleted successfully"
	MsgInvalidTransfer          = "source and destination accounts must differ"
	MsgInvoiceRemovedFromOrder  = "invoice removed from work order"
	MsgLoggedOut                = "logged out"
	MsgInvalidAmount            = "amount must be greater than zero"
	MsgUnsupportedMaterialType  = "unsupported material type"
	MsgUnsupportedTxType        = "unsupported transaction type"
)

// DefaultLanguage is the working language of the shop.
var DefaultLanguage = language.Arabic

var arabic = map[string]string{
	MsgInvalidRequest:           "طلب غير صالح",
	MsgNotFound:                 "العنصر غير موجود",
	MsgInsufficientStock:        "المخزون غير كافٍ",
	MsgConflict:                 "العنصر موجود بالفعل",
	MsgInvalidCredentials:       "اسم المستخدم أو كلمة المرور غير صحيحة",
	MsgUnauthorized:             "يجب تسجيل الدخول",
	MsgForbidden:                "ليس لديك صلاحية",
	MsgInternal:                 "حدث خطأ في الخادم",
	MsgUnsupportedPaymentMethod: "طريقة الدفع غير مدعومة",
	MsgUnsupportedDiscountType:  "نوع الخصم غير مدعوم",
	MsgInvoiceCancelled:         "تم إلغاء الفاتورة بنجاح",
	MsgPaymentMethodUnchanged:   "طريقة الدفع لم تتغير",
	MsgPaymentMethodChanged:     "تم تغيير طريقة الدفع بنجاح",
	MsgTreasuryReset:            "تم تصفير الخزينة",
	MsgTransferCompleted:        "تم التحويل بنجاح",
	MsgDeleted:                  "تم الحذف بنجاح",
	MsgInvalidTransfer:          "لا يمكن التحويل إلى نفس الحساب",
	MsgInvoiceRemovedFromOrder:  "تم حذف الفاتورة من أمر الشغل",
	MsgLoggedOut:                "تم تسجيل الخروج",
	MsgInvalidAmount:            "المبلغ يجب أن يكون أكبر من صفر",
	MsgUnsupportedMaterialType:  "نوع الخامة غير مدعوم",
	MsgUnsupportedTxType:        "نوع الحركة غير مدعوم",
	"invoice not found":         "الفاتورة غير موجودة",
	"customer not found":        "العميل غير موجود",
	"supplier not found":        "المورد غير موجود",
	"raw material not found":    "الخامة غير موجودة",
	"inventory item not found":  "صنف الجرد غير موجود",
	"work order not found":      "أمر الشغل غير موجود",
	"product not found":         "المنتج غير موجود",
	"local product not found":   "المنتج المحلي غير موجود",
	"expense not found":         "المصروف غير موجود",
	"user not found":            "المستخدم غير موجود",
}

var messages = func() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, ar := range arabic {
		_ = b.SetString(language.Arabic, key, ar)
		_ = b.SetString(language.English, key, key)
	}
	return b
}()

var matcher = language.NewMatcher([]language.Tag{language.Arabic, language.English})

// LanguageFromRequest resolves Accept-Language against the supported tags.
func LanguageFromRequest(r *http.Request) language.Tag {
	if r == nil {
		return DefaultLanguage
	}
	header := r.Header.Get("Accept-Language")
	if header == "" {
		return DefaultLanguage
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLanguage
	}
	if idx == 1 {
		return language.English
	}
	return language.Arabic
}

// Translate renders key in the requested language.
func Translate(tag language.Tag, key string) string {
	return message.NewPrinter(tag, message.Catalog(messages)).Sprintf(key)
}

// MessageKeyFor picks the catalog key describing err.
func MessageKeyFor(err error) string {
	var localized Localized
	if errors.As(err, &localized) {
		return localized.MessageKey()
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return MsgNotFound
	case errors.Is(err, ErrInsufficientStock):
		return MsgInsufficientStock
	case errors.Is(err, ErrValidation):
		return MsgInvalidRequest
	case errors.Is(err, ErrConflict):
		return MsgConflict
	case errors.Is(err, ErrInvalidCredentials):
		return MsgInvalidCredentials
	case errors.Is(err, ErrUnauthorized):
		return MsgUnauthorized
	case errors.Is(err, ErrForbidden):
		return MsgForbidden
	default:
		return MsgInternal
	}
}
