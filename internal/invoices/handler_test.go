package invoices_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sealworks/seal-erp/internal/invoices"
	"github.com/sealworks/seal-erp/internal/treasury"
)

func newRouter(f *fixture) http.Handler {
	h := invoices.NewHandler(nil, f.svc)
	r := chi.NewRouter()
	r.Route("/invoices", h.MountRoutes)
	r.Route("/payments", h.MountPaymentRoutes)
	return r
}

func TestHandlerRejectsUnsupportedPaymentMethod(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)

	body := `{"customer_name":"عميل","payment_method":"bitcoin","items":[{"product_type":"manufactured","quantity":1,"unit_price":10,"total_price":10,"height":5}]}`
	req := httptest.NewRequest(http.MethodPost, "/invoices/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var problem struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Equal(t, "طريقة الدفع غير مدعومة", problem.Message)
	require.Empty(t, f.ledgerLog.All())
}

func TestHandlerChangePaymentMethod(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)
	inv, err := f.svc.Create(context.Background(), invoices.CreateInput{
		PaymentMethod: string(treasury.MethodCash),
		Items:         []invoices.Item{seal(60, 1, 5, nil)},
	})
	require.NoError(t, err)

	target := "/invoices/" + inv.ID + "/change-payment-method?new_payment_method=" + url.QueryEscape("paypal")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, target, nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	target = "/invoices/" + inv.ID + "/change-payment-method?new_payment_method=" + url.QueryEscape(string(treasury.MethodInstapay)) + "&username=mona"
	req := httptest.NewRequest(http.MethodPut, target, nil)
	req.Header.Set("Accept-Language", "en")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Message             string                 `json:"message"`
		ChangedBy           string                 `json:"changed_by"`
		TransactionsCreated []treasury.Transaction `json:"transactions_created"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "payment method changed successfully", resp.Message)
	require.Equal(t, "mona", resp.ChangedBy)
	require.Len(t, resp.TransactionsCreated, 2)
}

func TestHandlerCancelUnknownInvoice(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	newRouter(f).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/invoices/missing/cancel", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerRecordPaymentValidatesBody(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/", strings.NewReader(`{"amount":10}`))
	newRouter(f).ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
