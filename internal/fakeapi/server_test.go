package fakeapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-bizadmin-client/internal/config"
	"github.com/jrsteele09/go-bizadmin-client/internal/fakeapi"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "Admin123"
)

type harness struct {
	t      *testing.T
	fake   *fakeapi.Server
	server *httptest.Server
	token  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fake, err := fakeapi.New(config.New(), fakeapi.WithLogger(zerolog.Nop()), fakeapi.WithEnv("TEST"))
	require.NoError(t, err)
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	return &harness{t: t, fake: fake, server: server}
}

func (h *harness) login() gjson.Result {
	h.t.Helper()
	status, body := h.do(http.MethodPost, "/auth/login", map[string]string{"email": adminEmail, "password": adminPassword})
	require.Equal(h.t, http.StatusOK, status, body.Raw)
	h.token = body.Get("token").String()
	return body
}

func (h *harness) do(method, path string, payload any) (int, gjson.Result) {
	h.t.Helper()
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(h.t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, h.server.URL+path, reader)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	return h.send(req)
}

func (h *harness) send(req *http.Request) (int, gjson.Result) {
	h.t.Helper()
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return resp.StatusCode, gjson.ParseBytes(data)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(http.MethodPost, "/auth/login", map[string]string{"email": adminEmail, "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, status)
	require.False(t, body.Get("success").Bool())
	require.Equal(t, "Invalid email or password", body.Get("message").String())

	status, _ = h.do(http.MethodPost, "/auth/login", map[string]string{"email": adminEmail})
	require.Equal(t, http.StatusBadRequest, status)

	body = h.login()
	require.NotEmpty(t, body.Get("token").String())
	require.NotEmpty(t, body.Get("refreshToken").String())
	require.Equal(t, adminEmail, body.Get("user.email").String())
	require.False(t, body.Get("user.passwordHash").Exists())
	require.EqualValues(t, 3, h.fake.LoginCalls())
}

func TestProtectedRoutes_NeedBearerToken(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(http.MethodGet, "/customer", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "No token provided", body.Get("message").String())

	h.token = "not-a-jwt"
	status, _ = h.do(http.MethodGet, "/customer", nil)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestRefresh(t *testing.T) {
	h := newHarness(t)
	refresh := h.login().Get("refreshToken").String()

	h.fake.ExpireAccessTokens()
	status, _ := h.do(http.MethodGet, "/customer", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, body := h.do(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, status, body.Raw)
	h.token = body.Get("token").String()
	require.False(t, body.Get("refreshToken").Exists())

	status, _ = h.do(http.MethodGet, "/customer", nil)
	require.Equal(t, http.StatusOK, status)

	h.fake.FailRefresh(true)
	status, _ = h.do(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": refresh})
	require.Equal(t, http.StatusUnauthorized, status)
	require.EqualValues(t, 2, h.fake.RefreshCalls())
}

func TestRefresh_RotatesWhenConfigured(t *testing.T) {
	t.Setenv("BIZADMIN_FAKEAPI_ROTATEREFRESH", "true")
	h := newHarness(t)
	refresh := h.login().Get("refreshToken").String()

	status, body := h.do(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, status)
	rotated := body.Get("refreshToken").String()
	require.NotEmpty(t, rotated)
	require.NotEqual(t, refresh, rotated)

	status, _ = h.do(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": refresh})
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestAccessToken_Expires(t *testing.T) {
	h := newHarness(t)
	h.login()

	defer func() { fakeapi.NowTimeFunc = time.Now }()
	fakeapi.NowTimeFunc = func() time.Time { return time.Now().Add(time.Hour) }

	status, body := h.do(http.MethodGet, "/product", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "Invalid or expired token", body.Get("message").String())
}

func TestCollectionCRUD(t *testing.T) {
	h := newHarness(t)
	h.login()

	status, body := h.do(http.MethodPost, "/customer", map[string]any{"name": "Acme Textiles", "email": "acme@example.com"})
	require.Equal(t, http.StatusCreated, status, body.Raw)
	id := body.Get("data._id").String()
	require.NotEmpty(t, id)

	status, _ = h.do(http.MethodPost, "/customer", map[string]any{"email": "nameless@example.com"})
	require.Equal(t, http.StatusBadRequest, status)

	status, body = h.do(http.MethodPut, "/customer/"+id, map[string]any{"phone": "555-0100"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "555-0100", body.Get("data.phone").String())
	require.Equal(t, "Acme Textiles", body.Get("data.name").String())

	status, body = h.do(http.MethodGet, "/customer/"+id, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "555-0100", body.Get("data.phone").String())

	status, _ = h.do(http.MethodDelete, "/customer/"+id, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = h.do(http.MethodGet, "/customer/"+id, nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "Customer not found", body.Get("message").String())
}

func TestList_FilterSortPage(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.fake.Seed(fakeapi.CollectionProducts,
		map[string]any{"name": "Cotton", "type": "fabric", "price": 120},
		map[string]any{"name": "Silk", "type": "fabric", "price": 450},
		map[string]any{"name": "Twine", "type": "yarn", "price": 30},
		map[string]any{"name": "Linen", "type": "fabric", "price": 300},
	)

	status, body := h.do(http.MethodGet, "/product?type=fabric&sortBy=price&sortOrder=desc&page=1&limit=2", nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 3, body.Get("total").Int())
	require.Equal(t, []string{"Silk", "Linen"}, names(body))
	require.True(t, body.Get("pagination.hasNextPage").Bool())
	require.EqualValues(t, 2, body.Get("pagination.totalPages").Int())

	_, body = h.do(http.MethodGet, "/product?search=twi", nil)
	require.Equal(t, []string{"Twine"}, names(body))

	_, body = h.do(http.MethodGet, "/product?minPrice=100&maxPrice=350&sortBy=name", nil)
	require.Equal(t, []string{"Cotton", "Linen"}, names(body))
}

func names(body gjson.Result) []string {
	var out []string
	for _, item := range body.Get("data").Array() {
		out = append(out, item.Get("name").String())
	}
	return out
}

func TestRegister_AdminOnly(t *testing.T) {
	h := newHarness(t)
	h.login()

	status, body := h.do(http.MethodPost, "/user/register", map[string]any{"name": "Clerk", "email": "clerk@example.com", "password": "Clerk123"})
	require.Equal(t, http.StatusCreated, status, body.Raw)
	require.Equal(t, "user", body.Get("data.role").String())

	status, _ = h.do(http.MethodPost, "/user/register", map[string]any{"name": "Again", "email": "CLERK@example.com", "password": "x"})
	require.Equal(t, http.StatusBadRequest, status)

	h.token = ""
	status, body = h.do(http.MethodPost, "/auth/login", map[string]string{"email": "clerk@example.com", "password": "Clerk123"})
	require.Equal(t, http.StatusOK, status)
	h.token = body.Get("token").String()

	status, _ = h.do(http.MethodPost, "/user/register", map[string]any{"name": "Sneaky", "email": "sneaky@example.com", "password": "x"})
	require.Equal(t, http.StatusForbidden, status)
}

func TestInventory_BulkStatus(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.fake.Seed(fakeapi.CollectionInventory,
		map[string]any{"rollId": "R1", "productId": "p1", "status": "available", "weight": 10},
		map[string]any{"rollId": "R2", "productId": "p1", "status": "available", "weight": 12},
		map[string]any{"rollId": "R3", "productId": "p2", "status": "available", "weight": 8},
	)

	_, body := h.do(http.MethodGet, "/inventory/product/p1/available", nil)
	require.EqualValues(t, 2, body.Get("total").Int())

	status, body := h.do(http.MethodPut, "/inventory/bulk-update-status", map[string]any{"rollIds": []string{"R1", "R3"}, "status": "sold", "invoiceNumber": "INV-9"})
	require.Equal(t, http.StatusOK, status, body.Raw)
	require.EqualValues(t, 2, body.Get("updatedCount").Int())

	_, body = h.do(http.MethodGet, "/inventory/invoice/INV-9", nil)
	require.EqualValues(t, 2, body.Get("total").Int())
	require.NotEmpty(t, body.Get("data.0.soldAt").String())

	_, body = h.do(http.MethodGet, "/inventory/sold", nil)
	require.EqualValues(t, 2, body.Get("total").Int())

	_, body = h.do(http.MethodGet, "/inventory/status/available", nil)
	require.EqualValues(t, 1, body.Get("total").Int())

	status, body = h.do(http.MethodPut, "/inventory/bulk-update-status", map[string]any{"rollIds": []string{"R1"}, "status": "available"})
	require.Equal(t, http.StatusOK, status)
	_, body = h.do(http.MethodGet, "/inventory/invoice/INV-9", nil)
	require.EqualValues(t, 1, body.Get("total").Int())

	status, _ = h.do(http.MethodPut, "/inventory/bulk-update-status", map[string]any{"rollIds": []string{}, "status": "sold"})
	require.Equal(t, http.StatusBadRequest, status)
}

func TestInvoices_POD(t *testing.T) {
	h := newHarness(t)
	h.login()

	status, body := h.do(http.MethodPost, "/custprod", map[string]any{"customer": map[string]any{"name": "Acme"}, "totalAmount": 500})
	require.Equal(t, http.StatusCreated, status)
	id := body.Get("data._id").String()
	require.Equal(t, "INV-0001", body.Get("data.invoiceNumber").String())

	status, _ = h.do(http.MethodGet, "/custprod/"+id+"/pod", nil)
	require.Equal(t, http.StatusNotFound, status)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("podFile", "pod.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 proof"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("deliveryNotes", "left at gate"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, h.server.URL+"/custprod/"+id+"/pod", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	status, body = h.send(req)
	require.Equal(t, http.StatusOK, status, body.Raw)
	require.Equal(t, "pod.pdf", body.Get("data.fileName").String())
	require.Equal(t, adminEmail, body.Get("data.uploadedBy").String())

	req, err = http.NewRequest(http.MethodGet, h.server.URL+"/custprod/"+id+"/pod", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")
	status, body = h.send(req)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "left at gate", body.Get("data.deliveryNotes").String())

	data, ok := h.fake.POD(id)
	require.True(t, ok)
	require.Equal(t, "%PDF-1.4 proof", string(data))

	rec, ok := h.fake.Record(fakeapi.CollectionInvoices, id)
	require.True(t, ok)
	require.NotNil(t, rec["pod"])
}

func TestMonthlyTotals(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.fake.Seed(fakeapi.CollectionInvoices,
		map[string]any{"invoiceNumber": "A", "totalAmount": 100, "invoiceDate": "2024-01-10"},
		map[string]any{"invoiceNumber": "B", "totalAmount": 300, "invoiceDate": "2024-01-20"},
		map[string]any{"invoiceNumber": "C", "totalAmount": 200, "invoiceDate": "2024-02-05"},
		map[string]any{"invoiceNumber": "D", "totalAmount": 999, "invoiceDate": "2023-12-31"},
	)

	status, body := h.do(http.MethodGet, "/custprod/monthly-totals?year=2024", nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 2, len(body.Get("data.periodBreakdown").Array()))
	require.Equal(t, "2024-01", body.Get("data.periodBreakdown.0.period").String())
	require.EqualValues(t, 400, body.Get("data.periodBreakdown.0.totalAmount").Float())
	require.EqualValues(t, 3, body.Get("data.overallStatistics.totalInvoices").Int())
	require.EqualValues(t, 200, body.Get("data.overallStatistics.averageInvoice").Float())
}

func TestPurchaseOrderEmail(t *testing.T) {
	h := newHarness(t)
	h.login()

	status, _ := h.do(http.MethodPost, "/email/email", map[string]any{"email": "supplier@example.com"})
	require.Equal(t, http.StatusUnprocessableEntity, status)

	status, body := h.do(http.MethodPost, "/email/email", map[string]any{
		"email":        "supplier@example.com",
		"supplierName": "Threads Ltd",
		"items":        []map[string]any{{"name": "Yarn", "nos": 4}},
	})
	require.Equal(t, http.StatusOK, status, body.Raw)

	emails := h.fake.Emails()
	require.Len(t, emails, 1)
	require.Equal(t, "purchaseOrder", emails[0].Kind)
	require.Equal(t, "Threads Ltd", emails[0].Fields["supplierName"])
}

func TestAnalytics(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.fake.Seed(fakeapi.CollectionInventory,
		map[string]any{"rollId": "R1", "width": "60", "status": "sold", "weight": 10, "soldAt": "2024-03-01T10:00:00Z"},
		map[string]any{"rollId": "R2", "width": "60", "status": "sold", "weight": 5, "soldAt": "2024-03-09T10:00:00Z"},
		map[string]any{"rollId": "R3", "width": "44", "status": "sold", "weight": 7, "soldAt": "2024-05-01T10:00:00Z"},
		map[string]any{"rollId": "R4", "width": "44", "status": "available", "weight": 9},
	)

	status, body := h.do(http.MethodGet, "/analytics/quantity-by-width?startDate=2024-03-01&endDate=2024-03-31", nil)
	require.Equal(t, http.StatusOK, status, body.Raw)
	require.Len(t, body.Get("data").Array(), 1)
	require.Equal(t, "60", body.Get("data.0.key").String())
	require.EqualValues(t, 15, body.Get("data.0.totalWeight").Float())

	status, _ = h.do(http.MethodGet, "/analytics/unknown", nil)
	require.Equal(t, http.StatusNotFound, status)

	status, body = h.do(http.MethodGet, "/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 3, body.Get("data.soldRolls").Int())
	require.EqualValues(t, 1, body.Get("data.availableRolls").Int())
}

func TestRoutes_Registered(t *testing.T) {
	h := newHarness(t)
	routes := h.fake.Routes()
	require.Contains(t, routes, "POST /auth/login")
	require.Contains(t, routes, "PATCH /transporter/{id}/status")
	require.Contains(t, routes, "GET /custprod/{id}/pod")
	require.NotContains(t, routes, "POST /user")
}
