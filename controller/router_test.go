package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"camgrocer/dao"
	"camgrocer/db"
	"camgrocer/model"
	"camgrocer/pkg/auth"
	"camgrocer/pkg/metrics"
	"camgrocer/pkg/negotiation"
	"camgrocer/pkg/notify"
	"camgrocer/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	handler   http.Handler
	users     *usecase.UserUsecase
	uploadDir string
}

func newTestServer(t *testing.T, maxUpload int64) *testServer {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, conn))
	t.Cleanup(func() { conn.Close() })

	logger := zap.NewNop()
	notifier := notify.NewLogNotifier(logger)
	m := metrics.New()

	userRepo := dao.NewUserRepository(conn)
	storeRepo := dao.NewStoreRepository(conn)
	productRepo := dao.NewProductRepository(conn)
	orderRepo := dao.NewOrderRepository(conn)

	users := usecase.NewUserUsecase(userRepo, auth.NewIssuer("router-test", time.Hour), notifier, logger)
	deals := auth.NewDealSigner("router-test", time.Hour)
	dir := t.TempDir()
	h := NewRouter(Options{
		Users:          users,
		Stores:         usecase.NewStoreUsecase(storeRepo, userRepo, notifier, logger),
		Products:       usecase.NewProductUsecase(productRepo, storeRepo, userRepo, notifier, logger),
		Orders:         usecase.NewOrderUsecase(orderRepo, productRepo, storeRepo, userRepo, deals, notifier, m, logger),
		Negotiations:   usecase.NewNegotiationUsecase(productRepo, storeRepo, nil, deals, time.Hour, m, logger),
		Metrics:        m,
		Logger:         logger,
		CORSOrigin:     "https://camgrocer.cm",
		UploadDir:      dir,
		MaxUploadBytes: maxUpload,
	})
	return &testServer{handler: h, users: users, uploadDir: dir}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) signUp(t *testing.T, email, role string) string {
	t.Helper()
	w := s.do(t, "POST", "/api/v1/auth/register", "", map[string]string{
		"name": email, "email": email, "password": "password123", "role": role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return s.login(t, email, "password123")
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	w := s.do(t, "POST", "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[model.AuthToken](t, w).Token
}

func (s *testServer) admin(t *testing.T) string {
	t.Helper()
	_, err := s.users.EnsureAdmin(context.Background(), "admin@camgrocer.cm", "adminpass1")
	require.NoError(t, err)
	return s.login(t, "admin@camgrocer.cm", "adminpass1")
}

// listing creates an approved store and an approved negotiable product.
func (s *testServer) listing(t *testing.T, ownerToken, adminToken string, price int) model.Product {
	t.Helper()
	w := s.do(t, "POST", "/api/v1/stores", ownerToken, map[string]string{"name": "Tantine Grace", "location": "Marché Central, Douala"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	store := decode[model.Store](t, w)
	require.Equal(t, http.StatusOK, s.do(t, "POST", "/api/v1/admin/stores/"+store.ID+"/approve", adminToken, nil).Code)

	w = s.do(t, "POST", "/api/v1/products", ownerToken, map[string]any{
		"store_id": store.ID, "name": "Tomatoes", "category": "Vegetables",
		"price": price, "unit": "kg", "stock": 20, "negotiable": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decode[model.Product](t, w)
	w = s.do(t, "POST", "/api/v1/admin/products/"+p.ID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	return decode[model.Product](t, w)
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t, 1<<20)
	w := s.do(t, "GET", "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "https://camgrocer.cm", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Preflight(t *testing.T) {
	s := newTestServer(t, 1<<20)
	w := s.do(t, "OPTIONS", "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestRouter_AuthGuards(t *testing.T) {
	s := newTestServer(t, 1<<20)
	customer := s.signUp(t, "cust@example.com", "customer")

	tests := []struct {
		name, method, path, token string
		want                      int
	}{
		{"anonymous me", "GET", "/api/v1/auth/me", "", http.StatusUnauthorized},
		{"garbage token", "GET", "/api/v1/products", "not-a-jwt", http.StatusUnauthorized},
		{"customer opens store", "POST", "/api/v1/stores", customer, http.StatusForbidden},
		{"customer admin area", "GET", "/api/v1/admin/users", customer, http.StatusForbidden},
		{"anonymous my stores", "GET", "/api/v1/stores/mine", "", http.StatusUnauthorized},
		{"unknown product", "GET", "/api/v1/products/missing", "", http.StatusNotFound},
		{"unknown negotiation", "GET", "/api/v1/negotiations/missing", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}

	w := s.do(t, "GET", "/api/v1/auth/me", customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[model.User](t, w)
	assert.Equal(t, "cust@example.com", me.Email)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRouter_NegotiateAndOrder(t *testing.T) {
	s := newTestServer(t, 1<<20)
	adminToken := s.admin(t)
	owner := s.signUp(t, "owner@example.com", "store_owner")
	customer := s.signUp(t, "cust@example.com", "customer")
	p := s.listing(t, owner, adminToken, 1000)

	w := s.do(t, "GET", "/api/v1/products?q=tom", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Product](t, w), 1)

	w = s.do(t, "POST", "/api/v1/products/"+p.ID+"/negotiations", "", map[string]string{"language": "en"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	session := decode[model.NegotiationSession](t, w)
	for key := range decode[map[string]any](t, w) {
		assert.NotContains(t, key, "min", "the minimum price is never exposed")
	}
	base := "/api/v1/negotiations/" + session.ID

	w = s.do(t, "POST", base+"/offers", "", map[string]string{"message": "how about 850?"})
	require.Equal(t, http.StatusOK, w.Code)
	reply := decode[model.NegotiationReply](t, w)
	assert.Equal(t, string(negotiation.KindCounter), reply.Outcome)
	assert.Equal(t, 892, reply.CounterOffer)

	// The counter offer is advisory: committing takes the customer's offer.
	w = s.do(t, "POST", base+"/commit", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	deal := decode[model.NegotiatedPrice](t, w)
	assert.Equal(t, 850, deal.FinalPrice)
	assert.Equal(t, 15, deal.DiscountPercent)

	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", base, "", nil).Code)

	w = s.do(t, "POST", "/api/v1/orders", customer, usecase.PlaceOrderInput{
		Lines:   []model.CartLine{{ProductID: deal.ProductID, Quantity: 2, UnitPrice: deal.FinalPrice, DealToken: deal.DealToken}},
		Address: "Quartier Bali, Douala",
		Phone:   "677112233",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[model.Order](t, w)
	assert.Equal(t, 1700, order.Total)

	w = s.do(t, "PUT", "/api/v1/orders/"+order.ID+"/status", owner, map[string]string{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(t, "PUT", "/api/v1/orders/"+order.ID+"/status", customer, map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, "GET", "/api/v1/orders/mine", customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[[]model.Order](t, w)
	require.Len(t, mine, 1)
	assert.Equal(t, model.OrderConfirmed, mine[0].Status)

	w = s.do(t, "GET", "/api/v1/admin/orders?status=confirmed", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Order](t, w), 1)

	w = s.do(t, "GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `camgrocer_negotiation_offers_total{outcome="counter"} 1`)
	assert.Contains(t, w.Body.String(), "camgrocer_orders_placed_total 1")
	assert.Contains(t, w.Body.String(), `route="/api/v1/negotiations/{id}/offers"`)
}

func TestRouter_NegotiationErrors(t *testing.T) {
	s := newTestServer(t, 1<<20)
	adminToken := s.admin(t)
	owner := s.signUp(t, "owner@example.com", "store_owner")
	p := s.listing(t, owner, adminToken, 1000)

	w := s.do(t, "POST", "/api/v1/products/"+p.ID+"/negotiations", "", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	session := decode[model.NegotiationSession](t, w)
	assert.Equal(t, "english", session.Language)
	base := "/api/v1/negotiations/" + session.ID

	w = s.do(t, "POST", base+"/commit", "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, "PUT", base+"/language", "", map[string]string{"language": "fr"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "french", decode[model.NegotiationSession](t, w).Language)

	req := httptest.NewRequest("POST", base+"/offers", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusNoContent, s.do(t, "DELETE", base, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, "DELETE", base, "", nil).Code)

	w = s.do(t, "PUT", "/api/v1/products/"+p.ID, owner, map[string]any{"name": "Tomatoes", "category": "Vegetables", "price": 1000, "unit": "kg", "stock": 20, "negotiable": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(t, "POST", "/api/v1/products/"+p.ID+"/negotiations", "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRouter_StoreManagement(t *testing.T) {
	s := newTestServer(t, 1<<20)
	adminToken := s.admin(t)
	owner := s.signUp(t, "owner@example.com", "store_owner")
	rival := s.signUp(t, "rival@example.com", "store_owner")

	w := s.do(t, "POST", "/api/v1/stores", owner, map[string]string{"name": "Boutique Fraîcheur", "location": "Bafoussam"})
	require.Equal(t, http.StatusCreated, w.Code)
	store := decode[model.Store](t, w)

	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/api/v1/stores/"+store.ID, "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, "GET", "/api/v1/stores/"+store.ID, owner, nil).Code)

	w = s.do(t, "GET", "/api/v1/admin/stores?status=pending", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Store](t, w), 1)

	w = s.do(t, "PUT", "/api/v1/stores/"+store.ID, rival, map[string]string{"name": "Mine now", "location": "Bafoussam"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, "GET", "/api/v1/stores/mine", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Store](t, w), 1)

	w = s.do(t, "GET", "/api/v1/stores/"+store.ID+"/products", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]model.Product](t, w))

	w = s.do(t, "GET", "/api/v1/stores/"+store.ID+"/orders", rival, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	assert.Equal(t, http.StatusNoContent, s.do(t, "DELETE", "/api/v1/stores/"+store.ID, owner, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/api/v1/stores/"+store.ID, adminToken, nil).Code)
}

func TestRouter_AdminUsers(t *testing.T) {
	s := newTestServer(t, 1<<20)
	adminToken := s.admin(t)
	s.signUp(t, "cust@example.com", "customer")

	w := s.do(t, "GET", "/api/v1/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	users := decode[[]model.User](t, w)
	require.Len(t, users, 2)

	var customerID string
	for _, u := range users {
		if u.Email == "cust@example.com" {
			customerID = u.ID
		}
	}
	require.NotEmpty(t, customerID)

	w = s.do(t, "PUT", "/api/v1/admin/users/"+customerID+"/role", adminToken, map[string]string{"role": "store_owner"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.RoleStoreOwner, decode[model.User](t, w).Role)

	w = s.do(t, "PUT", "/api/v1/admin/users/"+customerID+"/role", adminToken, map[string]string{"role": "king"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusNoContent, s.do(t, "DELETE", "/api/v1/admin/users/"+customerID, adminToken, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, "POST", "/api/v1/auth/login", "", map[string]string{"email": "cust@example.com", "password": "password123"}).Code)
}

func uploadRequest(t *testing.T, token, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/v1/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestRouter_Upload(t *testing.T) {
	s := newTestServer(t, 256)
	owner := s.signUp(t, "owner@example.com", "store_owner")

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, uploadRequest(t, owner, "tomato.png", pngHeader))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	url := decode[map[string]string](t, w)["url"]
	require.True(t, strings.HasPrefix(url, "/uploads/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	saved, err := os.ReadFile(filepath.Join(s.uploadDir, strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, saved)

	w = s.do(t, "GET", url, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	s.handler.ServeHTTP(w, uploadRequest(t, owner, "notes.txt", []byte("just some text")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	s.handler.ServeHTTP(w, uploadRequest(t, owner, "big.png", append(pngHeader, make([]byte, 300)...)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{usecase.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("order x: %w", usecase.ErrNotFound), http.StatusNotFound},
		{usecase.ErrSessionNotFound, http.StatusNotFound},
		{usecase.ErrUnauthorized, http.StatusUnauthorized},
		{usecase.ErrForbidden, http.StatusForbidden},
		{usecase.ErrInvalidInput, http.StatusBadRequest},
		{usecase.ErrConflict, http.StatusConflict},
		{usecase.ErrNotNegotiable, http.StatusConflict},
		{negotiation.ErrNotAccepted, http.StatusConflict},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), tt.err.Error())
	}
}
