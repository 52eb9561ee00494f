package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/vitrina/internal/auth"
	"github.com/erazemk/vitrina/internal/db"
	"github.com/erazemk/vitrina/internal/model"
	"github.com/erazemk/vitrina/internal/store"
)

const testJWTSecret = "test-secret"

type testServer struct {
	*httptest.Server
	DB *sql.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	database := db.NewTestDB(t)
	server := httptest.NewServer(NewRouter(Config{DB: database, JWTSecret: testJWTSecret}))
	t.Cleanup(server.Close)
	return &testServer{Server: server, DB: database}
}

func (s *testServer) createUser(t *testing.T, username, role string) *model.User {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	user, err := store.CreateUser(context.Background(), s.DB, username, string(hash), role)
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return user
}

// login logs in and selects sector (when non-empty), returning the token.
func (s *testServer) login(t *testing.T, username string, sector model.Sector) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": "password"})
	resp, err := http.Post(s.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var session sessionResponse
	json.NewDecoder(resp.Body).Decode(&session)
	if session.Token == "" {
		t.Fatal("empty token from login")
	}
	if sector == "" {
		return session.Token
	}

	resp = s.do(t, "PUT", "/api/auth/sector", session.Token, map[string]string{"sector": string(sector)})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select sector failed: %d", resp.StatusCode)
	}
	json.NewDecoder(resp.Body).Decode(&session)
	return session.Token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d: %s", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, body)
	}
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func (s *testServer) seed(t *testing.T, sector model.Sector, names ...string) []int64 {
	t.Helper()
	var ids []int64
	for _, name := range names {
		p, err := store.CreateProduct(context.Background(), s.DB, &model.Product{Name: name, Sector: sector})
		if err != nil {
			t.Fatalf("seeding product: %v", err)
		}
		ids = append(ids, p.ID)
	}
	return ids
}

func TestLoginEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "admin", model.RoleAdmin)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(s.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	body, _ = json.Marshal(map[string]string{"username": "admin", "password": "password"})
	resp, err := http.Post(s.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == tokenCookie && c.Value != "" && c.HttpOnly {
			found = true
		}
	}
	if !found {
		t.Error("expected login to set the session cookie")
	}
}

func TestCookieSession(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "ana", model.RoleUser)
	token := s.login(t, "ana", model.SectorAutomotive)

	req, _ := http.NewRequest("GET", s.URL+"/api/brands", nil)
	req.AddCookie(&http.Cookie{Name: tokenCookie, Value: token})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected cookie session to be accepted, got %d", resp.StatusCode)
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, "GET", "/api/products", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
}

func TestSectorRequired(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "ana", model.RoleUser)
	token := s.login(t, "ana", "")

	resp := s.do(t, "GET", "/api/products", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusPreconditionRequired {
		t.Errorf("expected 428 without a sector, got %d", resp.StatusCode)
	}

	resp = s.do(t, "PUT", "/api/auth/sector", token, map[string]string{"sector": "food"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown sector, got %d", resp.StatusCode)
	}
}

func TestSectorSwitchRevokesPreviousToken(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "ana", model.RoleUser)
	first := s.login(t, "ana", "")

	resp := s.do(t, "PUT", "/api/auth/sector", first, map[string]string{"sector": "automotivo"})
	expectStatus(t, resp, http.StatusOK)
	session := decode[sessionResponse](t, resp)
	if session.Sector != model.SectorAutomotive {
		t.Errorf("expected automotive sector, got %q", session.Sector)
	}

	resp = s.do(t, "GET", "/api/whatsapp", first, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected previous token to be revoked, got %d", resp.StatusCode)
	}

	resp = s.do(t, "DELETE", "/api/auth/sector", session.Token, nil)
	expectStatus(t, resp, http.StatusOK)
	cleared := decode[sessionResponse](t, resp)
	resp = s.do(t, "GET", "/api/products", cleared.Token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusPreconditionRequired {
		t.Errorf("expected 428 after clearing the sector, got %d", resp.StatusCode)
	}
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "ana", model.RoleUser)
	token := s.login(t, "ana", model.SectorAutomotive)

	resp := s.do(t, "POST", "/api/auth/logout", token, nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = s.do(t, "GET", "/api/products", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

func TestRoleBasedAccess(t *testing.T) {
	s := newTestServer(t)
	user := s.createUser(t, "ana", model.RoleUser)
	userToken, _ := auth.GenerateToken(testJWTSecret, user.ID, user.Username, model.RoleUser, model.SectorAutomotive)

	resp := s.do(t, "POST", "/api/products", userToken, map[string]string{"name": "Test"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for customer creating product, got %d", resp.StatusCode)
	}

	resp = s.do(t, "GET", "/api/users", userToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for customer listing users, got %d", resp.StatusCode)
	}
}

func TestSearchEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "ana", model.RoleUser)
	s.seed(t, model.SectorAutomotive, "Parafuso M8 3M", "Porca M8 Vonder", "Silicone Acético Tekbond")
	s.seed(t, model.SectorRealEstate, "Parafuso M8 Gerdau")
	token := s.login(t, "ana", model.SectorAutomotive)

	resp := s.do(t, "GET", "/api/products?q=m8", token, nil)
	expectStatus(t, resp, http.StatusOK)
	result := decode[struct {
		Products []productView `json:"products"`
		Brands   []string      `json:"brands"`
	}](t, resp)

	if len(result.Products) != 2 {
		t.Fatalf("expected 2 matches in sector, got %d", len(result.Products))
	}
	if result.Products[0].Name != "Parafuso M8 3M" || result.Products[0].Brand != "3M" {
		t.Errorf("unexpected first result %+v", result.Products[0])
	}
	if strings.Join(result.Brands, ",") != "3M,Tekbond,Vonder" {
		t.Errorf("unexpected brands %v", result.Brands)
	}

	resp = s.do(t, "GET", "/api/products?q=m8&brand=Vonder", token, nil)
	expectStatus(t, resp, http.StatusOK)
	filtered := decode[struct {
		Products []productView `json:"products"`
	}](t, resp)
	if len(filtered.Products) != 1 || filtered.Products[0].Brand != "Vonder" {
		t.Errorf("unexpected brand filter result %+v", filtered.Products)
	}
}

func TestProductAdminFlow(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "admin", model.RoleAdmin)
	token := s.login(t, "admin", model.SectorAutomotive)
	related := s.seed(t, model.SectorAutomotive, "Arruela M8 3M")

	resp := s.do(t, "POST", "/api/products", token, map[string]string{
		"name":                "Parafuso M8",
		"brand":               "Vonder",
		"description":         "Zincado",
		"related_product_ids": "999",
	})
	expectStatus(t, resp, http.StatusCreated)
	created := decode[productView](t, resp)
	if created.Name != "Parafuso M8 Vonder" || created.Sector != model.SectorAutomotive {
		t.Fatalf("unexpected product %+v", created)
	}

	// Rename without a brand keeps the previous brand.
	relatedList := model.FormatRelatedIDs(related)
	resp = s.do(t, "PUT", "/api/products/"+itoa(created.ID), token, map[string]string{
		"name":                "Parafuso M10",
		"related_product_ids": relatedList,
	})
	expectStatus(t, resp, http.StatusOK)
	updated := decode[productView](t, resp)
	if updated.Name != "Parafuso M10 Vonder" || updated.Description != "Zincado" {
		t.Errorf("unexpected update %+v", updated)
	}

	resp = s.do(t, "GET", "/api/products/"+itoa(created.ID), token, nil)
	expectStatus(t, resp, http.StatusOK)
	detail := decode[struct {
		Product productView   `json:"product"`
		Related []productView `json:"related"`
	}](t, resp)
	if len(detail.Related) != 1 || detail.Related[0].ID != related[0] {
		t.Errorf("unexpected related products %+v", detail.Related)
	}

	// Invalid related ids drop the list.
	resp = s.do(t, "PUT", "/api/products/"+itoa(created.ID), token, map[string]string{"related_product_ids": "1,x"})
	expectStatus(t, resp, http.StatusOK)
	if got := decode[productView](t, resp); len(got.RelatedIDs) != 0 {
		t.Errorf("expected related list to be dropped, got %v", got.RelatedIDs)
	}

	resp = s.do(t, "GET", "/api/products/related?q=M8&exclude_id="+itoa(created.ID), token, nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[[]productView](t, resp); len(got) != 1 || got[0].ID != related[0] {
		t.Errorf("unexpected related lookup %+v", got)
	}

	resp = s.do(t, "GET", "/api/admin/products", token, nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[[]productView](t, resp); len(got) != 2 || got[0].Name != "Arruela M8 3M" {
		t.Errorf("unexpected admin list %+v", got)
	}

	resp = s.do(t, "DELETE", "/api/products/"+itoa(created.ID), token, nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = s.do(t, "DELETE", "/api/products/"+itoa(created.ID), token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for deleted product, got %d", resp.StatusCode)
	}
}

func TestProductOtherSectorHidden(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "ana", model.RoleUser)
	ids := s.seed(t, model.SectorRealEstate, "Tinta Acrílica Suvinil")
	token := s.login(t, "ana", model.SectorAutomotive)

	resp := s.do(t, "GET", "/api/products/"+itoa(ids[0]), token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for product in another sector, got %d", resp.StatusCode)
	}
}

func TestClearanceEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "admin", model.RoleAdmin)
	token := s.login(t, "admin", model.SectorAutomotive)
	ids := s.seed(t, model.SectorAutomotive, "Lixa 3M", "Fita Tekbond")
	path := "/api/products/" + itoa(ids[0]) + "/clearance"

	for _, prices := range []map[string]any{
		{"original_price": "100", "clearance_price": "100"},
		{"original_price": -5, "clearance_price": 10},
		{"original_price": "abc", "clearance_price": "10"},
	} {
		resp := s.do(t, "PUT", path, token, prices)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("prices %v: expected 400, got %d", prices, resp.StatusCode)
		}
	}

	resp := s.do(t, "PUT", "/api/products/999999/clearance", token, map[string]any{"original_price": 100, "clearance_price": 80})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for missing product, got %d", resp.StatusCode)
	}

	resp = s.do(t, "PUT", path, token, map[string]any{"original_price": 100, "clearance_price": "80"})
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// Prices alone do not make an offer.
	resp = s.do(t, "GET", "/api/clearance", token, nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[[]productView](t, resp); len(got) != 0 {
		t.Errorf("expected no offers before toggling, got %d", len(got))
	}

	resp = s.do(t, "POST", path+"/toggle", token, nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[map[string]bool](t, resp); !got["clearance"] {
		t.Error("expected clearance to be switched on")
	}

	resp = s.do(t, "GET", "/api/clearance", token, nil)
	expectStatus(t, resp, http.StatusOK)
	offers := decode[[]productView](t, resp)
	if len(offers) != 1 || offers[0].ClearancePrice.Decimal.String() != "80" {
		t.Errorf("unexpected offers %+v", offers)
	}

	resp = s.do(t, "GET", "/api/admin/clearance", token, nil)
	expectStatus(t, resp, http.StatusOK)
	split := decode[map[string][]productView](t, resp)
	if len(split["clearance"]) != 1 || len(split["regular"]) != 1 {
		t.Errorf("unexpected split %v", split)
	}
}

func TestOrderFlow(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "admin", model.RoleAdmin)
	s.createUser(t, "ana", model.RoleUser)
	s.createUser(t, "bruno", model.RoleUser)
	ids := s.seed(t, model.SectorAutomotive, "Parafuso M8 3M", "Porca M8 Vonder")
	adminToken := s.login(t, "admin", "")
	anaToken := s.login(t, "ana", model.SectorAutomotive)
	brunoToken := s.login(t, "bruno", "")

	resp := s.do(t, "PUT", "/api/whatsapp", adminToken, map[string]string{"number": "+55 (11) 99999-0000"})
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = s.do(t, "POST", "/api/orders", anaToken, map[string]any{
		"items": []map[string]any{
			{"product_id": 999999, "quantity": 1},
			{"product_id": ids[0], "quantity": 2},
			{"product_id": ids[1], "quantity": 3, "notes": "galvanizada"},
		},
		"notes": "Entregar pela manhã",
	})
	expectStatus(t, resp, http.StatusCreated)
	created := decode[orderMessage](t, resp)
	if created.Order.TotalItems != 5 || len(created.Order.Items) != 2 {
		t.Fatalf("unexpected order %+v", created.Order)
	}
	if !strings.Contains(created.Message, "👤 Cliente: ana") || !strings.Contains(created.Message, "Obs: galvanizada") {
		t.Errorf("unexpected message %q", created.Message)
	}
	if !strings.HasPrefix(created.WhatsAppURL, "https://wa.me/5511999990000?text=") {
		t.Errorf("unexpected link %q", created.WhatsAppURL)
	}
	orderPath := "/api/orders/" + itoa(created.Order.ID)

	resp = s.do(t, "POST", "/api/orders", anaToken, map[string]any{
		"items": []map[string]any{{"product_id": ids[0], "quantity": -1}},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for negative quantity, got %d", resp.StatusCode)
	}

	resp = s.do(t, "GET", orderPath, brunoToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected other customers to get 404, got %d", resp.StatusCode)
	}

	resp = s.do(t, "GET", orderPath+"/message", adminToken, nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[orderMessage](t, resp); got.Message != created.Message {
		t.Errorf("message changed between renders")
	}

	resp = s.do(t, "GET", "/api/orders", brunoToken, nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[[]model.Order](t, resp); len(got) != 0 {
		t.Errorf("expected no orders for bruno, got %d", len(got))
	}
	resp = s.do(t, "GET", "/api/orders?all=1", adminToken, nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[[]model.Order](t, resp); len(got) != 1 {
		t.Errorf("expected admin to see 1 order, got %d", len(got))
	}

	resp = s.do(t, "PUT", orderPath+"/status", anaToken, map[string]string{"status": "shipped"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for customer status update, got %d", resp.StatusCode)
	}
	resp = s.do(t, "PUT", orderPath+"/status", adminToken, map[string]string{"status": "lost"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown status, got %d", resp.StatusCode)
	}
	resp = s.do(t, "PUT", orderPath+"/status", adminToken, map[string]string{"status": "shipped"})
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = s.do(t, "DELETE", orderPath, adminToken, nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	resp = s.do(t, "GET", orderPath, adminToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestUserAdmin(t *testing.T) {
	s := newTestServer(t)
	admin := s.createUser(t, "admin", model.RoleAdmin)
	other := s.createUser(t, "chefe", model.RoleAdmin)
	token := s.login(t, "admin", "")

	resp := s.do(t, "POST", "/api/users", token, map[string]string{"username": "ana", "password": "password1"})
	expectStatus(t, resp, http.StatusCreated)
	ana := decode[model.User](t, resp)
	if ana.Role != model.RoleUser {
		t.Errorf("expected default customer role, got %q", ana.Role)
	}

	resp = s.do(t, "POST", "/api/users", token, map[string]string{"username": "ana", "password": "password2"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate username, got %d", resp.StatusCode)
	}

	resp = s.do(t, "DELETE", "/api/users/"+itoa(other.ID), token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 deleting an admin, got %d", resp.StatusCode)
	}
	resp = s.do(t, "DELETE", "/api/users/"+itoa(admin.ID), token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for self-deletion, got %d", resp.StatusCode)
	}
	resp = s.do(t, "DELETE", "/api/users/"+itoa(ana.ID), token, nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = s.do(t, "GET", "/api/users", token, nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[[]model.User](t, resp); len(got) != 2 {
		t.Errorf("expected 2 active users, got %d", len(got))
	}
}

func TestDeletedUserTokenRejected(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "admin", model.RoleAdmin)
	ana := s.createUser(t, "ana", model.RoleUser)
	adminToken := s.login(t, "admin", "")
	anaToken := s.login(t, "ana", "")

	resp := s.do(t, "GET", "/api/orders", anaToken, nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = s.do(t, "DELETE", "/api/users/"+itoa(ana.ID), adminToken, nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = s.do(t, "GET", "/api/orders", anaToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for a deleted account, got %d", resp.StatusCode)
	}
	resp = s.do(t, "POST", "/api/orders", anaToken, map[string]any{"items": []any{}})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 placing an order from a deleted account, got %d", resp.StatusCode)
	}
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "admin", model.RoleAdmin)
	s.createUser(t, "ana", model.RoleUser)
	s.seed(t, model.SectorAutomotive, "Lixa 3M", "Fita Tekbond")
	s.seed(t, model.SectorRealEstate, "Tinta Suvinil")
	token := s.login(t, "admin", model.SectorAutomotive)

	resp := s.do(t, "GET", "/api/admin/dashboard", token, nil)
	expectStatus(t, resp, http.StatusOK)
	got := decode[dashboardResponse](t, resp)
	if got.Products != 2 || got.Customers != 1 || got.Orders != 0 {
		t.Errorf("unexpected dashboard %+v", got)
	}
}

func TestPhotoUpload(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "admin", model.RoleAdmin)
	token := s.login(t, "admin", model.SectorAutomotive)
	ids := s.seed(t, model.SectorAutomotive, "Lixa 3M")

	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, 5, color.RGBA{R: 255, A: 255})
	}
	var pngData bytes.Buffer
	png.Encode(&pngData, img)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("photo", "Lixa dagua.png")
	part.Write(pngData.Bytes())
	mw.Close()

	req, _ := http.NewRequest("POST", s.URL+"/api/products/"+itoa(ids[0])+"/photo", &body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	expectStatus(t, resp, http.StatusOK)
	p := decode[productView](t, resp)
	if !strings.HasPrefix(p.Image, "/api/images/produtos/") || !strings.HasSuffix(p.Image, "_Lixa_dagua.jpg") {
		t.Fatalf("unexpected image url %q", p.Image)
	}

	resp, err = http.Get(s.URL + p.Image)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/jpeg" {
		t.Errorf("unexpected image response %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
