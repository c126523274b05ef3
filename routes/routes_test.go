package routes_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nappiz/tcmudah-storefront/clients"
	"github.com/Nappiz/tcmudah-storefront/config"
	"github.com/Nappiz/tcmudah-storefront/controllers"
	apperrors "github.com/Nappiz/tcmudah-storefront/errors"
	"github.com/Nappiz/tcmudah-storefront/models"
	"github.com/Nappiz/tcmudah-storefront/repository"
	"github.com/Nappiz/tcmudah-storefront/routes"
	"github.com/Nappiz/tcmudah-storefront/services"
)

type upstreamLog struct {
	mu       sync.Mutex
	requests []*http.Request
}

func (u *upstreamLog) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.requests)
}

func (u *upstreamLog) last() *http.Request {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.requests) == 0 {
		return nil
	}
	return u.requests[len(u.requests)-1]
}

func setupRouter(t *testing.T) (*gin.Engine, *upstreamLog) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := &upstreamLog{}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.mu.Lock()
		log.requests = append(log.requests, r.Clone(r.Context()))
		log.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/mentors":
			_ = json.NewEncoder(w).Encode([]models.Mentor{{ID: "m1", Name: "Budi"}})
		case r.Method == http.MethodGet && r.URL.Path == "/mentors/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"mentor tidak ditemukan"}`))
		case r.Method == http.MethodPost:
			in := map[string]any{}
			_ = json.NewDecoder(r.Body).Decode(&in)
			in["id"] = "t1"
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(in)
		case r.Method == http.MethodPut:
			in := map[string]any{}
			_ = json.NewDecoder(r.Body).Decode(&in)
			_ = json.NewEncoder(w).Encode(in)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			_ = json.NewEncoder(w).Encode([]any{})
		}
	}))
	t.Cleanup(upstream.Close)

	cfg := &config.Config{
		CookieName:    "storefront_sid",
		CartTTL:       time.Hour,
		ProofMaxBytes: 1024,
	}
	api := clients.NewAPIClient(upstream.URL, 5*time.Second)
	catalog := services.NewCatalogCache(api, nil)
	sessions := services.NewSessionManager(services.SessionManagerConfig{
		API:      api,
		Uploader: services.NewAPIProofUploader(api, nil),
		Catalog:  catalog,
		Repo:     repository.NewMemoryCartRepository(),
		IdleTTL:  time.Hour,
	})

	r := gin.New()
	r.Use(apperrors.ErrorMiddleware())
	routes.RegisterRoutes(r,
		controllers.NewStorefrontController(catalog, sessions, cfg.ProofMaxBytes),
		controllers.NewCMSController(api),
		cfg,
	)
	return r, log
}

func cmsRequest(method, path, role string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("X-User-ID", "u-1")
		req.Header.Set("X-User-Role", role)
	}
	return req
}

func TestCMSAccessMatrix(t *testing.T) {
	r, _ := setupRouter(t)

	tests := []struct {
		name   string
		method string
		role   string
		want   int
	}{
		{"anonymous read", http.MethodGet, "", http.StatusUnauthorized},
		{"participant read", http.MethodGet, "participant", http.StatusForbidden},
		{"mentor read", http.MethodGet, "mentor", http.StatusOK},
		{"mentor write", http.MethodDelete, "mentor", http.StatusForbidden},
		{"admin write", http.MethodDelete, "admin", http.StatusNoContent},
		{"superadmin write", http.MethodDelete, "superadmin", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/api/cms/mentors"
			if tt.method == http.MethodDelete {
				path = "/api/cms/testimonials/t1"
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, cmsRequest(tt.method, path, tt.role, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestCMS_MentorsAreReadOnly(t *testing.T) {
	r, _ := setupRouter(t)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		path := "/api/cms/mentors/m1"
		if method == http.MethodPost {
			path = "/api/cms/mentors"
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, cmsRequest(method, path, "superadmin", models.Mentor{Name: "x"}))
		assert.Contains(t, []int{http.StatusNotFound, http.StatusMethodNotAllowed}, w.Code, method)
	}
}

func TestCMS_ForwardsCredentialsUpstream(t *testing.T) {
	r, log := setupRouter(t)

	req := cmsRequest(http.MethodGet, "/api/cms/mentors", "admin", nil)
	req.Header.Set("Authorization", "Bearer upstream-token")
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "abc"})
	req.AddCookie(&http.Cookie{Name: "storefront_sid", Value: "should-not-leak"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	up := log.last()
	require.NotNil(t, up)
	assert.Equal(t, "Bearer upstream-token", up.Header.Get("Authorization"))
	assert.Contains(t, up.Header.Get("Cookie"), "access_token=abc")
	assert.NotContains(t, up.Header.Get("Cookie"), "storefront_sid")
}

func TestCMS_CreateAndUpstreamErrors(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, cmsRequest(http.MethodPost, "/api/cms/testimonials", "admin", models.Testimonial{Name: "Rina", Content: "Mantap"}))
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Testimonial
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "t1", created.ID)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, cmsRequest(http.MethodGet, "/api/cms/mentors/missing", "admin", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"code":404,"message":"mentor tidak ditemukan"}`, w.Body.String())
}

func TestCMS_RejectsInvalidBodiesBeforeUpstream(t *testing.T) {
	r, log := setupRouter(t)

	tests := []struct {
		name    string
		method  string
		path    string
		body    any
		message string
	}{
		{"testimonial without content", http.MethodPost, "/api/cms/testimonials",
			map[string]any{"name": "Rina"}, "content is required"},
		{"class without title", http.MethodPost, "/api/cms/classes",
			map[string]any{"price": 100000}, "title is required"},
		{"negative price", http.MethodPut, "/api/cms/classes/c1",
			map[string]any{"title": "Kelas", "price": -1}, "price must be at least 0"},
		{"rating out of range", http.MethodPost, "/api/cms/feedback",
			map[string]any{"rating": 6}, "rating must be at most 5"},
		{"bad slug", http.MethodPost, "/api/cms/shortlinks",
			map[string]any{"slug": "Promo Juni", "target": "https://tcmudah.id/kelas"}, "slug may only contain lowercase letters, digits and dashes"},
		{"bad target", http.MethodPost, "/api/cms/shortlinks",
			map[string]any{"slug": "promo-juni", "target": "not a url"}, "target must be a valid URL"},
		{"unknown order status", http.MethodPut, "/api/cms/orders/o1",
			map[string]any{"status": "paid"}, "status must be one of: pending, approved, rejected, expired"},
		{"enrollment without class", http.MethodPost, "/api/cms/enrollments",
			map[string]any{"user_id": "u1"}, "class_id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := log.count()
			w := httptest.NewRecorder()
			r.ServeHTTP(w, cmsRequest(tt.method, tt.path, "admin", tt.body))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var body struct {
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body.Message)
			assert.Equal(t, before, log.count(), "invalid body must not reach the course API")
		})
	}
}

func TestCMS_ValidBodiesPassThrough(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, cmsRequest(http.MethodPut, "/api/cms/orders/o1", "admin", map[string]any{"status": "approved"}))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, cmsRequest(http.MethodPost, "/api/cms/shortlinks", "superadmin",
		map[string]any{"slug": "promo-juni", "target": "https://tcmudah.id/kelas"}))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestStorefrontRoutesIssueSessionCookie(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "storefront_sid" {
			found = true
			assert.True(t, c.HttpOnly)
		}
	}
	assert.True(t, found)
}

func TestHealthRoute(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
