package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/identity-service/internal/auth"
	"github.com/frahmantamala/identity-service/internal/core/identity"
	"github.com/frahmantamala/identity-service/internal/transport"
	"github.com/frahmantamala/identity-service/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Handler", func() {
	var (
		f      *fixture
		router chi.Router
		seen   *identity.Identity
	)

	post := func(path string, body interface{}) *httptest.ResponseRecorder {
		raw, err := json.Marshal(body)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	get := func(path, bearer string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if bearer != "" {
			req.Header.Set("Authorization", bearer)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	ginkgo.BeforeEach(func() {
		f = newFixture()
		seen = nil
		h := auth.NewHandler(transport.NewBaseHandler(logger.Discard()), f.service, f.issuer)

		router = chi.NewRouter()
		router.Use(h.Authenticate)
		router.Post("/auth/register", h.Register)
		router.Post("/auth/login", h.Login)
		router.Post("/auth/refresh", h.Refresh)
		router.With(h.RequireAuthentication).Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
			seen, _ = identity.FromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})
		router.Get("/open", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	ginkgo.It("registers, logs in and refreshes over HTTP with camelCase bodies", func() {
		rec := post("/auth/register", map[string]string{
			"email": "web@example.com", "password": "correct-horse-battery", "firstName": "Web", "lastName": "User",
		})
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))

		var registered map[string]interface{}
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &registered)).To(gomega.Succeed())
		gomega.Expect(registered).To(gomega.HaveKey("accessTokenExpiresAtUtc"))
		gomega.Expect(registered).To(gomega.HaveKey("refreshTokenExpiresAtUtc"))
		gomega.Expect(registered["user"]).To(gomega.HaveKeyWithValue("firstName", "Web"))

		rec = post("/auth/login", map[string]string{"email": "web@example.com", "password": "correct-horse-battery"})
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))

		rec = post("/auth/refresh", map[string]string{"refreshToken": registered["refreshToken"].(string)})
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
	})

	ginkgo.It("answers bad credentials with 401 and a bad body with 400", func() {
		gomega.Expect(post("/auth/login", map[string]string{"email": "x@example.com", "password": "whatever1"}).Code).
			To(gomega.Equal(http.StatusUnauthorized))

		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
	})

	ginkgo.It("answers a duplicate registration with 409", func() {
		body := map[string]string{"email": "twice@example.com", "password": "correct-horse-battery"}
		gomega.Expect(post("/auth/register", body).Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(post("/auth/register", body).Code).To(gomega.Equal(http.StatusConflict))
	})

	ginkgo.Describe("Authenticate", func() {
		ginkgo.It("lets anonymous requests through", func() {
			gomega.Expect(get("/open", "").Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(get("/whoami", "").Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("rejects a present but invalid bearer token", func() {
			gomega.Expect(get("/open", "Bearer not-a-jwt").Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(get("/open", "Basic dXNlcjpwYXNz").Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("puts the token's identity on the request", func() {
			resp := f.register("bearer@example.com")

			rec := get("/whoami", "Bearer "+resp.AccessToken)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(seen).ToNot(gomega.BeNil())
			gomega.Expect(seen.UserID).To(gomega.Equal(resp.User.ID))
			gomega.Expect(seen.Permissions).To(gomega.Equal(resp.Permissions))
		})
	})
})
