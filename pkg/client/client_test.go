package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

func TestClient(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Client SDK Suite")
}

func signTestToken(ttl time.Duration) string {
	claims := jwt.RegisteredClaims{
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	gomega.Expect(err).ToNot(gomega.HaveOccurred())
	return token
}

// newAPIServer fakes the slice of the API the SDK touches.
func newAPIServer(meStatus int) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Username != "admin" || creds.Password != "Secret123" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"code": "INVALID_CREDENTIALS", "message": "Invalid username or password"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token":  signTestToken(time.Hour),
			"refresh_token": signTestToken(24 * time.Hour),
		})
	})

	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.RefreshToken == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token":  signTestToken(time.Hour),
			"refresh_token": signTestToken(24 * time.Hour),
		})
	})

	mux.HandleFunc("/api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if meStatus != http.StatusOK {
			w.WriteHeader(meStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(User{
			ID:          "u-1",
			Username:    "admin",
			FirstName:   "Ada",
			LastName:    "Martin",
			RoleName:    "Manager",
			Permissions: []string{"user.manage", "workorder.view"},
		})
	})

	return httptest.NewServer(mux)
}

var _ = ginkgo.Describe("Client", func() {
	var (
		server *httptest.Server
		store  *Store
		api    *Client
		ctx    context.Context
	)

	ginkgo.BeforeEach(func() {
		store = NewStore()
		ctx = context.Background()
	})

	ginkgo.AfterEach(func() {
		if server != nil {
			server.Close()
			server = nil
		}
	})

	ginkgo.Describe("Login", func() {
		ginkgo.It("should establish a session with the resolved permissions", func() {
			server = newAPIServer(http.StatusOK)
			api = New(server.URL, store)

			session, err := api.Login(ctx, "admin", "Secret123")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(session.User.Username).To(gomega.Equal("admin"))
			gomega.Expect(session.User.HasPermission("user.manage")).To(gomega.BeTrue())
			gomega.Expect(session.User.HasPermission("role.manage")).To(gomega.BeFalse())
			gomega.Expect(store.Get()).To(gomega.Equal(session))
		})

		ginkgo.It("should classify bad credentials as unauthorized", func() {
			server = newAPIServer(http.StatusOK)
			api = New(server.URL, store)

			_, err := api.Login(ctx, "admin", "wrong")

			gomega.Expect(IsUnauthorized(err)).To(gomega.BeTrue())
			gomega.Expect(store.Get()).To(gomega.BeNil())
		})

		ginkgo.It("should not keep tokens when the profile fetch fails", func() {
			server = newAPIServer(http.StatusInternalServerError)
			api = New(server.URL, store)

			_, err := api.Login(ctx, "admin", "Secret123")

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(store.Get()).To(gomega.BeNil())
		})
	})

	ginkgo.Describe("Gate", func() {
		ginkgo.It("should hide everything while logged out", func() {
			gate := NewGate(store)

			gomega.Expect(gate.Visible("user.manage")).To(gomega.BeFalse())
		})

		ginkgo.It("should follow the session's permissions", func() {
			server = newAPIServer(http.StatusOK)
			api = New(server.URL, store)
			gate := NewGate(store)

			_, err := api.Login(ctx, "admin", "Secret123")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			gomega.Expect(gate.Visible("user.manage")).To(gomega.BeTrue())
			gomega.Expect(gate.Visible("config.manage")).To(gomega.BeFalse())
			gomega.Expect(gate.Visible("config.manage", "workorder.view")).To(gomega.BeTrue())
		})

		ginkgo.It("should hide everything once the session expires", func() {
			store.Set(&Session{
				User:      &User{ID: "u-1", Permissions: []string{"user.manage"}},
				ExpiresAt: time.Now().Add(-time.Hour),
			})
			gate := NewGate(store)

			gomega.Expect(gate.Visible("user.manage")).To(gomega.BeFalse())
			gomega.Expect(gate.Visible()).To(gomega.BeFalse())
		})

		ginkgo.It("should let admin through every check", func() {
			store.Set(&Session{User: &User{ID: "u-2", Permissions: []string{AdminPermission}}})
			gate := NewGate(store)

			gomega.Expect(gate.Visible("user.manage")).To(gomega.BeTrue())
			gomega.Expect(gate.Visible("export.data")).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("Store", func() {
		ginkgo.It("should notify subscribers on login and logout", func() {
			var changes []*Session
			cancel := store.Subscribe(func(s *Session) { changes = append(changes, s) })
			defer cancel()

			session := &Session{User: &User{ID: "u-1"}}
			store.Set(session)
			store.Clear()

			gomega.Expect(changes).To(gomega.HaveLen(2))
			gomega.Expect(changes[0]).To(gomega.Equal(session))
			gomega.Expect(changes[1]).To(gomega.BeNil())
		})

		ginkgo.It("should treat an expired session as absent", func() {
			store.Set(&Session{
				User:      &User{ID: "u-1", Permissions: []string{"user.manage"}},
				ExpiresAt: time.Now().Add(-time.Minute),
			})

			gomega.Expect(store.Get()).To(gomega.BeNil())
		})

		ginkgo.It("should keep a session whose token carries no expiry", func() {
			store.Set(&Session{User: &User{ID: "u-1"}})

			gomega.Expect(store.Get()).NotTo(gomega.BeNil())
		})

		ginkgo.It("should auto log out when the timer fires", func() {
			store.Set(&Session{User: &User{ID: "u-1"}})
			store.ScheduleAutoLogout(10 * time.Millisecond)

			gomega.Eventually(store.Get, "1s", "5ms").Should(gomega.BeNil())
		})

		ginkgo.It("should push the auto logout back when rescheduled", func() {
			store.Set(&Session{User: &User{ID: "u-1"}})
			store.ScheduleAutoLogout(20 * time.Millisecond)
			store.ScheduleAutoLogout(500 * time.Millisecond)

			gomega.Consistently(store.Get, "100ms", "10ms").ShouldNot(gomega.BeNil())
		})
	})

	ginkgo.Describe("Refresh", func() {
		ginkgo.It("should rotate the token pair after the access token expired", func() {
			server = newAPIServer(http.StatusOK)
			api = New(server.URL, store)
			store.Set(&Session{
				AccessToken:  "stale",
				RefreshToken: signTestToken(24 * time.Hour),
				User:         &User{ID: "u-1", Permissions: []string{"user.manage"}},
				ExpiresAt:    time.Now().Add(-time.Minute),
			})
			gomega.Expect(store.Get()).To(gomega.BeNil())

			err := api.Refresh(ctx)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			session := store.Get()
			gomega.Expect(session).NotTo(gomega.BeNil())
			gomega.Expect(session.AccessToken).NotTo(gomega.Equal("stale"))
		})
	})

	ginkgo.Describe("authenticated calls", func() {
		ginkgo.It("should refuse calls while logged out", func() {
			server = newAPIServer(http.StatusOK)
			api = New(server.URL, store)

			err := api.Get(ctx, "/api/v1/users", nil, nil)

			gomega.Expect(IsUnauthorized(err)).To(gomega.BeTrue())
		})

		ginkgo.It("should refuse calls once the session expires", func() {
			server = newAPIServer(http.StatusOK)
			api = New(server.URL, store)
			store.Set(&Session{
				AccessToken: "stale",
				User:        &User{ID: "u-1"},
				ExpiresAt:   time.Now().Add(-time.Minute),
			})

			err := api.Get(ctx, "/api/v1/users", nil, nil)

			gomega.Expect(IsUnauthorized(err)).To(gomega.BeTrue())
		})

		ginkgo.It("should drop the session when the server answers 401", func() {
			mux := http.NewServeMux()
			mux.HandleFunc("/api/v1/users", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			})
			server = httptest.NewServer(mux)
			api = New(server.URL, store)
			store.Set(&Session{AccessToken: "stale", User: &User{ID: "u-1"}})

			err := api.Get(ctx, "/api/v1/users", nil, nil)

			gomega.Expect(IsUnauthorized(err)).To(gomega.BeTrue())
			gomega.Expect(store.Get()).To(gomega.BeNil())
		})
	})
})
