package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Akinaru/event-poll/handlers"
	"github.com/Akinaru/event-poll/models"
	"github.com/Akinaru/event-poll/services"
	"github.com/Akinaru/event-poll/testutil"
	"github.com/gin-gonic/gin"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// setupRouter returns a router over a fresh database and image directory
func setupRouter(t *testing.T) (*gin.Engine, *services.ImageStore) {
	t.Helper()

	testutil.SetupTestDB(t)
	handlers.InitAuth(testSecret, time.Hour)

	store, err := services.NewImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create image store: %v", err)
	}
	handlers.InitImages(store)
	t.Cleanup(func() { handlers.InitImages(nil) })

	router := gin.New()
	handlers.RegisterRoutes(router)
	return router, store
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// login authenticates through the API and returns the bearer token
func login(t *testing.T, router *gin.Engine, username, password string) string {
	t.Helper()

	w := serve(router, testutil.MakeRequest(http.MethodPost, "/auth/login", gin.H{
		"username": username,
		"password": password,
	}, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Login of %s failed with %d: %s", username, w.Code, w.Body.String())
	}

	var token models.TokenDTO
	testutil.AssertJSON(t, w, &token)
	return token.Token
}

// fixture holds an admin and a plain user, both logged in
type fixture struct {
	router     *gin.Engine
	images     *services.ImageStore
	admin      *models.User
	user       *models.User
	adminToken string
	userToken  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	router, images := setupRouter(t)
	admin := testutil.CreateTestUser(t, "admin", "admin", models.RoleAdmin)
	user := testutil.CreateTestUser(t, "alice", "secret", "")

	return &fixture{
		router:     router,
		images:     images,
		admin:      admin,
		user:       user,
		adminToken: login(t, router, "admin", "admin"),
		userToken:  login(t, router, "alice", "secret"),
	}
}

func (f *fixture) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var headers map[string]string
	if token != "" {
		headers = testutil.BearerHeader(token)
	}
	return serve(f.router, testutil.MakeRequest(method, path, body, headers))
}
