package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/html"
	"github.com/martijn/userbase/internal/api/dto"
	"github.com/martijn/userbase/internal/api/view"
	"github.com/martijn/userbase/internal/core/domain"
	"github.com/martijn/userbase/internal/core/service"
	"github.com/martijn/userbase/internal/flash"
	"github.com/martijn/userbase/internal/infrastructure/sqlstore"
	"github.com/martijn/userbase/internal/logging"
)

// testEnv holds all test dependencies
type testEnv struct {
	db          *sqlstore.DB
	router      *gin.Engine
	userService *service.UserService
}

// setupTestEnv creates a test environment with in-memory SQLite database
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlstore.Open(sqlstore.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	logger := logging.Discard()
	userService := service.NewUserService(sqlstore.NewUserRepository(db), logger)
	flasher := flash.NewFlasher(flash.NewSignedStore([]byte("test-secret-0123456789")), time.Minute, false, logger)

	renderer, err := view.NewRenderer()
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}

	userHandler := NewUserHandler(userService, flasher, logger)
	apiHandler := NewUserAPIHandler(userService, logger)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.HTMLRender = renderer

	router.GET("/users", userHandler.Index)
	router.GET("/users/new", userHandler.New)
	router.POST("/users", userHandler.Create)
	router.GET("/users/:id", userHandler.Show)
	router.GET("/users/:id/edit", userHandler.Edit)
	router.PATCH("/users/:id", userHandler.Update)
	router.PUT("/users/:id", userHandler.Update)
	router.DELETE("/users/:id", userHandler.Destroy)

	router.GET("/api/users", apiHandler.ListUsers)
	router.POST("/api/users", apiHandler.CreateUser)
	router.GET("/api/users/:id", apiHandler.GetUser)
	router.PUT("/api/users/:id", apiHandler.ReplaceUser)
	router.PATCH("/api/users/:id", apiHandler.PatchUser)
	router.DELETE("/api/users/:id", apiHandler.DeleteUser)

	return &testEnv{
		db:          db,
		router:      router,
		userService: userService,
	}
}

// seedUser stores a user directly through the service
func (env *testEnv) seedUser(t *testing.T, fields domain.UserFields) *domain.User {
	t.Helper()

	user, err := env.userService.Create(context.Background(), fields)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

// makeRequest performs a request and returns the response
func (env *testEnv) makeRequest(t *testing.T, method, path string, body io.Reader, contentType string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(method, path, body)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env *testEnv) get(t *testing.T, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	return env.makeRequest(t, http.MethodGet, path, nil, "", cookies...)
}

func (env *testEnv) submitForm(t *testing.T, method, path string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	return env.makeRequest(t, method, path, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded")
}

func (env *testEnv) sendJSON(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return env.makeRequest(t, method, path, strings.NewReader(body), "application/json")
}

// formValues collects what a browser would submit from the first form in
// body, leaving out the method override and the submit button.
func formValues(t *testing.T, body string) url.Values {
	t.Helper()

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to parse html: %v", err)
	}

	values := url.Values{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			attrs := map[string]string{}
			checked := false
			for _, a := range n.Attr {
				attrs[a.Key] = a.Val
				if a.Key == "checked" {
					checked = true
				}
			}
			name := attrs["name"]
			switch {
			case name == "" || name == "_method":
			case n.Data == "textarea":
				text := ""
				if n.FirstChild != nil {
					text = n.FirstChild.Data
				}
				values.Add(name, text)
			case n.Data == "input" && attrs["type"] == "checkbox":
				if checked {
					values.Add(name, attrs["value"])
				}
			case n.Data == "input" && attrs["type"] != "submit":
				values.Add(name, attrs["value"])
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return values
}

// flashCookie returns the flash cookie set by a redirect
func flashCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name == flash.CookieName && c.Value != "" {
			return c
		}
	}
	t.Fatalf("response has no %s cookie", flash.CookieName)
	return nil
}

// parseUserResponse parses the response body into UserResponse
func parseUserResponse(t *testing.T, w *httptest.ResponseRecorder) dto.UserResponse {
	t.Helper()

	var resp dto.UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v\nBody: %s", err, w.Body.String())
	}
	return resp
}

// parseUserListResponse parses the response body into UserListResponse
func parseUserListResponse(t *testing.T, w *httptest.ResponseRecorder) dto.UserListResponse {
	t.Helper()

	var resp dto.UserListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v\nBody: %s", err, w.Body.String())
	}
	return resp
}

// parseErrorResponse parses the response body into ErrorResponse
func parseErrorResponse(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()

	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, w.Body.String())
	}
	return resp
}

// ptr is a helper to create a pointer to a value
func ptr[T any](v T) *T {
	return &v
}
