package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-restaurant-ordering/helpers"
	"go-restaurant-ordering/logging"
	"go-restaurant-ordering/services"
)

const secret = "test-secret"

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", Authentication(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": ActorFrom(c).ID, "role": ActorFrom(c).Role})
	})
	r.GET("/admin", Authentication(secret), RequireRole(services.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func token(t *testing.T, uid, role string) string {
	t.Helper()
	tok, _, err := helpers.GenerateAllTokens(secret, time.Hour, "", "", uid, role)
	require.NoError(t, err)
	return tok
}

func do(r http.Handler, path, tok string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if tok != "" {
		req.Header.Set("token", tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthentication(t *testing.T) {
	r := newRouter()

	w := do(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, services.CodeUnauthorized, body["code"])

	w = do(r, "/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/me", token(t, "user-7", "WAITER"))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "user-7", body["uid"])
	assert.Equal(t, "WAITER", body["role"])
}

func TestRequireRole(t *testing.T) {
	r := newRouter()

	assert.Equal(t, http.StatusUnauthorized, do(r, "/admin", "").Code)

	w := do(r, "/admin", token(t, "user-7", "WAITER"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), services.CodeForbidden)

	assert.Equal(t, http.StatusNoContent, do(r, "/admin", token(t, "boss", services.RoleAdmin)).Code)
}

func TestLoggingAssignsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(Logging(base))
	r.GET("/ping", func(c *gin.Context) {
		logging.From(c).Info("inside")
		logging.FromCtx(c.Request.Context()).Info("inside ctx")
		c.Status(http.StatusOK)
	})

	w := do(r, "/ping", "")
	reqID := w.Header().Get(RequestIDHeader)
	assert.Len(t, reqID, 36)
	assert.Contains(t, buf.String(), `"req_id":"`+reqID+`"`)
	assert.Contains(t, buf.String(), `"msg":"inside ctx"`)
	assert.Contains(t, buf.String(), `"msg":"http_request"`)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "given-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "given-id", w.Header().Get(RequestIDHeader))
}
