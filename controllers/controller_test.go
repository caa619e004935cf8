package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-restaurant-ordering/metrics"
	"go-restaurant-ordering/services"
)

func TestStatusOf(t *testing.T) {
	tests := map[services.Kind]int{
		services.KindValidation:   http.StatusBadRequest,
		services.KindBusinessRule: http.StatusBadRequest,
		services.KindNotFound:     http.StatusNotFound,
		services.KindUnauthorized: http.StatusUnauthorized,
		services.KindForbidden:    http.StatusForbidden,
		services.KindConflict:     http.StatusConflict,
		services.KindTransaction:  http.StatusInternalServerError,
	}
	for kind, want := range tests {
		assert.Equal(t, want, statusOf(kind), "kind %d", kind)
	}
}

func respond(err error) (*httptest.ResponseRecorder, map[string]interface{}) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	respondError(c, err)
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestRespondErrorIncludesDetails(t *testing.T) {
	err := &services.Error{
		Kind:      services.KindBusinessRule,
		Code:      services.CodeUnavailableItems,
		Message:   "Some menu items are not available",
		DetailKey: "unavailable_items",
		Details:   []string{"m9"},
	}

	w, body := respond(fmt.Errorf("checkout: %w", err))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Some menu items are not available", body["error"])
	assert.Equal(t, services.CodeUnavailableItems, body["code"])
	assert.Equal(t, []interface{}{"m9"}, body["unavailable_items"])
}

func TestRespondErrorHidesInternalCause(t *testing.T) {
	w, body := respond(errors.New("pq: password authentication failed"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, services.CodeTransactionFailure, body["code"])
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRespondErrorForbidden(t *testing.T) {
	err := services.Forbidden("Requires role ADMIN")
	assert.ErrorIs(t, err, services.ErrForbidden)

	w, body := respond(err)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, services.CodeForbidden, body["code"])
	assert.Equal(t, "Requires role ADMIN", body["error"])
}

func TestResultOfLabels(t *testing.T) {
	assert.Equal(t, metrics.ResultOK, resultOf(nil))
	assert.Equal(t, services.CodeConflict, resultOf(fmt.Errorf("adjust: %w", services.ErrConflict)))
}
