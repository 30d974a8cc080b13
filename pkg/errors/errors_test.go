package errors

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", NewValidationError("port", "out of range"), http.StatusBadRequest, "invalid_input"},
		{"not found", NewNotFoundError("route", ""), http.StatusNotFound, "not_found"},
		{"already exists", NewAlreadyExistsError("user", "email already exists"), http.StatusConflict, "already_exists"},
		{"unauthorized", NewUnauthorizedError("invalid credentials"), http.StatusUnauthorized, "unauthorized"},
		{"forbidden", NewForbiddenError("admin only"), http.StatusForbidden, "forbidden"},
		{"internal", NewInternalError("boom", io.EOF), http.StatusInternalServerError, "internal_error"},
		{"wrapped", fmt.Errorf("usecase: %w", NewNotFoundError("user", "")), http.StatusNotFound, "not_found"},
		{"plain", io.ErrUnexpectedEOF, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
			assert.Equal(t, tt.code, Code(tt.err))
		})
	}
}

func TestGRPCStatus(t *testing.T) {
	st, ok := status.FromError(NewUnauthorizedError("token expired"))
	assert.True(t, ok)
	assert.Equal(t, codes.Unauthenticated, st.Code())
	assert.Equal(t, "token expired", st.Message())

	assert.Equal(t, "validation failed: name - too short", NewValidationError("name", "too short").Error())
	assert.Equal(t, "route not found", NewNotFoundError("route", "").Error())
	assert.ErrorIs(t, NewInternalError("wrap", io.EOF), io.EOF)
}
