package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventbooking/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var env APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env
}

func TestWriteJSONSuccess(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSONSuccess(rr, http.StatusCreated, map[string]int{"expired": 2})

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"expired":2},"error":null}`, rr.Body.String())
}

func TestWriteJSONError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSONError(rr, http.StatusNotFound, ErrCodeNotFound, "event not found")

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"data":null,"error":{"code":"not_found","message":"event not found"}}`, rr.Body.String())
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{fmt.Errorf("create: %w", domain.ErrValidation), http.StatusBadRequest, ErrCodeBadRequest},
		{domain.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{fmt.Errorf("status: %w", domain.ErrNotModified), http.StatusNotFound, ErrCodeNotFound},
		{domain.ErrConflict, http.StatusConflict, ErrCodeConflict},
		{domain.ErrInvalidTransition, http.StatusConflict, ErrCodeInvalidTransition},
		{domain.ErrAlreadyRegistered, http.StatusBadRequest, ErrCodeAlreadyRegistered},
		{domain.ErrCapacityExceeded, http.StatusBadRequest, ErrCodeCapacityExceeded},
		{domain.ErrEventNotOpen, http.StatusBadRequest, ErrCodeEventNotOpen},
		{domain.ErrForbidden, http.StatusForbidden, ErrCodeForbidden},
		{errors.New("connection reset"), http.StatusInternalServerError, ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, code := StatusForError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestWriteServiceError_HidesInternalMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	WriteServiceError(rr, req, testLogger, errors.New("pq: password authentication failed"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	env := decodeEnvelope(t, rr)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeInternalError, env.Error.Code)
	assert.NotContains(t, env.Error.Message, "pq")
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query    string
		wantPage int
		wantSize int
	}{
		{"", 1, 20},
		{"page=3&page_size=5", 3, 5},
		{"page=2&pageSize=7", 2, 7},
		{"page_size=500", 1, 100},
		{"page=0&page_size=-1", 1, 20},
		{"page=abc&page_size=xyz", 1, 20},
		{"page=92233720368547758&page_size=100", domain.MaxPage, 100},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/events?"+tt.query, nil)
			p := ParsePagination(req)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantSize, p.PageSize)
		})
	}
}

type sampleRequest struct {
	Title    string  `json:"title" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	Capacity int     `json:"capacity" validate:"gt=0"`
	Slot     string  `json:"slot"`
}

func (s sampleRequest) Validate() []string {
	if s.Slot == "never" {
		return []string{"slot is not bookable"}
	}
	return nil
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantSubstr []string
	}{
		{"valid", `{"title":"Go","price":0,"capacity":1}`, true, nil},
		{"unknown field", `{"title":"Go","capacity":1,"extra":true}`, false, []string{"unknown field"}},
		{"malformed", `{"title":`, false, nil},
		{"tag rules", `{"price":-1,"capacity":0}`, false, []string{"title is required", "price must be at least 0", "capacity must be greater than 0"}},
		{"custom rule", `{"title":"Go","capacity":1,"slot":"never"}`, false, []string{"slot is not bookable"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(tt.body))
			var dest sampleRequest
			ok := DecodeAndValidate(rr, req, &dest)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				return
			}
			require.Equal(t, http.StatusBadRequest, rr.Code)
			env := decodeEnvelope(t, rr)
			require.NotNil(t, env.Error)
			assert.Equal(t, ErrCodeBadRequest, env.Error.Code)
			for _, s := range tt.wantSubstr {
				assert.Contains(t, env.Error.Message, s)
			}
		})
	}
}
