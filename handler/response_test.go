package handler_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/repclub/mfakit/handler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, resp handler.Response, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if req == nil {
		req = httptest.NewRequest(http.MethodGet, "/", nil)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, resp.Render(rec, req))
	return rec
}

func TestJSON(t *testing.T) {
	t.Parallel()

	rec := render(t, handler.JSON(map[string]int{"remaining": 9}, handler.WithJSONMeta(map[string]any{"v": 1})), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"data":{"remaining":9},"meta":{"v":1}}`, rec.Body.String())

	rec = render(t, handler.JSON("ok", handler.WithJSONStatus(http.StatusCreated)), nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	validation := handler.NewValidationError()
	validation.Add("code", "must be 6 digits")

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "http error",
			err:        handler.NewHTTPError(http.StatusUnauthorized, "invalid_code"),
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":{"code":"invalid_code","message":"Unauthorized"}}`,
		},
		{
			name:       "wrapped http error",
			err:        errors.Join(handler.ErrTooManyRequests, errors.New("locked")),
			wantStatus: http.StatusTooManyRequests,
			wantBody:   `{"error":{"code":"too_many_requests","message":"Too Many Requests"}}`,
		},
		{
			name:       "validation error",
			err:        validation,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"error":{"code":"validation_error","message":"validation error: code: must be 6 digits","details":{"code":["must be 6 digits"]}}}`,
		},
		{
			name:       "internal details are hidden",
			err:        errors.New("pq: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":{"code":"internal_server_error","message":"Internal Server Error"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := render(t, handler.JSONError(tt.err), nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}

	t.Run("JSON routes errors", func(t *testing.T) {
		t.Parallel()
		rec := render(t, handler.JSON(handler.ErrNotFound), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusNoContent, render(t, handler.Empty(), nil).Code)
	rec := render(t, handler.EmptyWithStatus(http.StatusAccepted), nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := handler.NewValidationError()
	assert.True(t, err.IsEmpty())
	assert.Equal(t, "Validation failed", err.Error())

	err.Add("code", "required")
	err.Add("account_name", "too long")
	err.Add("code", "digits only")

	assert.False(t, err.IsEmpty())
	assert.True(t, err.Has("code"))
	assert.False(t, err.Has("issuer"))
	assert.Equal(t, "required", err.Get("code"))
	assert.Equal(t, "validation error: account_name: too long, code: required", err.Error())
}

func TestTempl(t *testing.T) {
	t.Parallel()

	t.Run("plain html", func(t *testing.T) {
		t.Parallel()
		rec := render(t, handler.Templ(text(`<p id="mfa-status">enabled</p>`)), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, `<p id="mfa-status">enabled</p>`, rec.Body.String())
	})

	t.Run("plain html with status", func(t *testing.T) {
		t.Parallel()
		rec := render(t, handler.TemplWithStatus(http.StatusNotFound, text("gone")), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("datastar patch", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set(handler.DataStarRequestHeader, "true")

		rec := render(t, handler.Templ(text(`<p id="mfa-status">enabled</p>`), handler.WithTarget("#mfa-status")), req)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")
		assert.Contains(t, rec.Body.String(), "datastar-patch-elements")
		assert.Contains(t, rec.Body.String(), "selector #mfa-status")
		assert.Contains(t, rec.Body.String(), `<p id="mfa-status">enabled</p>`)
	})
}

func TestIsDataStar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		query   string
		want    bool
	}{
		{name: "datastar request header", headers: map[string]string{"Datastar-Request": "true"}, want: true},
		{name: "event stream accept", headers: map[string]string{"Accept": "text/html, text/event-stream"}, want: true},
		{name: "signals in query", query: `?datastar={"code":""}`, want: true},
		{name: "browser navigation", headers: map[string]string{"Accept": "text/html"}},
		{name: "api client", headers: map[string]string{"Content-Type": "application/json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, handler.IsDataStar(req))
		})
	}
}
