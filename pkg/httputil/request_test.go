package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))

	var dest struct {
		Name string `json:"name"`
	}
	require.NoError(t, ParseJSON(req, &dest))
	assert.Equal(t, "x", dest.Name)
}

func TestParseJSONInvalid(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{broken`))

	var dest map[string]string
	err := ParseJSON(req, &dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestParseJSONOrErrorWritesBadRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`nope`))
	rec := httptest.NewRecorder()

	var dest map[string]string
	ok := ParseJSONOrError(rec, req, &dest)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParsePathString(t *testing.T) {
	router := mux.NewRouter()
	var got string
	router.HandleFunc("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		val, err := ParsePathString(r, "id")
		require.NoError(t, err)
		got = val
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/u-7", nil))
	assert.Equal(t, "u-7", got)
}

func TestParsePathStringMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := ParsePathString(req, "id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing path parameter")
}

func TestChainOrder(t *testing.T) {
	var order []string
	mk := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(mk("outer"), mk("inner"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}
