package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateCRUD(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPut, "/v1/templates/times", map[string]any{"title": "Times", "content": tmpl})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), decode(t, rec)["version"])

	rec = do(t, srv, http.MethodPut, "/v1/templates/times", map[string]any{"title": "Times", "content": tmpl})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(2), decode(t, rec)["version"])

	rec = do(t, srv, http.MethodGet, "/v1/templates/times", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Times", decode(t, rec)["title"])

	rec = do(t, srv, http.MethodGet, "/v1/templates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec = do(t, srv, http.MethodGet, "/v1/templates/times/revisions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var revs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &revs))
	assert.Len(t, revs, 2)

	rec = do(t, srv, http.MethodDelete, "/v1/templates/times", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, "/v1/templates/times", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, srv, http.MethodGet, "/v1/templates/times/revisions", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutTemplate_Invalid(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPut, "/v1/templates/bad", map[string]any{"content": "question: [unclosed"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, "template failed validation", out["error"])
	assert.Equal(t, false, out["validation"].(map[string]any)["valid"])

	rec = do(t, srv, http.MethodPut, "/v1/templates/bad", map[string]any{"content": "question: [unclosed", "force": true})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPut, "/v1/templates/bad", map[string]any{"title": "no content"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
