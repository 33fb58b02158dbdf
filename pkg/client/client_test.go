package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/aptitude-engine/internal/models"
)

func writeEnvelope(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": status < 400,
		"data":    data,
	})
}

func writeFailure(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   map[string]string{"code": code, "message": message},
	})
}

func newStubServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/signup", func(w http.ResponseWriter, r *http.Request) {
		var req models.SignUpRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		writeEnvelope(w, http.StatusCreated, map[string]interface{}{
			"token":    "tok-1",
			"identity": map[string]string{"id": "id-1", "name": req.Name, "email": req.Email},
			"profile":  map[string]interface{}{"name": req.Name, "skills": []string{}},
			"scores":   []interface{}{},
		})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			writeFailure(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]string{"message": "signed out"})
	})
	mux.HandleFunc("GET /api/v1/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			writeFailure(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]interface{}{"name": "Asha", "education": "B.Sc"})
	})
	mux.HandleFunc("GET /api/v1/scores/best", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"topic":      q.Get("topic"),
			"difficulty": q.Get("difficulty"),
			"best":       90,
			"attempts":   3,
		})
	})
	mux.HandleFunc("POST /api/v1/assessments/{id}/navigate", func(w http.ResponseWriter, r *http.Request) {
		var req models.NavigateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		idx := 0
		if req.To != nil {
			idx = *req.To
		} else if req.Direction == "next" {
			idx = 1
		}
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"id":            r.PathValue("id"),
			"current_index": idx,
		})
	})
	mux.HandleFunc("GET /api/v1/results/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusNotFound, "result_not_found", "result not found")
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_SignUpStoresToken(t *testing.T) {
	srv := newStubServer(t)
	c := NewClient(srv.URL)
	ctx := context.Background()

	_, err := c.GetProfile(ctx)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "unauthorized", apiErr.Code)

	s, err := c.SignUp(ctx, models.SignUpRequest{Name: "Asha", Email: "asha@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", s.Token)
	assert.Equal(t, "id-1", s.Identity.ID)
	assert.Equal(t, "tok-1", c.Token())

	p, err := c.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Asha", p.Name)
	assert.Equal(t, "B.Sc", p.Education)

	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, c.Token())
}

func TestClient_WithToken(t *testing.T) {
	srv := newStubServer(t)
	c := NewClient(srv.URL, WithToken("tok-1"))

	p, err := c.GetProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Asha", p.Name)
}

func TestClient_PersonalBestQuery(t *testing.T) {
	srv := newStubServer(t)
	c := NewClient(srv.URL)

	b, err := c.PersonalBest(context.Background(), "logical reasoning", models.DifficultyHard)
	require.NoError(t, err)
	assert.Equal(t, "logical reasoning", b.Topic)
	assert.Equal(t, models.DifficultyHard, b.Difficulty)
	assert.InDelta(t, 90.0, b.Best, 0.001)
	assert.Equal(t, 3, b.Attempts)
}

func TestClient_Navigate(t *testing.T) {
	srv := newStubServer(t)
	c := NewClient(srv.URL)
	ctx := context.Background()

	v, err := c.Navigate(ctx, "s-1", "next")
	require.NoError(t, err)
	assert.Equal(t, "s-1", v.ID)
	assert.Equal(t, 1, v.CurrentIndex)

	v, err = c.JumpTo(ctx, "s-1", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, v.CurrentIndex)
}

func TestClient_Errors(t *testing.T) {
	srv := newStubServer(t)
	c := NewClient(srv.URL)
	ctx := context.Background()

	_, err := c.GetResult(ctx, "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "result_not_found", apiErr.Code)

	err = c.Health(ctx)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "http_error", apiErr.Code)
	assert.Contains(t, apiErr.Message, "upstream down")
}
