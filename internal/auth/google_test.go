package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubVerifier(t *testing.T, handler http.HandlerFunc) *GoogleVerifier {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	v := NewGoogleVerifier("client-id-123")
	v.Endpoint = server.URL
	return v
}

func TestVerify_Success(t *testing.T) {
	v := newStubVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token-abc", r.URL.Query().Get("id_token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"aud":"client-id-123","sub":"g-42","email":"alice@example.com","name":"Alice","picture":"https://img.example/a.png"}`))
	})

	claims, err := v.Verify(context.Background(), "token-abc")
	require.NoError(t, err)
	assert.Equal(t, "g-42", claims.Sub)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, "https://img.example/a.png", claims.Picture)
}

func TestVerify_AudienceMismatch(t *testing.T) {
	v := newStubVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"aud":"someone-else","sub":"g-42"}`))
	})

	_, err := v.Verify(context.Background(), "token-abc")
	assert.ErrorIs(t, err, ErrAudienceMismatch)
}

func TestVerify_RejectedByGoogle(t *testing.T) {
	v := newStubVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_token"}`, http.StatusBadRequest)
	})

	_, err := v.Verify(context.Background(), "token-abc")
	assert.ErrorIs(t, err, ErrInvalidIDToken)
}

func TestVerify_EmptyToken(t *testing.T) {
	v := NewGoogleVerifier("client-id-123")

	_, err := v.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidIDToken)
}

func TestVerify_MissingSubject(t *testing.T) {
	v := newStubVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"aud":"client-id-123"}`))
	})

	_, err := v.Verify(context.Background(), "token-abc")
	assert.ErrorIs(t, err, ErrInvalidIDToken)
}
