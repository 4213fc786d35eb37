package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRESTClient(srv *httptest.Server) *restClient {
	return &restClient{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		HTTP:    srv.Client(),
	}
}

func TestRESTClient_SignInWithPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/accounts:signInWithPassword", r.URL.Path)
		require.Equal(t, "test-key", r.URL.Query().Get("key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@example.com", body["email"])
		assert.Equal(t, true, body["returnSecureToken"])

		json.NewEncoder(w).Encode(map[string]any{
			"localId": "uid-1",
			"email":   "a@example.com",
			"idToken": "tok-1",
		})
	}))
	defer srv.Close()

	acct, err := newTestRESTClient(srv).signInWithPassword(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", acct.LocalID)
	assert.Equal(t, "tok-1", acct.IDToken)
}

func TestRESTClient_SignUpEmailExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "EMAIL_EXISTS"},
		})
	}))
	defer srv.Close()

	_, err := newTestRESTClient(srv).signUp(context.Background(), "dup@example.com", "pw")
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestRESTClient_WeakPasswordWithDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "WEAK_PASSWORD : Password should be at least 6 characters"},
		})
	}))
	defer srv.Close()

	_, err := newTestRESTClient(srv).signUp(context.Background(), "a@example.com", "x")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestRESTClient_SendVerificationEmail(t *testing.T) {
	var gotType, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts:sendOobCode", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotType, _ = body["requestType"].(string)
		gotToken, _ = body["idToken"].(string)

		json.NewEncoder(w).Encode(map[string]any{"email": "a@example.com"})
	}))
	defer srv.Close()

	require.NoError(t, newTestRESTClient(srv).sendVerificationEmail(context.Background(), "tok-1"))
	assert.Equal(t, "VERIFY_EMAIL", gotType)
	assert.Equal(t, "tok-1", gotToken)
}

func TestRESTClient_MalformedErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	_, err := newTestRESTClient(srv).signInWithPassword(context.Background(), "a@example.com", "pw")
	assert.ErrorIs(t, err, ErrUnknown)
}
