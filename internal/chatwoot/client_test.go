package chatwoot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squarespace-chatwoot-integrator/internal/config"
)

func testConfig(baseURL string) config.ChatwootConfig {
	return config.ChatwootConfig{
		BaseURL:   baseURL,
		AccountID: 3,
		InboxID:   12,
		APIToken:  "token-abc",
		SourceID:  "Squarespace",
	}
}

func TestCreateOrFindContactCreated(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	var gotToken, gotContentType string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/accounts/3/contacts", r.URL.Path)
		gotToken = r.Header.Get("api_access_token")
		gotContentType = r.Header.Get("Content-Type")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 42, "name": "Jo"})
	}))
	defer ts.Close()

	client := NewClient(testConfig(ts.URL))

	contact, err := client.CreateOrFindContact(context.Background(), ContactDraft{
		Name:       "Jo",
		Email:      "jo@x.com",
		Phone:      "+551199",
		Identifier: "jo@x.com",
		Metadata:   map[string]any{"squarespace_form_id": "sub-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "token-abc", gotToken)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "jo@x.com", gotBody["email"])
	assert.Equal(t, "jo@x.com", gotBody["identifier"])
	assert.Equal(t, "+551199", gotBody["phone_number"])
	assert.Equal(t, map[string]any{"squarespace_form_id": "sub-1"}, gotBody["custom_attributes"])

	id, ok := PayloadID(contact)
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestCreateOrFindContactConflictFallsBackToSearch(t *testing.T) {
	t.Parallel()

	var createCalls, searchCalls int
	var gotQuery string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/accounts/3/contacts":
			createCalls++
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(map[string]any{"message": "Email has already been taken"})
		case "/api/v1/accounts/3/contacts/search":
			searchCalls++
			gotQuery = r.URL.Query().Get("q")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"payload": []map[string]any{{"id": 7, "email": "jo@x.com"}},
			})
		default:
			t.Errorf("rota inesperada: %s", r.URL.Path)
		}
	}))
	defer ts.Close()

	client := NewClient(testConfig(ts.URL))

	contact, err := client.CreateOrFindContact(context.Background(), ContactDraft{
		Email:      "jo@x.com",
		Identifier: "jo@x.com",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, createCalls)
	assert.Equal(t, 1, searchCalls)
	assert.Equal(t, "jo@x.com", gotQuery)

	id, ok := PayloadID(contact)
	require.True(t, ok)
	assert.Equal(t, int64(7), id)
}

func TestCreateOrFindContactConflictWithoutIdentifierFails(t *testing.T) {
	t.Parallel()

	var searchCalls int

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/accounts/3/contacts/search" {
			searchCalls++
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "duplicado"})
	}))
	defer ts.Close()

	client := NewClient(testConfig(ts.URL))

	_, err := client.CreateOrFindContact(context.Background(), ContactDraft{})
	require.Error(t, err)
	assert.Zero(t, searchCalls)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsConflict())
}

func TestCreateOrFindContactConflictSearchEmptyKeepsOriginalError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/accounts/3/contacts/search" {
			_ = json.NewEncoder(w).Encode(map[string]any{"payload": []map[string]any{}})
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "Email has already been taken"})
	}))
	defer ts.Close()

	client := NewClient(testConfig(ts.URL))

	_, err := client.CreateOrFindContact(context.Background(), ContactDraft{Identifier: "jo@x.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create contact")
	assert.Contains(t, err.Error(), "Email has already been taken")
}

func TestCreateOrFindContactNonJSONErrorBody(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>boom</html>"))
	}))
	defer ts.Close()

	client := NewClient(testConfig(ts.URL))

	_, err := client.CreateOrFindContact(context.Background(), ContactDraft{Identifier: "x"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, map[string]any{"error": "Internal Server Error"}, apiErr.Body)
}

func TestCreateConversation(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/accounts/3/conversations", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 101})
	}))
	defer ts.Close()

	client := NewClient(testConfig(ts.URL))

	conversation, err := client.CreateConversation(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, float64(42), gotBody["contact_id"])
	assert.Equal(t, float64(12), gotBody["inbox_id"])
	assert.Equal(t, "Squarespace", gotBody["source_id"])
	assert.Equal(t, "open", gotBody["status"])

	id, ok := PayloadID(conversation)
	require.True(t, ok)
	assert.Equal(t, int64(101), id)
}

func TestCreateConversationFailure(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "invalid token"})
	}))
	defer ts.Close()

	client := NewClient(testConfig(ts.URL))

	_, err := client.CreateConversation(context.Background(), 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create conversation")
	assert.Contains(t, err.Error(), "invalid token")
}

func TestCreateMessage(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/accounts/3/conversations/101/messages", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 555})
	}))
	defer ts.Close()

	client := NewClient(testConfig(ts.URL))

	_, err := client.CreateMessage(context.Background(), 101, "Oi\n\ncorpo")
	require.NoError(t, err)

	assert.Equal(t, "Oi\n\ncorpo", gotBody["content"])
	assert.Equal(t, "incoming", gotBody["message_type"])
}

func TestCreateMessageFailure(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "conversation not found"})
	}))
	defer ts.Close()

	client := NewClient(testConfig(ts.URL))

	_, err := client.CreateMessage(context.Background(), 999, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create message")
}

func TestPayloadID(t *testing.T) {
	t.Parallel()

	id, ok := PayloadID(map[string]any{"id": float64(10)})
	require.True(t, ok)
	assert.Equal(t, int64(10), id)

	id, ok = PayloadID(map[string]any{"payload": map[string]any{"id": float64(7)}})
	require.True(t, ok)
	assert.Equal(t, int64(7), id)

	_, ok = PayloadID(map[string]any{"name": "sem id"})
	assert.False(t, ok)

	_, ok = PayloadID(map[string]any{"id": "não numérico"})
	assert.False(t, ok)

	_, ok = PayloadID(map[string]any{"payload": map[string]any{"name": "sem id"}})
	assert.False(t, ok)
}
