package panel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/application/users", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req CreateUserRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "user628123", req.Username)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"attributes": map[string]any{"id": 7, "uuid": "u-7", "username": req.Username, "email": req.Email},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "test-key")
	user, err := client.CreateUser(context.Background(), CreateUserRequest{
		Username: "user628123",
		Email:    "628123@host.example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, 7, user.ID)
	assert.Equal(t, "u-7", user.UUID)
}

func TestClient_RemoteErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":[{"detail":"The username has already been taken."}]}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "test-key")
	_, err := client.CreateUser(context.Background(), CreateUserRequest{Username: "dup"})
	require.Error(t, err)

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusUnprocessableEntity, remoteErr.Status)
	assert.Contains(t, remoteErr.Detail, "already been taken")
}

func TestClient_ListAllocations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/application/nodes/3/allocations", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"attributes": map[string]any{"id": 1, "ip": "10.0.0.1", "port": 25565, "assigned": true}},
				{"attributes": map[string]any{"id": 2, "ip": "10.0.0.1", "port": 25566, "assigned": false}},
			},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "test-key")
	allocations, err := client.ListAllocations(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, allocations, 2)
	assert.True(t, allocations[0].Assigned)
	assert.False(t, allocations[1].Assigned)
}

func TestClient_IsConfigured(t *testing.T) {
	assert.False(t, New("", "").IsConfigured())
	assert.False(t, New("https://panel.example.com", "").IsConfigured())
	assert.True(t, New("https://panel.example.com", "key").IsConfigured())
}
