package vectorstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New("test-key", 5*time.Second)
	c.SetBaseURL(srv.URL)
	return c
}

func TestUploadBytesReturnsFileID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"file-abc123"}`))
	}))

	id, err := c.UploadBytes(context.Background(), "doc.md", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "file-abc123", id)
}

func TestAttachToCollection(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vector_stores/vs1/files", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusOK)
	}))

	err := c.AttachToCollection(context.Background(), "vs1", "file-abc123")
	assert.NoError(t, err)
}

func TestDetachAndDeleteToleratesNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	err := c.DetachAndDelete(context.Background(), "vs1", "file-abc123")
	assert.NoError(t, err)
}

func TestDetachAndDeleteSurfacesServerError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	err := c.DetachAndDelete(context.Background(), "vs1", "file-abc123")
	assert.Error(t, err)
}

func TestRefreshCollection(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusOK)
	}))

	err := c.RefreshCollection(context.Background(), "vs1")
	assert.NoError(t, err)
}
