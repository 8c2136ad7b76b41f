package helpers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func esServer(t *testing.T, exists int) (*httptest.Server, *[]string) {
	t.Helper()
	var mu sync.Mutex
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodHead {
			w.WriteHeader(exists)
			return
		}
		_, _ = io.WriteString(w, `{"acknowledged":true}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestNewESClient_Disabled(t *testing.T) {
	es, err := NewESClient(nil, "", "")
	require.NoError(t, err)
	assert.Nil(t, es)
}

func TestEnsureIndex_CreatesMissing(t *testing.T) {
	srv, calls := esServer(t, http.StatusNotFound)
	es, err := NewESClient([]string{srv.URL}, "", "")
	require.NoError(t, err)

	require.NoError(t, EnsureIndex(context.Background(), es, "posts", PostsIndexMapping))
	assert.Equal(t, []string{"HEAD /posts", "PUT /posts"}, *calls)
}

func TestEnsureIndex_KeepsExisting(t *testing.T) {
	srv, calls := esServer(t, http.StatusOK)
	es, err := NewESClient([]string{srv.URL}, "", "")
	require.NoError(t, err)

	require.NoError(t, EnsureIndex(context.Background(), es, "posts", PostsIndexMapping))
	assert.Equal(t, []string{"HEAD /posts"}, *calls)
}
