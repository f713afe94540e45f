// internal/capture/media_test.go
package capture

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSavePhotos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a.png":
			w.Write([]byte("photo-a"))
		case "/b.png":
			w.Write([]byte("photo-b"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dl := newDownloader(zap.NewNop(), 100)
	dir := t.TempDir()

	err := dl.savePhotos(context.Background(),
		[]string{srv.URL + "/a.png", srv.URL + "/b.png"}, dir)
	require.NoError(t, err)

	a, err := os.ReadFile(filepath.Join(dir, "image_0.png"))
	require.NoError(t, err)
	assert.Equal(t, "photo-a", string(a))

	b, err := os.ReadFile(filepath.Join(dir, "image_1.png"))
	require.NoError(t, err)
	assert.Equal(t, "photo-b", string(b))
}

func TestSavePhotosPropagatesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dl := newDownloader(zap.NewNop(), 100)
	err := dl.savePhotos(context.Background(), []string{srv.URL + "/missing.png"}, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}

func TestFetchHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	dl := newDownloader(zap.NewNop(), 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := dl.fetch(ctx, srv.URL+"/slow.png", filepath.Join(t.TempDir(), "out.png"))
	assert.Error(t, err)
}
