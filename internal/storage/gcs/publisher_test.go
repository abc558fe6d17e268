package gcs_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"testing/iotest"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/JakeFAU/bunpro-yomitan/internal/storage/gcs"
)

// newTestPublisher points a Publisher at a fake GCS JSON API.
func newTestPublisher(t *testing.T, handler http.Handler, prefix string) *gcs.Publisher {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := storage.NewClient(context.Background(), option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	p, err := gcs.New(client, gcs.Config{Bucket: "test-bucket", Prefix: prefix}, nil)
	require.NoError(t, err)
	return p
}

func TestPublishFile(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "bunpro_dict.zip")
	require.NoError(t, os.WriteFile(archive, []byte("zip-bytes"), 0o600))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/upload/storage/v1/b/test-bucket/o")
		assert.Equal(t, "dictionaries/bunpro_dict.zip", r.URL.Query().Get("name"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "zip-bytes")
		assert.Contains(t, string(body), "application/zip")
		fmt.Fprintln(w, `{ "name": "dictionaries/bunpro_dict.zip" }`)
	})

	p := newTestPublisher(t, handler, "/dictionaries/")
	uri, err := p.PublishFile(context.Background(), archive)
	require.NoError(t, err)
	assert.Equal(t, "gs://test-bucket/dictionaries/bunpro_dict.zip", uri)
}

func TestPublishFileServerError(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "bunpro_dict.zip")
	require.NoError(t, os.WriteFile(archive, []byte("zip-bytes"), 0o600))

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	p := newTestPublisher(t, handler, "")
	_, err := p.PublishFile(context.Background(), archive)
	assert.Error(t, err)
}

func TestPutObjectAbandonsUploadOnReadError(t *testing.T) {
	var committed atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			return
		}
		committed.Add(1)
		fmt.Fprintln(w, `{ "name": "bunpro_dict.zip" }`)
	})
	p := newTestPublisher(t, handler, "")

	errRead := errors.New("disk read failed")
	body := io.MultiReader(strings.NewReader("partial-zip"), iotest.ErrReader(errRead))
	_, err := p.PutObject(context.Background(), "bunpro_dict.zip", "application/zip", body)
	require.ErrorIs(t, err, errRead)
	assert.Zero(t, committed.Load(), "a truncated archive must not be committed")
}

func TestPublishFileMissingArchive(t *testing.T) {
	p := newTestPublisher(t, http.NotFoundHandler(), "")
	_, err := p.PublishFile(context.Background(), filepath.Join(t.TempDir(), "absent.zip"))
	assert.ErrorContains(t, err, "open archive")
}

func TestObjectName(t *testing.T) {
	p := newTestPublisher(t, http.NotFoundHandler(), "")
	assert.Equal(t, "bunpro_dict.zip", p.ObjectName("out/bunpro_dict.zip"))
}

func TestNewValidates(t *testing.T) {
	_, err := gcs.New(nil, gcs.Config{Bucket: "b"}, nil)
	assert.Error(t, err)

	client, err := storage.NewClient(context.Background(), option.WithoutAuthentication())
	require.NoError(t, err)
	defer client.Close()
	_, err = gcs.New(client, gcs.Config{}, nil)
	assert.Error(t, err)
}
