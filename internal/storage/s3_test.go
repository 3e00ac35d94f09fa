package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is a path-style, single-bucket stand-in for an S3 endpoint.
type fakeS3 struct {
	bucket string

	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3(bucket string) *fakeS3 {
	return &fakeS3{bucket: bucket, objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")
	if bucket != f.bucket {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if key == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = data
		f.types[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodHead, http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", f.types[key])
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			w.Write(data)
		}
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) object(key string) (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.objects[key]), f.types[key]
}

func (f *fakeS3) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func newTestS3(t *testing.T, bucket string) (*S3Storage, *fakeS3, string, error) {
	t.Helper()
	fake := newFakeS3("voice-audio")
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	endpoint := strings.TrimPrefix(srv.URL, "http://")
	s, err := NewS3Storage(context.Background(), S3Config{
		Endpoint:  endpoint,
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    bucket,
		Region:    "us-east-1",
	})
	return s, fake, endpoint, err
}

func TestS3Storage_MissingBucket(t *testing.T) {
	_, _, _, err := newTestS3(t, "other-bucket")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `bucket "other-bucket" does not exist`)
}

func TestS3Storage_PutStatGet(t *testing.T) {
	s, fake, endpoint, err := newTestS3(t, "voice-audio")
	require.NoError(t, err)
	ctx := context.Background()

	info, err := s.Put(ctx, "tts-1.mp3", strings.NewReader("ID3data"), "audio/mpeg")
	require.NoError(t, err)
	assert.Equal(t, int64(7), info.Size)
	assert.Equal(t, "http://"+endpoint+"/voice-audio/tts-1.mp3", info.Location)
	body, ct := fake.object("tts-1.mp3")
	assert.Equal(t, "ID3data", body)
	assert.Equal(t, "audio/mpeg", ct)

	st, err := s.Stat(ctx, "tts-1.mp3")
	require.NoError(t, err)
	assert.Equal(t, int64(7), st.Size)
	assert.Equal(t, "audio/mpeg", st.ContentType)

	rc, err := s.Get(ctx, "tts-1.mp3")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "ID3data", string(data))
}

func TestS3Storage_MissingKeyIsErrNotExist(t *testing.T) {
	s, _, _, err := newTestS3(t, "voice-audio")
	require.NoError(t, err)

	_, err = s.Stat(context.Background(), "missing.wav")
	assert.ErrorIs(t, err, ErrNotExist)

	_, err = s.Get(context.Background(), "missing.wav")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestS3Storage_RejectsUnsafeKeys(t *testing.T) {
	s, fake, _, err := newTestS3(t, "voice-audio")
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "../escape.wav", strings.NewReader("x"), "audio/wav")
	assert.Error(t, err)
	assert.Zero(t, fake.count())
}
