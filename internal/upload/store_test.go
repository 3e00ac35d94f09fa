package upload

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/voiceagent/internal/apperr"
	"github.com/nikhilbhutani/voiceagent/internal/storage"
)

func newStore(t *testing.T, opts Options) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	blobs, err := storage.NewLocalStorage(root, "http://localhost:8000")
	require.NoError(t, err)
	return NewStore(blobs, opts), root
}

func TestSave_RejectsNonAudioBeforeWriting(t *testing.T) {
	store, root := newStore(t, Options{})

	for _, ct := range []string{"text/plain", "video/mp4", "application/octet-stream", "", "audi/wav"} {
		_, err := store.Save(context.Background(), strings.NewReader("not audio"), "sample.wav", ct)
		require.Error(t, err, ct)
		assert.ErrorIs(t, err, ErrInvalidContentType)
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
		assert.Equal(t, "Invalid file type. Please upload an audio file.", err.Error())
	}

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "no file may be created for rejected uploads")
}

func TestSave_NameAddressed(t *testing.T) {
	store, _ := newStore(t, Options{})

	asset, err := store.Save(context.Background(), bytes.NewReader(make([]byte, 1000)), "sample.wav", "audio/wav")
	require.NoError(t, err)

	assert.Equal(t, "sample.wav", asset.Key)
	assert.Equal(t, int64(1000), asset.Size)
	assert.Equal(t, "audio/wav", asset.ContentType)
	assert.FileExists(t, asset.Path)
}

func TestSave_UniqueKeysDoNotCollide(t *testing.T) {
	store, _ := newStore(t, Options{UniqueKeys: true})
	ctx := context.Background()

	a, err := store.Save(ctx, strings.NewReader("first"), "clip.mp3", "audio/mpeg")
	require.NoError(t, err)
	b, err := store.Save(ctx, strings.NewReader("second"), "clip.mp3", "audio/mpeg")
	require.NoError(t, err)

	assert.NotEqual(t, a.Key, b.Key)
	assert.True(t, strings.HasSuffix(a.Key, "_clip.mp3"))
	assert.Equal(t, "clip.mp3", a.OriginalName)

	_, rc, err := store.Open(ctx, a.Key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestSave_StripsDirectories(t *testing.T) {
	store, _ := newStore(t, Options{})

	asset, err := store.Save(context.Background(), strings.NewReader("x"), "../../etc/voice.wav", "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, "voice.wav", asset.Key)

	_, err = store.Save(context.Background(), strings.NewReader("x"), "..", "audio/wav")
	assert.ErrorIs(t, err, ErrInvalidFilename)
}

func TestSave_EnforcesMaxBytes(t *testing.T) {
	store, root := newStore(t, Options{MaxBytes: 10})

	_, err := store.Save(context.Background(), bytes.NewReader(make([]byte, 11)), "big.wav", "audio/wav")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.NoFileExists(t, root+"/big.wav")

	asset, err := store.Save(context.Background(), bytes.NewReader(make([]byte, 10)), "ok.wav", "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, int64(10), asset.Size)
}

func TestSave_OversizedUploadKeepsExistingObject(t *testing.T) {
	store, root := newStore(t, Options{MaxBytes: 100})
	ctx := context.Background()

	_, err := store.Save(ctx, bytes.NewReader(bytes.Repeat([]byte("a"), 50)), "sample.wav", "audio/wav")
	require.NoError(t, err)

	_, err = store.Save(ctx, bytes.NewReader(make([]byte, 500)), "sample.wav", "audio/wav")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	asset, rc, err := store.Open(ctx, "sample.wav")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, int64(50), asset.Size)
	assert.Equal(t, bytes.Repeat([]byte("a"), 50), data)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestCapReader(t *testing.T) {
	data, err := io.ReadAll(&capReader{r: strings.NewReader("hello"), remaining: 5})
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = io.ReadAll(&capReader{r: strings.NewReader("hello!"), remaining: 5})
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestOpen(t *testing.T) {
	store, _ := newStore(t, Options{})
	ctx := context.Background()

	_, _, err := store.Open(ctx, "missing.wav")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "File not found.", err.Error())

	_, _, err = store.Open(ctx, "../secret")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = store.Save(ctx, strings.NewReader("abc"), "hello.wav", "audio/wav")
	require.NoError(t, err)
	asset, rc, err := store.Open(ctx, "hello.wav")
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, int64(3), asset.Size)
	assert.Equal(t, "hello.wav", asset.Key)
}
