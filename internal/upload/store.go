// Package upload accepts client audio and keeps it addressable for later stages.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/voiceagent/internal/apperr"
	"github.com/nikhilbhutani/voiceagent/internal/storage"
)

const audioPrefix = "audio/"

var (
	ErrInvalidContentType = errors.New("content type is not audio")
	ErrInvalidFilename    = errors.New("invalid filename")
	ErrTooLarge           = errors.New("upload exceeds size limit")
)

// Asset is an uploaded audio blob. Key is what clients use as "filename" afterwards.
type Asset struct {
	Key          string `json:"filename"`
	OriginalName string `json:"original_filename,omitempty"`
	Size         int64  `json:"file_size"`
	ContentType  string `json:"content_type"`
	Path         string `json:"path"`
}

type Options struct {
	// UniqueKeys prefixes each stored name with a random ID so concurrent
	// uploads of the same filename cannot overwrite each other.
	UniqueKeys bool
	// MaxBytes bounds a single upload; zero means unbounded.
	MaxBytes int64
}

type Store struct {
	blobs storage.Storage
	opts  Options
}

func NewStore(blobs storage.Storage, opts Options) *Store {
	return &Store{blobs: blobs, opts: opts}
}

// IsAudio reports whether a declared content type is accepted.
func IsAudio(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), audioPrefix)
}

// Save validates and persists an upload. Nothing is written when validation fails.
func (s *Store) Save(ctx context.Context, r io.Reader, filename, contentType string) (*Asset, error) {
	if !IsAudio(contentType) {
		return nil, apperr.Wrap(apperr.KindInvalidInput, "upload.save", ErrInvalidContentType,
			"Invalid file type. Please upload an audio file.")
	}

	name, err := cleanName(filename)
	if err != nil {
		return nil, err
	}

	key := name
	if s.opts.UniqueKeys {
		key = uuid.NewString() + "_" + name
	}

	body := r
	if s.opts.MaxBytes > 0 {
		body = &capReader{r: r, remaining: s.opts.MaxBytes}
	}

	info, err := s.blobs.Put(ctx, key, body, contentType)
	if errors.Is(err, ErrTooLarge) {
		return nil, apperr.Wrap(apperr.KindInvalidInput, "upload.save", ErrTooLarge,
			fmt.Sprintf("File too large. Maximum size is %d bytes.", s.opts.MaxBytes))
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "upload.save", err, "Failed to store uploaded file.")
	}

	slog.Debug("stored upload", "key", key, "size", info.Size, "backend", s.blobs.Name())

	return &Asset{
		Key:          key,
		OriginalName: name,
		Size:         info.Size,
		ContentType:  contentType,
		Path:         info.Location,
	}, nil
}

// Open loads a previously stored asset. The caller closes the reader.
func (s *Store) Open(ctx context.Context, key string) (*Asset, io.ReadCloser, error) {
	if !storage.ValidKey(key) {
		return nil, nil, apperr.Wrap(apperr.KindInvalidInput, "upload.open", ErrInvalidFilename, "Invalid filename.")
	}

	info, err := s.blobs.Stat(ctx, key)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, nil, apperr.Wrap(apperr.KindNotFound, "upload.open", err, "File not found.")
	}
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindStorage, "upload.open", err, "Failed to read stored file.")
	}

	rc, err := s.blobs.Get(ctx, key)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, nil, apperr.Wrap(apperr.KindNotFound, "upload.open", err, "File not found.")
	}
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindStorage, "upload.open", err, "Failed to read stored file.")
	}

	return &Asset{
		Key:         key,
		Size:        info.Size,
		ContentType: info.ContentType,
		Path:        info.Location,
	}, rc, nil
}

// capReader fails the read that would take the stream past its limit, so
// the backend abandons the write before anything is committed under the key.
type capReader struct {
	r         io.Reader
	remaining int64
}

func (c *capReader) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		return 0, ErrTooLarge
	}
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return n, ErrTooLarge
	}
	return n, err
}

// cleanName reduces a client-supplied name to a safe single path segment.
func cleanName(filename string) (string, error) {
	name := strings.TrimSpace(filename)
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(filepath.Clean("/" + name))
	if !storage.ValidKey(name) {
		return "", apperr.Wrap(apperr.KindInvalidInput, "upload.save", ErrInvalidFilename, "Invalid filename.")
	}
	return name, nil
}
