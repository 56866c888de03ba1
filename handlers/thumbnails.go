package handlers

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	errMissingPayloadField = errors.New("multipart form has no payload field")
	errNotAnImage          = errors.New("attachment is not an image")
)

// ThumbnailStore persists webhook thumbnail attachments and hands back the
// URL path they are served under.
type ThumbnailStore struct {
	dir     string
	baseURL string // public prefix, e.g. "/media/thumbs"
}

// NewThumbnailStore creates the store, ensuring the directory exists.
func NewThumbnailStore(dir, baseURL string) (*ThumbnailStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create thumbnail dir: %w", err)
	}
	return &ThumbnailStore{dir: dir, baseURL: baseURL}, nil
}

// Dir returns the directory thumbnails are written to.
func (s *ThumbnailStore) Dir() string {
	return s.dir
}

// Store sniffs the attachment's content type and writes image payloads to
// disk under a fresh name. Non-image attachments are refused.
func (s *ThumbnailStore) Store(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxPayloadBytes))
	if err != nil {
		return "", err
	}
	mtype := mimetype.Detect(data)
	if !mtype.Is("image/jpeg") && !mtype.Is("image/png") && !mtype.Is("image/webp") {
		return "", fmt.Errorf("%w: %s", errNotAnImage, mtype.String())
	}

	name := uuid.NewString() + mtype.Extension()
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write thumbnail: %w", err)
	}
	return s.baseURL + "/" + name, nil
}
