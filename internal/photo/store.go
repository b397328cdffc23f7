package photo

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store compresses uploads and persists them through a Backend. Keys are
// "<uuid>.jpg" and never reused.
type Store struct {
	backend Backend
	log     *zap.Logger
	baseURL string
	maxEdge int
	quality int
}

type Options struct {
	BaseURL string
	MaxEdge int
	Quality int
}

func NewStore(backend Backend, log *zap.Logger, opts Options) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		backend: backend,
		log:     log.Named("photo.store"),
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		maxEdge: opts.MaxEdge,
		quality: opts.Quality,
	}
}

func (s *Store) Save(ctx context.Context, data []byte) (string, error) {
	compressed, err := Compress(data, s.maxEdge, s.quality)
	if err != nil {
		return "", err
	}
	key := uuid.NewString() + ".jpg"
	if err := s.backend.Put(ctx, key, compressed); err != nil {
		return "", err
	}
	s.log.Debug("photo stored", zap.String("key", key), zap.Int("bytes", len(compressed)))
	return key, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	return s.backend.Remove(ctx, key)
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.backend.Open(ctx, strings.TrimPrefix(key, "/"))
}

// URL returns the public address for key.
func (s *Store) URL(key string) string {
	if key == "" {
		return ""
	}
	if s.baseURL == "" {
		return "/" + key
	}
	if strings.Contains(s.baseURL, "://") {
		return s.baseURL + "/" + key
	}
	return path.Join(s.baseURL, key)
}
