package score

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Backend stores opaque blobs by key. Get returns an error wrapping
// ErrNotFound for a key that was never set or has been deleted.
type Backend interface {
	Get(key string) ([]byte, error)
	Set(key string, data []byte) error
	Delete(key string) error
}

// FileSystem abstracts the file operations the filesystem backend needs.
// The library provides a default implementation for local files.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error
	MkdirAll(path string) error
	Remove(name string) error
}

// localFileSystem implements FileSystem for local files.
type localFileSystem struct{}

func (localFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (localFileSystem) WriteFile(name string, data []byte) error {
	return os.WriteFile(name, data, 0644)
}

func (localFileSystem) MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func (localFileSystem) Remove(name string) error {
	return os.Remove(name)
}

// fsBackend keeps one file per key under basePath.
type fsBackend struct {
	fs       FileSystem
	basePath string
}

// NewFSBackend returns a Backend storing one file per key under dir on the
// local filesystem.
func NewFSBackend(dir string) Backend {
	return NewFSBackendWith(localFileSystem{}, dir)
}

// NewFSBackendWith returns a file-per-key Backend over a custom FileSystem.
func NewFSBackendWith(fsys FileSystem, dir string) Backend {
	return &fsBackend{fs: fsys, basePath: dir}
}

func (b *fsBackend) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(b.basePath, key), nil
}

func (b *fsBackend) Set(key string, data []byte) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := b.fs.MkdirAll(b.basePath); err != nil {
		return err
	}
	return b.fs.WriteFile(p, data)
}

func (b *fsBackend) Get(key string) ([]byte, error) {
	p, err := b.path(key)
	if err != nil {
		return nil, err
	}
	data, err := b.fs.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return data, err
}

func (b *fsBackend) Delete(key string) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	err = b.fs.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return err
}

// memoryBackend keeps blobs in a map. It is safe for concurrent use.
type memoryBackend struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryBackend returns a Backend that keeps everything in memory.
func NewMemoryBackend() Backend {
	return &memoryBackend{blobs: make(map[string][]byte)}
}

func (b *memoryBackend) Set(key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[key] = slices.Clone(data)
	return nil
}

func (b *memoryBackend) Get(key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.blobs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return slices.Clone(data), nil
}

func (b *memoryBackend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.blobs[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	delete(b.blobs, key)
	return nil
}

// Shared zstd state; both are safe for concurrent use.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// Repository stores whole score trees in a Backend, keyed by root id. Each
// tree is written as a zstd-compressed snapshot and replaced as a unit.
type Repository struct {
	backend Backend
	log     *slog.Logger
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithRepositoryLogger sets the logger for storage events.
func WithRepositoryLogger(l *slog.Logger) RepositoryOption {
	return func(r *Repository) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRepository returns a Repository over backend.
func NewRepository(backend Backend, opts ...RepositoryOption) *Repository {
	r := &Repository{
		backend: backend,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fetch loads the tree stored under rootID. The result is re-indexed and
// validated. A missing tree wraps ErrNotFound.
func (r *Repository) Fetch(ctx context.Context, rootID string) (s *System, err error) {
	ctx, span := tracer.Start(ctx, "score.repository.fetch",
		trace.WithAttributes(attribute.String("score.root", rootID)))
	defer func() { endSpan(span, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	blob, err := r.backend.Get(rootID)
	if err != nil {
		return nil, err
	}
	data, err := zstdDecoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", ErrCorruptSnapshot, err)
	}
	s, err = UnmarshalSystem(data)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("score.bytes", len(blob)))
	r.log.Debug("score fetched", slog.String("root", rootID), slog.Int("bytes", len(blob)))
	return s, nil
}

// Replace writes s under its root id, overwriting any previous version.
func (r *Repository) Replace(ctx context.Context, s *System) (err error) {
	ctx, span := tracer.Start(ctx, "score.repository.replace",
		trace.WithAttributes(attribute.String("score.root", s.ID)))
	defer func() { endSpan(span, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	if s.ID == "" {
		return fmt.Errorf("%w: system has no root id", ErrStructuralViolation)
	}
	data, err := MarshalSystem(s)
	if err != nil {
		return err
	}
	blob := zstdEncoder.EncodeAll(data, nil)
	if err := r.backend.Set(s.ID, blob); err != nil {
		return fmt.Errorf("store %s: %w", s.ID, err)
	}
	span.SetAttributes(attribute.Int("score.bytes", len(blob)))
	r.log.Info("score stored",
		slog.String("root", s.ID),
		slog.Int("measures", s.MeasureCount()),
		slog.Int("bytes", len(blob)))
	return nil
}

// Delete removes the tree stored under rootID.
func (r *Repository) Delete(ctx context.Context, rootID string) (err error) {
	_, span := tracer.Start(ctx, "score.repository.delete",
		trace.WithAttributes(attribute.String("score.root", rootID)))
	defer func() { endSpan(span, err) }()

	if err := r.backend.Delete(rootID); err != nil {
		return err
	}
	r.log.Info("score deleted", slog.String("root", rootID))
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
