package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"hash/fnv"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const fileExt = ".cache"

type fileEnvelope struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt int64           `json:"expires_at"` // unix milliseconds, 0 = never
}

// File stores each entry as <dir>/<md5(key)>.cache holding a JSON envelope
// of the value and its expiry. Writes go through a temp file and an atomic
// rename while a per-key lock is held; expired entries are removed on read
// and by GC.
type File[V any] struct {
	dir    string
	opts   *remoteOptions
	locks  [64]sync.Mutex
	closed atomic.Bool
}

// NewFile creates a file cache rooted at dir, creating the directory if needed.
func NewFile[V any](dir string, opts ...RemoteOption) (*File[V], error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	o := defaultRemoteOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &File[V]{dir: dir, opts: o}, nil
}

// Get returns the value for key or ErrNotFound.
func (f *File[V]) Get(_ context.Context, key string) (V, error) {
	var zero V
	if f.closed.Load() {
		return zero, ErrClosed
	}

	path := f.path(key)
	env, err := readEnvelope(path)
	if err != nil {
		return zero, err
	}
	if env.expired(time.Now()) {
		if env, err = f.evict(key, path); err != nil {
			return zero, err
		}
	}

	var v V
	if err := json.Unmarshal(env.Value, &v); err != nil {
		return zero, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}

// evict removes the expired entry at path. The file is re-read under the
// key lock first: a Set that landed after the unlocked read is returned
// instead of being deleted.
func (f *File[V]) evict(key, path string) (*fileEnvelope, error) {
	mu := f.lock(key)
	mu.Lock()
	defer mu.Unlock()

	env, err := readEnvelope(path)
	if err != nil {
		return nil, err
	}
	if env.expired(time.Now()) {
		_ = os.Remove(path)
		return nil, ErrNotFound
	}
	return env, nil
}

// Set writes value under key.
func (f *File[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	if f.closed.Load() {
		return ErrClosed
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Join(ErrMarshal, err)
	}
	env := fileEnvelope{Value: raw}
	if exp := expiryFor(ttl, f.opts.defaultTTL); !exp.IsZero() {
		env.ExpiresAt = exp.UnixMilli()
	}
	data, err := json.Marshal(env)
	if err != nil {
		return errors.Join(ErrMarshal, err)
	}

	mu := f.lock(key)
	mu.Lock()
	defer mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path(key))
}

// Delete removes key. Missing keys are not an error.
func (f *File[V]) Delete(_ context.Context, key string) error {
	if f.closed.Load() {
		return ErrClosed
	}
	mu := f.lock(key)
	mu.Lock()
	defer mu.Unlock()

	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Has reports whether key holds a live entry.
func (f *File[V]) Has(ctx context.Context, key string) (bool, error) {
	_, err := f.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Clear removes every cache file in the directory.
func (f *File[V]) Clear(_ context.Context) error {
	if f.closed.Load() {
		return ErrClosed
	}
	return f.walk(func(string, *fileEnvelope) bool { return true })
}

// GC removes expired and unreadable entries and returns how many files
// were deleted.
func (f *File[V]) GC(_ context.Context) (int, error) {
	now := time.Now()
	removed := 0
	err := f.walk(func(_ string, env *fileEnvelope) bool {
		if env == nil || env.expired(now) {
			removed++
			return true
		}
		return false
	})
	return removed, err
}

// Close marks the cache closed. Files are left on disk.
func (f *File[V]) Close() error {
	f.closed.Store(true)
	return nil
}

// walk visits every cache file and removes those for which drop returns
// true. env is nil when the file cannot be decoded.
func (f *File[V]) walk(drop func(path string, env *fileEnvelope) bool) error {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return err
	}
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		path := filepath.Join(f.dir, e.Name())
		env, err := readEnvelope(path)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			env = nil
		}
		if drop(path, env) {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f *File[V]) path(key string) string {
	sum := md5.Sum([]byte(f.opts.key(key)))
	return filepath.Join(f.dir, hex.EncodeToString(sum[:])+fileExt)
}

func (f *File[V]) lock(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &f.locks[h.Sum32()%uint32(len(f.locks))]
}

func readEnvelope(path string) (*fileEnvelope, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Join(ErrUnmarshal, err)
	}
	return &env, nil
}

func (e *fileEnvelope) expired(now time.Time) bool {
	return e.ExpiresAt > 0 && now.UnixMilli() >= e.ExpiresAt
}

var (
	_ Cache[any] = (*File[any])(nil)
	_ Collector  = (*File[any])(nil)
)
