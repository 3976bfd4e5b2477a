package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

const uploadChunkSize = 256 * 1024

// LocalBlobs stores media on the local filesystem; the router serves the
// directory under baseURL.
type LocalBlobs struct {
	dir     string
	baseURL string
}

// NewLocalBlobs creates a filesystem blob store rooted at dir.
func NewLocalBlobs(dir, baseURL string) *LocalBlobs {
	return &LocalBlobs{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (l *LocalBlobs) Put(ctx context.Context, path string, data []byte, contentType string, progress ProgressFunc) (string, error) {
	cleaned, err := cleanBlobPath(path)
	if err != nil {
		return "", err
	}
	target := filepath.Join(l.dir, filepath.FromSlash(cleaned))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}
	if err := copyWithProgress(ctx, f, data, progress); err != nil {
		_ = f.Close()
		_ = os.Remove(target)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	return cleaned, nil
}

func (l *LocalBlobs) PublicURL(_ context.Context, ref string) (string, error) {
	segments := strings.Split(ref, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return l.baseURL + "/" + strings.Join(segments, "/"), nil
}

// MemoryBlobs keeps uploads in memory. Used by tests and the local demo.
type MemoryBlobs struct {
	mu      sync.Mutex
	objects map[string]MemoryObject
	puts    int
}

// MemoryObject is a stored blob.
type MemoryObject struct {
	Data        []byte
	ContentType string
}

// NewMemoryBlobs creates an empty in-memory blob store.
func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{objects: make(map[string]MemoryObject)}
}

func (m *MemoryBlobs) Put(ctx context.Context, path string, data []byte, contentType string, progress ProgressFunc) (string, error) {
	cleaned, err := cleanBlobPath(path)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := copyWithProgress(ctx, &buf, data, progress); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	m.objects[cleaned] = MemoryObject{Data: buf.Bytes(), ContentType: contentType}
	return cleaned, nil
}

func (m *MemoryBlobs) PublicURL(_ context.Context, ref string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[ref]; !ok {
		return "", ErrNotFound
	}
	return "memory://" + ref, nil
}

// Object returns a stored blob by path.
func (m *MemoryBlobs) Object(path string) (MemoryObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[path]
	return o, ok
}

// Puts returns how many uploads were attempted successfully.
func (m *MemoryBlobs) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// Paths lists stored object paths.
func (m *MemoryBlobs) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for p := range m.objects {
		out = append(out, p)
	}
	return out
}

// copyWithProgress writes data in chunks, reporting progress after each one and
// stopping when ctx is cancelled.
func copyWithProgress(ctx context.Context, w io.Writer, data []byte, progress ProgressFunc) error {
	total := int64(len(data))
	if progress != nil {
		progress(0, total)
	}
	var written int64
	for written < total {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := written + uploadChunkSize
		if end > total {
			end = total
		}
		n, err := w.Write(data[written:end])
		if err != nil {
			return fmt.Errorf("failed to write upload chunk: %w", err)
		}
		written += int64(n)
		if progress != nil {
			progress(written, total)
		}
	}
	return ctx.Err()
}

func cleanBlobPath(path string) (string, error) {
	cleaned := filepath.ToSlash(filepath.Clean("/" + path))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." || slices.Contains(strings.Split(cleaned, "/"), "..") {
		return "", fmt.Errorf("invalid blob path %q", path)
	}
	return cleaned, nil
}
