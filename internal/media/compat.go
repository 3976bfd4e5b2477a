package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"io.winapps.memorialboard/internal/metrics"
)

var (
	// ErrNotLegacy is returned when the fetched source is not HEIC/HEIF.
	ErrNotLegacy = errors.New("source is not a legacy image")
	// ErrAlreadyConverted is returned when an element's conversion was
	// already delivered and released.
	ErrAlreadyConverted = errors.New("element already converted")
)

// DefaultTempTTL bounds how long an unopened conversion is kept.
const DefaultTempTTL = 10 * time.Minute

const (
	// DefaultMarkerTTL bounds how long a delivered element stays marked as
	// converted.
	DefaultMarkerTTL = time.Hour
	// DefaultMaxMarkers caps the number of tracked elements. Settled markers
	// closest to expiry are evicted first beyond it.
	DefaultMaxMarkers = 10000

	markerSweepInterval = time.Minute
)

// Fetcher retrieves a published media object.
type Fetcher interface {
	Fetch(ctx context.Context, src string) (data []byte, contentType string, err error)
}

// HTTPFetcher fetches media over HTTP(S), reading at most maxBytes.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewHTTPFetcher(client *http.Client, maxBytes int64) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &HTTPFetcher{client: client, maxBytes: maxBytes}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, src string) ([]byte, string, error) {
	u, err := url.Parse(src)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, "", fmt.Errorf("unsupported media source %q", src)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", src, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch %s: status %d", src, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", src, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, "", &OversizeError{Size: int64(len(data)), Limit: f.maxBytes}
	}
	return data, resp.Header.Get("Content-Type"), nil
}

type markerState int

const (
	markerConverting markerState = iota + 1
	markerReady
	markerReleased
)

type marker struct {
	state   markerState
	ref     string
	expires time.Time
}

// expired reports whether a settled marker outlived its deadline. Markers of
// in-flight conversions never expire.
func (m *marker) expired(now time.Time) bool {
	return m.state != markerConverting && !now.Before(m.expires)
}

// Converter lazily converts already-published legacy images for display.
// Each element key is converted at most once.
type Converter struct {
	fetcher    Fetcher
	transcoder *Transcoder
	temp       TempStore
	ttl        time.Duration
	logger     *zap.SugaredLogger

	markerTTL  time.Duration
	maxMarkers int
	now        func() time.Time

	group     singleflight.Group
	mu        sync.Mutex
	markers   map[string]*marker
	refs      map[string]string // ref -> element key
	nextSweep time.Time
}

func NewConverter(fetcher Fetcher, transcoder *Transcoder, temp TempStore, ttl time.Duration, logger *zap.SugaredLogger) *Converter {
	if transcoder == nil {
		transcoder = NewTranscoder()
	}
	if ttl <= 0 {
		ttl = DefaultTempTTL
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Converter{
		fetcher:    fetcher,
		transcoder: transcoder,
		temp:       temp,
		ttl:        ttl,
		logger:     logger,
		markerTTL:  DefaultMarkerTTL,
		maxMarkers: DefaultMaxMarkers,
		now:        time.Now,
		markers:    make(map[string]*marker),
		refs:       make(map[string]string),
	}
}

// WithMarkerLimits overrides how long delivered elements stay marked and how
// many elements are tracked at once.
func (c *Converter) WithMarkerLimits(ttl time.Duration, limit int) *Converter {
	if ttl > 0 {
		c.markerTTL = ttl
	}
	if limit > 0 {
		c.maxMarkers = limit
	}
	return c
}

// Convert returns a temporary reference holding a web-displayable rendition
// of src for the element identified by key. Concurrent calls for the same key
// share one conversion.
func (c *Converter) Convert(ctx context.Context, key, src string) (string, error) {
	c.mu.Lock()
	if m, ok := c.markers[key]; ok && m.expired(c.now()) {
		c.dropMarkerLocked(key, m)
	} else if ok {
		switch m.state {
		case markerReady:
			c.mu.Unlock()
			metrics.CompatConversionsTotal.WithLabelValues("reused").Inc()
			return m.ref, nil
		case markerReleased:
			c.mu.Unlock()
			return "", ErrAlreadyConverted
		}
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.convert(ctx, key, src)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Converter) convert(ctx context.Context, key, src string) (string, error) {
	c.setMarker(key, &marker{state: markerConverting})

	data, contentType, err := c.fetcher.Fetch(ctx, src)
	if err != nil {
		c.clearMarker(key)
		metrics.CompatConversionsTotal.WithLabelValues("error").Inc()
		return "", err
	}
	if !IsLegacy(contentType, src) {
		c.clearMarker(key)
		metrics.CompatConversionsTotal.WithLabelValues("not_legacy").Inc()
		return "", ErrNotLegacy
	}

	out, err := c.transcoder.Convert(File{Name: path.Base(src), ContentType: contentType, Data: data})
	if err != nil {
		c.clearMarker(key)
		c.logger.Warnw("Display conversion failed", "key", key, "src", src, "error", err)
		metrics.CompatConversionsTotal.WithLabelValues("error").Inc()
		return "", err
	}

	ref := uuid.New().String()
	if err := c.temp.Put(ctx, ref, TempObject{Data: out.Data, ContentType: out.ContentType}, c.ttl); err != nil {
		c.clearMarker(key)
		metrics.CompatConversionsTotal.WithLabelValues("error").Inc()
		return "", err
	}

	c.mu.Lock()
	c.markers[key] = &marker{state: markerReady, ref: ref, expires: c.now().Add(c.ttl)}
	c.refs[ref] = key
	c.mu.Unlock()

	metrics.CompatConversionsTotal.WithLabelValues("converted").Inc()
	return ref, nil
}

// Open consumes a temporary reference. The reference is released after this
// call and the owning element stays marked as converted.
func (c *Converter) Open(ctx context.Context, ref string) (TempObject, error) {
	obj, err := c.temp.Take(ctx, ref)
	if err != nil {
		return TempObject{}, err
	}
	c.mu.Lock()
	if key, ok := c.refs[ref]; ok {
		delete(c.refs, ref)
		if m := c.markers[key]; m != nil && m.ref == ref {
			m.state = markerReleased
			m.ref = ""
			m.expires = c.now().Add(c.markerTTL)
		}
	}
	c.mu.Unlock()
	return obj, nil
}

// Release drops the element's marker and any unopened reference, as when the
// element is replaced on the page.
func (c *Converter) Release(ctx context.Context, key string) {
	c.mu.Lock()
	m := c.markers[key]
	delete(c.markers, key)
	c.mu.Unlock()
	if m != nil && m.ref != "" {
		c.releaseRef(ctx, m.ref)
	}
}

func (c *Converter) releaseRef(ctx context.Context, ref string) {
	c.mu.Lock()
	delete(c.refs, ref)
	c.mu.Unlock()
	if err := c.temp.Delete(ctx, ref); err != nil {
		c.logger.Debugw("Failed to release temporary reference", "ref", ref, "error", err)
	}
}

func (c *Converter) setMarker(key string, m *marker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.markers[key]; !exists {
		c.pruneLocked(c.now())
	}
	c.markers[key] = m
}

// pruneLocked drops expired markers once per sweep interval, and evicts settled
// markers closest to expiry when the table is full.
func (c *Converter) pruneLocked(now time.Time) {
	full := len(c.markers) >= c.maxMarkers
	if !full && now.Before(c.nextSweep) {
		return
	}
	c.nextSweep = now.Add(markerSweepInterval)
	for key, m := range c.markers {
		if m.expired(now) {
			c.dropMarkerLocked(key, m)
		}
	}
	if len(c.markers) < c.maxMarkers {
		return
	}

	type settled struct {
		key     string
		expires time.Time
	}
	var candidates []settled
	for key, m := range c.markers {
		if m.state != markerConverting {
			candidates = append(candidates, settled{key: key, expires: m.expires})
		}
	}
	slices.SortFunc(candidates, func(a, b settled) int { return a.expires.Compare(b.expires) })
	excess := len(c.markers) - c.maxMarkers*9/10
	for _, cand := range candidates {
		if excess <= 0 {
			break
		}
		c.dropMarkerLocked(cand.key, c.markers[cand.key])
		excess--
	}
}

// dropMarkerLocked forgets key. An unopened rendition simply expires from the
// temp store.
func (c *Converter) dropMarkerLocked(key string, m *marker) {
	delete(c.markers, key)
	if m != nil && m.ref != "" {
		delete(c.refs, m.ref)
	}
}

func (c *Converter) clearMarker(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.markers, key)
}
