package sitemap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	"github.com/pathmend/pathmend/internal/xerrors"
)

// Fetch defaults.
const (
	DefaultConcurrency  = 5
	DefaultFetchTimeout = 10 * time.Second
	DefaultMaxDepth     = 3
	DefaultCacheSize    = 64
	DefaultCacheTTL     = 5 * time.Minute

	// maxBodyBytes caps a single sitemap body (50 MB, the protocol limit).
	maxBodyBytes = 50 << 20
)

// FetchConfig tunes the fetcher. Zero values fall back to defaults.
type FetchConfig struct {
	// Concurrency bounds simultaneous sub-sitemap fetches.
	Concurrency int
	// Timeout applies per fetch, via context cancellation. A slow
	// sub-sitemap is discarded, not waited on.
	Timeout time.Duration
	// MaxDepth caps sitemap-index recursion.
	MaxDepth int
	// CacheSize and CacheTTL bound the fetched-document cache.
	CacheSize int
	CacheTTL  time.Duration
}

// Result carries everything a (possibly partial) ingestion produced.
// Errors holds one string per failed URL; entries from the URLs that did
// succeed are still present, so a partial fetch yields a usable index.
type Result struct {
	Entries []Entry
	Errors  []string
}

// Fetcher retrieves sitemap documents over HTTP, following sitemap
// indexes recursively with bounded concurrency.
type Fetcher struct {
	client *http.Client
	cache  *expirable.LRU[string, []byte]
	logger *slog.Logger
	cfg    FetchConfig
}

// NewFetcher creates a fetcher. A nil client uses http.DefaultClient; a
// nil logger discards.
func NewFetcher(client *http.Client, logger *slog.Logger, cfg FetchConfig) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	return &Fetcher{
		client: client,
		cache:  expirable.NewLRU[string, []byte](cfg.CacheSize, nil, cfg.CacheTTL),
		logger: logger,
		cfg:    cfg,
	}
}

// Fetch retrieves the document at url and, when it turns out to be a
// sitemap index, all sub-sitemaps below it. Per-URL failures land in
// Result.Errors; Fetch itself only fails when the context dies.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	res := &Result{}
	var mu sync.Mutex
	if err := f.fetchInto(ctx, url, 0, res, &mu); err != nil {
		return nil, err
	}
	return res, nil
}

func (f *Fetcher) fetchInto(ctx context.Context, url string, depth int, res *Result, mu *sync.Mutex) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc, err := f.fetchDocument(ctx, url)
	if err != nil {
		mu.Lock()
		res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", url, err))
		mu.Unlock()
		f.logger.Warn("sitemap fetch failed", "url", url, "error", err)
		return nil
	}

	if !doc.IsIndex {
		mu.Lock()
		res.Entries = append(res.Entries, doc.Entries...)
		mu.Unlock()
		return nil
	}

	if depth+1 > f.cfg.MaxDepth {
		mu.Lock()
		res.Errors = append(res.Errors, fmt.Sprintf("%s: sitemap index depth exceeds %d, children skipped", url, f.cfg.MaxDepth))
		mu.Unlock()
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Concurrency)
	for _, child := range doc.SitemapURLs {
		child := child
		g.Go(func() error {
			return f.fetchInto(ctx, child, depth+1, res, mu)
		})
	}
	return g.Wait()
}

// fetchDocument performs one HTTP GET with the per-fetch timeout and
// parses the body leniently. Responses are cached by URL.
func (f *Fetcher) fetchDocument(ctx context.Context, url string) (*Document, error) {
	if body, ok := f.cache.Get(url); ok {
		return Parse(body)
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, xerrors.Wrap(xerrors.ErrCodeFetchTimeout, err)
		}
		return nil, xerrors.Wrap(xerrors.ErrCodeFetchUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, xerrors.New(xerrors.ErrCodeFetchStatus,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil).WithDetail("url", url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrCodeFetchUnavailable, err)
	}

	f.cache.Add(url, body)
	return Parse(body)
}
