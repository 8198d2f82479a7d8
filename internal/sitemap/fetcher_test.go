package sitemap

import (
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leafXML(locs ...string) string {
	body := "<urlset>"
	for _, l := range locs {
		body += "<url><loc>" + l + "</loc></url>"
	}
	return body + "</urlset>"
}

func TestFetch_LeafSitemap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, leafXML("https://example.com/a", "https://example.com/b"))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), nil, FetchConfig{})
	res, err := f.Fetch(context.Background(), srv.URL+"/sitemap.xml")
	require.NoError(t, err)

	assert.Empty(t, res.Errors)
	assert.Len(t, res.Entries, 2)
}

func TestFetch_IndexRecursion(t *testing.T) {
	var mux http.ServeMux
	srv := httptest.NewServer(&mux)
	defer srv.Close()

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<sitemapindex>
  <sitemap><loc>%s/products.xml</loc></sitemap>
  <sitemap><loc>%s/blog.xml</loc></sitemap>
</sitemapindex>`, srv.URL, srv.URL)
	})
	mux.HandleFunc("/products.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, leafXML("https://example.com/products/a", "https://example.com/products/b"))
	})
	mux.HandleFunc("/blog.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, leafXML("https://example.com/blog"))
	})

	f := NewFetcher(srv.Client(), nil, FetchConfig{})
	res, err := f.Fetch(context.Background(), srv.URL+"/sitemap.xml")
	require.NoError(t, err)

	assert.Empty(t, res.Errors)
	assert.Len(t, res.Entries, 3)
}

func TestFetch_PartialFailure(t *testing.T) {
	var mux http.ServeMux
	srv := httptest.NewServer(&mux)
	defer srv.Close()

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<sitemapindex>
  <sitemap><loc>%s/good.xml</loc></sitemap>
  <sitemap><loc>%s/missing.xml</loc></sitemap>
</sitemapindex>`, srv.URL, srv.URL)
	})
	mux.HandleFunc("/good.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, leafXML("https://example.com/ok"))
	})
	mux.HandleFunc("/missing.xml", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	f := NewFetcher(srv.Client(), nil, FetchConfig{})
	res, err := f.Fetch(context.Background(), srv.URL+"/sitemap.xml")
	require.NoError(t, err)

	// The failing sub-sitemap becomes an error string; the good one's
	// entries are still there.
	assert.Len(t, res.Entries, 1)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "missing.xml")
}

func TestFetch_GzipBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zw := gzip.NewWriter(w)
		fmt.Fprint(zw, leafXML("https://example.com/zipped"))
		zw.Close()
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), nil, FetchConfig{})
	res, err := f.Fetch(context.Background(), srv.URL+"/sitemap.xml.gz")
	require.NoError(t, err)

	assert.Empty(t, res.Errors)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "https://example.com/zipped", res.Entries[0].Loc)
}

func TestFetch_DepthCap(t *testing.T) {
	var mux http.ServeMux
	srv := httptest.NewServer(&mux)
	defer srv.Close()

	// Every level is an index pointing one level deeper.
	for i := 0; i < 6; i++ {
		i := i
		mux.HandleFunc(fmt.Sprintf("/level%d.xml", i), func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `<sitemapindex><sitemap><loc>%s/level%d.xml</loc></sitemap></sitemapindex>`, srv.URL, i+1)
		})
	}

	f := NewFetcher(srv.Client(), nil, FetchConfig{MaxDepth: 2})
	res, err := f.Fetch(context.Background(), srv.URL+"/level0.xml")
	require.NoError(t, err)

	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0], "depth")
}

func TestFetch_SlowSitemapTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
			fmt.Fprint(w, leafXML("https://example.com/slow"))
		}
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), nil, FetchConfig{Timeout: 50 * time.Millisecond})
	start := time.Now()
	res, err := f.Fetch(context.Background(), srv.URL+"/sitemap.xml")
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second, "timeout must cut the fetch short")
	assert.Empty(t, res.Entries)
	assert.Len(t, res.Errors, 1)
}

func TestFetch_CachesDocuments(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, leafXML("https://example.com/a"))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), nil, FetchConfig{})

	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), srv.URL+"/sitemap.xml")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load())
}
