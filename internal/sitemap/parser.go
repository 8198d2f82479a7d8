// Package sitemap ingests site route manifests into a fast lookup index.
//
// Ingestion is deliberately lenient: real-world sitemaps arrive with byte
// order marks, XML comments, un-escaped ampersands and gzip bodies, and a
// bad field should cost that field, not the document. Fetching a sitemap
// index fans out over sub-sitemaps with bounded concurrency and per-fetch
// timeouts; failures are collected per URL so a partial fetch still yields
// a usable index.
package sitemap

import (
	"bytes"
	"compress/gzip"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pathmend/pathmend/internal/xerrors"
)

// ChangeFreq is the sitemap change-frequency enum.
type ChangeFreq string

const (
	FreqAlways  ChangeFreq = "always"
	FreqHourly  ChangeFreq = "hourly"
	FreqDaily   ChangeFreq = "daily"
	FreqWeekly  ChangeFreq = "weekly"
	FreqMonthly ChangeFreq = "monthly"
	FreqYearly  ChangeFreq = "yearly"
	FreqNever   ChangeFreq = "never"
)

var validFreqs = map[ChangeFreq]struct{}{
	FreqAlways: {}, FreqHourly: {}, FreqDaily: {}, FreqWeekly: {},
	FreqMonthly: {}, FreqYearly: {}, FreqNever: {},
}

// Entry is one validated <url> element from a leaf sitemap.
// Optional fields that failed validation are zeroed, never fatal.
type Entry struct {
	Loc         string
	LastMod     time.Time // zero when absent or invalid
	ChangeFreq  ChangeFreq
	Priority    float64
	HasPriority bool
}

// Document is a parsed sitemap of either shape. Exactly one of Entries
// (leaf <urlset>) or SitemapURLs (<sitemapindex>) is populated.
type Document struct {
	IsIndex     bool
	Entries     []Entry
	SitemapURLs []string
}

// gzipMagic is the two-byte gzip header.
var gzipMagic = []byte{0x1f, 0x8b}

// utf8BOM is the UTF-8 byte order mark some generators prepend.
var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// xmlCommentRe strips XML comments, including multi-line ones.
var xmlCommentRe = regexp.MustCompile(`(?s)<!--.*?-->`)

// xmlEntityRe matches an already well-formed entity reference.
var xmlEntityRe = regexp.MustCompile(`^&(?:amp|lt|gt|apos|quot|#[0-9]+|#x[0-9a-fA-F]+);`)

// Parse decodes a sitemap or sitemap-index document from raw bytes,
// tolerating gzip compression, a BOM, comments and bare ampersands.
func Parse(data []byte) (*Document, error) {
	data = maybeGunzip(data)
	data = bytes.TrimPrefix(data, utf8BOM)

	text := xmlCommentRe.ReplaceAllString(string(data), "")
	text = escapeBareAmpersands(text)

	root, err := rootElement(text)
	if err != nil {
		return nil, xerrors.ParseError("sitemap has no parsable root", err)
	}

	switch root {
	case "sitemapindex":
		return parseIndex(text)
	case "urlset":
		return parseURLSet(text)
	default:
		return nil, xerrors.ParseError(fmt.Sprintf("unexpected root element %q", root), nil)
	}
}

// maybeGunzip decompresses gzip payloads, detected by the magic number.
// Any decompression failure falls back to the raw bytes.
func maybeGunzip(data []byte) []byte {
	if !bytes.HasPrefix(data, gzipMagic) {
		return data
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return data
	}
	defer zr.Close()

	plain, err := io.ReadAll(zr)
	if err != nil {
		return data
	}
	return plain
}

// escapeBareAmpersands rewrites '&' that does not start a well-formed
// entity into '&amp;', leaving real entities intact. encoding/xml rejects
// bare ampersands outright, and marketing-generated sitemaps are full of
// them ("?a=1&b=2").
func escapeBareAmpersands(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '&' {
			b.WriteByte(s[i])
			continue
		}
		if loc := xmlEntityRe.FindStringIndex(s[i:]); loc != nil {
			b.WriteString(s[i : i+loc[1]])
			i += loc[1] - 1
			continue
		}
		b.WriteString("&amp;")
	}
	return b.String()
}

// rootElement returns the local name of the document's first element.
func rootElement(text string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(text))
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("no root element: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}

type xmlURLSet struct {
	URLs []xmlURL `xml:"url"`
}

type xmlURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type xmlSitemapIndex struct {
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

func parseURLSet(text string) (*Document, error) {
	var raw xmlURLSet
	if err := xml.Unmarshal([]byte(text), &raw); err != nil {
		return nil, xerrors.ParseError("decode urlset", err)
	}

	doc := &Document{Entries: make([]Entry, 0, len(raw.URLs))}
	for _, u := range raw.URLs {
		loc := strings.TrimSpace(u.Loc)
		if loc == "" {
			continue
		}
		doc.Entries = append(doc.Entries, Entry{
			Loc:        loc,
			LastMod:    parseLastMod(u.LastMod),
			ChangeFreq: parseChangeFreq(u.ChangeFreq),
		}.withPriority(u.Priority))
	}
	return doc, nil
}

func parseIndex(text string) (*Document, error) {
	var raw xmlSitemapIndex
	if err := xml.Unmarshal([]byte(text), &raw); err != nil {
		return nil, xerrors.ParseError("decode sitemapindex", err)
	}

	doc := &Document{IsIndex: true}
	for _, s := range raw.Sitemaps {
		if loc := strings.TrimSpace(s.Loc); loc != "" {
			doc.SitemapURLs = append(doc.SitemapURLs, loc)
		}
	}
	return doc, nil
}

// parseLastMod accepts any value with a valid ISO date prefix
// (sitemaps carry either plain dates or full W3C datetimes).
// Invalid values are dropped to zero, never fatal.
func parseLastMod(s string) time.Time {
	s = strings.TrimSpace(s)
	if len(s) < 10 {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", s[:10])
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseChangeFreq(s string) ChangeFreq {
	f := ChangeFreq(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := validFreqs[f]; !ok {
		return ""
	}
	return f
}

// withPriority attaches a priority only when it parses and lands in [0,1].
func (e Entry) withPriority(raw string) Entry {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return e
	}
	p, err := strconv.ParseFloat(raw, 64)
	if err != nil || p < 0 || p > 1 {
		return e
	}
	e.Priority = p
	e.HasPriority = true
	return e
}
