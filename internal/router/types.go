package router

import (
	"time"

	"github.com/pathmend/pathmend/internal/hallog"
)

// Method describes how a request was resolved.
type Method string

const (
	// MethodNone means no rewriting happened: the path either existed
	// as-is or nothing matched.
	MethodNone Method = "none"
	// MethodAlias means a learned or manual alias answered the request.
	MethodAlias Method = "alias"
	// MethodSemantic means fuzzy similarity search found the target.
	MethodSemantic Method = "semantic"
)

// Config tunes a Router. Zero values fall back to defaults via Normalize.
type Config struct {
	// ConfidenceThreshold gates fuzzy redirects (0-1).
	ConfidenceThreshold float64 `yaml:"confidence_threshold" json:"confidence_threshold"`
	// MaxLatency is the advisory per-request budget. Elapsed time is
	// checked between steps; an in-flight similarity pass is never
	// pre-empted, only flagged.
	MaxLatency time.Duration `yaml:"max_latency" json:"max_latency"`
	// EnableLearning turns on automatic alias creation.
	EnableLearning bool `yaml:"enable_learning" json:"enable_learning"`
	// AliasThreshold is how many identical fuzzy redirects it takes to
	// learn an alias.
	AliasThreshold int `yaml:"alias_threshold" json:"alias_threshold"`
}

// Defaults.
const (
	DefaultConfidenceThreshold = 0.6
	DefaultMaxLatency          = 200 * time.Millisecond
	DefaultAliasThreshold      = 3

	// pressureBudget is the remaining-time mark below which the fuzzy
	// candidate set is capped.
	pressureBudget = 100 * time.Millisecond
	// pressureCandidateCap bounds candidates under time pressure.
	pressureCandidateCap = 50

	// maxSuggestions caps the suggestion list of a not-found payload.
	maxSuggestions = 3
)

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		MaxLatency:          DefaultMaxLatency,
		EnableLearning:      true,
		AliasThreshold:      DefaultAliasThreshold,
	}
}

// Normalize fills unset fields with defaults.
func (c Config) Normalize() Config {
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		c.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if c.MaxLatency <= 0 {
		c.MaxLatency = DefaultMaxLatency
	}
	if c.AliasThreshold <= 0 {
		c.AliasThreshold = DefaultAliasThreshold
	}
	return c
}

// RouteMatch records what a single request resolved to and how long the
// decision took.
type RouteMatch struct {
	OriginalPath string  `json:"originalPath"`
	MatchedPath  string  `json:"matchedPath,omitempty"`
	Confidence   float64 `json:"confidence"`
	Method       Method  `json:"method"`
	LatencyMs    float64 `json:"latencyMs"`
}

// NotFoundPayload is the structured response for a request that could not
// be redirected. It is never nil on such a response: the system's core
// guarantee is that a useless empty 404 is structurally impossible.
type NotFoundPayload struct {
	Error         string    `json:"error"` // always "NOT_FOUND"
	Code          int       `json:"code"`  // always 404
	Message       string    `json:"message"`
	RequestedPath string    `json:"requestedPath"`
	Suggestions   []string  `json:"suggestions"` // at most 3
	Timestamp     time.Time `json:"timestamp"`
	AIHint        string    `json:"aiHint"`
	TimedOut      bool      `json:"timedOut"`
}

// Decision is the full output contract of one resolution.
//
// Exactly one of these shapes holds for any non-exact request:
// ShouldRedirect with a non-empty RedirectPath, or !ShouldRedirect with a
// non-nil NotFound. A request whose path exists verbatim is the one case
// with neither: no redirect is needed and there is nothing to report.
type Decision struct {
	ShouldRedirect bool             `json:"shouldRedirect"`
	RedirectPath   string           `json:"redirectPath,omitempty"`
	Match          RouteMatch       `json:"match"`
	LogEntry       *hallog.Entry    `json:"logEntry,omitempty"`
	WithinBudget   bool             `json:"withinLatencyBudget"`
	NotFound       *NotFoundPayload `json:"notFoundPayload,omitempty"`
}
