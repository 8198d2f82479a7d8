// Package synonyms provides a term-equivalence dictionary for path matching.
//
// Hallucinated paths often use a different word for the same concept than
// the site does (e.g. "smartphone" for a "/phones" section). The dictionary
// grants partial similarity credit between co-grouped terms so those paths
// still resolve.
//
// A Dictionary is an explicitly owned dependency: construct one per engine
// rather than sharing a package-level default, so runtime additions never
// leak across instances.
package synonyms

import "strings"

// DefaultGroupWeight is the similarity credit for co-grouped terms.
// Strictly less than an exact match (1.0).
const DefaultGroupWeight = 0.8

// Group is a set of equivalent terms with a shared similarity weight.
type Group struct {
	Canonical string
	Members   []string
	Weight    float64
}

// Dictionary maps terms to their equivalence groups.
// Lookup is first-match-wins: a term resolves to the first group that
// contains it, in group insertion order.
type Dictionary struct {
	groups []*Group
	index  map[string]*Group // term -> first group containing it
}

// New creates a dictionary preloaded with the built-in groups.
func New() *Dictionary {
	d := Empty()
	for _, g := range builtinGroups {
		d.addGroup(g.Canonical, g.Members, g.Weight)
	}
	return d
}

// Empty creates a dictionary with no groups, for callers that want full
// control over the vocabulary.
func Empty() *Dictionary {
	return &Dictionary{index: make(map[string]*Group)}
}

// Expand returns the canonical term plus all synonyms for a token, or the
// token itself when ungrouped. The result always contains the token.
func (d *Dictionary) Expand(token string) []string {
	token = strings.ToLower(token)
	g, ok := d.index[token]
	if !ok {
		return []string{token}
	}

	out := make([]string, 0, len(g.Members)+2)
	out = append(out, g.Canonical)
	for _, m := range g.Members {
		out = append(out, m)
	}
	if !contains(out, token) {
		out = append(out, token)
	}
	return out
}

// Weight returns the similarity credit between two tokens:
// 1.0 when equal, the group weight when co-grouped, 0 otherwise.
func (d *Dictionary) Weight(t1, t2 string) float64 {
	t1 = strings.ToLower(t1)
	t2 = strings.ToLower(t2)
	if t1 == t2 {
		return 1.0
	}

	g1, ok1 := d.index[t1]
	g2, ok2 := d.index[t2]
	if ok1 && ok2 && g1 == g2 {
		return g1.Weight
	}
	return 0
}

// Add records word and its synonyms as one equivalence group with the
// default weight. If word already belongs to a group, the synonyms are
// merged into that group. Repeated additions are idempotent.
func (d *Dictionary) Add(word string, syns []string) {
	d.AddWeighted(word, syns, DefaultGroupWeight)
}

// AddWeighted is Add with an explicit group weight for new groups.
// Merging into an existing group keeps that group's weight.
func (d *Dictionary) AddWeighted(word string, syns []string, weight float64) {
	word = strings.ToLower(word)

	if g, ok := d.index[word]; ok {
		for _, s := range syns {
			s = strings.ToLower(s)
			if s == g.Canonical || contains(g.Members, s) {
				continue
			}
			g.Members = append(g.Members, s)
			if _, taken := d.index[s]; !taken {
				d.index[s] = g
			}
		}
		return
	}

	d.addGroup(word, syns, weight)
}

// Len returns the number of groups in the dictionary.
func (d *Dictionary) Len() int { return len(d.groups) }

func (d *Dictionary) addGroup(canonical string, members []string, weight float64) {
	canonical = strings.ToLower(canonical)
	g := &Group{Canonical: canonical, Weight: weight}
	for _, m := range members {
		m = strings.ToLower(m)
		if m == canonical || contains(g.Members, m) {
			continue
		}
		g.Members = append(g.Members, m)
	}
	d.groups = append(d.groups, g)

	// First group containing a term wins; later groups never steal it.
	if _, ok := d.index[canonical]; !ok {
		d.index[canonical] = g
	}
	for _, m := range g.Members {
		if _, ok := d.index[m]; !ok {
			d.index[m] = g
		}
	}
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// builtinGroups ships common web/commerce equivalences. Weights are the
// default partial credit; runtime additions can extend or override per
// instance via Add/AddWeighted.
var builtinGroups = []Group{
	{Canonical: "phone", Members: []string{"smartphone", "mobile", "cell", "handset"}, Weight: DefaultGroupWeight},
	{Canonical: "laptop", Members: []string{"notebook", "computer", "pc"}, Weight: DefaultGroupWeight},
	{Canonical: "tv", Members: []string{"television", "telly", "screen"}, Weight: DefaultGroupWeight},
	{Canonical: "shop", Members: []string{"store", "shopping", "buy", "purchase"}, Weight: DefaultGroupWeight},
	{Canonical: "products", Members: []string{"product", "items", "goods", "catalog", "catalogue"}, Weight: DefaultGroupWeight},
	{Canonical: "deals", Members: []string{"offers", "discounts", "sale", "sales", "promotions"}, Weight: DefaultGroupWeight},
	{Canonical: "cart", Members: []string{"basket", "bag", "checkout"}, Weight: DefaultGroupWeight},
	{Canonical: "account", Members: []string{"profile", "user", "settings", "preferences"}, Weight: DefaultGroupWeight},
	{Canonical: "login", Members: []string{"signin", "auth", "authenticate"}, Weight: DefaultGroupWeight},
	{Canonical: "signup", Members: []string{"register", "join", "registration"}, Weight: DefaultGroupWeight},
	{Canonical: "help", Members: []string{"support", "faq", "assistance"}, Weight: DefaultGroupWeight},
	{Canonical: "contact", Members: []string{"reach", "email"}, Weight: DefaultGroupWeight},
	{Canonical: "about", Members: []string{"company", "info", "information"}, Weight: DefaultGroupWeight},
	{Canonical: "blog", Members: []string{"news", "articles", "posts", "journal"}, Weight: DefaultGroupWeight},
	{Canonical: "docs", Members: []string{"documentation", "guide", "guides", "manual"}, Weight: DefaultGroupWeight},
	{Canonical: "pricing", Members: []string{"price", "prices", "plans", "cost"}, Weight: DefaultGroupWeight},
	{Canonical: "clothing", Members: []string{"clothes", "apparel", "fashion", "wear"}, Weight: DefaultGroupWeight},
	{Canonical: "mens", Members: []string{"men", "male", "man"}, Weight: DefaultGroupWeight},
	{Canonical: "womens", Members: []string{"women", "female", "woman", "ladies"}, Weight: DefaultGroupWeight},
	{Canonical: "kids", Members: []string{"children", "child", "youth", "junior"}, Weight: DefaultGroupWeight},
	{Canonical: "shoes", Members: []string{"footwear", "sneakers", "boots"}, Weight: DefaultGroupWeight},
	{Canonical: "electronics", Members: []string{"electronic", "tech", "technology", "gadgets"}, Weight: DefaultGroupWeight},
	{Canonical: "home", Members: []string{"house", "household", "homepage"}, Weight: DefaultGroupWeight},
	{Canonical: "orders", Members: []string{"order", "purchases", "history"}, Weight: DefaultGroupWeight},
	{Canonical: "shipping", Members: []string{"delivery", "dispatch", "postage"}, Weight: DefaultGroupWeight},
	{Canonical: "returns", Members: []string{"refund", "refunds", "exchange"}, Weight: DefaultGroupWeight},
	{Canonical: "search", Members: []string{"find", "lookup", "browse"}, Weight: DefaultGroupWeight},
	{Canonical: "new", Members: []string{"latest", "newest", "recent"}, Weight: DefaultGroupWeight},
}
