package model

import (
	"strings"
	"unicode"

	"github.com/agenthands/infoase/internal/core/common"
)

// NameKey is the property every node carries.
const NameKey = "name"

// CreatedKey is the bookkeeping property the store sets on upsert. It never
// leaves the store adapter.
const CreatedKey = "_created"

// Properties is an open key/value bag. Values are scalars (string, bool,
// int64, float64), arrays or nested maps as decoded from the model output.
type Properties map[string]interface{}

// Name returns the name property as a string, or "" if absent.
func (p Properties) Name() string {
	v, ok := p[NameKey]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// Clone returns a shallow copy. A nil receiver yields an empty map.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge copies every key of other into p, overwriting existing keys.
func (p Properties) Merge(other Properties) {
	for k, v := range other {
		p[k] = v
	}
}

// NormalizeNumbers converts json.Number values left by a UseNumber decode
// into int64 or float64, in place.
func (p Properties) NormalizeNumbers() {
	for k, v := range p {
		p[k] = common.NormalizeNumbers(v)
	}
}

type Node struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Properties Properties `json:"properties"`
}

func (Node) isItem() {}

// NewNode builds a node from a human-readable entity name. The id is
// normalized, the type title-cased and the name property backfilled.
func NewNode(name, nodeType string, props Properties) Node {
	props = props.Clone()
	if _, ok := props[NameKey]; !ok {
		props[NameKey] = name
	}
	return Node{
		ID:         NormalizeID(name),
		Type:       TitleCase(nodeType),
		Properties: props,
	}
}

// NormalizeID lower-cases a name and replaces spaces with underscores.
func NormalizeID(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// TitleCase upper-cases the first cased rune of every word and lower-cases
// the rest. A word starts after any rune without case, so "web_page" becomes
// "Web_Page" and "3d model" becomes "3D Model".
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevCased := false
	for _, r := range s {
		cased := unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
		switch {
		case cased && prevCased:
			b.WriteRune(unicode.ToLower(r))
		case cased:
			b.WriteRune(unicode.ToTitle(r))
		default:
			b.WriteRune(r)
		}
		prevCased = cased
	}
	return b.String()
}
