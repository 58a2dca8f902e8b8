package signature

import (
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
)

// Signature describes the markers an embedded block leaves in post content:
// the block comment delimiter and the serialized blockName attribute.
type Signature struct {
	BlockName string
	markers   []string
}

func New(blockName string) Signature {
	return Signature{
		BlockName: blockName,
		markers: []string{
			"<!-- wp:" + blockName,
			`"blockName":"` + blockName,
		},
	}
}

func (s Signature) Markers() []string {
	out := make([]string, len(s.markers))
	copy(out, s.markers)
	return out
}

// LikePatterns returns one LIKE pattern per marker, with % _ and \ escaped
// using backslash.
func (s Signature) LikePatterns() []string {
	patterns := make([]string, 0, len(s.markers))
	for _, m := range s.markers {
		patterns = append(patterns, "%"+EscapeLike(m)+"%")
	}
	return patterns
}

// Matcher reports whether content holds any of the signature markers. It is
// case-sensitive and safe for concurrent use.
func (s Signature) Matcher() *Matcher {
	return &Matcher{m: ahocorasick.NewStringMatcher(s.markers)}
}

type Matcher struct {
	mu sync.Mutex
	m  *ahocorasick.Matcher
}

func (m *Matcher) Match(content string) bool {
	if content == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.m.Match([]byte(content))) > 0
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
