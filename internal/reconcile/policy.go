package reconcile

import "strings"

// DefaultResolveTolerance is how far, in points on both axes, a raw link
// position may be from a known destination and still resolve to it.
const DefaultResolveTolerance = 5.0

// DefaultArtifactKeywords match bookmark ids generated by authoring tools,
// e.g. "_TOC:bookmark12" or "Bladwijzer:3".
var DefaultArtifactKeywords = []string{"bladwijzer", "bookmark", "toc"}

// Policy tunes the load-time merge.
type Policy struct {
	// ArtifactKeywords select destination ids that are dropped from the
	// visible list when they contain a colon and one of the keywords.
	ArtifactKeywords []string `mapstructure:"artifact_keywords" yaml:"artifact_keywords"`
	// ResolveTolerance is the per-axis distance used to match raw link
	// positions to known destinations.
	ResolveTolerance float64 `mapstructure:"resolve_tolerance" yaml:"resolve_tolerance"`
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() Policy {
	kw := make([]string, len(DefaultArtifactKeywords))
	copy(kw, DefaultArtifactKeywords)
	return Policy{ArtifactKeywords: kw, ResolveTolerance: DefaultResolveTolerance}
}

// IsArtifact reports whether id looks like an authoring-tool bookmark.
func (p Policy) IsArtifact(id string) bool {
	if !strings.Contains(id, ":") {
		return false
	}
	lower := strings.ToLower(id)
	for _, kw := range p.ArtifactKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (p Policy) tolerance() float64 {
	if p.ResolveTolerance <= 0 {
		return DefaultResolveTolerance
	}
	return p.ResolveTolerance
}
