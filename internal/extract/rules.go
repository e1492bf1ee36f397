package extract

import "regexp"

// RuleKind discriminates the FieldRule variants.
type RuleKind int

const (
	// RuleScalar extracts a single regex capture with a fallback default.
	RuleScalar RuleKind = iota
	// RuleSection extracts the text between a start and an end marker.
	RuleSection
	// RuleMembership scans the body for known vocabulary entries.
	RuleMembership
)

// DefaultSource names the fallback for a scalar rule whose pattern did not
// match.
type DefaultSource int

const (
	// DefaultEmpty leaves the field empty.
	DefaultEmpty DefaultSource = iota
	// DefaultReceivedDate formats the message's received time as
	// yyyy-MM-dd in the builder's time zone.
	DefaultReceivedDate
)

// FieldPublishedDate is the well-known scalar rule name the builder maps to
// Record.PublishedDate.
const FieldPublishedDate = "published_date"

// FieldRule is one entry of a profile's extraction table. New document
// formats are new rule tables, not new code paths.
type FieldRule struct {
	Name       string
	Kind       RuleKind
	Pattern    *regexp.Regexp
	Default    DefaultSource
	Start      string
	End        string
	Vocabulary []string
}

// ScalarRule builds a scalar rule. An empty pattern always falls back to
// the default.
func ScalarRule(name, pattern string, def DefaultSource) FieldRule {
	rule := FieldRule{Name: name, Kind: RuleScalar, Default: def}
	if pattern != "" {
		rule.Pattern = regexp.MustCompile(pattern)
	}
	return rule
}

// SectionRule builds a marker-pair rule. The rule name doubles as the
// store property the section is persisted under.
func SectionRule(name, start, end string) FieldRule {
	return FieldRule{Name: name, Kind: RuleSection, Start: start, End: end}
}

// MembershipRule builds a vocabulary scan rule. Matches are reported in
// vocabulary order, de-duplicated, so the result set is deterministic.
func MembershipRule(name string, vocabulary []string) FieldRule {
	return FieldRule{Name: name, Kind: RuleMembership, Vocabulary: vocabulary}
}
