package extract

import (
	"errors"
	"strings"
	"time"

	"mailclip/internal/domain"
)

// ErrEmptyBody marks a message whose body carries no text at all. This is
// the only structurally unrecoverable input: missing sections or markers
// just produce empty fields.
var ErrEmptyBody = errors.New("message body is empty")

const dateLayout = "2006-01-02"

// Builder assembles Records from raw messages according to a profile's
// rule table. Stateless apart from the profile and time zone it was
// constructed with; safe for reuse across messages.
type Builder struct {
	profile Profile
	loc     *time.Location
}

// NewBuilder creates a builder for the profile. A nil location falls back
// to UTC.
func NewBuilder(profile Profile, loc *time.Location) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{profile: profile, loc: loc}
}

// Build evaluates every rule independently against the message body and
// assembles the canonical Record. Rules are never chained: section N's end
// marker is unrelated to section N+1's start marker.
func (b *Builder) Build(msg domain.RawMessage) (domain.Record, error) {
	if strings.TrimSpace(msg.Body) == "" {
		return domain.Record{}, ErrEmptyBody
	}

	rec := domain.Record{
		Profile:    b.profile.Name,
		LogicalKey: msg.Permalink,
		Title:      msg.Subject,
		Kind:       b.profile.Kind,
		FullBody:   msg.Body,
		AttachBody: b.profile.AttachFullBody,
		ReceivedAt: msg.ReceivedAt,
	}
	if b.profile.TitleProperty != "" {
		rec.Sections = append(rec.Sections, domain.SectionText{Name: b.profile.TitleProperty, Text: msg.Subject})
	}

	for _, rule := range b.profile.Rules {
		switch rule.Kind {
		case RuleScalar:
			value := b.scalar(rule, msg)
			if rule.Name == FieldPublishedDate {
				rec.PublishedDate = value
			}
		case RuleSection:
			rec.Sections = append(rec.Sections, domain.SectionText{
				Name: rule.Name,
				Text: Section(msg.Body, rule.Start, rule.End),
			})
		case RuleMembership:
			rec.Companies = membership(msg.Body, rule.Vocabulary)
		}
	}

	if rec.PublishedDate == "" {
		rec.PublishedDate = msg.ReceivedAt.In(b.loc).Format(dateLayout)
	}
	return rec, nil
}

func (b *Builder) scalar(rule FieldRule, msg domain.RawMessage) string {
	if rule.Pattern != nil {
		if m := rule.Pattern.FindStringSubmatch(msg.Body); len(m) > 1 {
			return strings.TrimSpace(m[1])
		}
	}
	if rule.Default == DefaultReceivedDate {
		return msg.ReceivedAt.In(b.loc).Format(dateLayout)
	}
	return ""
}

// membership returns the subset of the vocabulary present as a literal
// substring anywhere in the body. Vocabulary order is preserved and
// duplicates in the vocabulary collapse, so two calls over the same input
// return identical sets.
func membership(body string, vocabulary []string) []string {
	var found []string
	seen := make(map[string]struct{}, len(vocabulary))
	for _, name := range vocabulary {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		if strings.Contains(body, name) {
			seen[name] = struct{}{}
			found = append(found, name)
		}
	}
	return found
}
