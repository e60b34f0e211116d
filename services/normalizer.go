package services

import (
	"regexp"
	"strings"
	"time"

	"event-dashboard/config"
	"event-dashboard/models"
	"event-dashboard/utils"
)

var (
	// actorRegexp captures the text after the last "Por " that still has a
	// non-empty remainder.
	actorRegexp = regexp.MustCompile(`^.*Por (.+)$`)
	// descriptionRegexp captures the shortest prefix before the first " -".
	descriptionRegexp = regexp.MustCompile(`^(.*?) -`)
	// datePrefixRegexp is the pre-filter used by the pattern policy.
	datePrefixRegexp = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}`)
)

var (
	// Month and day tokens accept one or two digits, so padded and
	// unpadded exports share a layout.
	monthFirstLayouts = []string{
		"1-2-2006 15:04:05",
		"1-2-2006 15:04",
		"1-2-2006 3:04:05 PM",
		"1-2-2006",
		"1/2/2006 15:04:05",
		"1/2/2006 15:04",
		"1/2/2006 3:04:05 PM",
		"1/2/2006",
	}
	dayFirstLayouts = []string{
		"2-1-2006 15:04:05",
		"2-1-2006 15:04",
		"2-1-2006 3:04:05 PM",
		"2-1-2006",
		"2/1/2006 15:04:05",
		"2/1/2006 15:04",
		"2/1/2006 3:04:05 PM",
		"2/1/2006",
	}
	isoLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	}
)

// NormalizerOptions selects the timestamp policy and parse layouts.
type NormalizerOptions struct {
	Policy       string
	DayFirst     bool
	Location     *time.Location
	ExtraLayouts []string
}

// Normalizer turns RawRecords into retained EventRecords. It holds no state
// between calls.
type Normalizer struct {
	logger   *utils.Logger
	policy   string
	location *time.Location
	layouts  []string
}

// NewNormalizer creates a Normalizer with the given logger and options.
func NewNormalizer(logger *utils.Logger, opts NormalizerOptions) *Normalizer {
	policy := opts.Policy
	if policy == "" {
		policy = config.PolicyLenient
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	layouts := make([]string, 0, len(monthFirstLayouts)+len(dayFirstLayouts)+len(isoLayouts)+len(opts.ExtraLayouts))
	if opts.DayFirst {
		layouts = append(layouts, dayFirstLayouts...)
		layouts = append(layouts, monthFirstLayouts...)
	} else {
		layouts = append(layouts, monthFirstLayouts...)
		layouts = append(layouts, dayFirstLayouts...)
	}
	layouts = append(layouts, isoLayouts...)
	layouts = append(layouts, opts.ExtraLayouts...)

	return &Normalizer{logger: logger, policy: policy, location: loc, layouts: layouts}
}

// Normalize parses, splits and filters raw rows, preserving input order.
func (n *Normalizer) Normalize(raw []models.RawRecord) []models.EventRecord {
	result := make([]models.EventRecord, 0, len(raw))
	var badTime, noActor int

	for _, r := range raw {
		ts, ok := n.ParseTimestamp(r.TimestampText)
		if !ok {
			badTime++
			continue
		}

		actor, ok := ExtractActor(r.EventText)
		if !ok || !Retain(actor) {
			noActor++
			continue
		}

		rec := models.EventRecord{Timestamp: ts, Actor: strings.TrimSpace(actor)}
		if desc, ok := ExtractDescription(r.EventText); ok {
			rec.Description = &desc
		}
		result = append(result, rec)
	}

	if n.logger != nil {
		n.logger.Info("[normalizer] Normalized %d → %d events (bad timestamp %d, no actor %d)",
			len(raw), len(result), badTime, noActor)
	}
	return result
}

// ParseTimestamp interprets text under the configured policy.
func (n *Normalizer) ParseTimestamp(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	if n.policy == config.PolicyPattern && !datePrefixRegexp.MatchString(text) {
		return time.Time{}, false
	}

	for _, layout := range n.layouts {
		if t, err := time.ParseInLocation(layout, text, n.location); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ExtractActor returns the name following the trailing "Por " marker.
func ExtractActor(event string) (string, bool) {
	m := actorRegexp.FindStringSubmatch(event)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// ExtractDescription returns the text before the first " -" separator.
func ExtractDescription(event string) (string, bool) {
	m := descriptionRegexp.FindStringSubmatch(event)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// Retain reports whether an extracted actor identifies a real user.
func Retain(actor string) bool {
	a := strings.TrimSpace(actor)
	return a != "" && !strings.EqualFold(a, "none")
}
