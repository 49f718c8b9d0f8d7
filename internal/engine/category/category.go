// Package category assigns each kernel extension one functional bucket.
package category

import (
	"kextdiff/internal/engine/kext"
	"strings"
)

type Category string

const (
	Graphics      Category = "graphics"
	Audio         Category = "audio"
	USB           Category = "usb"
	Bluetooth     Category = "bluetooth"
	AppleSpecific Category = "apple_specific"
	Intel         Category = "intel"
	AMD           Category = "amd"
	Other         Category = "other"
)

// All lists every category in report order.
var All = []Category{Graphics, Audio, USB, Bluetooth, AppleSpecific, Intel, AMD, Other}

// Valid reports whether c is one of All.
func (c Category) Valid() bool {
	for _, known := range All {
		if c == known {
			return true
		}
	}
	return false
}

// Title is the display form used in report tables.
func (c Category) Title() string {
	switch c {
	case USB, AMD:
		return strings.ToUpper(string(c))
	case AppleSpecific:
		return "Apple Specific"
	}
	s := string(c)
	return strings.ToUpper(s[:1]) + s[1:]
}

// Rule matches lower-cased name and bundle id.
type Rule struct {
	Category Category
	Match    func(name, bundleID string) bool
}

// Rules is evaluated in order; the first match wins. Other is the fallback
// and is not listed.
var Rules = []Rule{
	{Graphics, func(name, _ string) bool {
		return containsAny(name, "graphics", "metal", "gpu", "framebuffer")
	}},
	{Audio, func(name, id string) bool {
		return strings.Contains(name, "audio") || strings.Contains(id, "hda")
	}},
	{USB, func(name, id string) bool {
		return strings.Contains(name, "usb") || strings.Contains(id, "usb")
	}},
	{Bluetooth, func(name, id string) bool {
		return strings.Contains(name, "bluetooth") || strings.Contains(id, "bt")
	}},
	{AppleSpecific, func(_, id string) bool {
		return strings.Contains(id, "apple")
	}},
	{Intel, func(name, id string) bool {
		return strings.Contains(name, "intel") || strings.Contains(id, "intel")
	}},
	{AMD, func(name, _ string) bool {
		return strings.Contains(name, "amd")
	}},
}

// Classify returns the category of r under Rules.
func Classify(r kext.Record) Category {
	return ClassifyWith(Rules, r)
}

// ClassifyWith evaluates an explicit rule list.
func ClassifyWith(rules []Rule, r kext.Record) Category {
	name := strings.ToLower(r.Name)
	id := strings.ToLower(r.BundleID)
	for _, rule := range rules {
		if rule.Match(name, id) {
			return rule.Category
		}
	}
	return Other
}

// Counts maps every category to its tally. Categories without records are
// present with zero.
type Counts map[Category]int

// Tally classifies every record.
func Tally(records []kext.Record) Counts {
	counts := make(Counts, len(All))
	for _, c := range All {
		counts[c] = 0
	}
	for _, r := range records {
		counts[Classify(r)]++
	}
	return counts
}

// Total sums all tallies.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
