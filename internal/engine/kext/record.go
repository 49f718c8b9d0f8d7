// Package kext normalizes decoded kernel-extension descriptors into records.
package kext

import "strings"

// SourceType is the only source kind the scanner produces.
const SourceType = "kext"

// Descriptor is one decoded bundle descriptor (an Info.plist dictionary).
type Descriptor map[string]any

// Descriptor keys read by Normalize.
const (
	KeyBundleIdentifier = "CFBundleIdentifier"
	KeyBundleName       = "CFBundleName"
	KeyBundleVersion    = "CFBundleVersion"
	KeyBundleExecutable = "CFBundleExecutable"
	KeyRequirements     = "OSBundleRequirements"
	KeyLibraries        = "OSBundleLibraries"
	KeyPersonalities    = "IOKitPersonalities"
	KeyProviderClass    = "IOProviderClass"
	KeyIOClass          = "IOClass"
)

// Record is the canonical form of one kernel extension. Records are never
// mutated after Normalize returns them.
type Record struct {
	Path         string   `json:"path"`
	BundleID     string   `json:"bundle_id"`
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Executable   string   `json:"executable"`
	KextName     string   `json:"kext_name"`
	SourceType   string   `json:"source_type"`
	Dependencies []string `json:"dependencies"`
	Libraries    []string `json:"libraries"`
	IOKitClasses []string `json:"iokit_classes"`
	Provides     []string `json:"provides"`
}

// Indexable reports whether the record can be keyed by bundle id.
func (r Record) Indexable() bool {
	return r.BundleID != ""
}

// DisplayName is the label used in graph exports: kext name, then bundle
// name, then "Unknown".
func (r Record) DisplayName() string {
	if r.KextName != "" {
		return r.KextName
	}
	if r.Name != "" {
		return r.Name
	}
	return "Unknown"
}

// KextNameOf returns the last dot-separated segment of a bundle id.
func KextNameOf(bundleID string) string {
	if bundleID == "" {
		return ""
	}
	return bundleID[strings.LastIndex(bundleID, ".")+1:]
}

// Canonical fills nil sequences with empty ones so records loaded from
// partial JSON serialize the same way freshly normalized ones do.
func (r Record) Canonical() Record {
	if r.Dependencies == nil {
		r.Dependencies = []string{}
	}
	if r.Libraries == nil {
		r.Libraries = []string{}
	}
	if r.IOKitClasses == nil {
		r.IOKitClasses = []string{}
	}
	if r.Provides == nil {
		r.Provides = []string{}
	}
	if r.KextName == "" {
		r.KextName = KextNameOf(r.BundleID)
	}
	if r.SourceType == "" {
		r.SourceType = SourceType
	}
	return r
}
