package kext

import (
	"fmt"
	"kextdiff/internal/core/errors"
	"sort"
)

// Normalize converts one decoded descriptor into a Record. source is only
// used for diagnostics. A non-nil error is always an extraction error; the
// caller drops the descriptor and keeps scanning.
//
// A record with an empty bundle id is returned without error; callers must
// not index it.
func Normalize(raw Descriptor, source string) (Record, error) {
	if raw == nil {
		return Record{}, errors.Extraction(source, fmt.Errorf("descriptor is empty"))
	}

	bundleID, err := stringField(raw, KeyBundleIdentifier)
	if err != nil {
		return Record{}, errors.Extraction(source, err)
	}
	name, err := stringField(raw, KeyBundleName)
	if err != nil {
		return Record{}, errors.Extraction(source, err)
	}
	version, err := stringField(raw, KeyBundleVersion)
	if err != nil {
		return Record{}, errors.Extraction(source, err)
	}
	executable, err := stringField(raw, KeyBundleExecutable)
	if err != nil {
		return Record{}, errors.Extraction(source, err)
	}

	return Record{
		Path:         source,
		BundleID:     bundleID,
		Name:         name,
		Version:      version,
		Executable:   executable,
		KextName:     KextNameOf(bundleID),
		SourceType:   SourceType,
		Dependencies: DecodeStringList(raw[KeyRequirements]).Requirements(),
		Libraries:    DecodeStringList(raw[KeyLibraries]).Requirements(),
		IOKitClasses: ioClasses(raw[KeyPersonalities]),
		Provides:     DecodeStringList(raw[KeyProviderClass]).Providers(),
	}, nil
}

// stringField reads an optional scalar field. Missing values are "", numbers
// and booleans are formatted, containers cannot be coerced.
func stringField(raw Descriptor, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", nil
	}
	if s, ok := scalarString(v); ok {
		return s, nil
	}
	return "", fmt.Errorf("%s has unsupported type %T", key, v)
}

// ioClasses collects the distinct IOClass values of a personalities mapping.
func ioClasses(v any) []string {
	var personalities map[string]any
	switch t := v.(type) {
	case map[string]any:
		personalities = t
	case Descriptor:
		personalities = t
	default:
		return []string{}
	}

	seen := make(map[string]bool, len(personalities))
	for _, p := range personalities {
		var entry map[string]any
		switch t := p.(type) {
		case map[string]any:
			entry = t
		case Descriptor:
			entry = t
		default:
			continue
		}
		if class, ok := entry[KeyIOClass].(string); ok {
			seen[class] = true
		}
	}

	classes := make([]string, 0, len(seen))
	for class := range seen {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes
}
