// Package dataset persists extracted records as a JSON object keyed by bundle
// id, in discovery order.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"kextdiff/internal/core/errors"
	"kextdiff/internal/engine/kext"
	"kextdiff/internal/shared/util"
	"os"
)

// Save writes records keyed by bundle id. Unindexable records are dropped and
// a repeated id overwrites the earlier value in its original position.
func Save(path string, records []kext.Record) error {
	data, err := Marshal(records)
	if err != nil {
		return err
	}
	if err := util.WriteFileWithDirs(path, data, 0o644); err != nil {
		return errors.AddContext(err, errors.CtxPath, path)
	}
	return nil
}

// Marshal encodes records as an ordered JSON object with two-space indent.
func Marshal(records []kext.Record) ([]byte, error) {
	order := make([]string, 0, len(records))
	byID := make(map[string]kext.Record, len(records))
	for _, r := range records {
		if !r.Indexable() {
			continue
		}
		if _, ok := byID[r.BundleID]; !ok {
			order = append(order, r.BundleID)
		}
		byID[r.BundleID] = r.Canonical()
	}

	var buf bytes.Buffer
	if len(order) == 0 {
		buf.WriteString("{}\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("{\n")
	for i, id := range order {
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		value, err := json.MarshalIndent(byID[id], "  ", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", id, err)
		}
		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(value)
		if i < len(order)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// Load reads a dataset file. label names the dataset in error context.
func Load(label, path string) ([]kext.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.MissingDataset(label, path)
		}
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	defer f.Close()

	records, err := Decode(f)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeValidationError, "malformed dataset file"),
			errors.CtxPath, path,
		)
	}
	return records, nil
}

// Decode reads a keyed JSON object and keeps the key order of the input. The
// object key fills in bundle_id when the value omits it.
func Decode(r io.Reader) ([]kext.Record, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}

	var records []kext.Record
	seen := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected an object key, got %v", tok)
		}

		var rec kext.Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("record %s: %w", key, err)
		}
		if rec.BundleID == "" {
			rec.BundleID = key
		}
		rec = rec.Canonical()

		if i, ok := seen[rec.BundleID]; ok {
			records[i] = rec
			continue
		}
		seen[rec.BundleID] = len(records)
		records = append(records, rec)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return records, nil
}
