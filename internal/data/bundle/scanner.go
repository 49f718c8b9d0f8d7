// Package bundle finds kernel-extension descriptors on disk and turns them
// into records.
package bundle

import (
	"context"
	"fmt"
	"io/fs"
	"kextdiff/internal/core/errors"
	"kextdiff/internal/engine/kext"
	"kextdiff/internal/shared/observability"
	"kextdiff/internal/shared/util"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	"howett.net/plist"
)

// Decoder turns raw descriptor bytes into a key/value mapping.
type Decoder interface {
	Decode(data []byte) (kext.Descriptor, error)
}

// PlistDecoder reads XML, binary and OpenStep property lists.
type PlistDecoder struct{}

func (PlistDecoder) Decode(data []byte) (kext.Descriptor, error) {
	var raw map[string]any
	if _, err := plist.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return kext.Descriptor(raw), nil
}

type Options struct {
	Dataset        string
	Roots          []string
	DescriptorName string
	ExcludeDirs    []string
	ExcludeFiles   []string
	Decoder        Decoder
}

type Scanner struct {
	opts      Options
	dirGlobs  []glob.Glob
	fileGlobs []glob.Glob
}

// Failure is one descriptor that was dropped.
type Failure struct {
	Path string
	Err  error
}

type ScanResult struct {
	// Records are indexable records in discovery order. Duplicate bundle ids
	// are kept; graph building resolves them.
	Records     []kext.Record
	Descriptors int
	Failures    []Failure
	Unindexable int
}

func New(opts Options) (*Scanner, error) {
	if opts.DescriptorName == "" {
		opts.DescriptorName = "Info.plist"
	}
	if opts.Decoder == nil {
		opts.Decoder = PlistDecoder{}
	}

	s := &Scanner{opts: opts}
	for _, p := range opts.ExcludeDirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude dir pattern %q: %w", p, err)
		}
		s.dirGlobs = append(s.dirGlobs, g)
	}
	for _, p := range opts.ExcludeFiles {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude file pattern %q: %w", p, err)
		}
		s.fileGlobs = append(s.fileGlobs, g)
	}
	return s, nil
}

// Scan walks every root, decodes each descriptor and normalizes it. A bad
// descriptor is logged and skipped; it never stops the scan.
func (s *Scanner) Scan(ctx context.Context) (ScanResult, error) {
	paths, err := s.FindDescriptors(ctx)
	if err != nil {
		return ScanResult{}, err
	}

	result := ScanResult{Descriptors: len(paths), Records: make([]kext.Record, 0, len(paths))}
	observability.DescriptorsScanned.WithLabelValues(s.opts.Dataset).Add(float64(len(paths)))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return ScanResult{}, err
		}
		rec, err := s.ProcessDescriptor(path)
		if err != nil {
			slog.Warn("skipping descriptor", "dataset", s.opts.Dataset, "path", path, "error", err)
			observability.ExtractionFailures.WithLabelValues(s.opts.Dataset).Inc()
			result.Failures = append(result.Failures, Failure{Path: path, Err: err})
			continue
		}
		if !rec.Indexable() {
			slog.Debug("descriptor has no bundle identifier", "path", path)
			result.Unindexable++
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

// ProcessDescriptor reads, decodes and normalizes one descriptor file.
func (s *Scanner) ProcessDescriptor(path string) (kext.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return kext.Record{}, errors.Extraction(path, err)
	}
	raw, err := s.opts.Decoder.Decode(data)
	if err != nil {
		return kext.Record{}, errors.Extraction(path, err)
	}
	return kext.Normalize(raw, path)
}

// FindDescriptors lists descriptor files under every root. Missing roots and
// unreadable directories are logged and skipped.
func (s *Scanner) FindDescriptors(ctx context.Context) ([]string, error) {
	var files []string
	for _, root := range util.UniqueRoots(s.opts.Roots) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := os.Stat(root); err != nil {
			slog.Warn("extensions root not readable", "dataset", s.opts.Dataset, "root", root, "error", err)
			continue
		}

		slog.Info("scanning extensions root", "dataset", s.opts.Dataset, "root", root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				slog.Warn("cannot walk path", "path", path, "error", err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			base := filepath.Base(path)
			if d.IsDir() {
				if path == root {
					return nil
				}
				for _, g := range s.dirGlobs {
					if g.Match(base) {
						return filepath.SkipDir
					}
				}
				return nil
			}

			if base != s.opts.DescriptorName {
				return nil
			}
			for _, g := range s.fileGlobs {
				if g.Match(path) || g.Match(base) {
					return nil
				}
			}

			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slog.Info("found descriptors", "dataset", s.opts.Dataset, "count", len(files))
	return files, nil
}
