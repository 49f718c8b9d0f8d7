package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Validate reports every problem found in cfg.
func Validate(cfg *Config) []error {
	var errs []error
	if err := validateVersion(cfg); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, validateDatasets(cfg)...)
	errs = append(errs, validateExclude(cfg)...)
	errs = append(errs, validateOutput(cfg)...)
	errs = append(errs, validateWatch(cfg)...)
	errs = append(errs, validateKeywordGroups(cfg)...)
	if strings.ContainsAny(cfg.Scan.DescriptorName, `/\`) {
		errs = append(errs, fmt.Errorf("scan.descriptor_name %q must be a file name, not a path", cfg.Scan.DescriptorName))
	}
	return errs
}

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateDatasets(cfg *Config) []error {
	var errs []error
	if len(cfg.Datasets) != 2 {
		errs = append(errs, fmt.Errorf("exactly two datasets are required, got %d", len(cfg.Datasets)))
	}

	seenLabels := make(map[string]bool, len(cfg.Datasets))
	seenDirs := make(map[string]bool, len(cfg.Datasets))
	for i, ds := range cfg.Datasets {
		ref := fmt.Sprintf("datasets[%d]", i)
		if ds.Label == "" {
			errs = append(errs, fmt.Errorf("%s.label must not be empty", ref))
			continue
		}
		if seenLabels[ds.Label] {
			errs = append(errs, fmt.Errorf("duplicate dataset label %q", ds.Label))
		}
		seenLabels[ds.Label] = true

		dir := filepath.Clean(ds.Dir)
		if seenDirs[dir] {
			errs = append(errs, fmt.Errorf("%s.dir %q is shared with another dataset", ref, ds.Dir))
		}
		seenDirs[dir] = true

		for j, root := range ds.Roots {
			if strings.TrimSpace(root) == "" {
				errs = append(errs, fmt.Errorf("%s.roots[%d] must not be empty", ref, j))
			}
		}
	}
	return errs
}

func validateExclude(cfg *Config) []error {
	var errs []error
	for i, p := range cfg.Exclude.Dirs {
		if _, err := glob.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("exclude.dirs[%d] %q is not a valid glob: %w", i, p, err))
		}
	}
	for i, p := range cfg.Exclude.Files {
		if _, err := glob.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("exclude.files[%d] %q is not a valid glob: %w", i, p, err))
		}
	}
	return errs
}

func validateOutput(cfg *Config) []error {
	var errs []error
	files := []struct {
		key  string
		path string
	}{
		{"output.data_file", cfg.Output.DataFile},
		{"output.graphml_file", cfg.Output.GraphMLFile},
		{"output.dot_file", cfg.Output.DOTFile},
		{"output.tsv_file", cfg.Output.TSVFile},
	}
	seen := make(map[string]string, len(files))
	for _, f := range files {
		if f.path == "" {
			continue
		}
		if other, ok := seen[f.path]; ok {
			errs = append(errs, fmt.Errorf("output conflict: %s and %s share the same path %q", other, f.key, f.path))
			continue
		}
		seen[f.path] = f.key
	}
	return errs
}

func validateWatch(cfg *Config) []error {
	var errs []error
	if cfg.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative, got %s", cfg.Watch.Debounce))
	}
	if cfg.Watch.MinInterval < 0 {
		errs = append(errs, fmt.Errorf("watch.min_interval must not be negative, got %s", cfg.Watch.MinInterval))
	}
	return errs
}

func validateKeywordGroups(cfg *Config) []error {
	var errs []error
	for i, group := range cfg.Report.KeywordGroups {
		ref := fmt.Sprintf("report.keyword_groups[%d]", i)
		if strings.TrimSpace(group.Title) == "" {
			errs = append(errs, fmt.Errorf("%s.title must not be empty", ref))
		}
		if len(group.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("%s.keywords must not be empty", ref))
		}
		for j, kw := range group.Keywords {
			if strings.TrimSpace(kw) == "" {
				errs = append(errs, fmt.Errorf("%s.keywords[%d] must not be empty", ref, j))
			}
		}
	}
	return errs
}
