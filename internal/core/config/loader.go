package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Paths.OutputRoot) == "" {
		cfg.Paths.OutputRoot = "."
	}
	if strings.TrimSpace(cfg.Scan.DescriptorName) == "" {
		cfg.Scan.DescriptorName = "Info.plist"
	}

	if strings.TrimSpace(cfg.Output.DataFile) == "" {
		cfg.Output.DataFile = "kexts_data.json"
	}
	if strings.TrimSpace(cfg.Output.GraphMLFile) == "" {
		cfg.Output.GraphMLFile = "kexts_graph.graphml"
	}
	if strings.TrimSpace(cfg.Output.DOTFile) == "" {
		cfg.Output.DOTFile = "kexts_graph.dot"
	}
	if strings.TrimSpace(cfg.Output.TSVFile) == "" {
		cfg.Output.TSVFile = "kexts_edges.tsv"
	}
	if strings.TrimSpace(cfg.Output.Report) == "" {
		cfg.Output.Report = "comparison_report.md"
	}

	if cfg.Report.PreviewLimit <= 0 {
		cfg.Report.PreviewLimit = 20
	}
	if cfg.Report.TopLinked <= 0 {
		cfg.Report.TopLinked = 10
	}
	// an explicit empty list turns the breakdown off
	if cfg.Report.KeywordGroups == nil {
		cfg.Report.KeywordGroups = DefaultKeywordGroups()
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MinInterval == 0 {
		cfg.Watch.MinInterval = 2 * time.Second
	}

	for i := range cfg.Datasets {
		ds := &cfg.Datasets[i]
		ds.Label = strings.TrimSpace(ds.Label)
		if strings.TrimSpace(ds.Dir) == "" && ds.Label != "" {
			ds.Dir = ds.Label + "_kext"
		}
	}
}
