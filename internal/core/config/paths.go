package config

import (
	"path/filepath"
)

// DatasetPaths are the resolved artifact locations of one dataset.
type DatasetPaths struct {
	Dir     string
	Data    string
	GraphML string
	DOT     string
	TSV     string
}

func (c *Config) ResolveDatasetPaths(ds Dataset) DatasetPaths {
	dir := ResolveRelative(c.Paths.OutputRoot, ds.Dir)
	return DatasetPaths{
		Dir:     dir,
		Data:    filepath.Join(dir, c.Output.DataFile),
		GraphML: filepath.Join(dir, c.Output.GraphMLFile),
		DOT:     filepath.Join(dir, c.Output.DOTFile),
		TSV:     filepath.Join(dir, c.Output.TSVFile),
	}
}

// ReportPath is where the comparison report is written.
func (c *Config) ReportPath() string {
	return ResolveRelative(c.Paths.OutputRoot, c.Output.Report)
}

// RequiredFiles lists the dataset files a comparison needs, in dataset order.
func (c *Config) RequiredFiles() []string {
	files := make([]string, 0, len(c.Datasets))
	for _, ds := range c.Datasets {
		files = append(files, c.ResolveDatasetPaths(ds).Data)
	}
	return files
}

func ResolveRelative(base, path string) string {
	if path == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}

