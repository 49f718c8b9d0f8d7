package config

import "time"

type Config struct {
	Version       int           `toml:"version"`
	Paths         Paths         `toml:"paths"`
	Datasets      []Dataset     `toml:"datasets"`
	Scan          Scan          `toml:"scan"`
	Exclude       Exclude       `toml:"exclude"`
	Graph         Graph         `toml:"graph"`
	Output        Output        `toml:"output"`
	Report        Report        `toml:"report"`
	Observability Observability `toml:"observability"`
	Watch         Watch         `toml:"watch"`
}

type Paths struct {
	OutputRoot string `toml:"output_root"`
}

// Dataset is one inventory to extract and compare. The first configured
// dataset is side A of a comparison, the second is side B.
type Dataset struct {
	Label string   `toml:"label"`
	Title string   `toml:"title"`
	Dir   string   `toml:"dir"`
	Roots []string `toml:"roots"`
}

// DisplayTitle falls back to the label when no title is set.
func (d Dataset) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Label
}

type Scan struct {
	DescriptorName string `toml:"descriptor_name"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Graph struct {
	ParallelEdges bool `toml:"parallel_edges"`
}

type Output struct {
	DataFile    string `toml:"data_file"`
	GraphMLFile string `toml:"graphml_file"`
	DOTFile     string `toml:"dot_file"`
	TSVFile     string `toml:"tsv_file"`
	Report      string `toml:"report"`
}

type Report struct {
	PreviewLimit int `toml:"preview_limit"`
	TopLinked    int `toml:"top_linked"`
	// Quiet suppresses the console summary after a comparison.
	Quiet bool `toml:"quiet"`
	// Collapsible folds long preview tables into <details> blocks.
	Collapsible   bool           `toml:"collapsible"`
	KeywordGroups []KeywordGroup `toml:"keyword_groups"`
}

// KeywordGroup is one row of the report's keyword breakdown of the bundle ids
// present on only one side.
type KeywordGroup struct {
	Title    string   `toml:"title"`
	Keywords []string `toml:"keywords"`
}

// DefaultKeywordGroups are the breakdowns of a virtualized vs. physical
// Apple Silicon comparison.
func DefaultKeywordGroups() []KeywordGroup {
	return []KeywordGroup{
		{Title: "USB/Audio", Keywords: []string{"usb", "hda"}},
		{Title: "Mobile display", Keywords: []string{"mobiledisp"}},
		{Title: "Apple Silicon (T8015)", Keywords: []string{"t8015"}},
		{Title: "Power management", Keywords: []string{"pmgr", "ppm"}},
	}
}

type Observability struct {
	MetricsFile string `toml:"metrics_file"`
	// OTLPEndpoint is a host:port collector address for trace export.
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	// MinInterval is the shortest gap between two re-extractions of a dataset.
	MinInterval time.Duration `toml:"min_interval"`
}

// DefaultConfig compares a virtualized inventory (vmapple_kext, scanned from
// the local extensions folder) against a physical host (host_kext).
func DefaultConfig() *Config {
	cfg := &Config{
		Datasets: []Dataset{
			{Label: "vmapple", Title: "VM Apple", Dir: "vmapple_kext", Roots: []string{"/System/Library/Extensions"}},
			{Label: "host", Title: "Host", Dir: "host_kext"},
		},
		Exclude: Exclude{Dirs: []string{".git"}},
	}
	applyDefaults(cfg)
	return cfg
}

// DatasetByLabel finds a configured dataset.
func (c *Config) DatasetByLabel(label string) (Dataset, bool) {
	for _, ds := range c.Datasets {
		if ds.Label == label {
			return ds, true
		}
	}
	return Dataset{}, false
}
