package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kextdiff.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[paths]
output_root = "out"

[[datasets]]
label = "vm"
title = "Virtual"
dir = "vm_kext"
roots = ["/System/Library/Extensions"]

[[datasets]]
label = "host"
roots = ["/Library/Extensions"]

[exclude]
dirs = [".git", "PlugIns"]
files = ["*.bak"]

[graph]
parallel_edges = true

[report]
preview_limit = 5
quiet = true

[observability]
metrics_file = "metrics.prom"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Version)
	require.Len(t, cfg.Datasets, 2)
	assert.Equal(t, "Virtual", cfg.Datasets[0].DisplayTitle())
	assert.Equal(t, "host", cfg.Datasets[1].DisplayTitle())
	assert.Equal(t, "host_kext", cfg.Datasets[1].Dir)
	assert.True(t, cfg.Graph.ParallelEdges)
	assert.Equal(t, 5, cfg.Report.PreviewLimit)
	assert.Equal(t, 10, cfg.Report.TopLinked)
	assert.True(t, cfg.Report.Quiet)
	assert.Equal(t, "Info.plist", cfg.Scan.DescriptorName)
	assert.Equal(t, "metrics.prom", cfg.Observability.MetricsFile)

	paths := cfg.ResolveDatasetPaths(cfg.Datasets[0])
	assert.Equal(t, filepath.Join("out", "vm_kext", "kexts_data.json"), paths.Data)
	assert.Equal(t, filepath.Join("out", "vm_kext", "kexts_graph.graphml"), paths.GraphML)
	assert.Equal(t, filepath.Join("out", "comparison_report.md"), cfg.ReportPath())
	assert.Equal(t, []string{
		filepath.Join("out", "vm_kext", "kexts_data.json"),
		filepath.Join("out", "host_kext", "kexts_data.json"),
	}, cfg.RequiredFiles())
}

func TestLoadError(t *testing.T) {
	_, err := Load("nonexistent.toml")
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "bad = toml = format"))
	assert.Error(t, err)
}

func TestLoadRejectsWrongDatasetCount(t *testing.T) {
	_, err := Load(writeConfig(t, `
[[datasets]]
label = "only"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly two datasets")
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Empty(t, Validate(cfg))

	cfg.Datasets[1].Label = cfg.Datasets[0].Label
	cfg.Datasets[1].Dir = cfg.Datasets[0].Dir
	cfg.Exclude.Files = []string{"[unterminated"}
	cfg.Output.DOTFile = cfg.Output.DataFile
	cfg.Scan.DescriptorName = "Contents/Info.plist"
	cfg.Version = 3

	var msgs []string
	for _, err := range Validate(cfg) {
		msgs = append(msgs, err.Error())
	}
	joined := strings.Join(msgs, "\n")
	assert.Contains(t, joined, "duplicate dataset label")
	assert.Contains(t, joined, "shared with another dataset")
	assert.Contains(t, joined, "exclude.files[0]")
	assert.Contains(t, joined, `output conflict: output.data_file and output.dot_file share the same path "kexts_data.json"`)
	assert.Contains(t, joined, "must be a file name")
	assert.Contains(t, joined, "unsupported config version 3")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	ds, ok := cfg.DatasetByLabel("host")
	require.True(t, ok)
	assert.Equal(t, "host_kext", ds.Dir)
	_, ok = cfg.DatasetByLabel("missing")
	assert.False(t, ok)
	assert.Equal(t, ".", cfg.Paths.OutputRoot)
	assert.Equal(t, 20, cfg.Report.PreviewLimit)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("KEXTDIFF_REPORT_PREVIEW_LIMIT", "3")
	t.Setenv("KEXTDIFF_GRAPH_PARALLEL_EDGES", "TRUE")
	t.Setenv("KEXTDIFF_PATHS_OUTPUT_ROOT", "/tmp/kexts")
	t.Setenv("KEXTDIFF_REPORT_TOP_LINKED", "not-a-number")

	cfg := DefaultConfig()
	ApplyEnvOverrides(cfg)

	assert.Equal(t, 3, cfg.Report.PreviewLimit)
	assert.True(t, cfg.Graph.ParallelEdges)
	assert.Equal(t, "/tmp/kexts", cfg.Paths.OutputRoot)
	assert.Equal(t, 10, cfg.Report.TopLinked)
}

func TestResolveRelative(t *testing.T) {
	assert.Equal(t, filepath.Clean("/abs/x"), ResolveRelative("base", "/abs/x"))
	assert.Equal(t, filepath.Join("base", "x"), ResolveRelative("base", "x"))
	assert.Equal(t, "base", ResolveRelative("base", ""))
}

func TestLoadWatch(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[paths]
output_root = "out"

[[datasets]]
label = "vm"

[[datasets]]
label = "host"

[watch]
debounce = "250ms"
`))
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, 2*time.Second, cfg.Watch.MinInterval)
}

func TestValidateRejectsNegativeWatchDurations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Watch.Debounce = -time.Second
	cfg.Watch.MinInterval = -time.Second

	errs := Validate(cfg)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "watch.debounce")
	assert.Contains(t, errs[1].Error(), "watch.min_interval")
}

func TestLoadReportOptions(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[[datasets]]
label = "vm"

[[datasets]]
label = "host"

[report]
collapsible = true

[[report.keyword_groups]]
title = "Display"
keywords = ["mobiledisp", "dcp"]
`))
	require.NoError(t, err)

	assert.True(t, cfg.Report.Collapsible)
	assert.Equal(t, []KeywordGroup{{Title: "Display", Keywords: []string{"mobiledisp", "dcp"}}}, cfg.Report.KeywordGroups)

	cfg = DefaultConfig()
	assert.False(t, cfg.Report.Collapsible)
	assert.Equal(t, DefaultKeywordGroups(), cfg.Report.KeywordGroups)
}

func TestApplyEnvOverridesCollapsible(t *testing.T) {
	t.Setenv("KEXTDIFF_REPORT_COLLAPSIBLE", "true")

	cfg := DefaultConfig()
	ApplyEnvOverrides(cfg)

	assert.True(t, cfg.Report.Collapsible)
}

func TestValidateKeywordGroups(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Report.KeywordGroups = []KeywordGroup{
		{Title: "", Keywords: []string{"usb"}},
		{Title: "Empty"},
		{Title: "Blank", Keywords: []string{" "}},
	}

	errs := Validate(cfg)
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0].Error(), "report.keyword_groups[0].title")
	assert.Contains(t, errs[1].Error(), "report.keyword_groups[1].keywords must not be empty")
	assert.Contains(t, errs[2].Error(), "report.keyword_groups[2].keywords[0]")
}
