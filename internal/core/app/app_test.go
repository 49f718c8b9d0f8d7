package app

import (
	"bytes"
	"context"
	"fmt"
	"kextdiff/internal/core/config"
	"kextdiff/internal/core/errors"
	"kextdiff/internal/core/ports"
	"kextdiff/internal/data/dataset"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type testKext struct {
	id, name, version string
	libraries         []string
}

func writeKext(t *testing.T, root string, k testKext) {
	t.Helper()
	dir := filepath.Join(root, k.name+".kext", "Contents")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	var libs strings.Builder
	for _, lib := range k.libraries {
		fmt.Fprintf(&libs, "<key>%s</key><string>1.0</string>", lib)
	}
	body := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0"><dict>
<key>CFBundleIdentifier</key><string>%s</string>
<key>CFBundleName</key><string>%s</string>
<key>CFBundleVersion</key><string>%s</string>
<key>OSBundleLibraries</key><dict>%s</dict>
</dict></plist>`, k.id, k.name, k.version, libs.String())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Info.plist"), []byte(body), 0o644))
}

func newTestApp(t *testing.T) (*App, string) {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Paths.OutputRoot = root
	cfg.Datasets[0].Roots = []string{filepath.Join(root, "ext-a")}
	cfg.Datasets[1].Roots = []string{filepath.Join(root, "ext-b")}
	cfg.Report.Quiet = true

	a, err := New(cfg)
	require.NoError(t, err)
	a.Now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return a, root
}

func seed(t *testing.T, root string) {
	t.Helper()
	writeKext(t, filepath.Join(root, "ext-a"), testKext{id: "com.apple.iokit.IOPCIFamily", name: "IOPCIFamily", version: "2.9"})
	writeKext(t, filepath.Join(root, "ext-a"), testKext{id: "com.apple.driver.AppleUSBHostMergeProperties", name: "AppleUSBHostMergeProperties", version: "1.2",
		libraries: []string{"com.apple.iokit.IOPCIFamily", "com.apple.kpi.iokit"}})
	writeKext(t, filepath.Join(root, "ext-b"), testKext{id: "com.apple.iokit.IOPCIFamily", name: "IOPCIFamily", version: "2.9"})
	writeKext(t, filepath.Join(root, "ext-b"), testKext{id: "com.apple.driver.AppleT8030PMGR", name: "AppleT8030PMGR", version: "1.0"})
}

func TestRunAll(t *testing.T) {
	a, root := newTestApp(t)
	seed(t, root)

	results := a.RunAll(context.Background())
	require.Len(t, results, 4)
	for _, res := range results {
		require.True(t, res.OK, "step %s failed: %v", res.Step, res.Err)
	}
	assert.Equal(t, ports.StepExtract, results[0].Step)
	assert.Equal(t, "vmapple", results[0].Dataset)
	assert.Equal(t, 2, results[0].Counts["records"])
	assert.Equal(t, 1, results[0].Counts["edges"])
	assert.Equal(t, 1, results[0].Counts["category.usb"])

	cmp := results[2]
	assert.Equal(t, ports.StepCompare, cmp.Step)
	require.NotNil(t, cmp.Result)
	assert.Equal(t, []string{"com.apple.iokit.IOPCIFamily"}, cmp.Result.CommonIDs)
	assert.Equal(t, []string{"com.apple.driver.AppleUSBHostMergeProperties"}, cmp.Result.OnlyAIDs)
	assert.Equal(t, []string{"com.apple.driver.AppleT8030PMGR"}, cmp.Result.OnlyBIDs)
	assert.Equal(t, 2, cmp.Result.LibraryTotals.A)

	for _, name := range []string{
		"vmapple_kext/kexts_data.json",
		"vmapple_kext/kexts_graph.graphml",
		"vmapple_kext/kexts_graph.dot",
		"vmapple_kext/kexts_edges.tsv",
		"host_kext/kexts_data.json",
		"comparison_report.md",
	} {
		assert.FileExists(t, filepath.Join(root, name))
	}

	report, err := os.ReadFile(filepath.Join(root, "comparison_report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(report), "run_id: "+a.RunID)
	assert.Contains(t, string(report), "generated_at: 2026-03-01T12:00:00Z")
}

func TestRunAllStopsOnExtractionFailure(t *testing.T) {
	a, root := newTestApp(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ext-a"), 0o755))

	results := a.RunAll(context.Background())
	require.Len(t, results, 1)
	assert.False(t, results[0].OK)
	assert.True(t, errors.IsCode(results[0].Err, errors.CodeEmptyDataset))
}

func TestRunAllUsesExistingDataForSourcelessDataset(t *testing.T) {
	a, root := newTestApp(t)
	seed(t, root)
	a.Config.Datasets[1].Roots = nil

	ds := a.Config.Datasets[1]
	records, err := dataset.Decode(strings.NewReader(`{"com.apple.iokit.IOPCIFamily": {"version": "2.9"}}`))
	require.NoError(t, err)
	require.NoError(t, dataset.Save(a.Config.ResolveDatasetPaths(ds).Data, records))

	results := a.RunAll(context.Background())
	require.Len(t, results, 3)
	for _, res := range results {
		assert.True(t, res.OK, "step %s failed: %v", res.Step, res.Err)
	}
	assert.Equal(t, 1, results[1].Result.TotalB)
}

func TestCompareMissingDatasets(t *testing.T) {
	a, _ := newTestApp(t)

	res := a.Compare(context.Background())
	assert.False(t, res.OK)
	assert.True(t, errors.IsCode(res.Err, errors.CodeMissingDataset))
	assert.Contains(t, res.Err.Error(), "vmapple")
	assert.Contains(t, res.Err.Error(), "host")
}

func TestCompareWritesSummary(t *testing.T) {
	a, root := newTestApp(t)
	seed(t, root)
	for _, res := range a.ExtractAll(context.Background()) {
		require.True(t, res.OK, "extract %s: %v", res.Dataset, res.Err)
	}

	var out bytes.Buffer
	a.Out = &out
	a.Config.Report.Quiet = false

	res := a.Compare(context.Background())
	require.True(t, res.OK, "compare: %v", res.Err)
	assert.Contains(t, out.String(), "VM Apple vs Host")

	md, err := os.ReadFile(a.Config.ReportPath())
	require.NoError(t, err)
	assert.Contains(t, string(md), "| USB/Audio | 1 | 0 |\n")
	assert.Contains(t, string(md), "| Power management | 0 | 1 |\n")
}

func TestCheckFiles(t *testing.T) {
	a, root := newTestApp(t)

	res := a.CheckFiles(context.Background())
	assert.False(t, res.OK)
	assert.Equal(t, a.Config.RequiredFiles(), res.Missing)
	assert.True(t, errors.IsCode(res.Err, errors.CodeMissingDataset))

	seed(t, root)
	a.ExtractAll(context.Background())

	res = a.CheckFiles(context.Background())
	assert.True(t, res.OK)
	assert.Empty(t, res.Missing)
	assert.Equal(t, a.Config.RequiredFiles(), res.Paths)
}

func TestExtractUnknownDataset(t *testing.T) {
	a, _ := newTestApp(t)

	res := a.Extract(context.Background(), "nope")
	assert.False(t, res.OK)
	assert.True(t, errors.IsCode(res.Err, errors.CodeNotFound))
}

func TestVisualizeReportsMissingDataset(t *testing.T) {
	a, root := newTestApp(t)
	seed(t, root)
	require.True(t, a.Extract(context.Background(), "vmapple").OK)

	res := a.Visualize(context.Background())
	assert.False(t, res.OK)
	assert.True(t, errors.IsCode(res.Err, errors.CodeMissingDataset))
	assert.Len(t, res.Paths, 3)
	assert.FileExists(t, filepath.Join(root, "vmapple_kext", "kexts_graph.dot"))
}

func TestTrace(t *testing.T) {
	a, root := newTestApp(t)
	seed(t, root)
	require.True(t, a.Extract(context.Background(), "vmapple").OK)

	res := a.Trace(context.Background(), "vmapple", "com.apple.driver.AppleUSBHostMergeProperties", "com.apple.iokit.IOPCIFamily")
	require.True(t, res.OK, "trace: %v", res.Err)
	assert.Equal(t, []string{"com.apple.driver.AppleUSBHostMergeProperties", "com.apple.iokit.IOPCIFamily"}, res.Chain)
	assert.Equal(t, 1, res.Counts["hops"])
	assert.Equal(t, 1, res.Counts["links_from"])
	assert.Equal(t, 1, res.Counts["dependents"])

	res = a.Trace(context.Background(), "vmapple", "com.apple.iokit.IOPCIFamily", "com.apple.driver.AppleUSBHostMergeProperties")
	assert.False(t, res.OK)
	assert.True(t, errors.IsCode(res.Err, errors.CodeNotFound))
}

func TestStepHonoursCancellation(t *testing.T) {
	a, _ := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := a.Compare(ctx)
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestWatchExtractsOnChange(t *testing.T) {
	a, root := newTestApp(t)
	a.Config.Watch.Debounce = 20 * time.Millisecond
	a.Config.Watch.MinInterval = 0
	seed(t, root)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	results := make(chan ports.StepResult, 4)
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, "vmapple", func(res ports.StepResult) { results <- res })
	}()

	first := <-results
	require.True(t, first.OK, "initial extract: %v", first.Err)
	assert.Equal(t, 2, first.Counts["records"])

	writeKext(t, filepath.Join(root, "ext-a"), testKext{id: "com.apple.driver.AppleHV", name: "AppleHV", version: "1.0"})
	select {
	case res := <-results:
		require.True(t, res.OK, "re-extract: %v", res.Err)
		assert.Equal(t, 3, res.Counts["records"])
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for re-extraction")
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestWatchWithoutRoots(t *testing.T) {
	a, _ := newTestApp(t)

	err := a.Watch(context.Background(), "host", func(ports.StepResult) {})
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))

	err = a.Watch(context.Background(), "nope", func(ports.StepResult) {})
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestStepsEmitSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	a, _ := newTestApp(t)
	res := a.Compare(context.Background())
	require.False(t, res.OK)

	var found bool
	for _, span := range recorder.Ended() {
		if span.Name() != "app.compare" {
			continue
		}
		found = true
		assert.Equal(t, codes.Error, span.Status().Code)
		assert.Contains(t, span.Attributes(), attribute.String("run.id", a.RunID))
	}
	assert.True(t, found, "no app.compare span recorded")
}
