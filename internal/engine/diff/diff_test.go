package diff

import (
	"fmt"
	"kextdiff/internal/engine/category"
	"kextdiff/internal/engine/graph"
	"kextdiff/internal/engine/kext"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(records ...kext.Record) *graph.Graph {
	return graph.Build(records)
}

func assertPartition(t *testing.T, a, b *graph.Graph, res Result) {
	t.Helper()

	union := make(map[string]bool)
	for _, id := range a.IDs() {
		union[id] = true
	}
	for _, id := range b.IDs() {
		union[id] = true
	}

	seen := make(map[string]int)
	for _, set := range [][]string{res.CommonIDs, res.OnlyAIDs, res.OnlyBIDs} {
		for _, id := range set {
			seen[id]++
		}
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "id %q appears in %d partitions", id, n)
		assert.True(t, union[id], "id %q not in either dataset", id)
	}
	assert.Len(t, seen, len(union))
}

func TestCompare_Scenario(t *testing.T) {
	a := build(
		kext.Record{BundleID: "com.x.a"},
		kext.Record{BundleID: "com.x.b", Dependencies: []string{"com.x.a"}},
	)
	b := build(
		kext.Record{BundleID: "com.x.a"},
		kext.Record{BundleID: "com.x.c"},
	)

	res := Compare(a, b)
	assert.Equal(t, []string{"com.x.a"}, res.CommonIDs)
	assert.Equal(t, []string{"com.x.b"}, res.OnlyAIDs)
	assert.Equal(t, []string{"com.x.c"}, res.OnlyBIDs)
	assert.Equal(t, Pair{A: 1, B: 0}, res.DependencyTotals)
	assert.Equal(t, Pair{A: 1, B: 0}, res.EdgeTotals)
	assert.Equal(t, 2, res.TotalA)
	assert.Equal(t, 2, res.TotalB)
	assertPartition(t, a, b, res)
}

func TestCompare_PartitionProperty(t *testing.T) {
	sets := [][]string{
		{},
		{"a"},
		{"a", "b", "c"},
		{"c", "d"},
		{"x", "y", "z", "a"},
	}
	for i, idsA := range sets {
		for j, idsB := range sets {
			t.Run(fmt.Sprintf("%d_%d", i, j), func(t *testing.T) {
				var ra, rb []kext.Record
				for _, id := range idsA {
					ra = append(ra, kext.Record{BundleID: id})
				}
				for _, id := range idsB {
					rb = append(rb, kext.Record{BundleID: id})
				}
				a, b := build(ra...), build(rb...)
				assertPartition(t, a, b, Compare(a, b))
			})
		}
	}
}

func TestCompare_Empty(t *testing.T) {
	res := Compare(build(), build())

	assert.Zero(t, res.TotalA)
	assert.Zero(t, res.TotalB)
	assert.Empty(t, res.CommonIDs)
	assert.NotNil(t, res.OnlyAIDs)
	assert.Empty(t, res.OnlyBIDs)
	assert.Equal(t, Pair{}, res.LibraryTotals)
	assert.Empty(t, res.VersionHistogram.A)
	assert.Equal(t, 0, res.CategoryCountsA.Total())
	assert.Len(t, res.CategoryCountsB, len(category.All))
	assert.Zero(t, res.CommonShare())
}

func TestCompare_Totals(t *testing.T) {
	a := build(
		kext.Record{BundleID: "a1", Libraries: []string{"x", "y"}, Dependencies: []string{"z"}},
		kext.Record{BundleID: "a2", Libraries: []string{"x"}},
	)
	b := build(kext.Record{BundleID: "b1", Name: "GPU Driver", Libraries: []string{"x", "y", "z"}})

	res := Compare(a, b)
	assert.Equal(t, Pair{A: 3, B: 3}, res.LibraryTotals)
	assert.Equal(t, Pair{A: 1, B: 0}, res.DependencyTotals)
	assert.Equal(t, 0, res.LibraryTotals.Delta())
	assert.Equal(t, 1, res.CategoryCountsB[category.Graphics])
	assert.Equal(t, Pair{A: 0, B: 1}, res.CategoryPair(category.Graphics))
	assert.Equal(t, 1, res.Totals().Delta())
}

func TestVersionHistogram(t *testing.T) {
	records := []kext.Record{
		{BundleID: "1", Version: "1.0"},
		{BundleID: "2", Version: "1.0"},
		{BundleID: "3", Version: "2.0"},
	}
	hist, unique := versionHistogram(records, HistogramSize)
	require.Len(t, hist, 2)
	assert.Equal(t, VersionCount{Version: "1.0", Count: 2}, hist[0])
	assert.Equal(t, VersionCount{Version: "2.0", Count: 1}, hist[1])
	assert.Equal(t, 2, unique)
}

func TestVersionHistogram_TiesAndCap(t *testing.T) {
	var records []kext.Record
	for i, v := range []string{"g", "f", "", "e", "d", "c", "b", "c"} {
		records = append(records, kext.Record{BundleID: fmt.Sprint(i), Version: v})
	}
	hist, unique := versionHistogram(records, HistogramSize)

	assert.Equal(t, 7, unique)
	require.Len(t, hist, HistogramSize)
	assert.Equal(t, VersionCount{Version: "c", Count: 2}, hist[0])
	got := make([]string, 0, len(hist))
	for _, h := range hist[1:] {
		got = append(got, h.Version)
	}
	assert.Equal(t, []string{"g", "f", MissingVersion, "e"}, got)
}

func TestCompare_IDsSorted(t *testing.T) {
	a := build(kext.Record{BundleID: "z"}, kext.Record{BundleID: "m"}, kext.Record{BundleID: "a"})
	res := Compare(a, build())
	assert.True(t, sort.StringsAreSorted(res.OnlyAIDs))
	assert.Equal(t, []string{"a", "m", "z"}, res.OnlyAIDs)
}

func TestCompare_CommonShare(t *testing.T) {
	a := build(kext.Record{BundleID: "a"}, kext.Record{BundleID: "b"})
	b := build(kext.Record{BundleID: "a"}, kext.Record{BundleID: "c"}, kext.Record{BundleID: "d"}, kext.Record{BundleID: "e"})
	assert.InDelta(t, 0.25, Compare(a, b).CommonShare(), 1e-9)
}
