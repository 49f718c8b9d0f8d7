// Package diff compares two kernel-extension dependency graphs.
package diff

import (
	"kextdiff/internal/engine/category"
	"kextdiff/internal/engine/graph"
	"kextdiff/internal/engine/kext"
	"sort"
)

// MissingVersion stands in for records without a version string.
const MissingVersion = "N/A"

// HistogramSize is the number of versions kept per dataset.
const HistogramSize = 5

type VersionCount struct {
	Version string `json:"version"`
	Count   int    `json:"count"`
}

// Pair holds one statistic for both datasets.
type Pair struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Delta is A minus B.
func (p Pair) Delta() int {
	return p.A - p.B
}

// Result is the outcome of Compare. It holds no reference to the graphs it
// was computed from. Id slices are sorted.
type Result struct {
	TotalA           int             `json:"total_a"`
	TotalB           int             `json:"total_b"`
	CategoryCountsA  category.Counts `json:"category_counts_a"`
	CategoryCountsB  category.Counts `json:"category_counts_b"`
	CommonIDs        []string        `json:"common_ids"`
	OnlyAIDs         []string        `json:"only_a_ids"`
	OnlyBIDs         []string        `json:"only_b_ids"`
	LibraryTotals    Pair            `json:"library_totals"`
	DependencyTotals Pair            `json:"dependency_totals"`
	EdgeTotals       Pair            `json:"edge_totals"`
	UniqueVersions   Pair            `json:"unique_versions"`
	VersionHistogram Histograms      `json:"version_histogram"`
}

// Histograms holds the most frequent versions of each dataset.
type Histograms struct {
	A []VersionCount `json:"a"`
	B []VersionCount `json:"b"`
}

// Compare diffs graph a against graph b.
func Compare(a, b *graph.Graph) Result {
	recordsA := a.Records()
	recordsB := b.Records()

	common, onlyA, onlyB := partition(a.IDs(), b.IDs())
	histA, uniqueA := versionHistogram(recordsA, HistogramSize)
	histB, uniqueB := versionHistogram(recordsB, HistogramSize)

	return Result{
		TotalA:           a.NodeCount(),
		TotalB:           b.NodeCount(),
		CategoryCountsA:  category.Tally(recordsA),
		CategoryCountsB:  category.Tally(recordsB),
		CommonIDs:        common,
		OnlyAIDs:         onlyA,
		OnlyBIDs:         onlyB,
		LibraryTotals:    Pair{A: libraryTotal(recordsA), B: libraryTotal(recordsB)},
		DependencyTotals: Pair{A: dependencyTotal(recordsA), B: dependencyTotal(recordsB)},
		EdgeTotals:       Pair{A: a.EdgeCount(), B: b.EdgeCount()},
		UniqueVersions:   Pair{A: uniqueA, B: uniqueB},
		VersionHistogram: Histograms{A: histA, B: histB},
	}
}

// Totals returns the record counts as a Pair.
func (r Result) Totals() Pair {
	return Pair{A: r.TotalA, B: r.TotalB}
}

// CategoryPair returns the tallies of one category for both datasets.
func (r Result) CategoryPair(c category.Category) Pair {
	return Pair{A: r.CategoryCountsA[c], B: r.CategoryCountsB[c]}
}

// CommonShare is the fraction of the larger dataset present in both.
func (r Result) CommonShare() float64 {
	larger := max(r.TotalA, r.TotalB)
	if larger == 0 {
		return 0
	}
	return float64(len(r.CommonIDs)) / float64(larger)
}

func partition(idsA, idsB []string) (common, onlyA, onlyB []string) {
	inA := make(map[string]bool, len(idsA))
	for _, id := range idsA {
		inA[id] = true
	}
	inB := make(map[string]bool, len(idsB))
	for _, id := range idsB {
		inB[id] = true
	}

	common, onlyA, onlyB = []string{}, []string{}, []string{}
	for id := range inA {
		if inB[id] {
			common = append(common, id)
		} else {
			onlyA = append(onlyA, id)
		}
	}
	for id := range inB {
		if !inA[id] {
			onlyB = append(onlyB, id)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)
	return common, onlyA, onlyB
}

func libraryTotal(records []kext.Record) int {
	total := 0
	for _, r := range records {
		total += len(r.Libraries)
	}
	return total
}

func dependencyTotal(records []kext.Record) int {
	total := 0
	for _, r := range records {
		total += len(r.Dependencies)
	}
	return total
}

// versionHistogram counts versions and keeps the n most frequent. Equal
// counts keep the order in which versions were first seen.
func versionHistogram(records []kext.Record, n int) ([]VersionCount, int) {
	index := make(map[string]int)
	counts := make([]VersionCount, 0)
	for _, r := range records {
		v := r.Version
		if v == "" {
			v = MissingVersion
		}
		if i, ok := index[v]; ok {
			counts[i].Count++
			continue
		}
		index[v] = len(counts)
		counts = append(counts, VersionCount{Version: v, Count: 1})
	}

	unique := len(counts)
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts, unique
}
