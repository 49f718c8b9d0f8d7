package category

import (
	"kextdiff/internal/engine/kext"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		kextName string
		bundleID string
		want     Category
	}{
		{"metal driver", "AppleMetalDriver", "com.apple.driver.AGXMetal", Graphics},
		{"framebuffer", "IONDRVFramebuffer", "com.apple.iokit.IONDRVSupport", Graphics},
		{"hda by bundle", "Controller", "com.apple.driver.AppleHDAController", Audio},
		{"audio by name", "AppleAudioClockLibs", "com.apple.iokit.x", Audio},
		{"apple usb is usb", "IOUSBHostFamily", "com.apple.iokit.IOUSBHostFamily", USB},
		{"intel usb is usb", "Intel USB Controller", "com.example.usb", USB},
		{"bt by bundle", "Transport", "com.apple.iokit.BroadcomBTTransport", Bluetooth},
		{"bluetooth by name", "Bluetooth Family", "com.vendor.x", Bluetooth},
		{"apple fallback", "IOSurface", "com.apple.iokit.IOSurface", AppleSpecific},
		{"intel", "Intel Mausi", "com.insanelymac.intelmausi", Intel},
		{"intel by bundle", "Mausi", "com.vendor.intel.mausi", Intel},
		{"amd by name", "AMD Radeon X6000", "com.vendor.x6000", AMD},
		{"amd bundle only", "Radeon", "com.amd.radeon", Other},
		{"nothing", "Lilu", "as.vit9696.Lilu", Other},
		{"empty", "", "", Other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(kext.Record{Name: tt.kextName, BundleID: tt.bundleID})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyIsTotal(t *testing.T) {
	names := []string{"", "GPU", "usb", "Audio", "x"}
	ids := []string{"", "com.apple.hda", "bt", "intel", "com.amd"}
	for _, n := range names {
		for _, id := range ids {
			c := Classify(kext.Record{Name: n, BundleID: id})
			assert.True(t, c.Valid(), "category %q for %q/%q", c, n, id)
		}
	}
}

func TestRulesOrder(t *testing.T) {
	want := []Category{Graphics, Audio, USB, Bluetooth, AppleSpecific, Intel, AMD}
	got := make([]Category, 0, len(Rules))
	for _, r := range Rules {
		got = append(got, r.Category)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, append(want, Other), All)
}

func TestClassifyWithReorderedRules(t *testing.T) {
	rec := kext.Record{Name: "IOUSBHostFamily", BundleID: "com.apple.iokit.IOUSBHostFamily"}
	reordered := []Rule{Rules[4], Rules[2]}
	assert.Equal(t, AppleSpecific, ClassifyWith(reordered, rec))
	assert.Equal(t, USB, ClassifyWith(Rules, rec))
	assert.Equal(t, Other, ClassifyWith(nil, rec))
}

func TestTally(t *testing.T) {
	counts := Tally([]kext.Record{
		{Name: "GPU", BundleID: "a"},
		{Name: "x", BundleID: "com.apple.x"},
		{Name: "y", BundleID: "com.apple.y"},
	})
	assert.Len(t, counts, len(All))
	assert.Equal(t, 1, counts[Graphics])
	assert.Equal(t, 2, counts[AppleSpecific])
	assert.Equal(t, 0, counts[AMD])
	assert.Equal(t, 3, counts.Total())

	empty := Tally(nil)
	assert.Len(t, empty, len(All))
	assert.Equal(t, 0, empty.Total())
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Graphics", Graphics.Title())
	assert.Equal(t, "USB", USB.Title())
	assert.Equal(t, "Apple Specific", AppleSpecific.Title())
}
