package ruleset

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// TestDefault tests the built-in thresholds.
func TestDefault(t *testing.T) {
	t.Parallel()

	tbl := Default()
	if err := tbl.Validate(); err != nil {
		t.Fatalf("default table invalid: %v", err)
	}

	testCases := []struct {
		name     string
		level    string
		large    bool
		expected float64
	}{
		{"normal AA", LevelAA, false, 4.5},
		{"normal AAA", LevelAAA, false, 7},
		{"large AA", LevelAA, true, 3},
		{"large AAA", LevelAAA, true, 4.5},
		{"unknown level falls back to AA", "A", false, 4.5},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tbl.ContrastFor(tc.level, tc.large); got != tc.expected {
				t.Errorf("ContrastFor(%q, %v) = %v, expected %v", tc.level, tc.large, got, tc.expected)
			}
		})
	}

	if !tbl.IsLargeText(18) || tbl.IsLargeText(17.9) {
		t.Error("large text boundary should be 18px inclusive")
	}
	if want := []string{"a", "button", "form", "img", "input", "label"}; !slices.Equal(tbl.RequiredTags(), want) {
		t.Errorf("RequiredTags() = %v, expected %v", tbl.RequiredTags(), want)
	}
	if !slices.Equal(tbl.RequiredAttributes["input"], []string{"type", "id"}) {
		t.Errorf("input attributes = %v", tbl.RequiredAttributes["input"])
	}
}

// TestDefaultIsFresh tests that callers cannot corrupt the shared defaults.
func TestDefaultIsFresh(t *testing.T) {
	t.Parallel()

	a := Default()
	a.RequiredAttributes["img"] = nil
	a.Landmarks[0] = "div"

	b := Default()
	if len(b.RequiredAttributes["img"]) != 1 || b.Landmarks[0] != "header" {
		t.Error("Default() returned shared state")
	}
}

// TestMerge tests that non-zero override fields win.
func TestMerge(t *testing.T) {
	t.Parallel()

	base := Default()
	override := &Table{
		Contrast: Contrast{NormalText: Pair{AA: 5}},
		FontSize: FontSize{Desktop: 16},
		RequiredAttributes: map[string][]string{
			"iframe": {"title"},
			"a":      {"href", "title"},
		},
	}

	merged := Merge(base, override)

	if merged.Contrast.NormalText.AA != 5 {
		t.Errorf("NormalText.AA = %v", merged.Contrast.NormalText.AA)
	}
	if merged.Contrast.NormalText.AAA != 7 {
		t.Errorf("NormalText.AAA should keep default, got %v", merged.Contrast.NormalText.AAA)
	}
	if merged.FontSize.Desktop != 16 || merged.FontSize.Mobile != 12 {
		t.Errorf("FontSize = %+v", merged.FontSize)
	}
	if !slices.Equal(merged.RequiredAttributes["iframe"], []string{"title"}) {
		t.Errorf("iframe entry not added")
	}
	if !slices.Equal(merged.RequiredAttributes["a"], []string{"href", "title"}) {
		t.Errorf("a entry not replaced")
	}
	if len(merged.Landmarks) != 7 {
		t.Errorf("Landmarks should keep defaults")
	}

	if base.Contrast.NormalText.AA != 4.5 || len(base.RequiredAttributes["a"]) != 1 {
		t.Error("Merge modified base")
	}
	if Merge(base, nil) == base {
		t.Error("Merge(base, nil) should return a copy")
	}
}

// TestValidate tests rejection of non-positive thresholds.
func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("negative threshold", func(t *testing.T) {
		t.Parallel()
		tbl := Default()
		tbl.Contrast.LargeText.AA = -1
		if err := tbl.Validate(); !errors.Is(err, ErrInvalidThreshold) {
			t.Errorf("expected ErrInvalidThreshold, got %v", err)
		}
	})

	t.Run("zero font size", func(t *testing.T) {
		t.Parallel()
		tbl := Default()
		tbl.FontSize.Desktop = 0
		if err := tbl.Validate(); !errors.Is(err, ErrInvalidThreshold) {
			t.Errorf("expected ErrInvalidThreshold, got %v", err)
		}
	})

	t.Run("empty attribute list", func(t *testing.T) {
		t.Parallel()
		tbl := Default()
		tbl.RequiredAttributes["video"] = []string{}
		if err := tbl.Validate(); !errors.Is(err, ErrInvalidRequiredAttributes) {
			t.Errorf("expected ErrInvalidRequiredAttributes, got %v", err)
		}
	})
}

// TestLoad tests reading a YAML override from disk.
func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("valid override", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(dir, "rules.yaml")
		content := `
contrast:
  normal_text:
    aa: 5.5
  large_text_size: 24
landmarks: [main, nav]
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		tbl, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if tbl.Contrast.NormalText.AA != 5.5 || tbl.Contrast.LargeTextSize != 24 {
			t.Errorf("override not applied: %+v", tbl.Contrast)
		}
		if !slices.Equal(tbl.Landmarks, []string{"main", "nav"}) {
			t.Errorf("Landmarks = %v", tbl.Landmarks)
		}
		if tbl.Contrast.LargeText.AA != 3 {
			t.Errorf("default not preserved: %+v", tbl.Contrast.LargeText)
		}
	})

	t.Run("invalid override", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte("font_size:\n  mobile: -3\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); !errors.Is(err, ErrInvalidThreshold) {
			t.Errorf("expected ErrInvalidThreshold, got %v", err)
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(dir, "broken.yaml")
		if err := os.WriteFile(path, []byte("contrast: [\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Error("expected error for malformed YAML")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
