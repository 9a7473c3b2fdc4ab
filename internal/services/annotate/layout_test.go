package annotate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultLayoutIsValid(t *testing.T) {
	if err := DefaultLayout().Validate(); err != nil {
		t.Errorf("DefaultLayout().Validate() = %v, want nil", err)
	}
}

func TestLoadLayoutEmptyPath(t *testing.T) {
	layout, err := LoadLayout("")
	if err != nil {
		t.Fatalf("LoadLayout(\"\") error = %v", err)
	}
	if layout != DefaultLayout() {
		t.Errorf("LoadLayout(\"\") = %+v, want defaults", layout)
	}
}

func TestLoadLayoutOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := "anchor_text: \"Frame Size\"\ntolerance_mm: 50\nok_color: \"#00AA00\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write profile: %v", err)
	}

	layout, err := LoadLayout(path)
	if err != nil {
		t.Fatalf("LoadLayout() error = %v", err)
	}

	if layout.AnchorText != "Frame Size" {
		t.Errorf("AnchorText = %q, want %q", layout.AnchorText, "Frame Size")
	}
	if layout.ToleranceMM != 50 {
		t.Errorf("ToleranceMM = %d, want 50", layout.ToleranceMM)
	}
	if layout.OKColor != "#00AA00" {
		t.Errorf("OKColor = %q, want %q", layout.OKColor, "#00AA00")
	}

	// Fields absent from the file keep their defaults.
	if layout.FontSize != 14 {
		t.Errorf("FontSize = %d, want default 14", layout.FontSize)
	}
	if layout.LocationSpacing != 120 {
		t.Errorf("LocationSpacing = %v, want default 120", layout.LocationSpacing)
	}
	if layout.MismatchColor != "#ff0000" {
		t.Errorf("MismatchColor = %q, want default %q", layout.MismatchColor, "#ff0000")
	}
}

func TestLoadLayoutMissingFile(t *testing.T) {
	if _, err := LoadLayout(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing profile file, got nil")
	}
}

func TestLoadLayoutRejectsInvalidProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("font_size: 0\n"), 0644); err != nil {
		t.Fatalf("failed to write profile: %v", err)
	}
	if _, err := LoadLayout(path); err == nil {
		t.Error("expected error for font_size 0, got nil")
	}
}

func TestLayoutValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Layout)
	}{
		{"empty anchor", func(l *Layout) { l.AnchorText = "" }},
		{"empty font name", func(l *Layout) { l.FontName = "" }},
		{"zero font size", func(l *Layout) { l.FontSize = 0 }},
		{"negative font size", func(l *Layout) { l.FontSize = -3 }},
		{"negative location spacing", func(l *Layout) { l.LocationSpacing = -1 }},
		{"negative remarks spacing", func(l *Layout) { l.RemarksSpacing = -1 }},
		{"negative tolerance", func(l *Layout) { l.ToleranceMM = -1 }},
		{"bad ok color", func(l *Layout) { l.OKColor = "blue" }},
		{"short hex color", func(l *Layout) { l.OKColor = "#00f" }},
		{"bad mismatch color", func(l *Layout) { l.MismatchColor = "ff0000" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := DefaultLayout()
			tt.modify(&layout)
			if err := layout.Validate(); err == nil {
				t.Errorf("Validate() = nil, want error")
			}
		})
	}
}
