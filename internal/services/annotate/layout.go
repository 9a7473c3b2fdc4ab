// layout.go defines the annotation layout profile (SVT-16).
//
// The profile captures everything about WHERE and HOW measured values are
// stamped: the anchor string to search for, the font, the offsets from the
// anchor, and the colour rule. Site teams tune these per supplier template
// via a YAML file; the built-in defaults match the standard order
// confirmation layout.
package annotate

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Layout holds the stamp placement profile. Distances are PDF points,
// colours are "#RRGGBB" hex, the tolerance is millimetres.
type Layout struct {
	AnchorText      string  `yaml:"anchor_text"`
	FontName        string  `yaml:"font_name"`
	FontSize        int     `yaml:"font_size"`
	OffsetRight     float64 `yaml:"offset_right"`     // from the anchor's right edge
	OffsetDown      float64 `yaml:"offset_down"`      // from the anchor's top edge
	LocationSpacing float64 `yaml:"location_spacing"` // size text -> location text
	RemarksSpacing  float64 `yaml:"remarks_spacing"`  // location text -> remarks text
	ToleranceMM     int     `yaml:"tolerance_mm"`
	OKColor         string  `yaml:"ok_color"`
	MismatchColor   string  `yaml:"mismatch_color"`
}

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// DefaultLayout returns the standard profile: blue 14pt Helvetica stamps
// just right of each "Aperture Size" label, red when a measurement misses
// the ordered size by more than 75mm.
func DefaultLayout() Layout {
	return Layout{
		AnchorText:      "Aperture Size",
		FontName:        "Helvetica",
		FontSize:        14,
		OffsetRight:     40,
		OffsetDown:      10,
		LocationSpacing: 120,
		RemarksSpacing:  80,
		ToleranceMM:     75,
		OKColor:         "#0000ff",
		MismatchColor:   "#ff0000",
	}
}

// LoadLayout reads a YAML profile over the defaults. An empty path returns
// the defaults unchanged; fields absent from the file keep their default
// values. A file that cannot be read or fails validation is an error —
// silently annotating with a half-applied profile would misplace stamps.
func LoadLayout(path string) (Layout, error) {
	layout := DefaultLayout()
	if path == "" {
		return layout, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to read layout profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return Layout{}, fmt.Errorf("failed to parse layout profile: %w", err)
	}
	if err := layout.Validate(); err != nil {
		return Layout{}, fmt.Errorf("invalid layout profile %s: %w", path, err)
	}

	return layout, nil
}

// Validate checks the profile for values that would produce unusable stamps.
func (l Layout) Validate() error {
	if l.AnchorText == "" {
		return fmt.Errorf("anchor_text must not be empty")
	}
	if l.FontName == "" {
		return fmt.Errorf("font_name must not be empty")
	}
	if l.FontSize <= 0 {
		return fmt.Errorf("font_size must be positive, got %d", l.FontSize)
	}
	if l.LocationSpacing < 0 || l.RemarksSpacing < 0 {
		return fmt.Errorf("spacings must not be negative")
	}
	if l.ToleranceMM < 0 {
		return fmt.Errorf("tolerance_mm must not be negative, got %d", l.ToleranceMM)
	}
	if !hexColorPattern.MatchString(l.OKColor) {
		return fmt.Errorf("ok_color must be #RRGGBB hex, got %q", l.OKColor)
	}
	if !hexColorPattern.MatchString(l.MismatchColor) {
		return fmt.Errorf("mismatch_color must be #RRGGBB hex, got %q", l.MismatchColor)
	}
	return nil
}
