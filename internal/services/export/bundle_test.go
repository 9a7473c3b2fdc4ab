package export

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/Ashford-Glazing/survey-tools-api/internal/models"
)

func TestBundleName(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	if got := BundleName("output", now); got != "output_2026-03-14_all.zip" {
		t.Errorf("BundleName() = %q, want %q", got, "output_2026-03-14_all.zip")
	}
}

func TestDuplicateNames(t *testing.T) {
	tests := []struct {
		name  string
		items []BundleItem
		want  []string
	}{
		{
			name:  "no duplicates",
			items: []BundleItem{{Name: "plot_a"}, {Name: "plot_b"}},
			want:  nil,
		},
		{
			name:  "one duplicate",
			items: []BundleItem{{Name: "plot_a"}, {Name: "plot_b"}, {Name: "plot_a"}},
			want:  []string{"plot_a"},
		},
		{
			name: "multiple duplicates sorted",
			items: []BundleItem{
				{Name: "zeta"}, {Name: "alpha"}, {Name: "zeta"}, {Name: "alpha"},
			},
			want: []string{"alpha", "zeta"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DuplicateNames(tt.items)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DuplicateNames() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWriteBundle(t *testing.T) {
	dir := t.TempDir()
	pdfA := filepath.Join(dir, "a.pdf")
	pdfB := filepath.Join(dir, "b.pdf")
	for _, p := range []string{pdfA, pdfB} {
		if err := os.WriteFile(p, []byte("%PDF-1.4 stub"), 0644); err != nil {
			t.Fatalf("failed to write stub PDF: %v", err)
		}
	}

	items := []BundleItem{
		{
			Name:    "plot_a_edited",
			PDFPath: pdfA,
			Openings: []models.SheetOpening{
				{Position: 1, SalesLine: "0010", OrderWidth: 1200, OrderHeight: 900},
			},
		},
		{Name: "plot_b_edited", PDFPath: pdfB},
	}

	var buf bytes.Buffer
	if err := WriteBundle(&buf, "output", items); err != nil {
		t.Fatalf("WriteBundle() error = %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader() error = %v", err)
	}

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.UncompressedSize64 == 0 {
			t.Errorf("entry %s is empty", f.Name)
		}
	}
	sort.Strings(names)

	want := []string{"output.xlsx", "plot_a_edited.pdf", "plot_b_edited.pdf"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("bundle entries = %v, want %v", names, want)
	}
}

func TestWriteBundleNoItems(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteBundle(&buf, "output", nil); err == nil {
		t.Error("expected error for empty bundle, got nil")
	}
}

func TestWriteBundleMissingPDF(t *testing.T) {
	items := []BundleItem{
		{Name: "plot_a", PDFPath: filepath.Join(t.TempDir(), "missing.pdf")},
	}

	var buf bytes.Buffer
	if err := WriteBundle(&buf, "output", items); err == nil {
		t.Error("expected error for missing PDF, got nil")
	}
}
