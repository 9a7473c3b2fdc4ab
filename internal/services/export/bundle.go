package export

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/Ashford-Glazing/survey-tools-api/internal/models"
)

// BundleItem is one sheet inside a bundle: the output name its files carry,
// the annotated PDF on disk, and the openings for its workbook tab.
type BundleItem struct {
	Name     string
	PDFPath  string
	Openings []models.SheetOpening
}

// BundleName builds the zip filename: "{prefix}_{YYYY-MM-DD}_all.zip".
func BundleName(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s_all.zip", prefix, now.Format("2006-01-02"))
}

// DuplicateNames returns, sorted, every output name that more than one item
// carries. Zip entries are keyed by name, so duplicates would silently
// overwrite each other; callers reject the bundle instead.
func DuplicateNames(items []BundleItem) []string {
	counts := make(map[string]int)
	for _, item := range items {
		counts[item.Name]++
	}

	var dupes []string
	for name, n := range counts {
		if n > 1 {
			dupes = append(dupes, name)
		}
	}
	sort.Strings(dupes)
	return dupes
}

// WriteBundle writes the combined deliverable to w: a single workbook named
// "{prefix}.xlsx" with one tab per item, followed by each item's annotated
// PDF as "{name}.pdf". Callers must have checked DuplicateNames first.
func WriteBundle(w io.Writer, prefix string, items []BundleItem) error {
	if len(items) == 0 {
		return fmt.Errorf("bundle needs at least one sheet")
	}

	zw := zip.NewWriter(w)

	entries := make([]WorkbookEntry, len(items))
	for i, item := range items {
		entries[i] = WorkbookEntry{Name: item.Name, Openings: item.Openings}
	}
	wb, err := BuildWorkbook(entries)
	if err != nil {
		return err
	}
	xw, err := zw.Create(prefix + ".xlsx")
	if err != nil {
		wb.Close()
		return fmt.Errorf("failed to create workbook entry: %w", err)
	}
	if err := wb.Write(xw); err != nil {
		wb.Close()
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := wb.Close(); err != nil {
		return fmt.Errorf("failed to close workbook: %w", err)
	}

	for _, item := range items {
		if err := addPDF(zw, item); err != nil {
			return err
		}
	}

	return zw.Close()
}

func addPDF(zw *zip.Writer, item BundleItem) error {
	f, err := os.Open(item.PDFPath)
	if err != nil {
		return fmt.Errorf("failed to open annotated PDF for %s: %w", item.Name, err)
	}
	defer f.Close()

	ew, err := zw.Create(item.Name + ".pdf")
	if err != nil {
		return fmt.Errorf("failed to create zip entry for %s: %w", item.Name, err)
	}
	if _, err := io.Copy(ew, f); err != nil {
		return fmt.Errorf("failed to add PDF for %s: %w", item.Name, err)
	}
	return nil
}
