package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// RenderReceipt creates the PDF download receipt included in each package.
// It states the dataset, delivery time, and a per-file listing.
func RenderReceipt(m Manifest, requestedBy string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "DOWNLOAD RECEIPT", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Dataset: %s", m.DatasetID), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Requested by: %s", requestedBy), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Delivered: %s", m.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC")), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Files: %d, total %d bytes", len(m.Entries), m.TotalSize()), "", 1, "", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(130, 8, "Path", "1", 0, "", false, 0, "")
	pdf.CellFormat(60, 8, "Size (bytes)", "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, entry := range m.Entries {
		pdf.CellFormat(130, 7, entry.Path, "1", 0, "", false, 0, "")
		pdf.CellFormat(60, 7, fmt.Sprintf("%d", entry.SizeBytes), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
