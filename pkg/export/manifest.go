package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"
)

// ManifestEntry describes one packaged file.
type ManifestEntry struct {
	Path         string
	SizeBytes    int64
	AccessibleTo string
}

// Manifest lists the files delivered in one packaged download.
type Manifest struct {
	DatasetID string
	CreatedAt time.Time
	Entries   []ManifestEntry
}

// TotalSize sums the byte size of all entries.
func (m Manifest) TotalSize() int64 {
	var total int64
	for _, e := range m.Entries {
		total += e.SizeBytes
	}
	return total
}

// RenderCSV produces the manifest.csv payload included in each package.
func RenderCSV(m Manifest) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write([]string{"path", "size_bytes", "accessible_to"}); err != nil {
		return nil, fmt.Errorf("write manifest headers: %w", err)
	}
	for _, entry := range m.Entries {
		record := []string{entry.Path, strconv.FormatInt(entry.SizeBytes, 10), entry.AccessibleTo}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write manifest row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush manifest: %w", err)
	}
	return buf.Bytes(), nil
}
