package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/ptoivan/serpgap/internal/analyze"
)

// WriteTFIDFCSV writes the full document/term matrix: a url column followed
// by one column per vocabulary term, one row per analyzed document.
func WriteTFIDFCSV(path string, m *analyze.Matrix, urls []string) error {
	if m == nil || len(m.Terms) == 0 {
		return fmt.Errorf("no matrix data to write")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"url"}, m.Terms...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, row := range m.Rows {
		record := make([]string, 0, len(row)+1)
		record = append(record, urls[i])
		for _, v := range row {
			record = append(record, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
