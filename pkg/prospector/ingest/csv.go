package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSVFile reads a delimited file into a RawTable.
func ReadCSVFile(path string) (RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return RawTable{}, fmt.Errorf("open csv %s: %w", path, err)
	}
	defer f.Close()

	table, err := ReadCSV(f)
	if err != nil {
		return RawTable{}, fmt.Errorf("read csv %s: %w", path, err)
	}
	return table, nil
}

// ReadCSV parses comma-separated input, retrying with ';' when the comma
// parse fails or produces a single column. A leading UTF-8 BOM is dropped.
func ReadCSV(r io.Reader) (RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return RawTable{}, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	table, err := parseDelimited(data, ',')
	if err == nil && len(table.Columns) > 1 {
		return table, nil
	}

	alt, altErr := parseDelimited(data, ';')
	if altErr == nil && len(alt.Columns) > 1 {
		return alt, nil
	}
	if err != nil {
		return RawTable{}, err
	}
	return table, nil
}

func parseDelimited(data []byte, sep rune) (RawTable, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return RawTable{}, err
	}
	if len(records) == 0 {
		return RawTable{}, nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = cleanCell(h)
	}

	table := RawTable{Columns: header, Records: make([]Record, 0, len(records)-1)}
	for _, rec := range records[1:] {
		row := make(Record, len(header))
		for i, col := range header {
			if col == "" || i >= len(rec) {
				continue
			}
			row[col] = rec[i]
		}
		table.Records = append(table.Records, row)
	}
	return table, nil
}

func cleanCell(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
}

// WriteCSV writes the table as comma-separated UTF-8 with a BOM, columns in
// table order. Absent cells are written empty.
func WriteCSV(w io.Writer, table RawTable) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return err
	}
	line := make([]string, len(table.Columns))
	for _, rec := range table.Records {
		for i, col := range table.Columns {
			line[i] = rec[col]
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
