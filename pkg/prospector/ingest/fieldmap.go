package ingest

import "strings"

// Mapping projects source columns onto logical fields.
type Mapping struct {
	// Columns maps a logical field to its source column. A missing entry or
	// an empty column name means the field has no source.
	Columns map[Field]string
	// TitleFallback copies the name into an empty title.
	TitleFallback bool
}

// With returns a copy of m where fields without a source column take the
// column found in detected. Explicit entries are never overridden.
func (m Mapping) With(detected map[Field]string) Mapping {
	out := Mapping{Columns: make(map[Field]string, len(LogicalFields)), TitleFallback: m.TitleFallback}
	for f, col := range m.Columns {
		out.Columns[f] = col
	}
	for f, col := range detected {
		if out.Columns[f] == "" && col != "" {
			out.Columns[f] = col
		}
	}
	return out
}

// Resolve binds the mapping to a concrete header: each configured column is
// matched exactly, then case- and space-insensitively, in header order. The
// result only holds columns present in header.
func (m Mapping) Resolve(header []string) map[Field]string {
	bound := make(map[Field]string, len(m.Columns))
	for _, f := range LogicalFields {
		want := m.Columns[f]
		if want == "" {
			continue
		}
		if col, ok := findHeader(header, want); ok {
			bound[f] = col
		}
	}
	return bound
}

func findHeader(header []string, want string) (string, bool) {
	for _, col := range header {
		if col == want {
			return col, true
		}
	}
	want = strings.TrimSpace(want)
	for _, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), want) {
			return col, true
		}
	}
	return "", false
}

// MapFields builds a Row from a raw record. Missing mappings and missing
// columns yield empty strings; nothing is dropped. A record carries no column
// order, so case-insensitive matches are tried in sorted key order; use
// MapRecord when the header is known.
func MapFields(rec Record, m Mapping) Row {
	return MapRecord(rec, rec.sortedKeys(), m)
}

// MapRecord is MapFields with case-insensitive matches tried in header order.
func MapRecord(rec Record, header []string, m Mapping) Row {
	row := Row{Raw: make(map[string]string, len(rec))}
	for k, v := range rec {
		row.Raw[k] = v
	}

	for _, f := range LogicalFields {
		col := m.Columns[f]
		if col == "" {
			continue
		}
		if bound, ok := findHeader(header, col); ok {
			row.SetField(f, strings.TrimSpace(rec[bound]))
		}
	}

	row.Source = strings.TrimSpace(rec[ColumnSource])
	row.Status = strings.TrimSpace(rec[ColumnStatus])
	if row.Status == "" {
		row.Status = strings.TrimSpace(rec["statut"])
	}

	if m.TitleFallback && row.Title == "" {
		row.Title = row.Name
	}
	return row
}

// MapTable maps every record of raw. The mapping is resolved against the
// header once so that ambiguous case-insensitive matches follow column order.
func MapTable(raw RawTable, m Mapping) Table {
	bound := Mapping{Columns: m.Resolve(raw.Columns), TitleFallback: m.TitleFallback}

	table := Table{
		Columns: append([]string(nil), raw.Columns...),
		Rows:    make([]Row, 0, len(raw.Records)),
	}
	for _, rec := range raw.Records {
		table.Rows = append(table.Rows, MapRecord(rec, raw.Columns, bound))
	}
	return table
}
