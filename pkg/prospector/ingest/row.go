package ingest

import (
	"sort"
	"strconv"
	"strings"
)

// Field names a logical, source-independent attribute of a Row.
type Field string

// Logical fields produced by the field mapper.
const (
	FieldName     Field = "name"
	FieldTitle    Field = "title"
	FieldURL      Field = "url"
	FieldCompany  Field = "company"
	FieldSector   Field = "sector"
	FieldLocation Field = "location"
)

// LogicalFields is the fixed target list of the field mapper, in mapping order.
var LogicalFields = []Field{FieldName, FieldTitle, FieldURL, FieldCompany, FieldSector, FieldLocation}

// Provenance and derived columns that rules may also address.
const (
	ColumnSource  = "source"
	ColumnStatus  = "status"
	ColumnSegment = "segment"
	ColumnScore   = "score"
)

var fieldAliases = map[string]Field{
	"name":         FieldName,
	"nom":          FieldName,
	"title":        FieldTitle,
	"poste":        FieldTitle,
	"url":          FieldURL,
	"company":      FieldCompany,
	"entreprise":   FieldCompany,
	"sector":       FieldSector,
	"secteur":      FieldSector,
	"location":     FieldLocation,
	"localisation": FieldLocation,
}

// ParseField resolves a logical field name. Both the English names and the
// French configuration names (nom, poste, entreprise, secteur, localisation)
// are accepted.
func ParseField(name string) (Field, bool) {
	f, ok := fieldAliases[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// Segment is the coarse business/tech categorization of a Row.
type Segment string

const (
	SegmentBusiness Segment = "business"
	SegmentTech     Segment = "tech"
)

// Row is one contact record flowing through the pipeline.
type Row struct {
	Name     string
	Title    string
	URL      string
	Company  string
	Sector   string
	Location string

	Source string
	Status string

	Score         int
	Segment       Segment
	DecisionMaker bool
	Recommended   bool

	// Raw keeps the source columns as read, keyed by header name.
	Raw map[string]string
}

// Field returns the value of a logical field.
func (r *Row) Field(f Field) string {
	switch f {
	case FieldName:
		return r.Name
	case FieldTitle:
		return r.Title
	case FieldURL:
		return r.URL
	case FieldCompany:
		return r.Company
	case FieldSector:
		return r.Sector
	case FieldLocation:
		return r.Location
	}
	return ""
}

// SetField assigns a logical field.
func (r *Row) SetField(f Field, v string) {
	switch f {
	case FieldName:
		r.Name = v
	case FieldTitle:
		r.Title = v
	case FieldURL:
		r.URL = v
	case FieldCompany:
		r.Company = v
	case FieldSector:
		r.Sector = v
	case FieldLocation:
		r.Location = v
	}
}

// Lookup resolves a column name against the row: logical fields first, then
// provenance and derived columns, then raw source columns.
func (r *Row) Lookup(column string) (string, bool) {
	if f, ok := ParseField(column); ok {
		return r.Field(f), true
	}
	switch column {
	case ColumnSource:
		return r.Source, true
	case ColumnStatus:
		return r.Status, true
	case ColumnSegment:
		return string(r.Segment), true
	case ColumnScore:
		return strconv.Itoa(r.Score), true
	}
	v, ok := r.Raw[column]
	return v, ok
}

// Combined joins name, title and url the way the classifiers read a row.
func (r *Row) Combined() string {
	return r.Name + " | " + r.Title + " | " + r.URL
}

// Clone returns a copy of the row that does not share its Raw map.
func (r Row) Clone() Row {
	if r.Raw != nil {
		raw := make(map[string]string, len(r.Raw))
		for k, v := range r.Raw {
			raw[k] = v
		}
		r.Raw = raw
	}
	return r
}

// Record is one raw source row: column name to cell value. A missing key
// means the cell is absent.
type Record map[string]string

// RawTable is a source table before field mapping.
type RawTable struct {
	Columns []string
	Records []Record
}

// Table is a mapped table. Columns keeps the raw header so rules may address
// source columns that have no logical field.
type Table struct {
	Columns []string
	Rows    []Row
}

// HasColumn reports whether name is part of the table schema.
func (t *Table) HasColumn(name string) bool {
	if _, ok := ParseField(name); ok {
		return true
	}
	switch name {
	case ColumnSource, ColumnStatus, ColumnSegment, ColumnScore:
		return true
	}
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// sortedKeys returns the record keys in a stable order.
func (rec Record) sortedKeys() []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
