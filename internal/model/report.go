package model

import (
	"encoding/json"
	"math"
	"time"
)

// SectionKind tags the content variant held by a Section.
type SectionKind int

const (
	SectionTable SectionKind = iota
	SectionRecord
	SectionFailed
)

func (k SectionKind) String() string {
	switch k {
	case SectionTable:
		return "table"
	case SectionRecord:
		return "record"
	default:
		return "failed"
	}
}

// Table is tabular section content. Cells hold float64, int64, string, bool, time.Time or nil.
type Table struct {
	IndexName string   `json:"index_name,omitempty"`
	Index     []string `json:"index,omitempty"` // nil means positional 0..n-1
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
}

// Field is one key/value pair of a Record.
type Field struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Record is scalar section content with stable key order.
type Record []Field

// Get returns the value stored under key.
func (r Record) Get(key string) (any, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Section is one named entry of a report Document.
type Section struct {
	Name   string
	Kind   SectionKind
	Table  *Table
	Record Record
	Err    error
}

// TableSection builds a tabular section.
func TableSection(name string, t *Table) Section {
	return Section{Name: name, Kind: SectionTable, Table: t}
}

// RecordSection builds a scalar section.
func RecordSection(name string, r Record) Section {
	return Section{Name: name, Kind: SectionRecord, Record: r}
}

// FailedSection records a sub-fetch that did not produce content.
func FailedSection(name string, err error) Section {
	return Section{Name: name, Kind: SectionFailed, Err: err}
}

// MarshalJSON renders the tagged variant explicitly.
func (s Section) MarshalJSON() ([]byte, error) {
	out := struct {
		Name   string  `json:"name"`
		Kind   string  `json:"kind"`
		Table  *Table  `json:"table,omitempty"`
		Record []Field `json:"record,omitempty"`
		Error  string  `json:"error,omitempty"`
	}{Name: s.Name, Kind: s.Kind.String(), Table: s.Table, Record: s.Record}
	if s.Err != nil {
		out.Error = s.Err.Error()
	}
	if out.Table != nil {
		out.Table = jsonSafeTable(out.Table)
	}
	if out.Record != nil {
		rec := make([]Field, len(out.Record))
		for i, f := range out.Record {
			rec[i] = Field{Key: f.Key, Value: jsonSafe(f.Value)}
		}
		out.Record = rec
	}
	return json.Marshal(out)
}

func jsonSafeTable(t *Table) *Table {
	cp := *t
	cp.Rows = make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		r := make([]any, len(row))
		for j, v := range row {
			r[j] = jsonSafe(v)
		}
		cp.Rows[i] = r
	}
	return &cp
}

func jsonSafe(v any) any {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return v
}

// Document is the assembled report for one symbol.
type Document struct {
	Symbol      string    `json:"symbol"`
	GeneratedAt time.Time `json:"generated_at"`
	Sections    []Section `json:"sections"`
}

// Keys returns section names in assembly order.
func (d *Document) Keys() []string {
	keys := make([]string, len(d.Sections))
	for i, s := range d.Sections {
		keys[i] = s.Name
	}
	return keys
}

// Section looks up a section by name.
func (d *Document) Section(name string) (Section, bool) {
	for _, s := range d.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// Failed returns the sections whose sub-fetch failed.
func (d *Document) Failed() []Section {
	var out []Section
	for _, s := range d.Sections {
		if s.Kind == SectionFailed {
			out = append(out, s)
		}
	}
	return out
}
