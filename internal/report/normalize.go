package report

import (
	"time"

	"MarketDash/internal/model"
)

// normalize returns a copy of sec with every timestamp stripped of its zone.
func normalize(sec model.Section) model.Section {
	switch sec.Kind {
	case model.SectionTable:
		if sec.Table == nil {
			return sec
		}
		t := *sec.Table
		t.Rows = make([][]any, len(sec.Table.Rows))
		for i, row := range sec.Table.Rows {
			r := make([]any, len(row))
			for j, v := range row {
				r[j] = naiveValue(v)
			}
			t.Rows[i] = r
		}
		sec.Table = &t
	case model.SectionRecord:
		rec := make(model.Record, len(sec.Record))
		for i, f := range sec.Record {
			rec[i] = model.Field{Key: f.Key, Value: naiveValue(f.Value)}
		}
		sec.Record = rec
	}
	return sec
}

func naiveValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return model.Naive(x)
	case *time.Time:
		if x == nil {
			return nil
		}
		return model.Naive(*x)
	}
	return v
}
