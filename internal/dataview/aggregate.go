package dataview

import "github.com/montanaflynn/stats"

// Aggregation summarizes the numeric values of one column over the filtered
// rows. Nil fields mean the column had no numeric values.
type Aggregation struct {
	Column string   `json:"column"`
	Count  int      `json:"count"`
	Sum    *float64 `json:"sum,omitempty"`
	Avg    *float64 `json:"avg,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
}

// aggregatable reports whether a column takes part in aggregations.
func (c Column[R]) aggregatable() bool {
	return c.Aggregate || c.Display.Kind == KindProgress
}

// Aggregate computes aggregations for every aggregatable column.
func Aggregate[R any](rows []R, cols []Column[R], get Getter[R]) []Aggregation {
	var out []Aggregation
	for _, c := range cols {
		if !c.aggregatable() {
			continue
		}
		out = append(out, aggregateColumn(rows, c, get))
	}
	return out
}

func aggregateColumn[R any](rows []R, c Column[R], get Getter[R]) Aggregation {
	data := make(stats.Float64Data, 0, len(rows))
	for _, r := range rows {
		v := c.Value(r, get)
		if IsNull(v) {
			continue
		}
		if f, ok := ToFloat(v); ok {
			data = append(data, f)
		}
	}

	agg := Aggregation{Column: c.ID, Count: len(data)}
	if len(data) == 0 {
		return agg
	}
	if v, err := data.Sum(); err == nil {
		agg.Sum = &v
	}
	if v, err := data.Mean(); err == nil {
		agg.Avg = &v
	}
	if v, err := data.Min(); err == nil {
		agg.Min = &v
	}
	if v, err := data.Max(); err == nil {
		agg.Max = &v
	}
	return agg
}
