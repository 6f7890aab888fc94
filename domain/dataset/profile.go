package dataset

import (
	"github.com/montanaflynn/stats"
)

// Profile summarizes one variable for run reports.
type Profile struct {
	Variable string  `json:"variable"`
	Count    int     `json:"count"`
	Distinct int     `json:"distinct"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
}

// Profiles computes per-column summary statistics, in column order.
func Profiles(m *Matrix) ([]Profile, error) {
	out := make([]Profile, 0, m.NumVariables())
	for i, name := range m.names {
		col := m.cols[i]
		data := stats.Float64Data(col)

		mean, err := stats.Mean(data)
		if err != nil {
			return nil, err
		}
		sd, err := stats.StandardDeviation(data)
		if err != nil {
			return nil, err
		}
		min, err := stats.Min(data)
		if err != nil {
			return nil, err
		}
		max, err := stats.Max(data)
		if err != nil {
			return nil, err
		}
		median, err := stats.Median(data)
		if err != nil {
			return nil, err
		}

		distinct := make(map[float64]struct{}, len(col))
		for _, v := range col {
			distinct[v] = struct{}{}
		}

		out = append(out, Profile{
			Variable: name,
			Count:    len(col),
			Distinct: len(distinct),
			Mean:     mean,
			StdDev:   sd,
			Min:      min,
			Max:      max,
			Median:   median,
		})
	}
	return out, nil
}
