package core

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	ex "sa.service/data/extensions"
	m "sa.service/data/models"
)

// DatedReturn is the fractional change into Date from the previous trading day.
type DatedReturn struct {
	Date   string
	Return float64
}

// GetReturns is the period over period change of a series, one shorter than the series.
// A zero previous close has no defined return and the row is skipped.
func GetReturns(ts *m.TimeSeries) []DatedReturn {
	if ts.Len() < 2 {
		return nil
	}

	res := make([]DatedReturn, 0, ts.Len()-1)
	for i := 1; i < len(ts.Points); i++ {
		prev := ts.Points[i-1].Close
		if prev == 0 {
			continue
		}
		res = append(res, DatedReturn{
			Date:   m.DayKey(ts.Points[i].Date),
			Return: ts.Points[i].Close/prev - 1,
		})
	}
	return res
}

// AlignReturns keeps the dates both return series have, in the order of a.
func AlignReturns(a, b []DatedReturn) (dates []string, ra, rb []float64) {
	lookup := make(map[string]float64, len(b))
	for _, r := range b {
		lookup[r.Date] = r.Return
	}

	for _, r := range a {
		v, ok := lookup[r.Date]
		if !ok {
			continue
		}
		dates = append(dates, r.Date)
		ra = append(ra, r.Return)
		rb = append(rb, v)
	}
	return
}

// AlignPrices returns the closes of a and b on the days they both traded.
func AlignPrices(a, b *m.TimeSeries) (pa, pb []float64) {
	lookup := b.Lookup()
	for _, p := range a.Points {
		v, ok := lookup[m.DayKey(p.Date)]
		if !ok {
			continue
		}
		pa = append(pa, p.Close)
		pb = append(pb, v)
	}
	return
}

// PairwiseCorrelation is the pearson correlation of two series over their common dates.
// It is NaN when there are fewer than two common dates or either side does not vary.
func PairwiseCorrelation(a, b *m.TimeSeries) float64 {
	pa, pb := AlignPrices(a, b)
	if len(pa) < 2 {
		return math.NaN()
	}
	if stat.Variance(pa, nil) == 0 || stat.Variance(pb, nil) == 0 {
		return math.NaN()
	}
	return clampUnit(stat.Correlation(pa, pb, nil))
}

// HasVariance reports whether a series has at least two distinct closes.
func HasVariance(ts *m.TimeSeries) bool {
	if ts.Len() < 2 {
		return false
	}
	closes := ts.Closes()
	return floats.Max(closes) != floats.Min(closes)
}

func GetCovarianceMatrix[T ex.Number](data [][]T) *mat.SymDense {
	returnMatrix := ArrToMatrix(data)
	covMatrix := mat.NewSymDense(len(data), nil)
	stat.CovarianceMatrix(covMatrix, returnMatrix, nil)
	return covMatrix
}

// GetCorrelationMatrix builds a correlation matrix from a covariance matrix so diagonal is 1.
// corr_ij = cov_ij / sqrt(cov_ii*cov_jj), NaN where either variance is zero.
func GetCorrelationMatrix(covMatrix *mat.SymDense) *mat.SymDense {
	n := covMatrix.SymmetricDim()
	corrMatrix := mat.NewSymDense(n, nil)

	for i := range n {
		for j := range i + 1 {
			denom := covMatrix.At(i, i) * covMatrix.At(j, j)
			if denom <= 0 {
				corrMatrix.SetSym(i, j, math.NaN())
				continue
			}
			if i == j {
				corrMatrix.SetSym(i, j, 1)
				continue
			}
			corrMatrix.SetSym(i, j, clampUnit(covMatrix.At(i, j)/math.Sqrt(denom)))
		}
	}

	return corrMatrix
}

// ArrToMatrix lays each inner slice out as a column, every column must be the same length.
func ArrToMatrix[T ex.Number](data [][]T) *mat.Dense {
	nSymbols := len(data)
	nObservations := len(data[0])
	res := mat.NewDense(nObservations, nSymbols, nil)
	for j, col := range data {
		for i, row := range col {
			res.Set(i, j, float64(row))
		}
	}
	return res
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return math.Max(-1, math.Min(1, v))
}
