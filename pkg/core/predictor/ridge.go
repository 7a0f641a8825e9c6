package predictor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"valuation_engine/pkg/core/apperr"
	"valuation_engine/pkg/core/calc"
)

// Regressor fits a model from training pairs.
type Regressor interface {
	Fit(x [][]float64, y []float64) (Fitted, error)
}

// Fitted is an immutable trained regressor.
type Fitted interface {
	Predict(x []float64) (float64, error)
	// R2 is the in-sample coefficient of determination.
	R2() float64
}

// Ridge is L2-regularised least squares over standardized features.
type Ridge struct {
	Lambda float64
}

// NewRidge returns a ridge regressor; lambda <= 0 falls back to 1.
func NewRidge(lambda float64) Ridge {
	if lambda <= 0 {
		lambda = 1
	}
	return Ridge{Lambda: lambda}
}

type ridgeModel struct {
	means, scales []float64
	intercept     float64
	beta          []float64
	r2            float64
}

func (r Ridge) Fit(x [][]float64, y []float64) (Fitted, error) {
	const op = "predictor.Ridge"
	n := len(x)
	if n == 0 || n != len(y) {
		return nil, apperr.New(apperr.InsufficientData, op, "need matching samples, got %d rows and %d targets", n, len(y))
	}
	p := len(x[0])
	for i, row := range x {
		if len(row) != p {
			return nil, apperr.New(apperr.InvalidInput, op, "row %d has %d features, expected %d", i, len(row), p)
		}
	}

	m := &ridgeModel{means: make([]float64, p), scales: make([]float64, p)}
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		m.means[j] = calc.Mean(col)
		m.scales[j] = calc.PopStdDev(col)
	}

	design := mat.NewDense(n, p, nil)
	for i, row := range x {
		design.SetRow(i, m.standardize(row))
	}
	yMean := calc.Mean(y)
	centered := make([]float64, n)
	for i, v := range y {
		centered[i] = v - yMean
	}

	// (XᵀX + λI) β = Xᵀy
	var gram mat.Dense
	gram.Mul(design.T(), design)
	for j := 0; j < p; j++ {
		gram.Set(j, j, gram.At(j, j)+r.Lambda)
	}
	var rhs mat.VecDense
	rhs.MulVec(design.T(), mat.NewVecDense(n, centered))

	var beta mat.VecDense
	if err := beta.SolveVec(&gram, &rhs); err != nil {
		return nil, apperr.Wrap(apperr.ComputationError, op, fmt.Errorf("solve normal equations: %w", err))
	}
	m.beta = make([]float64, p)
	for j := 0; j < p; j++ {
		m.beta[j] = beta.AtVec(j)
	}
	m.intercept = yMean

	var ssRes, ssTot float64
	for i, row := range x {
		pred, _ := m.Predict(row)
		ssRes += (y[i] - pred) * (y[i] - pred)
		ssTot += (y[i] - yMean) * (y[i] - yMean)
	}
	switch {
	case ssTot > 0:
		m.r2 = 1 - ssRes/ssTot
	case ssRes < 1e-12:
		m.r2 = 1
	}
	return m, nil
}

func (m *ridgeModel) standardize(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		if m.scales[j] == 0 {
			continue
		}
		out[j] = (v - m.means[j]) / m.scales[j]
	}
	return out
}

func (m *ridgeModel) Predict(x []float64) (float64, error) {
	if len(x) != len(m.beta) {
		return 0, apperr.New(apperr.InvalidInput, "predictor.Ridge", "expected %d features, got %d", len(m.beta), len(x))
	}
	z := m.standardize(x)
	out := m.intercept
	for j, b := range m.beta {
		out += b * z[j]
	}
	return out, nil
}

func (m *ridgeModel) R2() float64 { return m.r2 }
