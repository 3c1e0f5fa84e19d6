package codice

import (
	"gonum.org/v1/gonum/mat"
)

// Matrix is a row-major numeric matrix. Every row has the same length.
type Matrix [][]float64

// Dims returns the row and column counts. The column count is taken from
// the first row.
func (m Matrix) Dims() (rows, cols int) {
	if len(m) == 0 {
		return 0, 0
	}
	return len(m), len(m[0])
}

// Dense copies m into a gonum matrix for read-only analysis. It returns nil
// for a matrix with no rows or no columns, which gonum cannot represent.
func (m Matrix) Dense() *mat.Dense {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil
	}
	d := mat.NewDense(r, c, nil)
	for i, row := range m {
		d.SetRow(i, row)
	}
	return d
}

// CoerceFunc is told about every cell of a numeric column that was filled
// with 0 because the row held no number there.
type CoerceFunc func(row int, field string, value any)

type extractOptions struct {
	onCoerce CoerceFunc
}

// ExtractOption configures ExtractNumericMatrix.
type ExtractOption func(*extractOptions)

// WithCoerceHook installs fn to observe zero-filled cells.
func WithCoerceHook(fn CoerceFunc) ExtractOption {
	return func(o *extractOptions) {
		o.onCoerce = fn
	}
}

// ExtractNumericMatrix builds the numeric matrix of a canonical dataset.
//
// Columns are the fields holding a number in the first row, in ascending
// name order. A later row without a number in one of these columns gets 0
// there, so every row vector has the same length.
func ExtractNumericMatrix(rows []Record, opts ...ExtractOption) (Matrix, []string, error) {
	if len(rows) == 0 {
		return nil, nil, ErrEmptyDataset
	}
	var o extractOptions
	for _, opt := range opts {
		opt(&o)
	}

	first := rows[0]
	var columns []string
	for _, key := range first.Keys() {
		if _, ok := first[key].(float64); ok {
			columns = append(columns, key)
		}
	}

	m := make(Matrix, len(rows))
	for i, row := range rows {
		vec := make([]float64, len(columns))
		for j, key := range columns {
			v, ok := row[key].(float64)
			if !ok {
				if o.onCoerce != nil {
					o.onCoerce(i, key, row[key])
				}
				v = 0
			}
			vec[j] = v
		}
		m[i] = vec
	}
	return m, columns, nil
}

// Transpose returns a new matrix with rows and columns swapped.
func Transpose(m Matrix) Matrix {
	rows, cols := m.Dims()
	out := make(Matrix, cols)
	for c := 0; c < cols; c++ {
		out[c] = make([]float64, rows)
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[c][r] = m[r][c]
		}
	}
	return out
}

// MatMul multiplies a by b with a plain triple loop. Each product sum is
// accumulated in increasing index order so the rounding of every entry is
// the same on every platform. No BLAS or SIMD kernel is involved.
func MatMul(a, b Matrix) (Matrix, error) {
	rowsA, colsA := a.Dims()
	rowsB, colsB := b.Dims()
	if colsA != rowsB {
		return nil, &DimensionMismatchError{Op: "matmul", Expected: colsA, Actual: rowsB}
	}
	if err := checkRectangular("matmul", a, colsA); err != nil {
		return nil, err
	}
	if err := checkRectangular("matmul", b, colsB); err != nil {
		return nil, err
	}

	out := make(Matrix, rowsA)
	for r := 0; r < rowsA; r++ {
		out[r] = make([]float64, colsB)
		for c := 0; c < colsB; c++ {
			var sum float64
			for k := 0; k < colsA; k++ {
				// the conversion keeps the compiler from fusing into an FMA
				sum += float64(a[r][k] * b[k][c])
			}
			out[r][c] = sum
		}
	}
	return out, nil
}

func checkRectangular(op string, m Matrix, cols int) error {
	for _, row := range m {
		if len(row) != cols {
			return &DimensionMismatchError{Op: op, Expected: cols, Actual: len(row)}
		}
	}
	return nil
}
