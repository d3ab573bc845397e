package train

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Synthetic returns n examples whose targets are products of input pairs,
// which a bilinear layer can represent exactly:
//
//	target_k = 0.5 * tanh(x[k mod d] * x[(k + d/2) mod d])
//
// Inputs are drawn from U(-1, 1) with a generator seeded by seed.
func Synthetic(seed uint64, n, inputDim, outputDim int) []Example {
	//nolint:gosec // Using math/rand for synthetic data (not security-critical)
	rng := rand.New(rand.NewPCG(seed, seed+1))
	half := inputDim / 2

	data := make([]Example, n)
	for i := range data {
		x := mat.NewVecDense(inputDim, nil)
		for j := 0; j < inputDim; j++ {
			x.SetVec(j, 2*rng.Float64()-1)
		}
		y := mat.NewVecDense(outputDim, nil)
		for k := 0; k < outputDim; k++ {
			a := x.AtVec(k % inputDim)
			b := x.AtVec((k + half) % inputDim)
			y.SetVec(k, 0.5*math.Tanh(a*b))
		}
		data[i] = Example{Input: x, Target: y}
	}
	return data
}

// ReadCSV reads examples from comma-separated rows of inputDim input
// columns followed by outputDim target columns. Blank lines and lines
// starting with '#' are skipped.
func ReadCSV(r io.Reader, inputDim, outputDim int) ([]Example, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = inputDim + outputDim
	cr.TrimLeadingSpace = true

	var data []Example
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", row, err)
		}
		vals := make([]float64, len(rec))
		for i, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", row, i+1, err)
			}
			vals[i] = v
		}
		data = append(data, Example{
			Input:  mat.NewVecDense(inputDim, vals[:inputDim]),
			Target: mat.NewVecDense(outputDim, vals[inputDim:]),
		})
	}
	if len(data) == 0 {
		return nil, ErrEmptyDataset
	}
	return data, nil
}

// LoadCSV reads examples from a CSV file; see ReadCSV.
func LoadCSV(path string, inputDim, outputDim int) ([]Example, error) {
	//nolint:gosec // G304: Data path comes from user input
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f, inputDim, outputDim)
}
