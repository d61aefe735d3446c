package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"
)

// NetworkMatrix holds the complex bus admittance matrix.
// Indices are 1-based to match the underlying sparse storage.
type NetworkMatrix struct {
	Size   int
	matrix *sparse.Matrix
	config *sparse.Configuration
}

func NewMatrix(size int) *NetworkMatrix {
	config := &sparse.Configuration{
		Real:                    true,
		Complex:                 true,
		SeparatedComplexVectors: false,
		Expandable:              true,
		Translate:               false,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		fmt.Printf("Error creating sparse matrix: %v\n", err)
		return nil
	}

	return &NetworkMatrix{
		Size:   size,
		matrix: mat,
		config: config,
	}
}

func (m *NetworkMatrix) SetupElements() {
	for i := 1; i <= m.Size; i++ {
		for j := 1; j <= m.Size; j++ {
			m.matrix.GetElement(int64(i), int64(j))
		}
	}
}

func (m *NetworkMatrix) AddComplexElement(i, j int, real, imag float64) {
	if i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		fmt.Printf("Warning: Matrix index out of bounds (i=%d, j=%d, size=%d)\n", i, j, m.Size)
		return
	}

	element := m.matrix.GetElement(int64(i), int64(j))
	element.Real += real
	element.Imag += imag
}

func (m *NetworkMatrix) At(i, j int) complex128 {
	if i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		fmt.Printf("Warning: Matrix index out of bounds (i=%d, j=%d, size=%d)\n", i, j, m.Size)
		return 0
	}

	element := m.matrix.GetElement(int64(i), int64(j))
	return complex(element.Real, element.Imag)
}

func (m *NetworkMatrix) Diag(i int) complex128 {
	return m.At(i, i)
}

func (m *NetworkMatrix) Clear() {
	m.matrix.Clear()
}

func (m *NetworkMatrix) Destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
	}
}
