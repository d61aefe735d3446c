package analysis

import (
	"math/cmplx"

	"github.com/edp1096/powerflow/pkg/network"
)

type Mismatch struct {
	BusID  int
	DeltaP float64
	DeltaQ float64
}

// EvaluateMismatch recomputes the injected power at every bus from
// the given voltages, Scalc = Vi * conj(sum Yij*Vj) over all j, and
// reports the deviation from the setpoints. No tolerance judgment is
// made here.
func EvaluateMismatch(net *network.Network, voltages []complex128) []Mismatch {
	mat := net.Matrix()
	buses := net.Buses()
	n := net.Size()

	mismatches := make([]Mismatch, n)
	for i := range n {
		sum := complex(0, 0)
		for j := range n {
			sum += mat.At(i+1, j+1) * voltages[j]
		}
		s := voltages[i] * cmplx.Conj(sum)

		mismatches[i] = Mismatch{
			BusID:  buses[i].ID,
			DeltaP: real(s) - buses[i].P,
			DeltaQ: -imag(s) - buses[i].Q,
		}
	}

	return mismatches
}
