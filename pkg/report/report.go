package report

import (
	"fmt"
	"io"
	"math/cmplx"
	"strings"

	"github.com/edp1096/powerflow/pkg/analysis"
	"github.com/edp1096/powerflow/pkg/network"
	"github.com/edp1096/powerflow/pkg/util"
)

// Report collects everything a solve produced, ready for rendering.
type Report struct {
	Network    *network.Network
	Voltages   []complex128
	Trace      []analysis.TraceEntry
	State      analysis.State
	Iterations int
	Mismatches []analysis.Mismatch
}

func (r *Report) Render(w io.Writer) {
	if r.Network.Name() != "" {
		fmt.Fprintf(w, "%s\n\n", r.Network.Name())
	}

	WriteMatrix(w, r.Network)
	fmt.Fprintln(w)

	r.writeTrace(w)
	fmt.Fprintln(w)

	r.writeState(w)
	fmt.Fprintln(w)

	r.writeVoltages(w)
	fmt.Fprintln(w)

	r.writeMismatches(w)
}

func (r *Report) String() string {
	var sb strings.Builder
	r.Render(&sb)
	return sb.String()
}

// WriteMatrix prints the bus admittance matrix as a rectangular grid.
func WriteMatrix(w io.Writer, net *network.Network) {
	n := net.Size()
	mat := net.Matrix()

	fmt.Fprintf(w, "Bus admittance matrix (%dx%d):\n", n, n)
	for i := range n {
		for j := range n {
			fmt.Fprintf(w, "%s\t", util.FormatRect(mat.At(i+1, j+1)))
		}
		fmt.Fprintln(w)
	}
}

func (r *Report) writeTrace(w io.Writer) {
	fmt.Fprintln(w, "Iteration trace:")
	for _, e := range r.Trace {
		if e.Skipped {
			fmt.Fprintf(w, "iter %2d bus %d: slack, held at %s\n",
				e.Iteration, e.BusID, util.FormatPolar(e.Old))
			continue
		}
		fmt.Fprintf(w, "iter %2d bus %d: %s -> %s  err=%.6e\n",
			e.Iteration, e.BusID, util.FormatPolar(e.Old), util.FormatPolar(e.New), e.Error)
	}
}

func (r *Report) writeState(w io.Writer) {
	switch r.State {
	case analysis.Converged:
		fmt.Fprintf(w, "Converged at iteration %d\n", r.Iterations)
	default:
		fmt.Fprintf(w, "Not converged after %d iterations\n", r.Iterations)
	}
}

func (r *Report) writeVoltages(w io.Writer) {
	fmt.Fprintln(w, "Final bus voltages:")
	fmt.Fprintln(w, "Bus     |V| (pu)   angle (deg)")
	for i, b := range r.Network.Buses() {
		v := r.Voltages[i]
		fmt.Fprintf(w, "%3d  %10.4f  %12.2f\n",
			b.ID, cmplx.Abs(v), util.Degrees(cmplx.Phase(v)))
	}
}

func (r *Report) writeMismatches(w io.Writer) {
	fmt.Fprintln(w, "Power mismatches:")
	fmt.Fprintln(w, "Bus    deltaP     deltaQ")
	for _, m := range r.Mismatches {
		fmt.Fprintf(w, "%3d  %8.4f   %8.4f\n", m.BusID, m.DeltaP, m.DeltaQ)
	}
}
