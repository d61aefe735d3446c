package analysis

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/edp1096/powerflow/pkg/bus"
	"github.com/edp1096/powerflow/pkg/network"
)

type UpdateRule int

const (
	// UpdateDirect divides the specified power by conj(sum Yij*Vj)
	// over j != i. This is the historical form; its fixed point is
	// not the conventional load-flow solution.
	UpdateDirect UpdateRule = iota
	// UpdateStandard is the conventional Gauss-Seidel update,
	// V = (S/conj(Vold) - sum Yij*Vj) / Yii.
	UpdateStandard
)

func ParseUpdateRule(s string) (UpdateRule, error) {
	switch s {
	case "direct", "":
		return UpdateDirect, nil
	case "standard":
		return UpdateStandard, nil
	default:
		return 0, fmt.Errorf("unknown update rule %q", s)
	}
}

type State int

const (
	Running State = iota
	Converged
	Exhausted // iteration cap reached without convergence
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Converged:
		return "converged"
	case Exhausted:
		return "not converged"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var ErrDegenerate = errors.New("degenerate network")

// TraceEntry records one bus visit of one sweep.
type TraceEntry struct {
	Iteration int
	BusID     int
	Old       complex128
	New       complex128
	Error     float64
	Skipped   bool // slack bus, held fixed
}

// GaussSeidel sweeps the bus voltages in input order. Updates are
// visible within the sweep: buses already visited contribute their
// new value to the buses after them.
type GaussSeidel struct {
	BaseAnalysis
	rule       UpdateRule
	voltages   []complex128
	trace      []TraceEntry
	state      State
	iterations int
}

func NewGaussSeidel() *GaussSeidel {
	return &GaussSeidel{
		BaseAnalysis: *NewBaseAnalysis(),
		state:        Running,
	}
}

func (gs *GaussSeidel) SetUpdateRule(rule UpdateRule) {
	gs.rule = rule
}

func (gs *GaussSeidel) Setup(net *network.Network) error {
	if net.Matrix() == nil {
		if err := net.BuildMatrix(); err != nil {
			return err
		}
	}

	mat := net.Matrix()
	for i := 1; i <= net.Size(); i++ {
		if mat.Diag(i) == 0 {
			return fmt.Errorf("bus %d has zero self admittance: %w", net.Buses()[i-1].ID, ErrDegenerate)
		}
	}

	gs.Network = net
	gs.voltages = net.InitialVoltages()
	gs.trace = gs.trace[:0]
	gs.state = Running
	gs.iterations = 0
	return nil
}

// Execute runs sweeps until the largest per-bus voltage change drops
// below tolerance or the iteration cap is hit. Hitting the cap is a
// reported state, not an error; the best-available voltages remain.
func (gs *GaussSeidel) Execute() error {
	net := gs.Network
	mat := net.Matrix()
	buses := net.Buses()
	n := net.Size()

	for iter := 1; iter <= gs.convergence.maxIter; iter++ {
		gs.iterations = iter
		maxErr := 0.0

		for i := range n {
			b := buses[i]
			old := gs.voltages[i]

			if b.Type == bus.Slack {
				gs.trace = append(gs.trace, TraceEntry{
					Iteration: iter,
					BusID:     b.ID,
					Old:       old,
					New:       old,
					Skipped:   true,
				})
				continue
			}

			sum := complex(0, 0)
			for j := range n {
				if j == i {
					continue
				}
				sum += mat.At(i+1, j+1) * gs.voltages[j]
			}

			s := complex(b.P, -b.Q)

			var vnew complex128
			var err error
			switch gs.rule {
			case UpdateStandard:
				vnew, err = standardUpdate(s, old, sum, mat.Diag(i+1))
			default:
				vnew, err = directUpdate(s, sum)
			}
			if err != nil {
				return fmt.Errorf("iteration %d bus %d: %w", iter, b.ID, err)
			}

			if b.Type == bus.PV {
				// Magnitude stays regulated, only the angle floats.
				vnew = cmplx.Rect(b.Vm, cmplx.Phase(vnew))
			}

			dv := cmplx.Abs(vnew - old)
			gs.voltages[i] = vnew
			gs.trace = append(gs.trace, TraceEntry{
				Iteration: iter,
				BusID:     b.ID,
				Old:       old,
				New:       vnew,
				Error:     dv,
			})

			if dv > maxErr {
				maxErr = dv
			}
		}

		if maxErr < gs.convergence.tolerance {
			gs.state = Converged
			return nil
		}
	}

	gs.state = Exhausted
	return nil
}

func directUpdate(s, sum complex128) (complex128, error) {
	den := cmplx.Conj(sum)
	if den == 0 {
		return 0, fmt.Errorf("%w: zero voltage-weighted admittance sum", ErrDegenerate)
	}
	return s / den, nil
}

func standardUpdate(s, old, sum, yii complex128) (complex128, error) {
	if old == 0 {
		return 0, fmt.Errorf("%w: zero previous voltage", ErrDegenerate)
	}
	if yii == 0 {
		return 0, fmt.Errorf("%w: zero self admittance", ErrDegenerate)
	}
	return (s/cmplx.Conj(old) - sum) / yii, nil
}

// Voltages returns a copy of the voltage vector; the solver keeps
// exclusive ownership of its own state.
func (gs *GaussSeidel) Voltages() []complex128 {
	out := make([]complex128, len(gs.voltages))
	copy(out, gs.voltages)
	return out
}

// Trace returns a copy of the per-bus iteration records.
func (gs *GaussSeidel) Trace() []TraceEntry {
	out := make([]TraceEntry, len(gs.trace))
	copy(out, gs.trace)
	return out
}

func (gs *GaussSeidel) State() State {
	return gs.state
}

func (gs *GaussSeidel) Iterations() int {
	return gs.iterations
}
