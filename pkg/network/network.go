package network

import (
	"errors"
	"fmt"

	"github.com/edp1096/powerflow/pkg/bus"
	"github.com/edp1096/powerflow/pkg/matrix"
	"github.com/edp1096/powerflow/pkg/util"
)

var (
	ErrNoSlackBus    = errors.New("no slack bus")
	ErrMultipleSlack = errors.New("more than one slack bus")
	ErrDuplicateBus  = errors.New("duplicate bus identifier")
	ErrUnknownBus    = errors.New("line references unknown bus")
	ErrZeroImpedance = errors.New("line has zero series impedance")
)

// Network owns the bus and line records and the admittance matrix
// built from them. Buses are indexed by input order; the ID is only a
// label.
type Network struct {
	name      string
	buses     []bus.Bus
	lines     []bus.Line
	indexByID map[int]int
	matrix    *matrix.NetworkMatrix
}

func New(name string) *Network {
	return &Network{
		name:      name,
		indexByID: make(map[int]int),
	}
}

func (n *Network) AddBus(b bus.Bus) error {
	if b.ID <= 0 {
		return fmt.Errorf("bus identifier %d must be positive", b.ID)
	}
	if _, exists := n.indexByID[b.ID]; exists {
		return fmt.Errorf("bus %d: %w", b.ID, ErrDuplicateBus)
	}

	n.indexByID[b.ID] = len(n.buses)
	n.buses = append(n.buses, b)
	return nil
}

func (n *Network) AddLine(l bus.Line) {
	n.lines = append(n.lines, l)
}

// Check validates the model before the matrix build: exactly one
// slack bus, and every line endpoint must name a registered bus.
func (n *Network) Check() error {
	slacks := 0
	for _, b := range n.buses {
		if b.Type == bus.Slack {
			slacks++
		}
	}
	if slacks == 0 {
		return ErrNoSlackBus
	}
	if slacks > 1 {
		return fmt.Errorf("%w: %d found", ErrMultipleSlack, slacks)
	}

	for _, l := range n.lines {
		if _, ok := n.indexByID[l.From]; !ok {
			return fmt.Errorf("line %d-%d: %w %d", l.From, l.To, ErrUnknownBus, l.From)
		}
		if _, ok := n.indexByID[l.To]; !ok {
			return fmt.Errorf("line %d-%d: %w %d", l.From, l.To, ErrUnknownBus, l.To)
		}
	}
	return nil
}

// BuildMatrix stamps every line into the bus admittance matrix.
// Series admittance y = 1/(R+jX) and half the line charging j(B/2)
// accumulate on the diagonals; -y accumulates on both off-diagonal
// entries, so parallel lines simply add up.
func (n *Network) BuildMatrix() error {
	if err := n.Check(); err != nil {
		return err
	}

	n.matrix = matrix.NewMatrix(len(n.buses))
	if n.matrix == nil {
		return fmt.Errorf("creating %dx%d admittance matrix failed", len(n.buses), len(n.buses))
	}
	n.matrix.SetupElements()

	for _, l := range n.lines {
		if l.R == 0 && l.X == 0 {
			return fmt.Errorf("line %d-%d: %w", l.From, l.To, ErrZeroImpedance)
		}

		y := 1 / complex(l.R, l.X)
		self := y + complex(0, l.B/2)

		i := n.indexByID[l.From] + 1
		j := n.indexByID[l.To] + 1

		n.matrix.AddComplexElement(i, i, real(self), imag(self))
		n.matrix.AddComplexElement(j, j, real(self), imag(self))
		n.matrix.AddComplexElement(i, j, -real(y), -imag(y))
		n.matrix.AddComplexElement(j, i, -real(y), -imag(y))
	}

	return nil
}

// InitialVoltages returns the flat-start vector from the bus
// magnitude and angle setpoints.
func (n *Network) InitialVoltages() []complex128 {
	v := make([]complex128, len(n.buses))
	for i, b := range n.buses {
		v[i] = util.Polar(b.Vm, b.Va)
	}
	return v
}

func (n *Network) Matrix() *matrix.NetworkMatrix {
	return n.matrix
}

func (n *Network) Buses() []bus.Bus {
	return n.buses
}

func (n *Network) Lines() []bus.Line {
	return n.lines
}

func (n *Network) Size() int {
	return len(n.buses)
}

func (n *Network) Name() string {
	return n.name
}

func (n *Network) Destroy() {
	if n.matrix != nil {
		n.matrix.Destroy()
	}
}
