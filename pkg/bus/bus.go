package bus

import (
	"fmt"
	"strings"
)

type Type int

const (
	Slack Type = iota // reference bus, fixed magnitude and angle
	PV                // generator bus, regulated magnitude
	PQ                // load bus, specified P and Q
)

func (t Type) String() string {
	switch t {
	case Slack:
		return "SLACK"
	case PV:
		return "PV"
	case PQ:
		return "PQ"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

func ParseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "slack":
		return Slack, nil
	case "pv":
		return PV, nil
	case "pq":
		return PQ, nil
	default:
		return 0, fmt.Errorf("unknown bus type %q", s)
	}
}

// Bus is one node of the network. ID is a display label from the case
// file; the matrix index comes from input order, not from ID.
type Bus struct {
	ID   int
	Type Type
	P    float64 // specified active power injection (pu)
	Q    float64 // specified reactive power injection (pu)
	Vm   float64 // voltage magnitude setpoint (pu)
	Va   float64 // voltage angle setpoint (degree)
}

// Line is a branch between two buses, referenced by bus ID.
// B is the total line charging, split evenly between both ends.
type Line struct {
	From int
	To   int
	R    float64 // series resistance (pu)
	X    float64 // series reactance (pu)
	B    float64 // total shunt susceptance (pu)
}
