package analysis

import (
	"github.com/edp1096/powerflow/internal/consts"
	"github.com/edp1096/powerflow/pkg/network"
)

type Analysis interface {
	Setup(net *network.Network) error
	Execute() error
}

type BaseAnalysis struct {
	Network     *network.Network
	convergence struct {
		maxIter   int
		tolerance float64
	}
}

func NewBaseAnalysis() *BaseAnalysis {
	ba := &BaseAnalysis{}

	ba.convergence.maxIter = consts.MAXITER
	ba.convergence.tolerance = consts.TOLERANCE

	return ba
}

func (a *BaseAnalysis) SetMaxIterations(n int) {
	if n > 0 {
		a.convergence.maxIter = n
	}
}

func (a *BaseAnalysis) SetTolerance(eps float64) {
	if eps > 0 {
		a.convergence.tolerance = eps
	}
}

func (a *BaseAnalysis) MaxIterations() int {
	return a.convergence.maxIter
}

func (a *BaseAnalysis) Tolerance() float64 {
	return a.convergence.tolerance
}
