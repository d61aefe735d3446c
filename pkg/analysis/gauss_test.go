package analysis

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/powerflow/pkg/bus"
	"github.com/edp1096/powerflow/pkg/network"
)

func twoBusNetwork(t *testing.T, p, q float64) *network.Network {
	t.Helper()

	net := network.New("two bus")
	require.NoError(t, net.AddBus(bus.Bus{ID: 1, Type: bus.Slack, Vm: 1.0, Va: 0}))
	require.NoError(t, net.AddBus(bus.Bus{ID: 2, Type: bus.PQ, P: p, Q: q, Vm: 1.0, Va: 0}))
	net.AddLine(bus.Line{From: 1, To: 2, R: 0.01, X: 0.05, B: 0})
	t.Cleanup(net.Destroy)
	return net
}

func threeBusNetwork(t *testing.T) *network.Network {
	t.Helper()

	net := network.New("three bus")
	require.NoError(t, net.AddBus(bus.Bus{ID: 1, Type: bus.Slack, Vm: 1.0, Va: 0}))
	require.NoError(t, net.AddBus(bus.Bus{ID: 2, Type: bus.PV, P: 0.5, Vm: 1.0, Va: 0}))
	require.NoError(t, net.AddBus(bus.Bus{ID: 3, Type: bus.PQ, P: -0.8, Q: -0.4, Vm: 1.0, Va: 0}))
	net.AddLine(bus.Line{From: 1, To: 2, R: 0.02, X: 0.06, B: 0})
	net.AddLine(bus.Line{From: 2, To: 3, R: 0.03, X: 0.08, B: 0})
	t.Cleanup(net.Destroy)
	return net
}

func TestTwoBusConverges(t *testing.T) {
	net := twoBusNetwork(t, -0.2, -0.1)

	gs := NewGaussSeidel()
	require.NoError(t, gs.Setup(net))
	require.NoError(t, gs.Execute())

	assert.Equal(t, Converged, gs.State())
	assert.LessOrEqual(t, gs.Iterations(), gs.MaxIterations())

	vm := cmplx.Abs(gs.Voltages()[1])
	assert.Greater(t, vm, 0.0)
	assert.Less(t, vm, 1.0, "load bus magnitude should sit below the slack setpoint")
}

func TestThreeBusScenario(t *testing.T) {
	net := threeBusNetwork(t)

	gs := NewGaussSeidel()
	require.NoError(t, gs.Setup(net))
	require.NoError(t, gs.Execute())

	assert.Equal(t, Converged, gs.State())
	assert.Less(t, gs.Iterations(), 50)

	assert.InDelta(t, 1.0, cmplx.Abs(gs.Voltages()[1]), 1e-9, "PV bus magnitude stays at setpoint")
	assert.Less(t, cmplx.Abs(gs.Voltages()[2]), 1.0, "loaded PQ bus drops below 1.0 pu")
}

func TestPVMagnitudeInvariantEveryIteration(t *testing.T) {
	net := threeBusNetwork(t)

	gs := NewGaussSeidel()
	require.NoError(t, gs.Setup(net))
	require.NoError(t, gs.Execute())

	seen := 0
	for _, e := range gs.Trace() {
		if e.BusID != 2 {
			continue
		}
		seen++
		assert.False(t, e.Skipped)
		assert.InDelta(t, 1.0, cmplx.Abs(e.New), 1e-12, "iteration %d", e.Iteration)
	}
	assert.Greater(t, seen, 0)
}

func TestSlackNeverChanges(t *testing.T) {
	net := threeBusNetwork(t)

	gs := NewGaussSeidel()
	require.NoError(t, gs.Setup(net))
	initial := gs.Voltages()[0]
	require.NoError(t, gs.Execute())

	assert.Equal(t, initial, gs.Voltages()[0])
	for _, e := range gs.Trace() {
		if e.BusID != 1 {
			continue
		}
		assert.True(t, e.Skipped, "iteration %d", e.Iteration)
		assert.Equal(t, e.Old, e.New)
	}
}

func TestExhaustedWithoutConvergence(t *testing.T) {
	net := threeBusNetwork(t)

	gs := NewGaussSeidel()
	gs.SetMaxIterations(1)
	require.NoError(t, gs.Setup(net))
	require.NoError(t, gs.Execute(), "hitting the cap is a state, not an error")

	assert.Equal(t, Exhausted, gs.State())
	assert.Equal(t, 1, gs.Iterations())
	assert.Len(t, gs.Voltages(), 3, "best-available voltages still returned")
}

func TestStandardRule(t *testing.T) {
	net := twoBusNetwork(t, -0.2, 0)

	gs := NewGaussSeidel()
	gs.SetUpdateRule(UpdateStandard)
	require.NoError(t, gs.Setup(net))
	require.NoError(t, gs.Execute())

	assert.Equal(t, Converged, gs.State())

	vm := cmplx.Abs(gs.Voltages()[1])
	assert.Greater(t, vm, 0.95)
	assert.Less(t, vm, 1.0)

	for _, m := range EvaluateMismatch(net, gs.Voltages()) {
		if m.BusID == 1 {
			continue // slack absorbs the system imbalance
		}
		assert.InDelta(t, 0.0, m.DeltaP, 1e-3)
		assert.InDelta(t, 0.0, m.DeltaQ, 1e-3)
	}
}

func TestSetupRejectsIsolatedBus(t *testing.T) {
	net := network.New("isolated bus")
	require.NoError(t, net.AddBus(bus.Bus{ID: 1, Type: bus.Slack, Vm: 1.0}))
	require.NoError(t, net.AddBus(bus.Bus{ID: 2, Type: bus.PQ, P: -0.1, Vm: 1.0}))
	require.NoError(t, net.AddBus(bus.Bus{ID: 3, Type: bus.PQ, P: -0.1, Vm: 1.0}))
	net.AddLine(bus.Line{From: 1, To: 2, R: 0.01, X: 0.05})
	t.Cleanup(net.Destroy)

	gs := NewGaussSeidel()
	assert.ErrorIs(t, gs.Setup(net), ErrDegenerate)
}

func TestVoltagesReturnsCopy(t *testing.T) {
	net := twoBusNetwork(t, -0.2, -0.1)

	gs := NewGaussSeidel()
	require.NoError(t, gs.Setup(net))
	require.NoError(t, gs.Execute())

	v := gs.Voltages()
	v[1] = complex(99, 99)

	assert.NotEqual(t, complex(99, 99), gs.Voltages()[1])
}

func TestTraceReturnsCopy(t *testing.T) {
	net := twoBusNetwork(t, -0.2, -0.1)

	gs := NewGaussSeidel()
	require.NoError(t, gs.Setup(net))
	require.NoError(t, gs.Execute())

	tr := gs.Trace()
	require.NotEmpty(t, tr)
	tr[0].BusID = 99

	assert.NotEqual(t, 99, gs.Trace()[0].BusID)
}

func TestParseUpdateRule(t *testing.T) {
	rule, err := ParseUpdateRule("direct")
	require.NoError(t, err)
	assert.Equal(t, UpdateDirect, rule)

	rule, err = ParseUpdateRule("standard")
	require.NoError(t, err)
	assert.Equal(t, UpdateStandard, rule)

	_, err = ParseUpdateRule("jacobi")
	assert.Error(t, err)
}
