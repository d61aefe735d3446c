package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseType(t *testing.T) {
	cases := map[string]Type{
		"slack": Slack,
		"SLACK": Slack,
		"pv":    PV,
		"Pv":    PV,
		"pq":    PQ,
		"PQ":    PQ,
	}
	for input, want := range cases {
		got, err := ParseType(input)
		assert.NoError(t, err)
		assert.Equal(t, want, got, "parsing %q", input)
	}
}

func TestParseType_Unknown(t *testing.T) {
	_, err := ParseType("generator")
	assert.ErrorContains(t, err, "unknown bus type")
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "SLACK", Slack.String())
	assert.Equal(t, "PV", PV.String())
	assert.Equal(t, "PQ", PQ.String())
}
