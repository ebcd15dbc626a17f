package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boristopalov/rlplayground/pkg/environment"
)

func lakeInfo(t *testing.T) environment.Info {
	t.Helper()
	info, err := environment.NewProvider().Describe("FrozenLake")
	require.NoError(t, err)
	return info
}

func TestPolicy(t *testing.T) {
	info := lakeInfo(t)
	q := make([][]float64, info.NumStates)
	for s := range q {
		q[s] = make([]float64, info.NumActions)
	}
	q[0][2] = 0.5 // RIGHT
	q[1][1] = 0.4 // DOWN

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, false).Policy(info, q))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, " →  ↓  ·  · ", lines[0])
	assert.Equal(t, " ·  H  ·  H ", lines[1])
	assert.Equal(t, " H  ·  ·  G ", lines[3])
}

func TestValues(t *testing.T) {
	info := lakeInfo(t)
	q := make([][]float64, info.NumStates)
	for s := range q {
		q[s] = []float64{0, -1.5, 0.25, 0}
	}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, false).Values(info, q))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Repeat("  000.25|", 4), lines[0])
}

func TestQTable(t *testing.T) {
	q, err := QTable(map[string]any{"q_table": [][]float64{{1}}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1}}, q)

	_, err = QTable(map[string]any{})
	assert.Error(t, err)
}

func TestShapeMismatch(t *testing.T) {
	info := lakeInfo(t)
	assert.Error(t, NewPrinter(&bytes.Buffer{}, false).Policy(info, [][]float64{{0, 0, 0, 0}}))
}
