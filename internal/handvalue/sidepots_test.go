package handvalue

import (
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/hcorbin/acpcdealer/internal/gamedef"
	"github.com/hcorbin/acpcdealer/internal/match"
	"github.com/hcorbin/acpcdealer/internal/rng"
	"github.com/stretchr/testify/require"
)

const huNLDef = `
GAMEDEF
nolimit
numPlayers 2
numRounds 1
numSuits 4
numRanks 13
numHoleCards 2
numBoardCards 5
stack 200 200
blind 1 2
raiseSize 2 2
firstPlayer 1
maxRaises 4
END GAMEDEF
`

func TestTerminalValuesZeroSumOnFold(t *testing.T) {
	g, err := gamedef.Read(strings.NewReader(huNLDef))
	require.NoError(t, err)
	s, err := match.NewHand(g, 1, rng.New(7))
	require.NoError(t, err)
	require.NoError(t, s.DoAction(match.Action{Type: match.Fold}))
	require.True(t, s.Finished)

	values, err := TerminalValues(s, g.NumSuits, g.NumRanks)
	require.NoError(t, err)
	var sum float64
	for _, v := range values {
		sum += v
	}
	if !(sum < 1e-9 && sum > -1e-9) {
		t.Logf("terminal values: %s", spew.Sdump(values))
	}
	require.InDelta(t, 0, sum, 1e-9)
}

func TestTerminalValuesZeroSumAtShowdown(t *testing.T) {
	g, err := gamedef.Read(strings.NewReader(huNLDef))
	require.NoError(t, err)
	s, err := match.NewHand(g, 1, rng.New(7))
	require.NoError(t, err)
	for !s.Finished {
		require.NoError(t, s.DoAction(match.Action{Type: match.Call}))
	}

	values, err := TerminalValues(s, g.NumSuits, g.NumRanks)
	require.NoError(t, err)
	var sum float64
	for _, v := range values {
		sum += v
	}
	require.InDelta(t, 0, sum, 1e-9)
}
