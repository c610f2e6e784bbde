package wire

import (
	"strings"
	"testing"

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

func TestVersionRoundTrip(t *testing.T) {
	v := Version{Major: 1, Minor: 0, Revision: 2}
	parsed, err := ParseVersion(v.String())
	require.NoError(t, err)
	require.Equal(t, v, parsed)
}

func TestVersionCompatible(t *testing.T) {
	ours := Version{1, 0, 0}
	require.True(t, ours.Compatible(Version{1, 0, 5}))
	require.False(t, ours.Compatible(Version{2, 0, 0}))
	require.False(t, ours.Compatible(Version{1, 1, 0}))
}

func TestPrintAndReadMatchStateRoundTrip(t *testing.T) {
	g, err := gamedef.Read(strings.NewReader(huNLDef))
	require.NoError(t, err)
	s, err := match.NewHand(g, 42, rng.New(1))
	require.NoError(t, err)

	line := PrintMatchState(s, 0)
	require.True(t, strings.HasPrefix(line, "MATCHSTATE:0:42:"))

	fields, err := ReadMatchState(line)
	require.NoError(t, err)
	require.Equal(t, int64(42), fields.HandID)
	require.Equal(t, 0, fields.ViewingPlayer)

	again, err := ReadMatchState(line)
	require.NoError(t, err)
	require.True(t, MatchStatesEqual(fields, again))
}

func TestReadMatchStateWithTrailingAction(t *testing.T) {
	line := "MATCHSTATE:1:42::9cTh|:c"
	fields, err := ReadMatchState(line)
	require.NoError(t, err)
	require.Equal(t, "9cTh|", fields.CardsRaw)

	action, ok := TrailingAction(line)
	require.True(t, ok)
	require.Equal(t, "c", action)
}

func TestParseActionRoundTrip(t *testing.T) {
	for _, tok := range []string{"f", "c", "r150"} {
		a, err := ParseAction(tok)
		require.NoError(t, err)
		require.Equal(t, tok, PrintAction(a, gamedef.NoLimit))
	}
	a, err := ParseAction("r")
	require.NoError(t, err)
	require.Equal(t, "r", PrintAction(a, gamedef.Limit))
}
