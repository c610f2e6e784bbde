package gamedef

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const huLimit = `
GAMEDEF
limit
numPlayers 2
numRounds 2
numSuits 2
numRanks 5
numHoleCards 1
numBoardCards 0 1
stack 100 100
blind 1 2
raiseSize 2 4
firstPlayer 1 1
maxRaises 3 3
END GAMEDEF
`

func TestReadValid(t *testing.T) {
	g, err := Read(strings.NewReader(huLimit))
	require.NoError(t, err)
	require.Equal(t, Limit, g.BettingType)
	require.Equal(t, 2, g.NumPlayers)
	require.Equal(t, []int64{100, 100}, g.Stack)
	require.Equal(t, 0, g.SumBoardCards(0))
	require.Equal(t, 1, g.SumBoardCards(1))
}

func TestReadUnknownKeyword(t *testing.T) {
	bad := "GAMEDEF\nbogus 1\nEND GAMEDEF\n"
	_, err := Read(strings.NewReader(bad))
	require.Error(t, err)
}

func TestReadInconsistentLength(t *testing.T) {
	bad := strings.Replace(huLimit, "stack 100 100", "stack 100", 1)
	_, err := Read(strings.NewReader(bad))
	require.Error(t, err)
}
