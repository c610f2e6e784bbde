package match

import (
	"strings"
	"testing"

	"github.com/hcorbin/acpcdealer/internal/gamedef"
	"github.com/hcorbin/acpcdealer/internal/rng"
	"github.com/stretchr/testify/require"
)

const huLimitDef = `
GAMEDEF
limit
numPlayers 2
numRounds 2
numSuits 2
numRanks 5
numHoleCards 1
numBoardCards 0 1
stack 0 0
blind 1 2
raiseSize 2 4
firstPlayer 1 1
maxRaises 3 3
END GAMEDEF
`

func mustDef(t *testing.T) *gamedef.GameDef {
	t.Helper()
	g, err := gamedef.Read(strings.NewReader(huLimitDef))
	require.NoError(t, err)
	return g
}

func TestFoldIllegalWhenNothingToCall(t *testing.T) {
	def := mustDef(t)
	s, err := NewHand(def, 1, rng.New(0))
	require.NoError(t, err)
	// seat 0 posted small blind 1, seat 1 posted big blind 2; firstPlayer 1
	// makes the big blind act first, already at maxSpent, so fold is illegal
	require.Equal(t, int64(2), s.MaxSpent)
	require.Equal(t, 1, s.ActingPlayer)
	ok := s.IsValidAction(&Action{Type: Fold}, false)
	require.False(t, ok, "fold must be illegal with nothing to call")

	// once the big blind checks, the small blind is behind maxSpent and may fold
	require.NoError(t, s.DoAction(Action{Type: Call}))
	require.True(t, s.IsValidAction(&Action{Type: Fold}, false), "fold should be legal while behind maxSpent")
}

func TestSingleNonFoldedEndsHandImmediately(t *testing.T) {
	def := mustDef(t)
	s, err := NewHand(def, 1, rng.New(0))
	require.NoError(t, err)
	require.NoError(t, s.DoAction(Action{Type: Fold}))
	require.True(t, s.Finished)
}

func TestMaxRaisesEnforced(t *testing.T) {
	def := mustDef(t)
	s, err := NewHand(def, 1, rng.New(0))
	require.NoError(t, err)
	// the two seats re-raise each other until the round's cap is reached
	for i := 0; i < def.MaxRaises[0]; i++ {
		require.True(t, s.IsValidAction(&Action{Type: Raise}, false))
		require.NoError(t, s.DoAction(Action{Type: Raise}))
		require.False(t, s.Finished)
	}
	require.Equal(t, 0, s.Round)
	require.False(t, s.IsValidAction(&Action{Type: Raise}, false))
	// the seat facing the capped raise can still call
	require.NoError(t, s.DoAction(Action{Type: Call}))
}

const huNLShortStackDef = `
GAMEDEF
nolimit
numPlayers 2
numRounds 3
numSuits 2
numRanks 6
numHoleCards 1
numBoardCards 0 1 1
stack 10 10
blind 1 2
raiseSize 0 0 0
firstPlayer 0 0 0
maxRaises 10 10 10
END GAMEDEF
`

// TestAllInBeforeRiverCascadesToShowdown exercises the headline rollout
// scenario: once every remaining contender is all-in, the state machine
// must keep dealing and opening rounds on its own, never leaving
// ActingPlayer pointed at a seat that can no longer act.
func TestAllInBeforeRiverCascadesToShowdown(t *testing.T) {
	g, err := gamedef.Read(strings.NewReader(huNLShortStackDef))
	require.NoError(t, err)
	s, err := NewHand(g, 1, rng.New(0))
	require.NoError(t, err)
	require.False(t, s.Finished)

	// player 0 shoves for its entire 10-chip stack
	require.NoError(t, s.DoAction(Action{Type: Raise, Size: 10}))
	require.False(t, s.Finished)
	require.Equal(t, 1, s.ActingPlayer)

	// player 1 calls, also going all-in; both seats are now capped with two
	// rounds still left to deal, so the hand must resolve in this one call
	// without ever asking either seat to act again
	require.NoError(t, s.DoAction(Action{Type: Call}))
	require.True(t, s.Finished)
	require.Equal(t, g.NumRounds-1, s.Round)
	require.Len(t, s.BoardCards, g.SumBoardCards(g.NumRounds-1))
}

func TestNoLimitRaiseBoundsClampWithFixBadSize(t *testing.T) {
	nl := strings.Replace(huLimitDef, "limit\n", "nolimit\n", 1)
	g, err := gamedef.Read(strings.NewReader(nl))
	require.NoError(t, err)
	g.Stack = []int64{200, 200}
	s, err := NewHand(g, 1, rng.New(0))
	require.NoError(t, err)
	min, _, ok := s.RaiseIsValid()
	require.True(t, ok)

	a := &Action{Type: Raise, Size: min - 1}
	require.False(t, s.IsValidAction(a, false), "one below min must be illegal without clamping")

	a2 := &Action{Type: Raise, Size: min - 1}
	require.True(t, s.IsValidAction(a2, true), "fixBadSize clamps into range")
	require.Equal(t, min, a2.Size)
}
