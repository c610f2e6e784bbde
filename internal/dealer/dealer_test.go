package dealer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hcorbin/acpcdealer/internal/gamedef"
	"github.com/stretchr/testify/require"
)

const huLimitOneRound = `
GAMEDEF
limit
numPlayers 2
numRounds 1
numSuits 4
numRanks 13
numHoleCards 2
numBoardCards 5
stack 0 0
blind 1 2
raiseSize 2
firstPlayer 0
maxRaises 3
END GAMEDEF
`

func mustTestDef(t *testing.T) *gamedef.GameDef {
	t.Helper()
	g, err := gamedef.Read(strings.NewReader(huLimitOneRound))
	require.NoError(t, err)
	return g
}

func writeJournal(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "match.tlog")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "")), 0644))
	return path
}

// TestReplayJournalResumesCompletedHands exercises journal replay equivalence:
// a dealer constructed fresh and pointed at a journal from a prior run must
// reconstruct the same hand outcomes and seat rotation the live loop would
// have produced, without re-asking either seat to act.
func TestReplayJournalResumesCompletedHands(t *testing.T) {
	path := writeJournal(t,
		"c 1 1000.000000 1000.100000\n",
		"c 1 1000.200000 1000.300000\n",
	)
	d := New(Config{
		Game:          mustTestDef(t),
		NumHands:      2,
		JournalPath:   path,
		AppendJournal: true,
	})

	resumeHand, err := d.replayJournal()
	require.NoError(t, err)
	require.Equal(t, int64(1), resumeHand)

	// the pot (1 + 2 blinds, both called to 2) splits or goes to the better
	// hand; either way the two seats' deltas must sum to zero
	require.InDelta(t, 0, d.totalValue[0]+d.totalValue[1], 1e-9)
	// seat0 rotates exactly once, as Run's live loop would after one hand
	require.Equal(t, 1, d.seat0)
}

// TestReplayJournalMultipleHandsRotatesSeatsEachTime checks that replaying
// more than one completed hand keeps rotating seats per hand boundary, not
// just once at the end.
func TestReplayJournalMultipleHandsRotatesSeatsEachTime(t *testing.T) {
	path := writeJournal(t,
		"c 1 1000.000000 1000.100000\n",
		"c 1 1000.200000 1000.300000\n",
		"c 2 1001.000000 1001.100000\n",
		"c 2 1001.200000 1001.300000\n",
	)
	d := New(Config{
		Game:          mustTestDef(t),
		NumHands:      3,
		JournalPath:   path,
		AppendJournal: true,
	})

	resumeHand, err := d.replayJournal()
	require.NoError(t, err)
	require.Equal(t, int64(2), resumeHand)
	require.Equal(t, 0, d.seat0, "two hands rotate seat0 back to its starting seat")
}

// TestReplayJournalRejectsInvalidAction ensures strict-mode validation (C5)
// is actually enforced during replay: a journal that records an action no
// longer legal for the acting seat must fail loudly instead of silently
// desyncing the reconstructed state. Here player 0 calls up to maxSpent,
// then the journal claims player 1 folds — illegal, since player 1 (the
// big blind) has nothing left to call.
func TestReplayJournalRejectsInvalidAction(t *testing.T) {
	path := writeJournal(t,
		"c 1 1000.000000 1000.100000\n",
		"f 1 1000.200000 1000.300000\n",
	)
	d := New(Config{
		Game:          mustTestDef(t),
		NumHands:      1,
		JournalPath:   path,
		AppendJournal: true,
	})

	_, err := d.replayJournal()
	require.Error(t, err)
}

// TestReplayJournalNoResumeWhenNotAppending confirms replay is a no-op
// unless the dealer was explicitly configured to resume (-a -T).
func TestReplayJournalNoResumeWhenNotAppending(t *testing.T) {
	path := writeJournal(t, "c 1 1000.000000 1000.100000\n")
	d := New(Config{
		Game:          mustTestDef(t),
		NumHands:      1,
		JournalPath:   path,
		AppendJournal: false,
	})

	resumeHand, err := d.replayJournal()
	require.NoError(t, err)
	require.Equal(t, int64(0), resumeHand)
}

// TestReplayJournalMissingFileIsNotAnError covers the common case of a
// fresh match started with -a -T but no prior journal on disk yet.
func TestReplayJournalMissingFileIsNotAnError(t *testing.T) {
	d := New(Config{
		Game:          mustTestDef(t),
		NumHands:      1,
		JournalPath:   filepath.Join(t.TempDir(), "missing.tlog"),
		AppendJournal: true,
	})

	resumeHand, err := d.replayJournal()
	require.NoError(t, err)
	require.Equal(t, int64(0), resumeHand)
}
