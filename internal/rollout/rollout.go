// Package rollout implements the offline expected-value enumeration (C7):
// given a completed hand that reached an all-in before the river, it
// enumerates every unseen board completion and averages the per-player
// terminal value over all of them.
//
// Grounded on original_source/ACPCServer/all_in_expectation.c: the
// descending-index combination counter (getUsedCards + the idx[] counter
// loop) is translated line-for-line from C into Go, and the worker pool
// sizing is new: the reference tool is single-threaded, this one fans
// the same enumeration out across goroutines sized from available memory
// (github.com/pbnjay/memory), synchronised with golang.org/x/sync/errgroup.
package rollout

import (
	"context"
	"fmt"
	"runtime"

	"github.com/pbnjay/memory"
	"golang.org/x/sync/errgroup"

	"github.com/hcorbin/acpcdealer/internal/carddeck"
	"github.com/hcorbin/acpcdealer/internal/gamedef"
	"github.com/hcorbin/acpcdealer/internal/handvalue"
	"github.com/hcorbin/acpcdealer/internal/match"
)

// NumCombinations returns C(d, k), the number of distinct boards the
// enumeration will visit.
func NumCombinations(d, k int) int64 {
	if k < 0 || k > d {
		return 0
	}
	num := int64(1)
	for i := 0; i < k; i++ {
		num = num * int64(d-i) / int64(i+1)
	}
	return num
}

// combination is one descending-index cursor per the reference algorithm:
// idx[i] ranges over deck positions, strictly increasing left to right,
// each state visited exactly once.
type combination struct {
	idx []int
}

func firstCombination(deckSize, k int) combination {
	idx := make([]int, k)
	for i := range idx {
		idx[i] = deckSize - k + i
	}
	return combination{idx: idx}
}

// next advances to the following combination in descending-index order,
// returning false once enumeration is exhausted. This mirrors
// all_in_expectation.c's inner while(1) loop body exactly.
func (c *combination) next() bool {
	i := 0
	for i < len(c.idx) && c.idx[i] == i {
		i++
	}
	if i == len(c.idx) {
		return false
	}
	c.idx[i]--
	for i > 0 {
		i--
		c.idx[i] = c.idx[i+1] - 1
	}
	return true
}

// advance moves the cursor forward by n combinations (used to give each
// worker a disjoint, contiguous slice of the enumeration without needing
// shared state).
func (c *combination) advance(n int) bool {
	for i := 0; i < n; i++ {
		if !c.next() {
			return false
		}
	}
	return true
}

func (c combination) boardCards(deck []carddeck.Card) []carddeck.Card {
	out := make([]carddeck.Card, len(c.idx))
	for i, ix := range c.idx {
		out[i] = deck[ix]
	}
	return out
}

// Evaluate runs the full expected-value rollout for a hand state, keeping
// the board cards dealt through lastActedRound and averaging terminal
// values over every combination of unseen cards for the rest of the board
// (s.Round is not consulted). workers <= 0
// selects a pool size from runtime.NumCPU() capped by available memory.
func Evaluate(ctx context.Context, s *match.State, lastActedRound int, workers int) ([]float64, int64, error) {
	def := s.Def
	numCardsTotal := def.NumCardsTotal()

	used := carddeck.UsedSet(numCardsTotal, flattenHole(s.HoleCards), s.BoardCards[:def.SumBoardCards(lastActedRound)])
	deck := carddeck.Unused(numCardsTotal, used)

	bcStart := def.SumBoardCards(lastActedRound)
	k := def.SumBoardCards(def.NumRounds-1) - bcStart
	if k <= 0 {
		return nil, 0, fmt.Errorf("rollout: no board cards remain to roll out")
	}

	total := NumCombinations(len(deck), k)
	if total <= 0 {
		return nil, 0, fmt.Errorf("rollout: invalid combination count (deck=%d k=%d)", len(deck), k)
	}

	if workers <= 0 {
		workers = workerCount()
	}
	if int64(workers) > total {
		workers = int(total)
	}
	if workers < 1 {
		workers = 1
	}

	chunks := splitEvenly(total, workers)
	results := make([][]float64, workers)

	g, gctx := errgroup.WithContext(ctx)
	start := int64(0)
	for w := 0; w < workers; w++ {
		w := w
		count := chunks[w]
		skip := start
		start += count
		g.Go(func() error {
			return rolloutWorker(gctx, s, bcStart, k, deck, skip, count, def, &results[w])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	values := make([]float64, def.NumPlayers)
	for _, r := range results {
		for p, v := range r {
			values[p] += v
		}
	}
	for p := range values {
		values[p] /= float64(total)
	}
	return values, total, nil
}

func rolloutWorker(ctx context.Context, s *match.State, bcStart, k int, deck []carddeck.Card, skip, count int64, def *gamedef.GameDef, out *[]float64) error {
	sums := make([]float64, def.NumPlayers)
	cur := firstCombination(len(deck), k)
	if skip > 0 {
		if !cur.advance(int(skip)) {
			*out = sums
			return nil
		}
	}
	board := append([]carddeck.Card{}, s.BoardCards[:bcStart]...)
	for i := int64(0); i < count; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		full := append(append([]carddeck.Card{}, board...), cur.boardCards(deck)...)
		values, err := handvalue.TerminalValues(stateWithBoard(s, full), def.NumSuits, def.NumRanks)
		if err != nil {
			return err
		}
		for p, v := range values {
			sums[p] += v
		}
		if i+1 < count {
			if !cur.next() {
				break
			}
		}
	}
	*out = sums
	return nil
}

// stateWithBoard returns a shallow copy of s with BoardCards replaced;
// used only to feed the evaluator, never mutated further.
func stateWithBoard(s *match.State, board []carddeck.Card) *match.State {
	clone := *s
	clone.BoardCards = board
	return &clone
}

func flattenHole(hole [][]carddeck.Card) []carddeck.Card {
	var out []carddeck.Card
	for _, h := range hole {
		out = append(out, h...)
	}
	return out
}

func splitEvenly(total int64, workers int) []int64 {
	out := make([]int64, workers)
	base := total / int64(workers)
	rem := total % int64(workers)
	for i := range out {
		out[i] = base
		if int64(i) < rem {
			out[i]++
		}
	}
	return out
}

func workerCount() int {
	n := runtime.NumCPU()
	// Leave headroom on memory-constrained hosts: rollouts hold one deck
	// copy plus accumulator per worker, so don't spin up more workers than
	// a conservative per-worker footprint can justify.
	const perWorkerBudget = 16 << 20 // 16MiB
	if avail := memory.FreeMemory(); avail > 0 {
		if byMem := int(avail / perWorkerBudget); byMem < n {
			n = byMem
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}
