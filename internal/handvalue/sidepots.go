package handvalue

import (
	"sort"

	"github.com/hcorbin/acpcdealer/internal/match"
)

// TerminalValues computes each seat's net chip delta (winnings minus
// amount spent) for a finished hand, including side-pot allocation among
// contenders with unequal stacks. Values always sum to zero.
//
// Grounded on the reference engine's pkg/poker/pot.go CreateSidePots /
// DistributePots, generalised from its table-stakes Player/Pot model to
// operate directly over match.State's Spent/Folded arrays.
func TerminalValues(s *match.State, numSuits, numRanks int) ([]float64, error) {
	n := s.Def.NumPlayers
	values := make([]float64, n)
	for p := 0; p < n; p++ {
		values[p] = -float64(s.Spent[p])
	}

	contenders := make([]int, 0, n)
	for p := 0; p < n; p++ {
		if !s.Folded[p] {
			contenders = append(contenders, p)
		}
	}

	if len(contenders) == 1 {
		values[contenders[0]] += totalPot(s)
		return values, nil
	}

	ranks := make(map[int]Rank, len(contenders))
	for _, p := range contenders {
		r, _, err := Evaluate(s.HoleCards[p], s.BoardCards, numSuits, numRanks)
		if err != nil {
			return nil, err
		}
		ranks[p] = r
	}

	// distinct spent thresholds among contenders, ascending
	thresholds := distinctSortedSpent(s, contenders)

	prevThreshold := int64(0)
	for _, t := range thresholds {
		subPot := float64(0)
		eligible := make([]int, 0, len(contenders))
		for p := 0; p < n; p++ {
			contribution := s.Spent[p]
			if contribution > t {
				contribution = t
			}
			if contribution > prevThreshold {
				subPot += float64(contribution - prevThreshold)
			}
		}
		for _, p := range contenders {
			if s.Spent[p] >= t {
				eligible = append(eligible, p)
			}
		}
		awardSubPot(values, ranks, eligible, subPot)
		prevThreshold = t
	}
	return values, nil
}

func totalPot(s *match.State) float64 {
	var total int64
	for _, sp := range s.Spent {
		total += sp
	}
	return float64(total)
}

func distinctSortedSpent(s *match.State, contenders []int) []int64 {
	seen := map[int64]bool{}
	var out []int64
	for _, p := range contenders {
		if !seen[s.Spent[p]] {
			seen[s.Spent[p]] = true
			out = append(out, s.Spent[p])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func awardSubPot(values []float64, ranks map[int]Rank, eligible []int, subPot float64) {
	if subPot == 0 || len(eligible) == 0 {
		return
	}
	best := eligible[0]
	for _, p := range eligible[1:] {
		if ranks[p].Better(ranks[best]) {
			best = p
		}
	}
	winners := []int{best}
	for _, p := range eligible {
		if p != best && !ranks[best].Better(ranks[p]) && !ranks[p].Better(ranks[best]) {
			winners = append(winners, p)
		}
	}
	share := subPot / float64(len(winners))
	for _, w := range winners {
		values[w] += share
	}
}
