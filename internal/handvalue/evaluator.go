// Package handvalue computes terminal per-seat chip deltas for a finished
// hand (C6), including side-pot allocation among all-in contenders.
//
// Grounded on the reference engine's pkg/poker/hand_evaluator.go (which
// card-string conversion and chehsunliu/poker wiring is adapted from,
// rank/suit mapped from this repo's integer Card encoding instead of the
// reference's string Suit/Value types) and pkg/poker/pot.go (side-pot
// construction and distribution).
package handvalue

import (
	"fmt"

	chehsunliu "github.com/chehsunliu/poker"
	"github.com/hcorbin/acpcdealer/internal/carddeck"
)

var rankChars = "23456789TJQKA"
var suitChars = [4]byte{'c', 'd', 'h', 's'}

// toChehsunliu converts an integer card (per this repo's numSuits-based
// encoding) into the chehsunliu/poker string-card representation. Only
// standard 4-suit, 13-rank decks are supported by the evaluator, matching
// the scope of the reference hand evaluator.
func toChehsunliu(c carddeck.Card, numSuits, numRanks int) (chehsunliu.Card, error) {
	rank := c.Rank(numSuits)
	suit := c.Suit(numSuits)
	if numSuits != 4 || numRanks != 13 {
		return chehsunliu.Card(0), fmt.Errorf("handvalue: evaluator requires a standard 52-card deck, got %d suits x %d ranks", numSuits, numRanks)
	}
	if rank < 0 || rank >= len(rankChars) || suit < 0 || suit >= len(suitChars) {
		return chehsunliu.Card(0), fmt.Errorf("handvalue: card %d out of range", c)
	}
	s := string([]byte{rankChars[rank], suitChars[suit]})
	return chehsunliu.NewCard(s), nil
}

// Rank is lower-is-better, matching chehsunliu/poker's convention directly
// (a straight flush is close to 1, high card close to 7462).
type Rank int32

// Evaluate returns the rank of the best 5-card hand formed from hole and
// board cards combined; chehsunliu/poker evaluates 5, 6 or 7 cards in total.
func Evaluate(hole, board []carddeck.Card, numSuits, numRanks int) (Rank, string, error) {
	all := make([]chehsunliu.Card, 0, len(hole)+len(board))
	for _, c := range hole {
		cc, err := toChehsunliu(c, numSuits, numRanks)
		if err != nil {
			return 0, "", err
		}
		all = append(all, cc)
	}
	for _, c := range board {
		cc, err := toChehsunliu(c, numSuits, numRanks)
		if err != nil {
			return 0, "", err
		}
		all = append(all, cc)
	}
	r := chehsunliu.Evaluate(all)
	return Rank(r), chehsunliu.RankString(r), nil
}

// Better reports whether a beats b (lower chehsunliu rank value wins).
func (a Rank) Better(b Rank) bool { return a < b }
