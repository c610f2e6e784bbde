// Package carddeck implements the integer card model and deterministic
// shuffle used by the dealer.
//
// Grounded on the reference engine's pkg/poker/deck.go (Deck/Card/Shuffle),
// reworked from its string-typed Suit/Value model to the spec's compact
// integer encoding (card = rank*numSuits + suit) and from math/rand to the
// dealer's own MT19937 (internal/rng), which is what makes a shuffle
// reproducible across independent implementations.
package carddeck

import (
	"fmt"

	"github.com/hcorbin/acpcdealer/internal/gamedef"
	"github.com/hcorbin/acpcdealer/internal/rng"
)

var rankChars = "23456789TJQKA"
var suitChars = "cdhs"

// Card is an integer in [0, numSuits*numRanks). rank = c/numSuits, suit = c%numSuits.
type Card int

// Rank returns the card's rank index (0 = lowest) given the deck's suit count.
func (c Card) Rank(numSuits int) int { return int(c) / numSuits }

// Suit returns the card's suit index given the deck's suit count.
func (c Card) Suit(numSuits int) int { return int(c) % numSuits }

// String renders a card in ACPC notation (e.g. "Ah"), assuming a standard
// 4-suit, 13-rank deck; use Format for other deck sizes.
func (c Card) String() string {
	return c.Format(4, 13)
}

// Format renders a card given the deck's suit/rank counts. Decks with more
// than 4 suits or 13 ranks fall back to a numeric form ("[n]").
func (c Card) Format(numSuits, numRanks int) string {
	rank := c.Rank(numSuits)
	suit := c.Suit(numSuits)
	if numRanks <= len(rankChars) && numSuits <= len(suitChars) {
		return fmt.Sprintf("%c%c", rankChars[len(rankChars)-numRanks+rank], suitChars[suit])
	}
	return fmt.Sprintf("[%d]", int(c))
}

// Deck is a permutation of [0, numCards) produced by Shuffle.
type Deck struct {
	cards []Card
	next  int
}

// New builds an unshuffled, ordered deck of the given size.
func New(numCards int) *Deck {
	d := &Deck{cards: make([]Card, numCards)}
	for i := range d.cards {
		d.cards[i] = Card(i)
	}
	return d
}

// NewForGame builds a deck sized from a game definition.
func NewForGame(g *gamedef.GameDef) *Deck {
	return New(g.NumCardsTotal())
}

// Shuffle performs a Fisher-Yates shuffle driven by r, matching the
// reference shuffler: for i from len-1 down to 1, swap cards[i] with
// cards[r.NextUint32() % (i+1)].
func (d *Deck) Shuffle(r *rng.Rand) {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := int(r.NextUint32n(uint32(i + 1)))
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
	d.next = 0
}

// Draw pops the next card off the shuffled deck in fixed deal order.
func (d *Deck) Draw() (Card, error) {
	if d.next >= len(d.cards) {
		return 0, fmt.Errorf("carddeck: deck exhausted")
	}
	c := d.cards[d.next]
	d.next++
	return c, nil
}

// Remaining returns how many cards have not yet been drawn.
func (d *Deck) Remaining() int { return len(d.cards) - d.next }

// DealHoleAndBoard deals in the spec-mandated fixed order: all hole cards
// of seat 0 first, then seat 1, ..., then board cards in round order. It
// returns holeCards[player][i] and a flat boardCards slice sized to
// sumBoardCards(numRounds-1).
func DealHoleAndBoard(d *Deck, g *gamedef.GameDef) (hole [][]Card, board []Card, err error) {
	hole = make([][]Card, g.NumPlayers)
	for p := 0; p < g.NumPlayers; p++ {
		hole[p] = make([]Card, g.NumHoleCards)
		for i := 0; i < g.NumHoleCards; i++ {
			hole[p][i], err = d.Draw()
			if err != nil {
				return nil, nil, err
			}
		}
	}
	total := g.SumBoardCards(g.NumRounds - 1)
	board = make([]Card, total)
	for i := 0; i < total; i++ {
		board[i], err = d.Draw()
		if err != nil {
			return nil, nil, err
		}
	}
	return hole, board, nil
}

// UsedSet returns a bitset (indexed by card) marking the given cards used.
func UsedSet(numCards int, groups ...[]Card) []bool {
	used := make([]bool, numCards)
	for _, g := range groups {
		for _, c := range g {
			used[int(c)] = true
		}
	}
	return used
}

// Unused returns every card not present in used, in ascending order.
func Unused(numCards int, used []bool) []Card {
	out := make([]Card, 0, numCards)
	for c := 0; c < numCards; c++ {
		if !used[c] {
			out = append(out, Card(c))
		}
	}
	return out
}
