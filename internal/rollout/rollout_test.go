package rollout

import (
	"testing"

	"github.com/hcorbin/acpcdealer/internal/carddeck"
)

func TestNumCombinations(t *testing.T) {
	cases := []struct{ d, k int; want int64 }{
		{5, 2, 10},
		{48, 5, 1712304},
		{10, 0, 1},
		{10, 10, 1},
	}
	for _, c := range cases {
		if got := NumCombinations(c.d, c.k); got != c.want {
			t.Fatalf("NumCombinations(%d,%d) = %d, want %d", c.d, c.k, got, c.want)
		}
	}
}

func TestCombinationEnumerationCoversAllNoDuplicates(t *testing.T) {
	deckSize, k := 8, 3
	deck := make([]carddeck.Card, deckSize)
	for i := range deck {
		deck[i] = carddeck.Card(i)
	}

	seen := map[string]bool{}
	cur := firstCombination(deckSize, k)
	count := 0
	for {
		key := combinationKey(cur.boardCards(deck))
		if seen[key] {
			t.Fatalf("duplicate combination: %s", key)
		}
		seen[key] = true
		count++
		if !cur.next() {
			break
		}
	}
	wantInt := NumCombinations(deckSize, k)
	if int64(count) != wantInt {
		t.Fatalf("got %d combinations, want %d", count, wantInt)
	}
}

func combinationKey(cards []carddeck.Card) string {
	s := ""
	for _, c := range cards {
		s += string(rune('A' + int(c)))
	}
	return s
}
