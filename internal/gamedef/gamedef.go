// Package gamedef loads the keyword-driven game-definition text files that
// describe a poker variant's structure (stacks, blinds, betting type,
// number of rounds and board cards, and so on).
//
// Follows the reference dealer's game-definition keyword surface; the
// parser itself is written directly from that file format rather than
// ported from a reference reader.
package gamedef

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// BettingType selects limit or no-limit raise semantics.
type BettingType int

const (
	Limit BettingType = iota
	NoLimit
)

func (b BettingType) String() string {
	if b == NoLimit {
		return "nolimit"
	}
	return "limit"
}

// MaxPlayers bounds every fixed-size array the dealer keeps per seat.
const MaxPlayers = 10

// MaxRounds bounds the number of betting rounds a game definition may have.
const MaxRounds = 4

// GameDef is the immutable, parsed description of one poker variant.
type GameDef struct {
	BettingType BettingType

	NumPlayers   int
	NumRounds    int
	NumHoleCards int
	NumSuits     int
	NumRanks     int

	Stack        []int64 // per player
	Blind        []int64 // per player
	RaiseSize    []int64 // per round (limit betting)
	FirstPlayer  []int   // per round, seat that acts first
	MaxRaises    []int   // per round
	NumBoardCards []int  // per round
}

// NumCardsTotal is numSuits * numRanks.
func (g *GameDef) NumCardsTotal() int { return g.NumSuits * g.NumRanks }

// Validate checks the cross-field invariants the base spec requires.
func (g *GameDef) Validate() error {
	if g.NumPlayers < 2 || g.NumPlayers > MaxPlayers {
		return fmt.Errorf("gamedef: numPlayers %d out of range", g.NumPlayers)
	}
	if g.NumRounds < 1 || g.NumRounds > MaxRounds {
		return fmt.Errorf("gamedef: numRounds %d out of range", g.NumRounds)
	}
	if len(g.Stack) != g.NumPlayers || len(g.Blind) != g.NumPlayers {
		return fmt.Errorf("gamedef: stack/blind length must equal numPlayers")
	}
	if len(g.RaiseSize) != g.NumRounds || len(g.FirstPlayer) != g.NumRounds ||
		len(g.MaxRaises) != g.NumRounds || len(g.NumBoardCards) != g.NumRounds {
		return fmt.Errorf("gamedef: per-round arrays must have length numRounds")
	}
	total := g.NumPlayers * g.NumHoleCards
	for _, n := range g.NumBoardCards {
		total += n
	}
	if total > g.NumCardsTotal() {
		return fmt.Errorf("gamedef: needs %d cards but deck has %d", total, g.NumCardsTotal())
	}
	return nil
}

// SumBoardCards returns the number of board cards dealt through round r
// inclusive (r < 0 yields 0).
func (g *GameDef) SumBoardCards(r int) int {
	sum := 0
	for i := 0; i <= r && i < len(g.NumBoardCards); i++ {
		sum += g.NumBoardCards[i]
	}
	return sum
}

// Read parses a game-definition file from r.
func Read(r io.Reader) (*GameDef, error) {
	g := &GameDef{}
	sc := bufio.NewScanner(r)
	inBlock := false
	lineNo := 0

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		keyword := strings.ToLower(fields[0])

		switch {
		case keyword == "gamedef":
			inBlock = true
			continue
		case keyword == "end" && len(fields) > 1 && strings.ToLower(fields[1]) == "gamedef":
			inBlock = false
			continue
		}
		if !inBlock {
			return nil, fmt.Errorf("gamedef: line %d: expected GAMEDEF before %q", lineNo, line)
		}

		var err error
		switch keyword {
		case "limit":
			g.BettingType = Limit
		case "nolimit":
			g.BettingType = NoLimit
		case "numplayers":
			g.NumPlayers, err = parseInt(fields, lineNo)
		case "numrounds":
			g.NumRounds, err = parseInt(fields, lineNo)
		case "numholecards":
			g.NumHoleCards, err = parseInt(fields, lineNo)
		case "numsuits":
			g.NumSuits, err = parseInt(fields, lineNo)
		case "numranks":
			g.NumRanks, err = parseInt(fields, lineNo)
		case "stack":
			g.Stack, err = parseInt64List(fields, lineNo)
		case "blind":
			g.Blind, err = parseInt64List(fields, lineNo)
		case "raisesize":
			g.RaiseSize, err = parseInt64List(fields, lineNo)
		case "firstplayer":
			g.FirstPlayer, err = parseIntList(fields, lineNo)
		case "maxraises":
			g.MaxRaises, err = parseIntList(fields, lineNo)
		case "numboardcards":
			g.NumBoardCards, err = parseIntList(fields, lineNo)
		default:
			return nil, fmt.Errorf("gamedef: line %d: unknown keyword %q", lineNo, fields[0])
		}
		if err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("gamedef: scan: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func parseInt(fields []string, lineNo int) (int, error) {
	if len(fields) != 2 {
		return 0, fmt.Errorf("gamedef: line %d: expected one integer after %q", lineNo, fields[0])
	}
	v, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("gamedef: line %d: %w", lineNo, err)
	}
	return v, nil
}

func parseIntList(fields []string, lineNo int) ([]int, error) {
	out := make([]int, 0, len(fields)-1)
	for _, f := range fields[1:] {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("gamedef: line %d: %w", lineNo, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseInt64List(fields []string, lineNo int) ([]int64, error) {
	out := make([]int64, 0, len(fields)-1)
	for _, f := range fields[1:] {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("gamedef: line %d: %w", lineNo, err)
		}
		out = append(out, v)
	}
	return out, nil
}
