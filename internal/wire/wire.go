// Package wire implements the ACPC MatchState line codec (C8): printing
// and parsing "MATCHSTATE:<viewingPlayer>:<handId>:<betting>:<cards>"
// lines, plus the version handshake string.
//
// Grounded on the original_source/ACPCServer reference dealer's
// printMatchState/readMatchState conventions (no game.c was retrieved
// with the pack, so this codec is written directly from spec.md §4.8's
// textual grammar and the example_player.c usage pattern, which confirms
// the trailing ":<action>" suffix and the VERSION handshake format).
package wire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hcorbin/acpcdealer/internal/carddeck"
	"github.com/hcorbin/acpcdealer/internal/gamedef"
	"github.com/hcorbin/acpcdealer/internal/match"
)

// Version is the dealer's own protocol version.
type Version struct {
	Major, Minor, Revision uint32
}

func (v Version) String() string {
	return fmt.Sprintf("VERSION:%d.%d.%d", v.Major, v.Minor, v.Revision)
}

// ParseVersion parses a "VERSION:major.minor.revision" line.
func ParseVersion(line string) (Version, error) {
	line = strings.TrimSpace(line)
	const prefix = "VERSION:"
	if !strings.HasPrefix(line, prefix) {
		return Version{}, fmt.Errorf("wire: not a version line: %q", line)
	}
	parts := strings.Split(strings.TrimPrefix(line, prefix), ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("wire: malformed version: %q", line)
	}
	var v Version
	var err error
	if v.Major, err = parseUint32(parts[0]); err != nil {
		return Version{}, err
	}
	if v.Minor, err = parseUint32(parts[1]); err != nil {
		return Version{}, err
	}
	if v.Revision, err = parseUint32(parts[2]); err != nil {
		return Version{}, err
	}
	return v, nil
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("wire: bad version component %q: %w", s, err)
	}
	return uint32(v), nil
}

// Compatible reports whether a peer's advertised version can interoperate
// with ours: major must match exactly; the peer's minor must not exceed
// ours (a newer minor may use protocol features we don't understand).
func (v Version) Compatible(peer Version) bool {
	return v.Major == peer.Major && peer.Minor <= v.Minor
}

// PrintMatchState renders "MATCHSTATE:<viewingPlayer>:<handId>:<betting>:<cards>".
func PrintMatchState(s *match.State, viewingPlayer int) string {
	var b strings.Builder
	b.WriteString("MATCHSTATE:")
	b.WriteString(strconv.Itoa(viewingPlayer))
	b.WriteByte(':')
	b.WriteString(strconv.FormatInt(s.HandID, 10))
	b.WriteByte(':')
	b.WriteString(formatBetting(s))
	b.WriteByte(':')
	b.WriteString(formatCards(s, viewingPlayer))
	return b.String()
}

func formatBetting(s *match.State) string {
	var b strings.Builder
	for r := 0; r <= s.Round && r < len(s.Actions); r++ {
		if r > 0 {
			b.WriteByte('/')
		}
		for _, a := range s.Actions[r] {
			switch a.Type {
			case match.Fold:
				b.WriteByte('f')
			case match.Call:
				b.WriteByte('c')
			case match.Raise:
				b.WriteByte('r')
				if s.Def.BettingType == gamedef.NoLimit {
					b.WriteString(strconv.FormatInt(a.Size, 10))
				}
			}
		}
	}
	return b.String()
}

func formatCards(s *match.State, viewingPlayer int) string {
	var b strings.Builder
	for p := 0; p < s.Def.NumPlayers; p++ {
		if p > 0 {
			b.WriteByte('|')
		}
		if p == viewingPlayer || s.Finished {
			b.WriteString(cardsToString(s.HoleCards[p], s.Def.NumSuits, s.Def.NumRanks))
		}
	}
	boardStr := boardRoundsString(s)
	if boardStr != "" {
		b.WriteByte('/')
		b.WriteString(boardStr)
	}
	return b.String()
}

func boardRoundsString(s *match.State) string {
	var b strings.Builder
	offset := 0
	for r := 0; r <= s.Round && r < len(s.Def.NumBoardCards); r++ {
		n := s.Def.NumBoardCards[r]
		if n == 0 {
			continue
		}
		if offset > 0 {
			b.WriteByte('/')
		}
		end := offset + n
		if end > len(s.BoardCards) {
			end = len(s.BoardCards)
		}
		b.WriteString(cardsToString(s.BoardCards[offset:end], s.Def.NumSuits, s.Def.NumRanks))
		offset = end
	}
	return b.String()
}

func cardsToString(cards []carddeck.Card, numSuits, numRanks int) string {
	var b strings.Builder
	for _, c := range cards {
		b.WriteString(c.Format(numSuits, numRanks))
	}
	return b.String()
}

// MatchStateFields is the parsed shape of a MATCHSTATE line; it is
// deliberately shallower than match.State since a parsed wire line cannot
// reconstruct chip amounts on its own (those require replaying the
// betting actions through the state machine with the game definition).
type MatchStateFields struct {
	ViewingPlayer int
	HandID        int64
	BettingRaw    string
	CardsRaw      string
}

// ReadMatchState parses a "MATCHSTATE:..." line (optionally with a
// trailing ":<action>" suffix, which is ignored here and handled by the
// action parser instead).
func ReadMatchState(line string) (MatchStateFields, error) {
	line = strings.TrimRight(line, "\r\n")
	const prefix = "MATCHSTATE:"
	if !strings.HasPrefix(line, prefix) {
		return MatchStateFields{}, fmt.Errorf("wire: not a matchstate line: %q", line)
	}
	rest := strings.TrimPrefix(line, prefix)
	parts := strings.SplitN(rest, ":", 4)
	if len(parts) < 4 {
		return MatchStateFields{}, fmt.Errorf("wire: malformed matchstate: %q", line)
	}
	viewingPlayer, err := strconv.Atoi(parts[0])
	if err != nil {
		return MatchStateFields{}, fmt.Errorf("wire: bad viewingPlayer: %w", err)
	}
	handID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return MatchStateFields{}, fmt.Errorf("wire: bad handId: %w", err)
	}
	// parts[3] may still carry a trailing ":<action>" appended by an
	// agent's response; cards never contain ':' so split on the first one.
	cardsAndMaybeAction := parts[3]
	cardsRaw := cardsAndMaybeAction
	if idx := strings.IndexByte(cardsAndMaybeAction, ':'); idx >= 0 {
		cardsRaw = cardsAndMaybeAction[:idx]
	}
	return MatchStateFields{
		ViewingPlayer: viewingPlayer,
		HandID:        handID,
		BettingRaw:    parts[2],
		CardsRaw:      cardsRaw,
	}, nil
}

// TrailingAction extracts the "<action>" suffix from an agent's response
// line of the form "MATCHSTATE:...:<action>", if present.
func TrailingAction(line string) (string, bool) {
	line = strings.TrimRight(line, "\r\n")
	const prefix = "MATCHSTATE:"
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	idx := strings.LastIndexByte(line, ':')
	if idx < 0 {
		return "", false
	}
	// the matchstate itself has exactly 4 ':'-delimited fields; anything
	// past the 4th colon is the action suffix.
	count := strings.Count(line, ":")
	if count < 5 {
		return "", false
	}
	return line[idx+1:], true
}

// MatchStatesEqual compares two parsed lines by HandID and betting string
// only, ignoring ViewingPlayer and the cards field (two seats' views of the
// same instant differ only in which hole cards they can see).
func MatchStatesEqual(a, b MatchStateFields) bool {
	return a.HandID == b.HandID && a.BettingRaw == b.BettingRaw
}

// ParseAction parses one action token: "f", "c", "r", or "r<N>".
func ParseAction(tok string) (match.Action, error) {
	if tok == "" {
		return match.Action{}, fmt.Errorf("wire: empty action")
	}
	switch tok[0] {
	case 'f':
		return match.Action{Type: match.Fold}, nil
	case 'c':
		return match.Action{Type: match.Call}, nil
	case 'r':
		if len(tok) == 1 {
			return match.Action{Type: match.Raise}, nil
		}
		n, err := strconv.ParseInt(tok[1:], 10, 64)
		if err != nil {
			return match.Action{}, fmt.Errorf("wire: bad raise size %q: %w", tok, err)
		}
		return match.Action{Type: match.Raise, Size: n}, nil
	default:
		return match.Action{}, fmt.Errorf("wire: unknown action token %q", tok)
	}
}

// PrintAction renders one action, including the no-limit raise-to suffix.
func PrintAction(a match.Action, bettingType gamedef.BettingType) string {
	switch a.Type {
	case match.Fold:
		return "f"
	case match.Call:
		return "c"
	case match.Raise:
		if bettingType == gamedef.NoLimit {
			return "r" + strconv.FormatInt(a.Size, 10)
		}
		return "r"
	default:
		return "?"
	}
}
