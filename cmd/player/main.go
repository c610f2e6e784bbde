// Command player is a sample ACPC agent: on each turn it folds, calls, or
// raises at random according to fixed probabilities, mirroring
// original_source/ACPCServer/example_player.c's a_fold/a_call/a_raise
// weighting (6% fold, the remainder split evenly between call and raise).
//
// A MATCHSTATE line alone doesn't carry chip-spent totals, so the agent
// reconstructs them by replaying the line's betting string through the
// same match.State machine the dealer itself runs (match.NewHand +
// repeated DoAction), then asks that replayed state the same
// IsValidAction/RaiseIsValid questions the dealer would.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hcorbin/acpcdealer/internal/gamedef"
	"github.com/hcorbin/acpcdealer/internal/match"
	"github.com/hcorbin/acpcdealer/internal/netio"
	"github.com/hcorbin/acpcdealer/internal/rng"
	"github.com/hcorbin/acpcdealer/internal/wire"
)

// foldProb mirrors example_player.c's fold weight; chooseAction splits the
// remainder evenly between call and raise.
const foldProb = 0.06

func main() {
	if len(os.Args) < 4 {
		fmt.Fprintln(os.Stderr, "usage: player gameDefFile host port")
		os.Exit(1)
	}
	gameFile, host, portStr := os.Args[1], os.Args[2], os.Args[3]

	port, err := strconv.Atoi(portStr)
	if err != nil {
		fatalf("bad port %q: %v", portStr, err)
	}

	gf, err := os.Open(gameFile)
	if err != nil {
		fatalf("open game definition: %v", err)
	}
	def, err := gamedef.Read(gf)
	gf.Close()
	if err != nil {
		fatalf("parse game definition: %v", err)
	}

	conn, err := netio.ConnectTo(host, port)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer conn.Close()

	ourVersion := wire.Version{Major: 2, Minor: 0, Revision: 0}
	if _, err := fmt.Fprintf(conn, "%s\r\n", ourVersion); err != nil {
		fatalf("send version: %v", err)
	}

	localRNG := rng.New(uint32(time.Now().UnixNano()))
	reader := bufio.NewReader(conn)

	var (
		state         *match.State
		lastHandID    = int64(-1)
		lastRoundTail int // how many betting tokens already replayed this hand
	)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		if len(line) == 0 || line[0] == '#' || line[0] == ';' {
			continue
		}

		fields, err := wire.ReadMatchState(line)
		if err != nil {
			continue
		}

		if fields.HandID != lastHandID {
			state, err = match.NewHand(def, fields.HandID, localRNG)
			if err != nil {
				fatalf("replay new hand: %v", err)
			}
			lastHandID = fields.HandID
			lastRoundTail = 0
		}

		tokens := parseBetting(fields.BettingRaw)
		for ; lastRoundTail < len(tokens); lastRoundTail++ {
			if state.Finished {
				break
			}
			a, err := wire.ParseAction(tokens[lastRoundTail])
			if err != nil {
				continue
			}
			if err := state.DoAction(a); err != nil {
				break
			}
		}

		if state.Finished {
			continue
		}
		if state.ActingPlayer != fields.ViewingPlayer {
			continue
		}

		action := chooseAction(state, localRNG)

		response := strings.TrimRight(line, "\r\n") + ":" + wire.PrintAction(action, def.BettingType) + "\r\n"
		if _, err := fmt.Fprint(conn, response); err != nil {
			fatalf("send action: %v", err)
		}
	}
}

// parseBetting flattens a "/"-separated per-round betting string into the
// ordered sequence of action tokens it contains, e.g. "cr200c/cc" ->
// ["c","r200","c","c","c"].
func parseBetting(betting string) []string {
	var tokens []string
	for _, round := range strings.Split(betting, "/") {
		i := 0
		for i < len(round) {
			switch round[i] {
			case 'f', 'c':
				tokens = append(tokens, string(round[i]))
				i++
			case 'r':
				j := i + 1
				for j < len(round) && round[j] >= '0' && round[j] <= '9' {
					j++
				}
				tokens = append(tokens, round[i:j])
				i = j
			default:
				i++
			}
		}
	}
	return tokens
}

// chooseAction applies example_player.c's fixed action mix: weigh fold,
// call, and raise by fixed probabilities, renormalising over whichever of
// the three are currently legal, then sample one.
func chooseAction(s *match.State, r *rng.Rand) match.Action {
	callProb := (1.0 - foldProb) * 0.5
	raiseProb := (1.0 - foldProb) * 0.5

	foldAction := match.Action{Type: match.Fold}
	canFold := s.IsValidAction(&foldAction, false)

	min, max, canRaise := s.RaiseIsValid()

	weights := map[match.ActionType]float64{match.Call: callProb}
	if canFold {
		weights[match.Fold] = foldProb
	}
	if canRaise {
		weights[match.Raise] = raiseProb
	}

	total := 0.0
	for _, w := range weights {
		total += w
	}
	pick := r.NextReal01() * total
	var chosen match.ActionType = match.Call
	for _, t := range []match.ActionType{match.Fold, match.Call, match.Raise} {
		w, ok := weights[t]
		if !ok {
			continue
		}
		if pick <= w {
			chosen = t
			break
		}
		pick -= w
	}

	switch chosen {
	case match.Fold:
		return match.Action{Type: match.Fold}
	case match.Raise:
		size := min
		if max > min {
			size = min + int64(r.NextUint32n(uint32(max-min+1)))
		}
		return match.Action{Type: match.Raise, Size: size}
	default:
		return match.Action{Type: match.Call}
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "player: "+format+"\n", args...)
	os.Exit(1)
}
