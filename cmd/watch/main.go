// Command watch is a read-only spectator: it connects to a dealer seat
// the same way a player agent would, replays every MATCHSTATE line it
// receives, and renders the running hand in a terminal UI.
//
// Grounded on the reference client's pkg/ui package: the same
// bubbletea.Model/Update/View split and lipgloss colour palette, with the
// table-lobby/menu screens replaced by a single live match view since a
// spectator has nothing to configure.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hcorbin/acpcdealer/internal/gamedef"
	"github.com/hcorbin/acpcdealer/internal/match"
	"github.com/hcorbin/acpcdealer/internal/netio"
	"github.com/hcorbin/acpcdealer/internal/rng"
	"github.com/hcorbin/acpcdealer/internal/wire"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true).MarginLeft(1)
	gameInfoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("140")).MarginTop(1)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	foldedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
)

type matchStateMsg struct {
	raw    string
	fields wire.MatchStateFields
}

type disconnectMsg struct{ err error }

type watcher struct {
	def    *gamedef.GameDef
	reader *bufio.Reader

	lastHandID    int64
	state         *match.State
	rng           *rng.Rand
	replayedCount int

	lastLine string
	err      error
	done     bool
}

func main() {
	if len(os.Args) < 4 {
		fmt.Fprintln(os.Stderr, "usage: watch gameDefFile host port")
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

	w := &watcher{
		def:        def,
		reader:     bufio.NewReader(conn),
		lastHandID: -1,
		rng:        rng.New(1),
	}

	p := tea.NewProgram(w)
	if _, err := p.Run(); err != nil {
		fatalf("ui: %v", err)
	}
}

func (w *watcher) Init() tea.Cmd {
	return w.waitForLine
}

func (w *watcher) waitForLine() tea.Msg {
	for {
		line, err := w.reader.ReadString('\n')
		if err != nil {
			return disconnectMsg{err: err}
		}
		if len(line) == 0 || line[0] == '#' || line[0] == ';' {
			continue
		}
		fields, err := wire.ReadMatchState(line)
		if err != nil {
			continue
		}
		return matchStateMsg{raw: line, fields: fields}
	}
}

func (w *watcher) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		if m.String() == "q" || m.String() == "ctrl+c" {
			return w, tea.Quit
		}
	case disconnectMsg:
		w.done = true
		w.err = m.err
		return w, tea.Quit
	case matchStateMsg:
		w.apply(m)
		return w, w.waitForLine
	}
	return w, nil
}

func (w *watcher) apply(m matchStateMsg) {
	if m.fields.HandID != w.lastHandID {
		s, err := match.NewHand(w.def, m.fields.HandID, w.rng)
		if err == nil {
			w.state = s
		}
		w.lastHandID = m.fields.HandID
		w.replayedCount = 0
	}
	w.lastLine = strings.TrimRight(m.raw, "\r\n")
	if w.state == nil {
		return
	}
	tokens := parseBetting(m.fields.BettingRaw)
	for ; w.replayedCount < len(tokens); w.replayedCount++ {
		if w.state.Finished {
			break
		}
		a, err := wire.ParseAction(tokens[w.replayedCount])
		if err != nil {
			continue
		}
		if err := w.state.DoAction(a); err != nil {
			break
		}
	}
}

// parseBetting flattens a "/"-separated per-round betting string into its
// ordered action tokens, e.g. "cr200c/cc" -> ["c","r200","c","c","c"].
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

func (w *watcher) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("acpcdealer spectator"))
	b.WriteByte('\n')
	if w.lastLine != "" {
		b.WriteString(gameInfoStyle.Render(w.lastLine))
		b.WriteByte('\n')
	}
	if w.state != nil {
		for p := 0; p < w.def.NumPlayers; p++ {
			line := fmt.Sprintf("seat %d  spent=%d", p, w.state.Spent[p])
			if w.state.Folded[p] {
				line = foldedStyle.Render(line + "  folded")
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	if w.err != nil {
		b.WriteString(fmt.Sprintf("disconnected: %v\n", w.err))
	}
	b.WriteString(helpStyle.Render("press q to quit"))
	return b.String()
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "watch: "+format+"\n", args...)
	os.Exit(1)
}
