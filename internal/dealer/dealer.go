// Package dealer implements the top-level match-coordination loop (C10):
// startup handshakes, the per-hand synchronous request/response protocol
// with three independent timing budgets, seat rotation, the log, and the
// resumable transaction journal.
//
// Grounded on original_source/ACPCServer/dealer.c: printInitialMessage,
// setUpNewHand, the per-turn sendPlayerMessage/readPlayerResponse cycle,
// processTransactionFile, logTransaction, and printFinalMessage are all
// translated from that file's control flow, generalised from its
// MAX_PLAYERS-sized C arrays to slices sized from the loaded GameDef.
package dealer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/decred/slog"

	"github.com/hcorbin/acpcdealer/internal/gamedef"
	"github.com/hcorbin/acpcdealer/internal/handvalue"
	"github.com/hcorbin/acpcdealer/internal/match"
	"github.com/hcorbin/acpcdealer/internal/metrics"
	"github.com/hcorbin/acpcdealer/internal/netio"
	"github.com/hcorbin/acpcdealer/internal/rng"
	"github.com/hcorbin/acpcdealer/internal/store"
	"github.com/hcorbin/acpcdealer/internal/wire"
)

// OurVersion is the dealer's own protocol version, sent during no
// handshake itself (agents send VERSION:; the dealer only validates it),
// but used to decide compatibility.
var OurVersion = wire.Version{Major: 2, Minor: 0, Revision: 0}

// Config describes one match to run.
type Config struct {
	MatchName  string
	Game       *gamedef.GameDef
	NumHands   int
	Seed       uint32
	Names      []string
	FixedSeats bool
	Host       string
	Ports      []int // per seat; 0 requests a random port

	MaxResponseMicros  int64
	MaxUsedHandMicros  int64
	MaxUsedMatchMicros int64
	MaxInvalidActions  int
	StartTimeout       time.Duration

	LogWriter     io.Writer // nil disables logging
	JournalPath   string    // empty disables the transaction journal
	AppendJournal bool

	Store   *store.Store // nil disables persistence
	Metrics *metrics.Registry // nil disables metrics

	Logger slog.Logger
}

// Dealer runs one match to completion.
type Dealer struct {
	cfg Config
	def *gamedef.GameDef

	listeners []net.Listener
	conns     []net.Conn
	readers   []*netio.LineReader

	seat0 int // seat currently occupying player 0

	totalValue  []float64
	usedMatch   []int64
	invalidCnt  []int

	journal *os.File
	log     io.Writer

	rng *rng.Rand
}

// New constructs a Dealer ready to Run.
func New(cfg Config) *Dealer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Disabled
	}
	return &Dealer{
		cfg:        cfg,
		def:        cfg.Game,
		totalValue: make([]float64, cfg.Game.NumPlayers),
		usedMatch:  make([]int64, cfg.Game.NumPlayers),
		invalidCnt: make([]int, cfg.Game.NumPlayers),
		rng:        rng.New(cfg.Seed),
		log:        cfg.LogWriter,
	}
}

func playerOfSeat(seat, seat0, n int) int { return (seat + n - seat0) % n }
func seatOfPlayer(player, seat0, n int) int { return (player + seat0) % n }

// Listen opens one listening socket per seat and prints the assignment.
func (d *Dealer) Listen() error {
	n := d.def.NumPlayers
	d.listeners = make([]net.Listener, n)
	for s := 0; s < n; s++ {
		port := 0
		if s < len(d.cfg.Ports) {
			port = d.cfg.Ports[s]
		}
		ln, chosen, err := netio.Listen(d.cfg.Host, port, 20)
		if err != nil {
			return &Error{Kind: SocketError, Seat: s + 1, Err: err}
		}
		d.listeners[s] = ln
		fmt.Printf("seat %d port %d\n", s+1, chosen)
	}
	return nil
}

// AcceptAll blocks until every seat has connected, honouring StartTimeout
// (zero means wait indefinitely), and then reads + validates each seat's
// VERSION handshake.
func (d *Dealer) AcceptAll() error {
	n := d.def.NumPlayers
	d.conns = make([]net.Conn, n)
	d.readers = make([]*netio.LineReader, n)

	type result struct {
		seat int
		conn net.Conn
		err  error
	}
	ch := make(chan result, n)
	for s := 0; s < n; s++ {
		s := s
		go func() {
			conn, err := d.listeners[s].Accept()
			ch <- result{seat: s, conn: conn, err: err}
		}()
	}

	var timeout <-chan time.Time
	if d.cfg.StartTimeout > 0 {
		timer := time.NewTimer(d.cfg.StartTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	remaining := n
	for remaining > 0 {
		select {
		case r := <-ch:
			if r.err != nil {
				return &Error{Kind: SocketError, Seat: r.seat + 1, Err: r.err}
			}
			if err := netio.TuneConn(r.conn); err != nil {
				return &Error{Kind: SocketError, Seat: r.seat + 1, Err: err}
			}
			d.conns[r.seat] = r.conn
			d.readers[r.seat] = netio.NewLineReader(r.conn)
			remaining--
		case <-timeout:
			return &Error{Kind: SocketError, Err: fmt.Errorf("start timeout waiting for %d seat(s)", remaining)}
		}
	}

	for s := 0; s < n; s++ {
		line, err := d.readers[s].ReadLine(time.Now().Add(5 * time.Second))
		if err != nil {
			return &Error{Kind: SocketError, Seat: s + 1, Err: err}
		}
		peer, err := wire.ParseVersion(line)
		if err != nil {
			return &Error{Kind: ProtocolError, Seat: s + 1, Raw: line, Err: err}
		}
		if !OurVersion.Compatible(peer) {
			return &Error{Kind: VersionMismatch, Seat: s + 1, Raw: line}
		}
	}
	return nil
}

// openJournal opens the transaction journal file, if configured.
func (d *Dealer) openJournal() error {
	if d.cfg.JournalPath == "" {
		return nil
	}
	flags := os.O_CREATE | os.O_WRONLY
	if d.cfg.AppendJournal {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(d.cfg.JournalPath, flags, 0644)
	if err != nil {
		return &Error{Kind: SocketError, Err: fmt.Errorf("open journal: %w", err)}
	}
	d.journal = f
	return nil
}

func (d *Dealer) writeLog(line string) {
	if d.log == nil {
		return
	}
	fmt.Fprintln(d.log, line)
}

// Run executes the full match: the startup comment line, every hand, and
// the final SCORE line. The startup handshakes happen earlier: the dealer
// must already have called Listen and AcceptAll successfully. If Config requests resuming from an existing
// transaction journal (-a -T), the hands it already recorded are replayed
// before any live play resumes.
func (d *Dealer) Run(ctx context.Context) error {
	resumeHand, err := d.replayJournal()
	if err != nil {
		return err
	}

	if err := d.openJournal(); err != nil {
		return err
	}
	defer func() {
		if d.journal != nil {
			d.journal.Close()
		}
	}()

	d.printStartupComment()

	for handID := resumeHand + 1; handID <= int64(d.cfg.NumHands); handID++ {
		if err := d.playHand(ctx, handID); err != nil {
			return err
		}
		if !d.cfg.FixedSeats {
			d.seat0 = (d.seat0 + 1) % d.def.NumPlayers
		}
	}

	d.printScore()
	return nil
}

// journalEntry is one parsed line of a transaction journal.
type journalEntry struct {
	handID   int64
	action   match.Action
	raw      string
	sendTime time.Time
	recvTime time.Time
}

// parseJournal reads every "action handId sendTs recvTs" line from a
// transaction journal, in the order processTransactionFile expects them.
func parseJournal(r io.Reader) ([]journalEntry, error) {
	var entries []journalEntry
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, netio.MaxLineLen), netio.MaxLineLen)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("malformed journal line %q", line)
		}
		a, err := wire.ParseAction(fields[0])
		if err != nil {
			return nil, fmt.Errorf("journal action %q: %w", fields[0], err)
		}
		handID, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("journal hand id %q: %w", fields[1], err)
		}
		sendTime, err := parseJournalTimestamp(fields[2])
		if err != nil {
			return nil, fmt.Errorf("journal send timestamp %q: %w", fields[2], err)
		}
		recvTime, err := parseJournalTimestamp(fields[3])
		if err != nil {
			return nil, fmt.Errorf("journal recv timestamp %q: %w", fields[3], err)
		}
		entries = append(entries, journalEntry{
			handID: handID, action: a, raw: line,
			sendTime: sendTime, recvTime: recvTime,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func parseJournalTimestamp(s string) (time.Time, error) {
	sec, usec := s, "0"
	if i := strings.IndexByte(s, '.'); i >= 0 {
		sec, usec = s[:i], s[i+1:]
	}
	secN, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	usecN, err := strconv.ParseInt(usec, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secN, usecN*1000), nil
}

// replayJournal reconstructs match state from an existing transaction
// journal, as when resuming a match an earlier dealer run left off
// (-a -T with a non-empty journal already on disk). Every recorded action
// is replayed through match.State in strict mode (C5)/C4, hand results and
// per-player time-used totals accumulate exactly as they would have live,
// and seats rotate across hand boundaries the same way Run does. It
// returns the number of hands the journal shows as complete, so Run can
// start live play at the next one.
func (d *Dealer) replayJournal() (int64, error) {
	if d.cfg.JournalPath == "" || !d.cfg.AppendJournal {
		return 0, nil
	}
	f, err := os.Open(d.cfg.JournalPath)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, &Error{Kind: SocketError, Err: fmt.Errorf("open journal for replay: %w", err)}
	}
	defer f.Close()

	entries, err := parseJournal(f)
	if err != nil {
		return 0, &Error{Kind: JournalParse, Err: fmt.Errorf("parse journal: %w", err)}
	}
	if len(entries) == 0 {
		return 0, nil
	}

	n := d.def.NumPlayers
	var lastHandID int64
	var s *match.State

	for _, e := range entries {
		if e.handID < lastHandID {
			return 0, &Error{Kind: JournalParse, Err: fmt.Errorf("journal replay: hand %d recorded after hand %d", e.handID, lastHandID)}
		}
		if e.handID != lastHandID {
			if s != nil {
				if !s.Finished {
					return 0, &Error{Kind: JournalParse, Err: fmt.Errorf("journal replay: hand %d left unfinished before hand %d began", lastHandID, e.handID)}
				}
				if err := d.finishReplayedHand(s); err != nil {
					return 0, err
				}
				if !d.cfg.FixedSeats {
					d.seat0 = (d.seat0 + 1) % n
				}
			}
			s, err = match.NewHand(d.def, e.handID, d.rng)
			if err != nil {
				return 0, &Error{Kind: GameParse, Err: err}
			}
			lastHandID = e.handID
		}

		if s.Finished {
			return 0, &Error{Kind: JournalParse, Err: fmt.Errorf("journal replay: hand %d has actions beyond its finish", e.handID)}
		}
		actingPlayer := s.ActingPlayer
		a := e.action
		if !s.IsValidAction(&a, false) {
			return 0, &Error{Kind: ProtocolError, Err: fmt.Errorf("journal replay: invalid action %q for hand %d", e.raw, e.handID)}
		}
		if err := s.DoAction(a); err != nil {
			return 0, &Error{Kind: ProtocolError, Err: err}
		}

		elapsed := e.recvTime.Sub(e.sendTime)
		if elapsed < 0 {
			elapsed = 0
		}
		d.usedMatch[actingPlayer] += elapsed.Microseconds()
	}

	if !s.Finished {
		return 0, &Error{Kind: JournalParse, Err: fmt.Errorf("journal replay: hand %d left unfinished at end of journal", lastHandID)}
	}
	if err := d.finishReplayedHand(s); err != nil {
		return 0, err
	}
	if !d.cfg.FixedSeats {
		d.seat0 = (d.seat0 + 1) % n
	}

	return lastHandID, nil
}

// finishReplayedHand folds a replayed hand's terminal chip deltas into the
// running match total, the same bookkeeping playHand does after a live
// hand finishes, including failing on an evaluation error.
func (d *Dealer) finishReplayedHand(s *match.State) error {
	values, err := handvalue.TerminalValues(s, d.def.NumSuits, d.def.NumRanks)
	if err != nil {
		return &Error{Kind: ProtocolError, Err: err}
	}
	for p, v := range values {
		d.totalValue[p] += v
	}
	return nil
}

func (d *Dealer) printStartupComment() {
	msg := fmt.Sprintf("# %s %d hands seed %d budgets(resp=%d,hand=%d,match=%d)",
		d.cfg.MatchName, d.cfg.NumHands, d.cfg.Seed,
		d.cfg.MaxResponseMicros, d.cfg.MaxUsedHandMicros, d.cfg.MaxUsedMatchMicros)
	fmt.Fprintln(os.Stderr, msg)
	d.writeLog(msg)
	d.cfg.Logger.Info(msg)
}

func (d *Dealer) printScore() {
	var sb strings.Builder
	sb.WriteString("SCORE:")
	for p, v := range d.totalValue {
		if p > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(trimScore(v))
	}
	sb.WriteByte(':')
	sb.WriteString(strings.Join(d.cfg.Names, "|"))
	line := sb.String()
	fmt.Println(line)
	fmt.Fprintln(os.Stderr, line)
	d.writeLog(line)
	if d.cfg.Store != nil {
		_ = d.cfg.Store.RecordScore(d.cfg.MatchName, line)
	}
}

func trimScore(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

func (d *Dealer) playHand(ctx context.Context, handID int64) error {
	n := d.def.NumPlayers
	usedHand := make([]int64, n)

	s, err := match.NewHand(d.def, handID, d.rng)
	if err != nil {
		return &Error{Kind: GameParse, Err: err}
	}

	for !s.Finished {
		actingPlayer := s.ActingPlayer
		actingSeat := seatOfPlayer(actingPlayer, d.seat0, n)

		d.broadcast(s)

		sendTime := time.Now()
		deadline := d.computeDeadline(sendTime, usedHand[actingPlayer], d.usedMatch[actingPlayer])

		line, readErr := d.readValidResponse(s, actingSeat, deadline)
		recvTime := time.Now()
		elapsed := recvTime.Sub(sendTime)
		if elapsed < 0 {
			elapsed = 0
		}

		if readErr != nil {
			return &Error{Kind: ReadTimeout, Seat: actingSeat + 1, Elapsed: elapsed, Err: readErr}
		}

		action, ok := d.parseAndValidate(s, line)
		if !ok {
			d.invalidCnt[actingPlayer]++
			if d.cfg.Metrics != nil {
				d.cfg.Metrics.IncInvalidAction(actingSeat)
			}
			d.cfg.Logger.Warnf("bad action format from seat %d: %q", actingSeat+1, line)
			if d.invalidCnt[actingPlayer] > d.cfg.MaxInvalidActions {
				return &Error{Kind: InvalidAction, Seat: actingSeat + 1, Raw: line}
			}
			action = match.Action{Type: match.Call}
		}

		usedHand[actingPlayer] += elapsed.Microseconds()
		d.usedMatch[actingPlayer] += elapsed.Microseconds()
		if d.cfg.Metrics != nil {
			d.cfg.Metrics.ObserveResponse(actingSeat, elapsed)
		}

		if d.cfg.MaxResponseMicros > 0 && elapsed.Microseconds() > d.cfg.MaxResponseMicros {
			return &Error{Kind: ReadTimeout, Seat: actingSeat + 1, Elapsed: elapsed}
		}
		if d.cfg.MaxUsedHandMicros > 0 && usedHand[actingPlayer] > d.cfg.MaxUsedHandMicros {
			return &Error{Kind: HandTimeout, Seat: actingSeat + 1, Elapsed: time.Duration(usedHand[actingPlayer]) * time.Microsecond}
		}
		if d.cfg.MaxUsedMatchMicros > 0 && d.usedMatch[actingPlayer] > d.cfg.MaxUsedMatchMicros {
			return &Error{Kind: MatchTimeout, Seat: actingSeat + 1, Elapsed: time.Duration(d.usedMatch[actingPlayer]) * time.Microsecond}
		}

		if err := s.DoAction(action); err != nil {
			return &Error{Kind: ProtocolError, Seat: actingSeat + 1, Err: err}
		}
		d.appendJournal(action, handID, sendTime, recvTime)
	}

	values, err := handvalue.TerminalValues(s, d.def.NumSuits, d.def.NumRanks)
	if err != nil {
		return &Error{Kind: ProtocolError, Err: err}
	}
	for p, v := range values {
		d.totalValue[p] += v
	}
	d.broadcast(s)
	if d.cfg.Metrics != nil {
		d.cfg.Metrics.HandsDealt.Inc()
		d.cfg.Metrics.SampleProcess()
	}

	line := d.formatLogLine(s, values)
	d.writeLog(line)
	if d.cfg.Store != nil {
		_ = d.cfg.Store.RecordHand(d.cfg.MatchName, handID, line)
	}
	return nil
}

func (d *Dealer) computeDeadline(sendTime time.Time, usedHandP, usedMatchP int64) time.Time {
	deadline := time.Time{}
	setIfSooner := func(micros int64) {
		if micros <= 0 {
			return
		}
		cand := sendTime.Add(time.Duration(micros) * time.Microsecond)
		if deadline.IsZero() || cand.Before(deadline) {
			deadline = cand
		}
	}
	setIfSooner(d.cfg.MaxResponseMicros)
	if d.cfg.MaxUsedHandMicros > 0 {
		setIfSooner(d.cfg.MaxUsedHandMicros - usedHandP)
	}
	if d.cfg.MaxUsedMatchMicros > 0 {
		setIfSooner(d.cfg.MaxUsedMatchMicros - usedMatchP)
	}
	return deadline
}

func (d *Dealer) broadcast(s *match.State) {
	n := d.def.NumPlayers
	for seat := 0; seat < n; seat++ {
		player := playerOfSeat(seat, d.seat0, n)
		line := wire.PrintMatchState(s, player) + "\r\n"
		io.WriteString(d.conns[seat], line)
	}
}

// readValidResponse reads lines from the acting seat until it gets a
// non-comment line whose MatchState matches what was just sent, per the
// spec's silent-resync rule for out-of-sequence responses.
func (d *Dealer) readValidResponse(s *match.State, actingSeat int, deadline time.Time) (string, error) {
	want, _ := wire.ReadMatchState(wire.PrintMatchState(s, playerOfSeat(actingSeat, d.seat0, d.def.NumPlayers)))
	for {
		line, err := d.readers[actingSeat].ReadLine(deadline)
		if err != nil {
			return "", err
		}
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		got, err := wire.ReadMatchState(line)
		if err != nil {
			continue
		}
		if !wire.MatchStatesEqual(want, got) {
			continue
		}
		return line, nil
	}
}

func (d *Dealer) parseAndValidate(s *match.State, line string) (match.Action, bool) {
	tok, ok := wire.TrailingAction(line)
	if !ok {
		return match.Action{}, false
	}
	action, err := wire.ParseAction(tok)
	if err != nil {
		return match.Action{}, false
	}
	if !s.IsValidAction(&action, true) {
		return match.Action{}, false
	}
	return action, true
}

func (d *Dealer) appendJournal(a match.Action, handID int64, sendTime, recvTime time.Time) {
	if d.journal == nil {
		return
	}
	line := fmt.Sprintf("%s %d %d.%06d %d.%06d\n",
		wire.PrintAction(a, d.def.BettingType), handID,
		sendTime.Unix(), sendTime.Nanosecond()/1000,
		recvTime.Unix(), recvTime.Nanosecond()/1000)
	d.journal.WriteString(line)
	// flushed implicitly: os.File writes are unbuffered syscalls
}

func (d *Dealer) formatLogLine(s *match.State, values []float64) string {
	var sb strings.Builder
	fields, _ := wire.ReadMatchState(wire.PrintMatchState(s, 0))
	sb.WriteString("STATE:")
	sb.WriteString(strconv.FormatInt(s.HandID, 10))
	sb.WriteByte(':')
	sb.WriteString(fields.BettingRaw)
	sb.WriteByte(':')
	sb.WriteString(fields.CardsRaw)
	sb.WriteByte(':')
	for p, v := range values {
		if p > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(trimScore(v))
	}
	sb.WriteByte(':')
	sb.WriteString(strings.Join(d.cfg.Names, "|"))
	return sb.String()
}

// Close tears down listeners and connections.
func (d *Dealer) Close() {
	for _, c := range d.conns {
		if c != nil {
			c.Close()
		}
	}
	for _, ln := range d.listeners {
		if ln != nil {
			ln.Close()
		}
	}
}
