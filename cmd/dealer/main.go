// Command dealer runs one ACPC-protocol poker match: it loads a game
// definition, listens for N player agents, drives every hand to
// completion, and writes the log/score per spec.
//
// Grounded on the reference engine's cmd/pokersrv/main.go for its CLI
// style (stdlib flag, explicit flag variables; the sqlite3 driver import
// lives in internal/store) and on original_source/ACPCServer/dealer.c's main() for the
// positional-argument + option surface this dealer must expose.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hcorbin/acpcdealer/internal/dealer"
	"github.com/hcorbin/acpcdealer/internal/gamedef"
	"github.com/hcorbin/acpcdealer/internal/logging"
	"github.com/hcorbin/acpcdealer/internal/metrics"
	"github.com/hcorbin/acpcdealer/internal/store"

	"github.com/decred/slog"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var (
		fixedSeats  = flag.Bool("f", false, "fixed seats (no rotation between hands)")
		logOff      = flag.Bool("l", false, "disable the hand log (log is on by default)")
		_           = flag.Bool("L", false, "explicitly enable the hand log (already the default)")
		txOn        = flag.Bool("T", false, "enable the transaction journal (off by default)")
		_           = flag.Bool("t", false, "explicitly disable the transaction journal (already the default)")
		quiet       = flag.Bool("q", false, "quiet stderr")
		appendFiles = flag.Bool("a", false, "append to log/journal instead of truncating")
		ports       = flag.String("p", "", "comma-separated per-seat ports, 0 for random")
		host        = flag.String("host", "", "listen host")
		tResponse   = flag.Int64("t_response", 7000, "per-response budget, milliseconds")
		tHand       = flag.Int64("t_hand", 0, "per-hand budget, milliseconds (0 disables)")
		tMatch      = flag.Int64("t_per_hand", 0, "per-match budget, milliseconds (0 disables)")
		startTO     = flag.Int64("start_timeout", 0, "startup accept timeout, milliseconds (0 = wait forever)")
		maxInvalid  = flag.Int("max_invalid_actions", 10, "invalid actions tolerated per seat before aborting")
		dbPath      = flag.String("db", "", "optional sqlite path for match-history persistence")
		metricsAddr = flag.String("metrics", "", "optional address to serve Prometheus /metrics on")
		debugLevel  = flag.String("debuglevel", "info", "trace, debug, info, warn, error, critical")
	)
	flag.Parse()

	args := flag.Args()
	if len(args) < 5 {
		fmt.Fprintln(os.Stderr, "usage: dealer [options] matchName gameDefFile numHands seed seat0Name seat1Name ...")
		os.Exit(1)
	}
	matchName, gameDefFile, numHandsStr, seedStr := args[0], args[1], args[2], args[3]
	names := args[4:]

	numHands, err := strconv.Atoi(numHandsStr)
	if err != nil {
		fatalf("bad numHands %q: %v", numHandsStr, err)
	}
	seed, err := strconv.ParseUint(seedStr, 10, 32)
	if err != nil {
		fatalf("bad seed %q: %v", seedStr, err)
	}

	gf, err := os.Open(gameDefFile)
	if err != nil {
		fatalf("open game definition: %v", err)
	}
	def, err := gamedef.Read(gf)
	gf.Close()
	if err != nil {
		fatalf("parse game definition: %v", err)
	}
	if len(names) != def.NumPlayers {
		fatalf("expected %d player names, got %d", def.NumPlayers, len(names))
	}

	var portList []int
	if *ports != "" {
		for _, p := range strings.Split(*ports, ",") {
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				fatalf("bad port list: %v", err)
			}
			portList = append(portList, v)
		}
	}

	logBackend, err := logging.New(logging.Config{DebugLevel: *debugLevel})
	if err != nil {
		fatalf("init logging: %v", err)
	}
	defer logBackend.Close()
	logger := logBackend.Logger("DLR")
	if *quiet {
		// leave stderr writes to the dealer's own printStartupComment/printScore,
		// which always print; only the logger subsystem is quieted.
		logger.SetLevel(slog.LevelOff)
	}

	var st *store.Store
	if *dbPath != "" {
		st, err = store.Open(*dbPath)
		if err != nil {
			fatalf("open store: %v", err)
		}
		defer st.Close()
	}

	var reg *metrics.Registry
	if *metricsAddr != "" {
		promReg := prometheus.NewRegistry()
		reg = metrics.NewRegistry(promReg)
		mux := newMetricsServer(promReg)
		go func() {
			if err := httpListenAndServe(*metricsAddr, mux); err != nil {
				logger.Warnf("metrics server stopped: %v", err)
			}
		}()
	}

	var logWriter *os.File
	if !*logOff {
		flags := os.O_CREATE | os.O_WRONLY
		if *appendFiles {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		logWriter, err = os.OpenFile(matchName+".log", flags, 0644)
		if err != nil {
			fatalf("open log file: %v", err)
		}
		defer logWriter.Close()
	}

	journalPath := ""
	if *txOn {
		journalPath = matchName + ".tlog"
	}

	cfg := dealer.Config{
		MatchName:          matchName,
		Game:               def,
		NumHands:           numHands,
		Seed:               uint32(seed),
		Names:              names,
		FixedSeats:         *fixedSeats,
		Host:               *host,
		Ports:              portList,
		MaxResponseMicros:  *tResponse * 1000,
		MaxUsedHandMicros:  *tHand * 1000,
		MaxUsedMatchMicros: *tMatch * 1000,
		MaxInvalidActions:  *maxInvalid,
		StartTimeout:       msDuration(*startTO),
		LogWriter:          logWriter,
		JournalPath:        journalPath,
		AppendJournal:      *appendFiles,
		Store:              st,
		Metrics:            reg,
		Logger:             logger,
	}

	d := dealer.New(cfg)
	if err := d.Listen(); err != nil {
		fatalf("listen: %v", err)
	}
	if err := d.AcceptAll(); err != nil {
		d.Close()
		fatalf("accept: %v", err)
	}
	defer d.Close()

	if err := d.Run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "dealer: "+format+"\n", args...)
	os.Exit(1)
}
