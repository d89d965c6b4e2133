// Command sequencerd runs a standalone, in-memory demonstration of the
// sequencer package's Sequencer: it wires fake LogAppender, EgressPublisher,
// IngressAdapter, and ConsensusModuleAdapter implementations (see fakes.go)
// plus sequencer.MemAuthenticator to a real Sequencer, drives Work on a
// ticker, and prints state transitions and log records to stdout.
//
// Run with: go run ./cmd/sequencerd
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/arcshard/sequencer"
	"github.com/joeycumines/logiface"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		maxSessions  int
		timeoutMs    int64
		serviceCount int
		ticks        int
		tickInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sequencerd",
		Short: "Run an in-memory demo of the sequencer agent",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDemo(demoOptions{
				maxSessions:  maxSessions,
				timeoutMs:    timeoutMs,
				serviceCount: serviceCount,
				ticks:        ticks,
				tickInterval: tickInterval,
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&maxSessions, "max-sessions", 4, "maxConcurrentSessions")
	flags.Int64Var(&timeoutMs, "session-timeout-ms", 5000, "sessionTimeoutMs")
	flags.IntVar(&serviceCount, "service-count", 2, "number of downstream services to await at startup")
	flags.IntVar(&ticks, "ticks", 12, "number of ticks to run before exiting")
	flags.DurationVar(&tickInterval, "tick-interval", 100*time.Millisecond, "wall-clock delay between ticks")

	return cmd
}

type demoOptions struct {
	maxSessions  int
	timeoutMs    int64
	serviceCount int
	ticks        int
	tickInterval time.Duration
}

func runDemo(opts demoOptions) error {
	logger := sequencer.NewJSONLogger(os.Stderr, logiface.LevelDebug)

	var now int64
	nowMs := func() int64 { return now }

	egressFactory, challenges := newMemEgressFactory()
	script := buildScript(challenges)
	ingress := newMemIngress(script, nowMs)
	consensus := newMemConsensus(opts.serviceCount)
	logAppender := &memLogAppender{}

	seq, err := sequencer.New(
		sequencer.Config{
			MaxConcurrentSessions: opts.maxSessions,
			SessionTimeoutMs:      opts.timeoutMs,
			ServiceCount:          opts.serviceCount,
		},
		sequencer.Dependencies{
			LogAppender:   logAppender,
			Ingress:       ingress,
			Consensus:     consensus,
			Authenticator: sequencer.NewMemAuthenticator(),
			EgressFactory: egressFactory,
		},
		sequencer.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer seq.Close()

	for i := 0; i < opts.ticks; i++ {
		now = time.Now().UnixMilli()
		work, err := seq.Work()
		if err != nil {
			return err
		}
		fmt.Printf("tick %2d: state=%s work=%d messageIndex=%d\n", i, seq.State(), work, seq.MessageIndex())

		select {
		case <-seq.Done():
			fmt.Println("sequencer closed")
			return nil
		default:
		}

		time.Sleep(opts.tickInterval)
	}
	return nil
}

// buildScript scripts a single client connecting, completing the challenge
// handshake by echoing back whatever nonce MemAuthenticator captured into
// challenges, sending one message, then closing — enough to walk the whole
// session lifecycle once. Session ids are assigned by the Sequencer starting
// at 1, so the script can reference session 1 directly.
func buildScript(challenges map[int64][]byte) []scriptedFrame {
	return []scriptedFrame{
		func(h sequencer.IngressHandler, nowMs int64) {
			h.OnSessionConnect(1, 1, "demo-channel", nil, nowMs)
		},
		nil, // let the authenticator's per-tick poll issue the challenge
		nil, // and let the Sequencer's pending sweep dispatch it
		func(h sequencer.IngressHandler, nowMs int64) {
			h.OnChallengeResponse(1, 1, challenges[1], nowMs)
		},
		nil, // let the authenticator's per-tick poll authenticate the session
		func(h sequencer.IngressHandler, nowMs int64) {
			h.OnSessionMessage(1, 2, []byte("hello"), nowMs)
		},
		func(h sequencer.IngressHandler, nowMs int64) {
			h.OnSessionClose(1, nowMs)
		},
	}
}
