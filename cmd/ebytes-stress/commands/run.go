package commands

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssungk/ebytes/pkg/ebytes"
	"github.com/ssungk/ebytes/pkg/ebytes/buf"
)

var (
	flagConfig      string
	flagWorkers     int
	flagIterations  int
	flagPayload     int
	flagSliceMax    int
	flagMutateEvery int
	flagSeed        uint64
	flagDebug       bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the clone/slice/mutate/release workload",
	Long: `Run the stress workload.

Settings come from the YAML profile given with --config, then from flags.
Only flags that are set explicitly override the profile.

Example:
  ebytes-stress run --workers 32 --iterations 50000 --mutate-every 3`,
	RunE: runStress,
}

func init() {
	def := DefaultProfile()
	runCmd.Flags().StringVar(&flagConfig, "config", "", "YAML stress profile")
	runCmd.Flags().IntVar(&flagWorkers, "workers", def.Workers, "Concurrent goroutines")
	runCmd.Flags().IntVar(&flagIterations, "iterations", def.Iterations, "Steps per worker")
	runCmd.Flags().IntVar(&flagPayload, "payload", def.Payload, "Size of the shared source buffer in bytes")
	runCmd.Flags().IntVar(&flagSliceMax, "slice-max", def.SliceMax, "Maximum sub-slice length per step")
	runCmd.Flags().IntVar(&flagMutateEvery, "mutate-every", def.MutateEvery, "Convert every Nth slice to BytesMut (0 disables)")
	runCmd.Flags().Uint64Var(&flagSeed, "seed", 1, "Random seed for slice ranges")
	runCmd.Flags().BoolVar(&flagDebug, "debug", false, "Log ebytes promotions and copies")
}

// resolveProfile merges the profile file and explicitly set flags.
func resolveProfile(cmd *cobra.Command) (Profile, error) {
	p := DefaultProfile()
	if flagConfig != "" {
		var err error
		if p, err = LoadProfile(flagConfig); err != nil {
			return p, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		p.Workers = flagWorkers
	}
	if flags.Changed("iterations") {
		p.Iterations = flagIterations
	}
	if flags.Changed("payload") {
		p.Payload = flagPayload
	}
	if flags.Changed("slice-max") {
		p.SliceMax = flagSliceMax
	}
	if flags.Changed("mutate-every") {
		p.MutateEvery = flagMutateEvery
	}
	return p, p.Validate()
}

func runStress(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if flagDebug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	profile, err := resolveProfile(cmd)
	if err != nil {
		slog.Error("Invalid profile", "error", err)
		return err
	}

	if flagDebug {
		zl, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("create zap logger: %w", err)
		}
		defer zl.Sync()
		ebytes.SetLogger(zl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	alloc := buf.NewCounting(buf.Default)
	ebytes.SetAllocator(alloc)
	defer ebytes.SetAllocator(nil)

	slog.Info("Stress run started",
		"workers", profile.Workers,
		"iterations", profile.Iterations,
		"payload", profile.Payload,
		"slice_max", profile.SliceMax,
		"mutate_every", profile.MutateEvery)

	report, err := RunWorkload(ctx, profile, alloc, flagSeed)
	if err != nil {
		slog.Error("Stress run failed", "error", err, "steps", report.Steps)
		return err
	}

	slog.Info("Stress run finished",
		"steps", report.Steps,
		"mutations", report.Mutations,
		"allocs", report.Stats.Allocs,
		"frees", report.Stats.Frees,
		"elapsed", report.Elapsed)
	return nil
}

// Report summarizes a finished workload.
type Report struct {
	Steps     int64
	Mutations int64
	Stats     buf.Stats
	Elapsed   time.Duration
}

// RunWorkload shares one pooled source buffer across p.Workers goroutines.
// Each step clones the worker's handle, slices a random range, sometimes
// mutates that slice through BytesMut, and checks the clone still reads the
// original bytes. alloc must be the allocator installed in ebytes; after the
// run every allocation it saw must have been freed exactly once.
func RunWorkload(ctx context.Context, p Profile, alloc *buf.Counting, seed uint64) (Report, error) {
	if err := p.Validate(); err != nil {
		return Report{}, err
	}
	began := time.Now()
	before := alloc.Stats()

	want := make([]byte, p.Payload)
	for i := range want {
		want[i] = byte(i*31 + 7)
	}
	src := ebytes.CopyFrom(want)
	handles := make([]ebytes.Bytes, p.Workers)
	for i := range handles {
		handles[i] = src.Clone()
	}
	src.Release()

	var (
		steps     atomic.Int64
		mutations atomic.Int64
		wg        sync.WaitGroup
		errOnce   sync.Once
		firstErr  error
	)
	fail := func(err error) {
		errOnce.Do(func() { firstErr = err })
	}

	wg.Add(p.Workers)
	for w := range p.Workers {
		go func(mine ebytes.Bytes) {
			defer wg.Done()
			defer mine.Release()
			if err := work(ctx, p, w, mine, want, rand.New(rand.NewPCG(seed, uint64(w))), &steps, &mutations); err != nil {
				fail(err)
			}
		}(handles[w])
	}
	wg.Wait()

	report := Report{
		Steps:     steps.Load(),
		Mutations: mutations.Load(),
		Elapsed:   time.Since(began),
	}
	after := alloc.Stats()
	report.Stats = buf.Stats{
		Allocs:      after.Allocs - before.Allocs,
		Frees:       after.Frees - before.Frees,
		DoubleFrees: after.DoubleFrees - before.DoubleFrees,
		Live:        after.Live - before.Live,
	}

	if firstErr != nil {
		return report, firstErr
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	s := report.Stats
	if s.DoubleFrees != 0 {
		return report, fmt.Errorf("%d double frees", s.DoubleFrees)
	}
	if s.Frees != s.Allocs || s.Live != 0 {
		return report, fmt.Errorf("leak: %d allocs, %d frees, %d live", s.Allocs, s.Frees, s.Live)
	}
	return report, nil
}

func work(ctx context.Context, p Profile, id int, mine ebytes.Bytes, want []byte, rng *rand.Rand, steps, mutations *atomic.Int64) error {
	for i := 1; i <= p.Iterations; i++ {
		if i&0xff == 0 && ctx.Err() != nil {
			return nil
		}

		cl := mine.Clone()
		n := 1 + rng.IntN(p.SliceMax)
		start := rng.IntN(p.Payload - n + 1)

		s, err := cl.Slice(start, start+n)
		if err != nil {
			cl.Release()
			return fmt.Errorf("worker %d: %w", id, err)
		}

		if p.MutateEvery > 0 && i%p.MutateEvery == 0 {
			m := s.Mut()
			for j := range m.Bytes() {
				m.Bytes()[j] = byte(id)
			}
			if err := m.AppendByte(byte(id)); err != nil {
				m.Release()
				cl.Release()
				return fmt.Errorf("worker %d: %w", id, err)
			}
			s = m.Freeze()
			mutations.Add(1)
		}

		ok := bytes.Equal(cl.Bytes()[start:start+n], want[start:start+n])
		s.Release()
		cl.Release()
		steps.Add(1)
		if !ok {
			return fmt.Errorf("worker %d: write through another handle visible at [%d:%d]", id, start, start+n)
		}
	}
	return nil
}
