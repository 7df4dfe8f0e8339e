package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/navpolicy/geometry"
	"github.com/signalsfoundry/navpolicy/internal/logging"
	"github.com/signalsfoundry/navpolicy/navigation"
)

type benchTarget struct {
	volume *geometry.Volume
	nav    navigation.Navigator
}

type benchResult struct {
	queries    []int
	candidates []int
}

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run random queries against every volume concurrently",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			workers, _ := cmd.Flags().GetInt("workers")
			queries, _ := cmd.Flags().GetInt("queries")
			seed, _ := cmd.Flags().GetInt64("seed")
			if workers <= 0 {
				return fmt.Errorf("--workers must be positive, got %d", workers)
			}
			if queries <= 0 {
				return fmt.Errorf("--queries must be positive, got %d", queries)
			}

			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.close(context.Background())

			addr := s.cfg.MetricsAddr
			if v, _ := cmd.Flags().GetString("metrics-addr"); v != "" {
				addr = v
			}
			if srv := serveMetrics(addr, s.collector, s.log); srv != nil {
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			var targets []benchTarget
			for _, vol := range s.det.Volumes() {
				if comp := s.det.Policy(vol.Name()); comp != nil {
					targets = append(targets, benchTarget{volume: vol, nav: navigation.Observed(comp, s.collector)})
				}
			}
			if len(targets) == 0 {
				return fmt.Errorf("no volume has a navigation policy")
			}

			start := time.Now()
			results, err := runBench(ctx, targets, workers, queries, seed)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			s.log.Info(ctx, "benchmark finished",
				logging.Int("workers", workers),
				logging.Int("queries", queries),
				logging.String("elapsed", elapsed.String()),
			)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VOLUME\tQUERIES\tMEAN CANDIDATES")
			for i, t := range targets {
				mean := 0.0
				if results.queries[i] > 0 {
					mean = float64(results.candidates[i]) / float64(results.queries[i])
				}
				fmt.Fprintf(w, "%s\t%d\t%.2f\n", t.volume.Name(), results.queries[i], mean)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d queries in %s\n", queries, elapsed.Round(time.Microsecond))
			return nil
		},
	}

	cmd.Flags().Int("workers", 4, "Concurrent query workers")
	cmd.Flags().Int("queries", 10000, "Total number of queries")
	cmd.Flags().Int64("seed", 1, "Random seed for query positions")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address while running")
	return cmd
}

// runBench spreads queries over workers. Each worker draws uniform positions
// inside a randomly chosen volume from its own seeded source, so a run is
// reproducible for a given seed and worker count.
func runBench(ctx context.Context, targets []benchTarget, workers, queries int, seed int64) (benchResult, error) {
	perWorker := make([]benchResult, workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		n := queries / workers
		if w < queries%workers {
			n++
		}
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed + int64(w)))
			res := benchResult{
				queries:    make([]int, len(targets)),
				candidates: make([]int, len(targets)),
			}
			for i := 0; i < n; i++ {
				if i%256 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				ti := rng.Intn(len(targets))
				b := targets[ti].volume.Bounds()
				q := navigation.Query{
					Position:  randomPoint(rng, b),
					Direction: geometry.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()},
				}
				res.queries[ti]++
				res.candidates[ti] += len(targets[ti].nav.Candidates(q))
			}
			perWorker[w] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return benchResult{}, err
	}

	total := benchResult{
		queries:    make([]int, len(targets)),
		candidates: make([]int, len(targets)),
	}
	for _, r := range perWorker {
		for i := range targets {
			total.queries[i] += r.queries[i]
			total.candidates[i] += r.candidates[i]
		}
	}
	return total, nil
}

func randomPoint(rng *rand.Rand, b geometry.Bounds) geometry.Vec {
	return geometry.Vec{
		X: b.Min.X + rng.Float64()*(b.Max.X-b.Min.X),
		Y: b.Min.Y + rng.Float64()*(b.Max.Y-b.Min.Y),
		Z: b.Min.Z + rng.Float64()*(b.Max.Z-b.Min.Z),
	}
}
