package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/meshkv/internal/cli/output"
	"github.com/yndnr/meshkv/pkg/client"
	"github.com/yndnr/meshkv/pkg/resp"
)

// benchCommands maps a bench workload to its request builder. n is the
// request number folded into the keyspace.
var benchCommands = map[string]func(n int, value string) []string{
	"ping":  func(int, string) []string { return []string{"PING"} },
	"set":   func(n int, v string) []string { return []string{"SET", "key:" + strconv.Itoa(n), v} },
	"get":   func(n int, _ string) []string { return []string{"GET", "key:" + strconv.Itoa(n)} },
	"hmset": func(n int, v string) []string { return []string{"HMSET", "hash:bench", "field:" + strconv.Itoa(n), v} },
	"hget":  func(n int, _ string) []string { return []string{"HGET", "hash:bench", "field:" + strconv.Itoa(n)} },
	"sadd":  func(n int, _ string) []string { return []string{"SADD", "set:bench", "member:" + strconv.Itoa(n)} },
}

// Doer runs one command.
type Doer interface {
	Do(ctx context.Context, args ...string) (resp.Frame, error)
}

// BenchOptions configures a benchmark run.
type BenchOptions struct {
	Command  string
	Clients  int
	Requests int
	Keyspace int
	DataSize int
	Progress io.Writer
}

// BenchReport summarizes a benchmark run.
type BenchReport struct {
	Command    string        `json:"command" yaml:"command"`
	Clients    int           `json:"clients" yaml:"clients"`
	Requests   int           `json:"requests" yaml:"requests"`
	Errors     int64         `json:"errors" yaml:"errors"`
	Duration   time.Duration `json:"duration_ns" yaml:"duration"`
	OpsPerSec  float64       `json:"ops_per_sec" yaml:"ops_per_sec"`
	LatencyP50 time.Duration `json:"latency_p50_ns" yaml:"latency_p50"`
	LatencyP99 time.Duration `json:"latency_p99_ns" yaml:"latency_p99"`
	LatencyMax time.Duration `json:"latency_max_ns" yaml:"latency_max"`
}

// String renders the report for raw output.
func (r BenchReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "====== %s ======\n", strings.ToUpper(r.Command))
	fmt.Fprintf(&b, "  %d requests completed in %s\n", r.Requests, r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "  %d parallel clients\n", r.Clients)
	fmt.Fprintf(&b, "  %d errors\n", r.Errors)
	fmt.Fprintf(&b, "  latency p50=%s p99=%s max=%s\n", r.LatencyP50, r.LatencyP99, r.LatencyMax)
	fmt.Fprintf(&b, "  %.2f requests per second", r.OpsPerSec)
	return b.String()
}

// BenchCommand returns the bench command.
func BenchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Measure throughput and latency of a workload",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "command",
				Aliases: []string{"t"},
				Usage:   "workload: " + strings.Join(benchNames(), ", "),
				Value:   "set",
			},
			&cli.IntFlag{
				Name:    "clients",
				Aliases: []string{"c"},
				Usage:   "parallel connections",
				Value:   50,
			},
			&cli.IntFlag{
				Name:    "requests",
				Aliases: []string{"n"},
				Usage:   "total requests",
				Value:   100000,
			},
			&cli.IntFlag{
				Name:    "keyspace",
				Aliases: []string{"r"},
				Usage:   "distinct keys or fields used",
				Value:   10000,
			},
			&cli.IntFlag{
				Name:    "data-size",
				Aliases: []string{"d"},
				Usage:   "value size in bytes",
				Value:   3,
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "hide the progress bar",
			},
		},
		Action: func(c *cli.Context) error {
			s := GetSettings(c)
			opts := BenchOptions{
				Command:  c.String("command"),
				Clients:  c.Int("clients"),
				Requests: c.Int("requests"),
				Keyspace: c.Int("keyspace"),
				DataSize: c.Int("data-size"),
			}
			if !c.Bool("quiet") {
				opts.Progress = stderr(c)
			}

			clientOpts, err := s.ClientOptions()
			if err != nil {
				return err
			}
			pool := client.NewPool(c.Context, s.Conn.Server,
				client.PoolConfig{MaxActive: opts.Clients}, clientOpts...)
			defer pool.Close(context.Background())

			report, err := RunBench(c.Context, pool, opts)
			if err != nil {
				return err
			}
			return s.Formatter.Format(stdout(c), report)
		},
	}
}

func benchNames() []string {
	names := make([]string, 0, len(benchCommands))
	for n := range benchCommands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RunBench issues opts.Requests commands from opts.Clients goroutines.
// Error replies are counted; transport errors abort the run.
func RunBench(ctx context.Context, d Doer, opts BenchOptions) (*BenchReport, error) {
	build, ok := benchCommands[strings.ToLower(opts.Command)]
	if !ok {
		return nil, fmt.Errorf("unknown bench command %q (want %s)", opts.Command, strings.Join(benchNames(), ", "))
	}
	if opts.Clients <= 0 || opts.Requests <= 0 {
		return nil, errors.New("clients and requests must be positive")
	}
	if opts.Clients > opts.Requests {
		opts.Clients = opts.Requests
	}
	if opts.Keyspace <= 0 {
		opts.Keyspace = opts.Requests
	}
	value := strings.Repeat("x", max(opts.DataSize, 1))

	var bar *output.ProgressBar
	if opts.Progress != nil {
		bar = output.NewProgressBar(opts.Progress, strings.ToUpper(opts.Command), int64(opts.Requests))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		next      atomic.Int64
		errCount  atomic.Int64
		wg        sync.WaitGroup
		firstErr  error
		errOnce   sync.Once
		latencies = make([][]time.Duration, opts.Clients)
	)

	start := time.Now()
	for w := 0; w < opts.Clients; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			lat := make([]time.Duration, 0, opts.Requests/opts.Clients+1)
			defer func() { latencies[w] = lat }()

			for {
				i := int(next.Add(1)) - 1
				if i >= opts.Requests || ctx.Err() != nil {
					return
				}
				t0 := time.Now()
				_, err := d.Do(ctx, build(i%opts.Keyspace, value)...)
				lat = append(lat, time.Since(t0))

				var serr *client.ServerError
				switch {
				case err == nil:
				case errors.As(err, &serr):
					errCount.Add(1)
				default:
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
					return
				}
				if bar != nil {
					bar.Increment(1)
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	if firstErr != nil {
		return nil, fmt.Errorf("bench %s: %w", opts.Command, firstErr)
	}
	if bar != nil {
		bar.Finish()
	}

	var all []time.Duration
	for _, l := range latencies {
		all = append(all, l...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })

	report := &BenchReport{
		Command:    strings.ToLower(opts.Command),
		Clients:    opts.Clients,
		Requests:   len(all),
		Errors:     errCount.Load(),
		Duration:   elapsed,
		LatencyP50: percentile(all, 0.50),
		LatencyP99: percentile(all, 0.99),
	}
	if len(all) > 0 {
		report.LatencyMax = all[len(all)-1]
	}
	if elapsed > 0 {
		report.OpsPerSec = float64(len(all)) / elapsed.Seconds()
	}
	return report, nil
}

// percentile returns the q-quantile of sorted using the nearest rank.
func percentile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	i := int(q*float64(len(sorted))+0.5) - 1
	if i < 0 {
		i = 0
	}
	if i >= len(sorted) {
		i = len(sorted) - 1
	}
	return sorted[i]
}
