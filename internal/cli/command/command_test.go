package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/meshkv/internal/server/redisserver"
	"github.com/yndnr/meshkv/internal/storage/memory"
	"github.com/yndnr/meshkv/internal/telemetry/metric"
	"github.com/yndnr/meshkv/pkg/client"
	"github.com/yndnr/meshkv/pkg/resp"
)

func startServer(t *testing.T) string {
	t.Helper()
	cfg := redisserver.DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	s := redisserver.New(cfg, memory.New(),
		redisserver.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		redisserver.WithMetrics(metric.NewRegistry()),
	)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s.Addr().String()
}

type runResult struct {
	out    string
	err    error
	exited int
}

// run executes the CLI with a private config file and captured output.
func run(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()
	var out, errOut bytes.Buffer
	res := runResult{exited: -1}

	app := App()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(_ *cli.Context, err error) {
		var ec cli.ExitCoder
		if errors.As(err, &ec) {
			res.exited = ec.ExitCode()
		}
	}

	cfgPath := filepath.Join(t.TempDir(), "cli.yaml")
	full := append([]string{"meshkv-cli", "--config", cfgPath}, args...)
	res.err = app.Run(full)
	res.out = out.String()
	return res
}

func TestApp_DefaultActionSendsCommand(t *testing.T) {
	addr := startServer(t)

	if r := run(t, "", "-s", addr, "SET", "greeting", "hello world"); r.err != nil || r.out != "OK\n" {
		t.Fatalf("SET = %q, %v", r.out, r.err)
	}
	if r := run(t, "", "-s", addr, "GET", "greeting"); r.out != "\"hello world\"\n" {
		t.Errorf("GET = %q, %v", r.out, r.err)
	}
	if r := run(t, "", "-s", addr, "-o", "json", "SADD", "s", "a", "b"); strings.TrimSpace(r.out) != "2" {
		t.Errorf("SADD json = %q, %v", r.out, r.err)
	}
}

func TestApp_ExecErrorReply(t *testing.T) {
	addr := startServer(t)

	r := run(t, "", "-s", addr, "exec", "bogus")
	if r.out != "(error) ERR unknown command 'bogus'\n" {
		t.Errorf("out = %q", r.out)
	}
	if r.exited != 1 {
		t.Errorf("exit code = %d, want 1", r.exited)
	}
}

func TestApp_ExecMissingCommand(t *testing.T) {
	r := run(t, "", "-s", "127.0.0.1:1", "exec")
	if r.exited != 2 {
		t.Errorf("exit code = %d, want 2", r.exited)
	}
}

func TestApp_ConnectionRefused(t *testing.T) {
	ln := listenAndClose(t)
	r := run(t, "", "-s", ln, "--timeout", "1s", "PING")
	if r.err == nil || !strings.Contains(r.err.Error(), "connect") {
		t.Errorf("err = %v, want connect error", r.err)
	}
}

func TestApp_Pipe(t *testing.T) {
	addr := startServer(t)

	stdin := "SET a 1\n# comment\n\nGET a\nHMSET h f \"two words\"\nHGET h f\nbogus\n"
	r := run(t, stdin, "-s", addr, "pipe")

	want := "OK\n\"1\"\n(integer) 1\n\"two words\"\n(error) ERR unknown command 'bogus'\n"
	if r.out != want {
		t.Errorf("out = %q, want %q", r.out, want)
	}
	if r.exited != 1 {
		t.Errorf("exit code = %d, want 1", r.exited)
	}
}

func TestApp_PipeBadQuotes(t *testing.T) {
	addr := startServer(t)
	r := run(t, "PING\nSET k \"open\n", "-s", addr, "pipe")
	if r.err == nil || !strings.Contains(r.err.Error(), "line 2") {
		t.Errorf("err = %v, want line 2 error", r.err)
	}
}

func TestApp_REPL(t *testing.T) {
	addr := startServer(t)

	r := run(t, "SET k v\nGET k\nexit\n", "-s", addr, "repl", "--history", "-")
	if r.err != nil {
		t.Fatalf("repl error = %v", r.err)
	}
	for _, s := range []string{addr + "> ", "OK\n", "\"v\"\n"} {
		if !strings.Contains(r.out, s) {
			t.Errorf("output missing %q:\n%s", s, r.out)
		}
	}
}

func TestApp_REPLHistoryFile(t *testing.T) {
	addr := startServer(t)
	history := filepath.Join(t.TempDir(), "history")

	if r := run(t, "PING\n", "-s", addr, "repl", "--history", history); r.err != nil {
		t.Fatalf("repl error = %v", r.err)
	}
	data, err := os.ReadFile(history)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "PING\n" {
		t.Errorf("history = %q", data)
	}
}

func TestResolveSettings_Priority(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cli.yaml")
	content := "default_server: file:6379\ndefault_output: yaml\ntimeout: 2s\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MESHKV_SERVER", "env:6379")

	var got *Settings
	app := App()
	app.Action = func(c *cli.Context) error {
		got = GetSettings(c)
		return nil
	}
	if err := app.Run([]string{"meshkv-cli", "--config", cfgPath, "-o", "json", "--tls"}); err != nil {
		t.Fatal(err)
	}

	if got.Conn.Server != "env:6379" {
		t.Errorf("server = %q, want env override", got.Conn.Server)
	}
	if got.Format != "json" {
		t.Errorf("format = %q, want flag override", got.Format)
	}
	if got.Config.Timeout != 2*time.Second {
		t.Errorf("timeout = %v, want file value", got.Config.Timeout)
	}
	if !got.Conn.TLS {
		t.Error("tls flag ignored")
	}
}

func TestResolveSettings_BadOutput(t *testing.T) {
	r := run(t, "", "-o", "table", "PING")
	if r.err == nil || !strings.Contains(r.err.Error(), "unknown output format") {
		t.Errorf("err = %v", r.err)
	}
}

func TestApp_Bench(t *testing.T) {
	addr := startServer(t)

	r := run(t, "", "-s", addr, "-o", "json", "bench", "-t", "sadd", "-n", "200", "-c", "4", "-r", "50", "-q")
	if r.err != nil {
		t.Fatalf("bench error = %v", r.err)
	}
	var report struct {
		Command  string `json:"command"`
		Clients  int    `json:"clients"`
		Requests int    `json:"requests"`
		Errors   int64  `json:"errors"`
	}
	if err := json.Unmarshal([]byte(r.out), &report); err != nil {
		t.Fatalf("decode %q: %v", r.out, err)
	}
	if report.Command != "sadd" || report.Requests != 200 || report.Clients != 4 || report.Errors != 0 {
		t.Errorf("report = %+v", report)
	}

	c, err := client.Dial(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	f, err := c.Do(context.Background(), "SCARD", "set:bench")
	if err != nil || f.Int != 50 {
		t.Errorf("SCARD = %v, %v, want 50", f, err)
	}
}

type fakeDoer struct {
	calls atomic.Int64
	fail  func(n int64) error
}

func (f *fakeDoer) Do(ctx context.Context, args ...string) (resp.Frame, error) {
	n := f.calls.Add(1)
	if f.fail != nil {
		if err := f.fail(n); err != nil {
			if se, ok := err.(*client.ServerError); ok {
				return resp.SimpleError(se.Message), err
			}
			return resp.Frame{}, err
		}
	}
	return resp.OK(), nil
}

func TestRunBench(t *testing.T) {
	d := &fakeDoer{fail: func(n int64) error {
		if n%10 == 0 {
			return &client.ServerError{Message: "ERR boom"}
		}
		return nil
	}}
	var progress bytes.Buffer
	report, err := RunBench(context.Background(), d, BenchOptions{
		Command: "SET", Clients: 3, Requests: 100, DataSize: 8, Progress: &progress,
	})
	if err != nil {
		t.Fatalf("RunBench() error = %v", err)
	}
	if report.Requests != 100 || d.calls.Load() != 100 {
		t.Errorf("requests = %d, calls = %d", report.Requests, d.calls.Load())
	}
	if report.Errors != 10 {
		t.Errorf("errors = %d, want 10", report.Errors)
	}
	if report.LatencyP50 > report.LatencyP99 || report.LatencyP99 > report.LatencyMax {
		t.Errorf("latencies out of order: %+v", report)
	}
	if !strings.HasSuffix(progress.String(), "(100/100)\n") {
		t.Errorf("progress = %q", progress.String())
	}
	if !strings.Contains(report.String(), "100 requests completed") {
		t.Errorf("String() = %q", report.String())
	}
}

func TestRunBench_TransportErrorAborts(t *testing.T) {
	boom := errors.New("connection reset")
	d := &fakeDoer{fail: func(n int64) error {
		if n == 5 {
			return boom
		}
		return nil
	}}
	_, err := RunBench(context.Background(), d, BenchOptions{Command: "ping", Clients: 2, Requests: 1000})
	if !errors.Is(err, boom) {
		t.Fatalf("RunBench() error = %v, want %v", err, boom)
	}
	if d.calls.Load() >= 1000 {
		t.Errorf("calls = %d, want run aborted early", d.calls.Load())
	}
}

func TestRunBench_InvalidOptions(t *testing.T) {
	tests := []BenchOptions{
		{Command: "flushall", Clients: 1, Requests: 1},
		{Command: "get", Clients: 0, Requests: 1},
		{Command: "get", Clients: 1, Requests: 0},
	}
	for _, opts := range tests {
		if _, err := RunBench(context.Background(), &fakeDoer{}, opts); err == nil {
			t.Errorf("RunBench(%+v) should fail", opts)
		}
	}
}

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	tests := []struct {
		q    float64
		want time.Duration
	}{
		{0.5, 5},
		{0.99, 10},
		{0, 1},
		{1, 10},
	}
	for _, tt := range tests {
		if got := percentile(sorted, tt.q); got != tt.want {
			t.Errorf("percentile(%v) = %v, want %v", tt.q, got, tt.want)
		}
	}
	if got := percentile(nil, 0.5); got != 0 {
		t.Errorf("percentile(nil) = %v", got)
	}
}

func listenAndClose(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func TestApp_CACertMissing(t *testing.T) {
	r := run(t, "", "-s", "127.0.0.1:1", "--cacert", filepath.Join(t.TempDir(), "missing.crt"), "PING")
	if r.err == nil || !strings.Contains(r.err.Error(), "ca file") {
		t.Errorf("err = %v, want ca file error", r.err)
	}
}

func TestApp_UnixSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meshkv.sock")
	s := redisserver.New(&redisserver.Config{UnixSocket: path}, memory.New(),
		redisserver.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		redisserver.WithMetrics(metric.NewRegistry()),
	)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	if r := run(t, "", "-s", client.UnixPrefix+path, "PING"); r.err != nil || r.out != "PONG\n" {
		t.Errorf("PING over unix = %q, %v", r.out, r.err)
	}
}
