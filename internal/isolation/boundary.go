package isolation

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"

	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driven"
	"github.com/custodia-labs/vetta/internal/logger"
)

// Ensure Boundary implements the interface.
var _ driven.SourceAdapter = (*Boundary)(nil)

// Boundary defaults.
const (
	DefaultTimeout   = 5 * time.Minute
	defaultWaitDelay = 2 * time.Second
	stderrTailBytes  = 2048
	handoffName      = "result.json"
)

// CommandFunc builds the worker command for one invocation. The command
// must be created with exec.CommandContext(ctx, ...), run the source named
// by key, and write its envelope to handoff.
type CommandFunc func(ctx context.Context, key domain.SourceKey, handoff string) (*exec.Cmd, error)

// Boundary is a SourceAdapter that runs its source in a fresh worker
// process per Fetch.
type Boundary struct {
	key       domain.SourceKey
	timeout   time.Duration
	command   CommandFunc
	precheck  func(domain.FetchRequest) error
	tempDir   string
	waitDelay time.Duration
}

// Option configures a Boundary.
type Option func(*Boundary)

// WithCommand overrides how the worker process is built.
func WithCommand(fn CommandFunc) Option {
	return func(b *Boundary) { b.command = fn }
}

// WithPrecheck runs check in the parent before spawning a worker, so a
// request missing a prerequisite never costs a process.
func WithPrecheck(check func(domain.FetchRequest) error) Option {
	return func(b *Boundary) { b.precheck = check }
}

// WithTempDir sets where hand-off directories are created. Defaults to os.TempDir.
func WithTempDir(dir string) Option {
	return func(b *Boundary) { b.tempDir = dir }
}

// WithWaitDelay bounds how long Fetch waits for output pipes after the worker is killed.
func WithWaitDelay(d time.Duration) Option {
	return func(b *Boundary) { b.waitDelay = d }
}

// NewBoundary creates a Boundary for key. A zero timeout uses DefaultTimeout.
// Without WithCommand, the current executable is re-run as "worker <key> --handoff <file>".
func NewBoundary(key domain.SourceKey, timeout time.Duration, opts ...Option) *Boundary {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	b := &Boundary{
		key:       key,
		timeout:   timeout,
		command:   SelfCommand(),
		waitDelay: defaultWaitDelay,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SelfCommand re-runs the current executable as a worker. extraArgs are
// appended, e.g. to forward --config-dir.
func SelfCommand(extraArgs ...string) CommandFunc {
	return func(ctx context.Context, key domain.SourceKey, handoff string) (*exec.Cmd, error) {
		exe, err := os.Executable()
		if err != nil {
			return nil, errors.Wrap(err, "locate executable")
		}
		args := append([]string{"worker", string(key), "--handoff", handoff}, extraArgs...)
		return exec.CommandContext(ctx, exe, args...), nil
	}
}

// Key returns the wrapped source's key.
func (b *Boundary) Key() domain.SourceKey {
	return b.key
}

// Timeout returns the hard limit for one worker.
func (b *Boundary) Timeout() time.Duration {
	return b.timeout
}

// Fetch runs the source in a worker and returns its payload.
// A worker that overruns its timeout is killed and yields
// "timed out after <timeout>", marked with domain.ErrTimeout.
func (b *Boundary) Fetch(ctx context.Context, req domain.FetchRequest) (any, error) {
	if b.precheck != nil {
		if err := b.precheck(req); err != nil {
			return nil, err
		}
	}

	// 1. Fresh hand-off directory, removed on every path along with
	// anything a killed worker left half-written in it
	dir, err := os.MkdirTemp(b.tempDir, "vetta-handoff-*")
	if err != nil {
		return nil, errors.Wrap(err, "create hand-off directory")
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("Failed to remove hand-off directory %s: %v", dir, err)
		}
	}()
	handoff := filepath.Join(dir, handoffName)

	input, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}

	// 2. Spawn the worker under a hard timeout
	runCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	cmd, err := b.command(runCtx, b.key, handoff)
	if err != nil {
		return nil, errors.Wrap(err, "build worker command")
	}
	var stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stderr = &stderr
	configureProcess(cmd)
	cmd.Cancel = func() error { return terminateProcess(cmd) }
	cmd.WaitDelay = b.waitDelay

	started := time.Now()
	runErr := cmd.Run()
	log := logger.FromContext(ctx).With(logger.FieldSource, b.key, logger.FieldDurationMS, time.Since(started).Milliseconds())

	// 3. Timeout wins over whatever the worker managed to write
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		log.Warnw("worker killed after timeout")
		return nil, errors.Mark(errors.Newf("timed out after %s", b.timeout), domain.ErrTimeout)
	}
	if ctx.Err() != nil {
		return nil, errors.Wrap(ctx.Err(), "worker cancelled")
	}

	// 4. Read the outcome back
	env, err := ReadEnvelope(handoff)
	if err != nil {
		if runErr != nil {
			log.Debugw("worker exited without result", logger.FieldError, runErr, "stderr", tail(stderr.String()))
		}
		return nil, err
	}
	log.Debugw("worker finished", "success", env.Success)
	return env.Result()
}

// tail returns at most stderrTailBytes from the end of s, cut on a rune boundary.
func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= stderrTailBytes {
		return s
	}
	i := len(s) - stderrTailBytes
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}
