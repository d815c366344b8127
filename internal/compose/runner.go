package compose

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/dockhand/dockhand/internal/limits"
)

var (
	// ErrComposeNotFound indicates the compose file does not exist on disk
	ErrComposeNotFound = errors.New("compose file not found")
	// ErrTimeout indicates the compose command outlived its deadline
	ErrTimeout = errors.New("compose command timed out")
)

const (
	mutateTimeout  = 180 * time.Second
	inspectTimeout = 30 * time.Second
)

// Result is the outcome of one finished compose invocation. A non-zero exit
// code is data, not an error; only launch failures and timeouts surface as
// errors.
type Result struct {
	ExitCode int
	Output   string
}

// OK reports whether the command exited cleanly.
func (r Result) OK() bool { return r.ExitCode == 0 }

// Runner invokes the docker CLI against a single compose file. Commands run
// in the compose file's directory so relative paths inside it resolve.
type Runner struct {
	bin            string
	mutateTimeout  time.Duration
	inspectTimeout time.Duration
}

func NewRunner() *Runner {
	return &Runner{
		bin:            "docker",
		mutateTimeout:  mutateTimeout,
		inspectTimeout: inspectTimeout,
	}
}

// Up brings the service group up in detached mode.
func (r *Runner) Up(ctx context.Context, composePath string) (Result, error) {
	return r.compose(ctx, composePath, r.mutateTimeout, true, "up", "-d")
}

// Down stops and removes the service group. Stopping an already stopped
// group exits cleanly; the operation is idempotent at the docker level.
func (r *Runner) Down(ctx context.Context, composePath string) (Result, error) {
	return r.compose(ctx, composePath, r.mutateTimeout, true, "down")
}

// Ps lists the group's containers for status inspection.
func (r *Runner) Ps(ctx context.Context, composePath string) (Result, error) {
	return r.compose(ctx, composePath, r.inspectTimeout, false, "ps")
}

func (r *Runner) compose(ctx context.Context, composePath string, timeout time.Duration, preflight bool, args ...string) (Result, error) {
	if _, err := os.Stat(composePath); err != nil {
		if os.IsNotExist(err) {
			return Result{}, fmt.Errorf("%w: %s", ErrComposeNotFound, composePath)
		}
		return Result{}, fmt.Errorf("stat compose file: %w", err)
	}
	if preflight {
		// Fail fast on unparsable yaml instead of letting docker chew on it.
		if _, err := Load(composePath); err != nil {
			return Result{}, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	argv := append([]string{"compose", "-f", composePath}, args...)
	cmd := exec.CommandContext(ctx, r.bin, argv...)
	cmd.Dir = filepath.Dir(composePath)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	output := truncate(out.String(), limits.ComposeOutput)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Result{}, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{ExitCode: exitErr.ExitCode(), Output: output}, nil
		}
		return Result{}, fmt.Errorf("run %s compose: %w", r.bin, err)
	}
	return Result{Output: output}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n... (output truncated)"
}
