package pipeline

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/alessio/shellescape"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/arthur-debert/zreplica/pkg/errors"
	"github.com/arthur-debert/zreplica/pkg/logging"
)

// Runner executes a chain of commands, the first one producing bytes and the
// last one consuming them, and returns the trimmed stdout of the last one.
type Runner interface {
	Run(ctx context.Context, cmds ...[]string) (string, error)
}

// StderrPolicy decides when a stage counts as failed.
type StderrPolicy string

const (
	// StderrStrict fails a stage on any stderr text or a non-zero exit.
	StderrStrict StderrPolicy = "strict"
	// StderrExitCode fails a stage on a non-zero exit only.
	StderrExitCode StderrPolicy = "exit-code"
)

// DefaultTerminateGrace is how long terminated processes get before SIGKILL.
const DefaultTerminateGrace = 5 * time.Second

// ParseStderrPolicy validates a policy name.
func ParseStderrPolicy(s string) (StderrPolicy, error) {
	switch p := StderrPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case StderrStrict, StderrExitCode:
		return p, nil
	case "":
		return StderrStrict, nil
	default:
		return "", errors.Newf(errors.ErrInvalidInput, "unknown stderr policy %q (want %q or %q)", s, StderrStrict, StderrExitCode)
	}
}

// Options configures a SystemRunner
type Options struct {
	StderrPolicy   StderrPolicy
	TerminateGrace time.Duration
	// Logger defaults to the "pipeline" component logger
	Logger *zerolog.Logger
}

// SystemRunner runs pipelines as real OS processes.
type SystemRunner struct {
	policy StderrPolicy
	grace  time.Duration
	logger zerolog.Logger
}

// NewSystemRunner creates a runner for real processes
func NewSystemRunner(opts Options) *SystemRunner {
	logger := logging.GetLogger("pipeline")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	policy := opts.StderrPolicy
	if policy == "" {
		policy = StderrStrict
	}

	grace := opts.TerminateGrace
	if grace <= 0 {
		grace = DefaultTerminateGrace
	}

	return &SystemRunner{
		policy: policy,
		grace:  grace,
		logger: logger,
	}
}

type stage struct {
	args   []string
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser
	// written by the stage's monitor, read after the errgroup is joined
	stderrText string
}

func (s *stage) command() string {
	return shellescape.QuoteCommand(s.args)
}

// failures keeps the first failure of each kind. Stage failures (stderr
// text) are reported in preference to forwarding errors, which are usually
// a consequence of a stage dying.
type failures struct {
	mu    sync.Mutex
	stage error
	io    error
}

func (f *failures) stageFailure(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stage == nil {
		f.stage = err
	}
	return err
}

func (f *failures) ioFailure(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.io == nil {
		f.io = err
	}
	return err
}

func (f *failures) failed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stage != nil || f.io != nil
}

// Run executes cmds as a connected chain. The output of the last command is
// returned only when every stage succeeded.
func (r *SystemRunner) Run(ctx context.Context, cmds ...[]string) (string, error) {
	if len(cmds) == 0 {
		return "", errors.New(errors.ErrInvalidInput, "pipeline needs at least one command")
	}
	for i, c := range cmds {
		if len(c) == 0 {
			return "", errors.Newf(errors.ErrInvalidInput, "pipeline stage %d is empty", i)
		}
	}
	logging.LogPipeline(r.logger, cmds)

	stages := make([]*stage, 0, len(cmds))
	for i, args := range cmds {
		st, err := start(args, i > 0)
		if err != nil {
			stop := r.terminate(stages)
			r.reap(stages)
			stop()
			command := shellescape.QuoteCommand(args)
			return "", errors.Wrapf(err, errors.ErrStageFailure, "failed to start `%s`", command).
				WithDetail(errors.DetailCommand, command)
		}
		stages = append(stages, st)
	}

	var (
		f      failures
		result bytes.Buffer
	)
	eg, gctx := errgroup.WithContext(ctx)

	for _, st := range stages {
		eg.Go(func() error { return r.monitor(st, &f) })
	}
	for i := 1; i < len(stages); i++ {
		up, down := stages[i-1], stages[i]
		eg.Go(func() error { return forward(up, down, &f) })
	}
	last := stages[len(stages)-1]
	eg.Go(func() error {
		if _, err := io.Copy(&result, last.stdout); err != nil {
			return f.ioFailure(errors.Wrapf(err, errors.ErrStageFailure, "failed to read output of `%s`", last.command()).
				WithDetail(errors.DetailCommand, last.command()))
		}
		return nil
	})

	// errgroup cancels gctx when Wait returns, so only terminate when
	// something actually went wrong.
	stopKill := func() {}
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		<-gctx.Done()
		if f.failed() || ctx.Err() != nil {
			r.logger.Debug().Msg("Terminating pipeline")
			stopKill = r.terminate(stages)
		}
	}()

	_ = eg.Wait()
	<-watched
	exits := r.reap(stages)
	stopKill()

	if err := r.firstError(ctx, &f, stages, exits); err != nil {
		return "", err
	}
	return strings.TrimSpace(result.String()), nil
}

func start(args []string, withStdin bool) (*stage, error) {
	st := &stage{args: args}
	st.cmd = exec.Command(args[0], args[1:]...)

	var err error
	if withStdin {
		if st.stdin, err = st.cmd.StdinPipe(); err != nil {
			return nil, err
		}
	}
	if st.stdout, err = st.cmd.StdoutPipe(); err != nil {
		return nil, err
	}
	if st.stderr, err = st.cmd.StderrPipe(); err != nil {
		return nil, err
	}
	if err := st.cmd.Start(); err != nil {
		return nil, err
	}
	return st, nil
}

// monitor reads a stage's stderr until the stage closes it.
func (r *SystemRunner) monitor(st *stage, f *failures) error {
	data, err := io.ReadAll(st.stderr)
	st.stderrText = string(data)
	if err != nil {
		return f.ioFailure(errors.Wrapf(err, errors.ErrStageFailure, "failed to read stderr of `%s`", st.command()).
			WithDetail(errors.DetailCommand, st.command()))
	}

	if strings.TrimSpace(st.stderrText) == "" {
		return nil
	}
	if r.policy == StderrStrict {
		return f.stageFailure(Classify(st.args, st.stderrText))
	}
	r.logger.Warn().
		Str("command", st.command()).
		Str("stderr", strings.TrimSpace(st.stderrText)).
		Msg("Stage wrote to stderr")
	return nil
}

// forward copies up's stdout into down's stdin and closes down's stdin at
// the end of the stream.
func forward(up, down *stage, f *failures) error {
	_, err := io.Copy(down.stdin, up.stdout)
	closeErr := down.stdin.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		return f.ioFailure(errors.Wrapf(err, errors.ErrStageFailure, "failed to forward `%s` into `%s`", up.command(), down.command()).
			WithDetail(errors.DetailCommand, down.command()))
	}
	return nil
}

// terminate sends SIGTERM to every started process and schedules a SIGKILL
// after the grace period. The returned func cancels the pending SIGKILL.
func (r *SystemRunner) terminate(stages []*stage) func() {
	for _, st := range stages {
		if st.cmd.Process != nil {
			_ = st.cmd.Process.Signal(syscall.SIGTERM)
		}
	}
	timer := time.AfterFunc(r.grace, func() {
		for _, st := range stages {
			if st.cmd.Process != nil {
				_ = st.cmd.Process.Kill()
			}
		}
	})
	return func() { timer.Stop() }
}

// reap waits for every process and returns their wait errors by stage.
func (r *SystemRunner) reap(stages []*stage) []error {
	exits := make([]error, len(stages))
	for i, st := range stages {
		exits[i] = st.cmd.Wait()
	}
	return exits
}

func (r *SystemRunner) firstError(ctx context.Context, f *failures, stages []*stage, exits []error) error {
	if f.stage != nil {
		return f.stage
	}
	// a process that exited on its own with a non-zero status caused the
	// failure; processes we signalled report -1
	for i, err := range exits {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			return exitFailure(stages[i], err)
		}
	}
	if f.io != nil {
		return f.io
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrStageFailure, "pipeline cancelled")
	}
	for i, err := range exits {
		if err != nil {
			return exitFailure(stages[i], err)
		}
	}
	return nil
}

func exitFailure(st *stage, err error) error {
	text := st.stderrText
	if strings.TrimSpace(text) == "" {
		text = fmt.Sprintf("%v", err)
	}
	e := Classify(st.args, text)
	e.Wrapped = err
	return e
}
