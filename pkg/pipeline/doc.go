// Package pipeline runs chains of OS processes connected stdout to stdin,
// the way a shell runs `a | b | c`, and reports the captured output of the
// last process.
//
// All processes of one chain are started before any byte is forwarded. One
// goroutine forwards each adjacent pair, one watches each process's stderr
// and one collects the final output; they share a single errgroup scope. The
// first failure cancels the scope, every process of the chain is asked to
// terminate (SIGTERM, then SIGKILL after a grace period) and the runner waits
// for all of them before returning exactly one classified error.
//
// By default any text on a stage's stderr fails that stage even when it exits
// with status zero (StderrStrict). StderrExitCode relaxes this to the exit
// status only; stderr is then used for error classification.
package pipeline
