package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/arthur-debert/zreplica/pkg/errors"
	"github.com/arthur-debert/zreplica/pkg/replication"
)

func (st Styles) status(s replication.Status) string {
	label := fmt.Sprintf("%-14s", s)
	switch s {
	case replication.StatusToSync:
		return st.Accent.Render(label)
	case replication.StatusAlreadySynced:
		return st.Success.Render(label)
	default:
		return st.Muted.Render(label)
	}
}

// RenderPlan writes one line per source snapshot with its sync status.
func RenderPlan(w io.Writer, plan *replication.Plan, st Styles) error {
	for _, e := range plan.Entries {
		if _, err := fmt.Fprintf(w, "%s %s\n", st.status(e.Status), e.Snapshot.FQN); err != nil {
			return err
		}
	}
	return nil
}

// RenderTransfers summarizes completed transfers.
func RenderTransfers(w io.Writer, transfers []replication.Transfer, dryRun bool, st Styles) error {
	verb := "sent"
	if dryRun {
		verb = "would send"
	}
	for _, t := range transfers {
		var line string
		switch {
		case t.Mode == replication.ModeSkip:
			line = fmt.Sprintf("%s %s", st.Muted.Render("skipped"), t.Snapshot.FQN)
		case t.Base != nil:
			line = fmt.Sprintf("%s %s from %s (%s)", st.Success.Render(verb), t.Snapshot.FQN,
				t.Base.Ident().FQN, humanize.IBytes(t.Size))
		default:
			line = fmt.Sprintf("%s %s %s (%s)", st.Success.Render(verb), t.Mode, t.Snapshot.FQN, humanize.IBytes(t.Size))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderPrune lists the snapshots each rule kept and destroyed.
func RenderPrune(w io.Writer, result *replication.PruneResult, st Styles) error {
	verb := "destroyed"
	if result.DryRun {
		verb = "would destroy"
	}
	for _, rr := range result.Rules {
		header := fmt.Sprintf("%s keep %d: %d matched", rr.Rule.Pattern, rr.Rule.Keep, len(rr.Matched))
		if _, err := fmt.Fprintln(w, st.Dataset.Render(header)); err != nil {
			return err
		}
		for _, name := range rr.Kept {
			fmt.Fprintf(w, "  %s %s\n", st.Success.Render("kept"), name)
		}
		for _, name := range rr.Destroyed {
			fmt.Fprintf(w, "  %s %s\n", st.Warning.Render(verb), name)
		}
	}
	_, err := fmt.Fprintf(w, "%s %d snapshot(s)\n", verb, len(result.Destroyed))
	return err
}

// RenderError writes err with its code and the captured stderr, if any.
func RenderError(w io.Writer, err error, st Styles) {
	code := errors.GetErrorCode(err)
	fmt.Fprintf(w, "%s %s\n", st.Error.Render("Error:"), err.Error())

	details := errors.GetErrorDetails(err)
	if stderr, ok := details[errors.DetailStderr].(string); ok && stderr != "" && !strings.Contains(err.Error(), stderr) {
		for _, line := range strings.Split(stderr, "\n") {
			fmt.Fprintf(w, "  %s\n", st.Muted.Render(line))
		}
	}
	if code == errors.ErrInconsistentTarget {
		fmt.Fprintln(w, st.Muted.Render("The target holds a snapshot the source does not know; resolve it manually."))
	}
}
