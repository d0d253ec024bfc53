package dataset

import (
	"fmt"

	"github.com/arthur-debert/zreplica/pkg/types"
)

// SendSpec selects the shape of a send stream. The only implementations are
// ResumeBy, IncrementalFrom and Full.
type SendSpec interface {
	// Mode names the transfer for logs: "resume", "incremental" or "full".
	Mode() string
	sendSpec()
}

// ResumeBy continues an interrupted receive identified by its token.
type ResumeBy struct {
	Token string
}

// IncrementalFrom sends the delta between Ancestor and Snapshot. The
// ancestor is always named explicitly so intermediate snapshots can be
// skipped.
type IncrementalFrom struct {
	Snapshot types.Snapshot
	Ancestor types.Ref
}

// Full sends the complete state of Snapshot.
type Full struct {
	Snapshot types.Snapshot
}

func (ResumeBy) Mode() string        { return "resume" }
func (IncrementalFrom) Mode() string { return "incremental" }
func (Full) Mode() string            { return "full" }

func (ResumeBy) sendSpec()        {}
func (IncrementalFrom) sendSpec() {}
func (Full) sendSpec()            {}

// sendOperands returns the arguments following `zfs send <options>`.
func sendOperands(spec SendSpec) []string {
	switch s := spec.(type) {
	case ResumeBy:
		return []string{"-t", s.Token}
	case IncrementalFrom:
		return []string{"-i", s.Ancestor.Ident().FQN, s.Snapshot.FQN}
	case Full:
		return []string{s.Snapshot.FQN}
	default:
		panic(fmt.Sprintf("dataset: unsupported send spec %T", spec))
	}
}
