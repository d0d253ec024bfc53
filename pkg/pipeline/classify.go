package pipeline

import (
	"regexp"
	"strings"

	"github.com/alessio/shellescape"

	"github.com/arthur-debert/zreplica/pkg/errors"
)

var destinationExists = regexp.MustCompile(`(?s)destination '.*' exists`)

// Classify turns the stderr text of a failed stage into a typed error. Known
// phrases of the zfs tools map to specific codes; anything else is a generic
// stage failure. The quoted command line and the raw stderr are attached as
// details.
func Classify(args []string, stderr string) *errors.ReplicaError {
	text := strings.TrimSpace(stderr)
	command := shellescape.QuoteCommand(args)

	code := errors.ErrStageFailure
	switch {
	case strings.Contains(text, "dataset does not exist"):
		code = errors.ErrNoSuchDataset
	case destinationExists.MatchString(text):
		code = errors.ErrDestinationExists
	}

	return errors.Newf(code, "command `%s` failed: %s", command, text).
		WithDetail(errors.DetailCommand, command).
		WithDetail(errors.DetailStderr, text)
}
