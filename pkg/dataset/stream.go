package dataset

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/arthur-debert/zreplica/pkg/pipeline"
	"github.com/arthur-debert/zreplica/pkg/zfs"
)

// SizePlaceholder in a filter stage argument is replaced with the estimated
// stream size in bytes, e.g. `pv -s {size}`.
const SizePlaceholder = "{size}"

// Stream is the producing half of a send/receive pipeline. It is not run
// until a dataset receives it.
type Stream struct {
	spec   SendSpec
	args   []string
	runner pipeline.Runner

	mu    sync.Mutex
	size  uint64
	sized bool
}

// Spec returns the shape the stream was built from.
func (s *Stream) Spec() SendSpec {
	return s.spec
}

// Args returns the send command line, remote prefix included.
func (s *Stream) Args() []string {
	return append([]string(nil), s.args...)
}

// Size estimates the stream size with a dry run of the send command. The
// result is computed once per stream.
func (s *Stream) Size(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sized {
		return s.size, nil
	}
	output, err := s.runner.Run(ctx, zfs.EstimateArgs(s.args))
	if err != nil {
		return 0, err
	}
	size, err := zfs.ParseSizeEstimate(output)
	if err != nil {
		return 0, err
	}
	s.size, s.sized = size, true
	return size, nil
}

// expandPipes substitutes SizePlaceholder in every filter argument. The size
// is only estimated when a placeholder is present.
func (s *Stream) expandPipes(ctx context.Context, pipes [][]string) ([][]string, error) {
	var size string
	expanded := make([][]string, len(pipes))
	for i, pipe := range pipes {
		expanded[i] = make([]string, len(pipe))
		for j, arg := range pipe {
			if strings.Contains(arg, SizePlaceholder) && size == "" {
				n, err := s.Size(ctx)
				if err != nil {
					return nil, err
				}
				size = strconv.FormatUint(n, 10)
			}
			if size != "" {
				arg = strings.ReplaceAll(arg, SizePlaceholder, size)
			}
			expanded[i][j] = arg
		}
	}
	return expanded, nil
}
