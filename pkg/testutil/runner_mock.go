package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRunner is a testify mock of pipeline.Runner. Expectations match on the
// whole chain: r.On("Run", mock.Anything, [][]string{{"zfs", "list", ...}}).
type MockRunner struct {
	mock.Mock
}

// Run records the call and returns the configured output.
func (m *MockRunner) Run(ctx context.Context, cmds ...[]string) (string, error) {
	args := m.Called(ctx, cmds)
	return args.String(0), args.Error(1)
}
