package processor

import "context"

// canned trace tool for driving Detect/Probe without a real binary.
type fakeTool struct {
	out  string
	err  error
	args []string
}

func (f *fakeTool) Run(_ context.Context, args ...string) (string, error) {
	f.args = args
	return f.out, f.err
}

func (f *fakeTool) IsConfigured() bool { return true }
