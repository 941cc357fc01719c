package kernel

import "testing"

func TestKernelError(t *testing.T) {
	err := &Error{
		Module:  "pic",
		Message: "invalid vector offset",
	}

	var asErr error = err
	if asErr.Error() != err.Message {
		t.Fatalf("expected err.Error() to return %q; got %q", err.Message, asErr.Error())
	}
}
