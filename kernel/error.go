package kernel

// Error describes an error raised by one of the kernel subsystems. Errors are
// always declared as package-level *Error values; the kernel runs without a
// Go heap so errors.New and fmt.Errorf cannot be used.
type Error struct {
	// The subsystem that raised the error (e.g. "vmm", "pic").
	Module string

	// The error message
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}
