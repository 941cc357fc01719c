package kfmt

import (
	"io"

	"minircore/kernel"
	"minircore/kernel/cpu"
)

const panicRule = "\n-----------------------------------\n"

// Dumper is implemented by values that can describe the machine state at the
// point of failure, such as the saved registers of an interrupted context.
type Dumper interface {
	DumpTo(w io.Writer)
}

var (
	// cpuHaltFn is mocked by tests and is automatically inlined by the compiler.
	cpuHaltFn = cpu.Halt

	errRuntimePanic = &kernel.Error{Module: "rt", Message: "unknown cause"}

	// panicContext is set by PanicWithContext and consumed by the next Panic.
	panicContext Dumper
)

// Panic outputs the supplied error (if not nil) to the active output sink and
// halts the CPU. Calls to Panic never return. Panic also works as a
// redirection target for calls to panic() (resolved via runtime.gopanic).
//
//go:redirect-from runtime.gopanic
func Panic(e interface{}) {
	err := panicError(e)
	ctx := panicContext
	panicContext = nil

	Printf(panicRule)
	if err != nil {
		Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	if ctx != nil {
		Printf("interrupted context:\n")
		ctx.DumpTo(GetOutputSink())
	}
	Printf("*** kernel panic: system halted ***")
	Printf(panicRule)

	cpuHaltFn()
}

// PanicWithContext behaves like Panic but also dumps ctx before halting.
// Fatal exception handlers pass the registers of the faulting context.
func PanicWithContext(err *kernel.Error, ctx Dumper) {
	panicContext = ctx
	Panic(err)
}

// panicString serves as a redirect target for runtime.throw.
//
//go:redirect-from runtime.throw
func panicString(msg string) {
	errRuntimePanic.Message = msg
	Panic(errRuntimePanic)
}

// panicError maps the value passed to Panic to a kernel error. Runtime
// errors and strings are reported under the "rt" module.
func panicError(e interface{}) *kernel.Error {
	switch t := e.(type) {
	case *kernel.Error:
		return t
	case string:
		errRuntimePanic.Message = t
		return errRuntimePanic
	case error:
		errRuntimePanic.Message = t.Error()
		return errRuntimePanic
	}

	return nil
}
