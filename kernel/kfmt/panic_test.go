package kfmt

import (
	"bytes"
	"errors"
	"io"
	"minircore/kernel"
	"minircore/kernel/cpu"
	"testing"
)

func TestPanic(t *testing.T) {
	defer func() {
		cpuHaltFn = cpu.Halt
		outputSink = nil
	}()

	var (
		buf           bytes.Buffer
		cpuHaltCalled bool
	)

	cpuHaltFn = func() {
		cpuHaltCalled = true
	}
	SetOutputSink(&buf)

	specs := []struct {
		input interface{}
		exp   string
	}{
		{
			&kernel.Error{Module: "test", Message: "panic test"},
			"\n-----------------------------------\n[test] unrecoverable error: panic test\n*** kernel panic: system halted ***\n-----------------------------------\n",
		},
		{
			errors.New("go error"),
			"\n-----------------------------------\n[rt] unrecoverable error: go error\n*** kernel panic: system halted ***\n-----------------------------------\n",
		},
		{
			"string error",
			"\n-----------------------------------\n[rt] unrecoverable error: string error\n*** kernel panic: system halted ***\n-----------------------------------\n",
		},
		{
			nil,
			"\n-----------------------------------\n*** kernel panic: system halted ***\n-----------------------------------\n",
		},
	}

	for specIndex, spec := range specs {
		buf.Reset()
		cpuHaltCalled = false

		Panic(spec.input)

		if got := buf.String(); got != spec.exp {
			t.Errorf("[spec %d] expected to get:\n%q\ngot:\n%q", specIndex, spec.exp, got)
		}

		if !cpuHaltCalled {
			t.Errorf("[spec %d] expected cpu.Halt() to be called by Panic", specIndex)
		}
	}
}

type regsDump struct {
	rip uint64
}

func (d *regsDump) DumpTo(w io.Writer) {
	Fprintf(w, "RIP = %16x\n", d.rip)
}

func TestPanicWithContext(t *testing.T) {
	defer func() {
		cpuHaltFn = cpu.Halt
		outputSink = nil
	}()

	var (
		buf           bytes.Buffer
		cpuHaltCalled bool
	)

	cpuHaltFn = func() {
		cpuHaltCalled = true
	}
	SetOutputSink(&buf)

	PanicWithContext(&kernel.Error{Module: "irq", Message: "double fault"}, &regsDump{rip: 0xdeadbeef})

	exp := "\n-----------------------------------\n[irq] unrecoverable error: double fault\ninterrupted context:\nRIP = 00000000deadbeef\n*** kernel panic: system halted ***\n-----------------------------------\n"
	if got := buf.String(); got != exp {
		t.Errorf("expected to get:\n%q\ngot:\n%q", exp, got)
	}

	if !cpuHaltCalled {
		t.Error("expected cpu.Halt() to be called by PanicWithContext")
	}

	if panicContext != nil {
		t.Error("expected the panic context to be consumed")
	}

	// A plain Panic that follows does not repeat the previous context
	buf.Reset()
	Panic(nil)
	if exp, got := "\n-----------------------------------\n*** kernel panic: system halted ***\n-----------------------------------\n", buf.String(); got != exp {
		t.Errorf("expected to get:\n%q\ngot:\n%q", exp, got)
	}
}
