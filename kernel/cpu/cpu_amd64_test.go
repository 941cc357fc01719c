package cpu

import "testing"

func TestIsIntel(t *testing.T) {
	defer func() {
		cpuidFn = ID
	}()

	specs := []struct {
		eax, ebx, ecx, edx uint32
		exp                bool
	}{
		// CPUID output from an Intel CPU
		{0xd, 0x756e6547, 0x6c65746e, 0x49656e69, true},
		// CPUID output from an AMD CPU ("AuthenticAMD")
		{0x1, 0x68747541, 0x444d4163, 0x69746e65, false},
	}

	for specIndex, spec := range specs {
		cpuidFn = func(_ uint32) (uint32, uint32, uint32, uint32) {
			return spec.eax, spec.ebx, spec.ecx, spec.edx
		}

		if got := IsIntel(); got != spec.exp {
			t.Errorf("[spec %d] expected IsIntel to return %t; got %t", specIndex, spec.exp, got)
		}
	}
}

func TestSaveAndRestoreInterrupts(t *testing.T) {
	// Outside ring 0 POPFQ ignores IF so the flag is reported as set both
	// times and the calls must not fault.
	flags := SaveAndDisableInterrupts()
	if flags&FlagInterruptEnable == 0 {
		t.Fatalf("expected saved RFLAGS to have IF set; got %x", flags)
	}
	RestoreInterrupts(flags)

	if again := SaveAndDisableInterrupts(); again&FlagInterruptEnable == 0 {
		t.Errorf("expected RFLAGS to keep IF set after RestoreInterrupts; got %x", again)
	}
	RestoreInterrupts(flags)
}
