package main

import (
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, contents := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}

		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// chdir switches the working directory to dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()

	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

func TestFindRedirects(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"go.mod": "module example.org/kernelmod\n\ngo 1.24.0\n",
		"kernel/kfmt/panic.go": `package kfmt

// Panic halts the CPU.
//
//go:redirect-from runtime.gopanic
func Panic(e interface{}) {}

// panicString is not exported.
//
//go:redirect-from runtime.throw
func panicString(msg string) {}

func notRedirected() {}
`,
		"kernel/kfmt/panic_test.go": `package kfmt

//go:redirect-from runtime.ignored
func testOnly() {}
`,
	})
	chdir(t, root)

	prefix, err := modulePath("go.mod")
	if err != nil {
		t.Fatal(err)
	}

	if exp := "example.org/kernelmod"; prefix != exp {
		t.Fatalf("expected module path to be %q; got %q", exp, prefix)
	}

	goFiles, err := collectGoFiles("kernel")
	if err != nil {
		t.Fatal(err)
	}

	if len(goFiles) != 1 {
		t.Fatalf("expected test files to be skipped; got %v", goFiles)
	}

	redirects, err := findRedirects(prefix, goFiles)
	if err != nil {
		t.Fatal(err)
	}

	exp := map[string]string{
		"runtime.gopanic": "example.org/kernelmod/kernel/kfmt.Panic",
		"runtime.throw":   "example.org/kernelmod/kernel/kfmt.panicString",
	}

	if len(redirects) != len(exp) {
		t.Fatalf("expected %d redirects; got %d", len(exp), len(redirects))
	}

	for _, r := range redirects {
		if got := exp[r.src]; got != r.dst {
			t.Errorf("expected redirect from %q to target %q; got %q", r.src, got, r.dst)
		}
	}
}

func TestFindRedirectsErrors(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"kernel/malformed.go": `package kernel

//go:redirect-from runtime.gopanic extra
func Panic() {}
`,
		"kernel/invalid.go": "package kernel\n\nfunc {",
		"nomodule/go.mod":   "go 1.24.0\n",
	})
	chdir(t, root)

	if _, err := findRedirects("m", []string{"kernel/malformed.go"}); err == nil || !strings.Contains(err.Error(), "malformed go:redirect-from syntax") {
		t.Errorf("expected a malformed syntax error; got %v", err)
	}

	if _, err := findRedirects("m", []string{"kernel/invalid.go"}); err == nil || !strings.HasPrefix(err.Error(), "kernel/invalid.go") {
		t.Errorf("expected a parse error; got %v", err)
	}

	specs := []struct {
		file   string
		src    string
		expErr string
	}{
		{
			"kernel/notruntime.go",
			"package kernel\n\n//go:redirect-from fmt.Println\nfunc Println() {}\n",
			"kernel/notruntime.go:3:1: fmt.Println: only runtime functions can be redirected",
		},
		{
			"kernel/method.go",
			"package kernel\n\ntype T struct{}\n\n//go:redirect-from runtime.gopanic\nfunc (T) Panic() {}\n",
			"kernel/method.go:6:1: method Panic cannot be a redirect target",
		},
		{
			"kernel/duplicate.go",
			"package kernel\n\n//go:redirect-from runtime.throw\nfunc a() {}\n\n//go:redirect-from runtime.throw\nfunc b() {}\n",
			"kernel/duplicate.go:6:1: runtime.throw is already redirected to m/kernel.a",
		},
	}

	for specIndex, spec := range specs {
		writeFiles(t, root, map[string]string{spec.file: spec.src})

		if _, err := findRedirects("m", []string{spec.file}); err == nil || err.Error() != spec.expErr {
			t.Errorf("[spec %d] expected error %q; got %v", specIndex, spec.expErr, err)
		}
	}

	if _, err := modulePath("nomodule/go.mod"); err == nil {
		t.Error("expected an error for a go.mod without a module directive")
	}

	if _, err := modulePath("missing/go.mod"); err == nil {
		t.Error("expected an error for a missing go.mod")
	}
}

func TestRedirectTableResolve(t *testing.T) {
	symbols := []elf.Symbol{
		{Name: "runtime.gopanic", Value: 0x1000},
		{Name: "runtime.throw", Value: 0x2000},
		{Name: "m/kernel/kfmt.Panic", Value: 0x3000},
	}

	table := redirectTable{
		{src: "runtime.gopanic", dst: "m/kernel/kfmt.Panic"},
	}

	if err := table.resolve(symbols); err != nil {
		t.Fatal(err)
	}

	if table[0].srcVMA != 0x1000 || table[0].dstVMA != 0x3000 {
		t.Errorf("expected redirect to resolve to (0x1000, 0x3000); got (%#x, %#x)", table[0].srcVMA, table[0].dstVMA)
	}

	// The linker drops kernel functions that nothing calls
	table = append(table, &redirect{src: "runtime.throw", dst: "m/kernel/kfmt.panicString"})
	err := table.resolve(symbols)
	if err == nil || !strings.Contains(err.Error(), "m/kernel/kfmt.panicString") || strings.Contains(err.Error(), "runtime.throw") {
		t.Errorf("expected only the missing target to be reported; got %v", err)
	}
}

func TestRedirectTableEncode(t *testing.T) {
	table := redirectTable{
		{srcVMA: 0x1000, dstVMA: 0x3000},
		{srcVMA: 0x2000, dstVMA: 0x4000},
	}

	buf, err := table.encode(4 * tableEntrySize)
	if err != nil {
		t.Fatal(err)
	}

	if len(buf) != 4*tableEntrySize {
		t.Fatalf("expected encoded table to fill the section; got %d bytes", len(buf))
	}

	exp := []uint64{0x1000, 0x3000, 0x2000, 0x4000, 0, 0, 0, 0}
	for i, want := range exp {
		if got := binary.LittleEndian.Uint64(buf[i*8:]); got != want {
			t.Errorf("[word %d] expected %#x; got %#x", i, want, got)
		}
	}

	if _, err = table.encode(tableEntrySize); err == nil || !strings.Contains(err.Error(), "holds 1 entries; 2 redirects found") {
		t.Errorf("expected a capacity error; got %v", err)
	}
}
