// Command redirects patches the kernel image so that calls to selected Go
// runtime functions are redirected to kernel implementations. Redirects are
// declared with a "//go:redirect-from runtime.fn" comment above the target
// function.
//
// Usage (from the module root):
//
//	redirects count                  print the number of redirects
//	redirects list                   print each redirect and its target
//	redirects populate-table kernel  fill the .goredirectstbl section of kernel
package main

import (
	"debug/elf"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

const (
	redirectDirective = "//go:redirect-from"
	redirectSection   = ".goredirectstbl"
	kernelDir         = "kernel"

	// each table entry holds the source and target VMA as uint64 values.
	tableEntrySize = 16
)

type redirect struct {
	src string
	dst string
	pos token.Position

	srcVMA uint64
	dstVMA uint64
}

func (r *redirect) String() string {
	return fmt.Sprintf("%s -> %s (%s)", r.src, r.dst, r.pos)
}

// redirectTable is the ordered list of redirects found in the kernel sources.
type redirectTable []*redirect

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[redirects] error: %s\n", err.Error())
	os.Exit(1)
}

// modulePath returns the module path declared in the go.mod file at modFile.
func modulePath(modFile string) (string, error) {
	data, err := os.ReadFile(modFile)
	if err != nil {
		return "", err
	}

	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("%s: missing module directive", modFile)
	}

	return path, nil
}

func collectGoFiles(root string) ([]string, error) {
	var goFiles []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		if filepath.Ext(path) == ".go" && !strings.HasSuffix(path, "_test.go") {
			goFiles = append(goFiles, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return goFiles, nil
}

// findRedirects scans goFiles (paths relative to the module root) for
// go:redirect-from directives in function doc comments. Target names are
// qualified with the module path. Each runtime function may be redirected
// once and only plain functions can be targets.
func findRedirects(module string, goFiles []string) (redirectTable, error) {
	var (
		table  redirectTable
		bySrc  = make(map[string]*redirect)
		fset   = token.NewFileSet()
		errMsg = func(pos token.Pos, format string, args ...interface{}) error {
			return fmt.Errorf("%s: %s", fset.Position(pos), fmt.Sprintf(format, args...))
		}
	)

	for _, goFile := range goFiles {
		f, err := parser.ParseFile(fset, goFile, nil, parser.ParseComments)
		if err != nil {
			return nil, err
		}

		pkgPath := module + "/" + filepath.ToSlash(filepath.Dir(goFile))
		for _, decl := range f.Decls {
			fnDecl, ok := decl.(*ast.FuncDecl)
			if !ok || fnDecl.Doc == nil {
				continue
			}

			for _, comment := range fnDecl.Doc.List {
				if !strings.HasPrefix(comment.Text, redirectDirective) {
					continue
				}

				fields := strings.Fields(comment.Text)
				switch {
				case len(fields) != 2 || fields[0] != redirectDirective:
					return nil, errMsg(comment.Pos(), "malformed go:redirect-from syntax for %s", fnDecl.Name)
				case !strings.HasPrefix(fields[1], "runtime."):
					return nil, errMsg(comment.Pos(), "%s: only runtime functions can be redirected", fields[1])
				case fnDecl.Recv != nil:
					return nil, errMsg(fnDecl.Pos(), "method %s cannot be a redirect target", fnDecl.Name)
				case fnDecl.Type.TypeParams != nil:
					return nil, errMsg(fnDecl.Pos(), "generic function %s cannot be a redirect target", fnDecl.Name)
				}

				if prev := bySrc[fields[1]]; prev != nil {
					return nil, errMsg(comment.Pos(), "%s is already redirected to %s", fields[1], prev.dst)
				}

				r := &redirect{
					src: fields[1],
					dst: pkgPath + "." + fnDecl.Name.Name,
					pos: fset.Position(comment.Pos()),
				}
				bySrc[r.src] = r
				table = append(table, r)
			}
		}
	}

	return table, nil
}

// resolve looks up the source and target addresses of each redirect in the
// image symbol table. Unresolved targets usually mean that the linker dropped
// a kernel function that nothing calls.
func (t redirectTable) resolve(symbols []elf.Symbol) error {
	addrs := make(map[string]uint64, len(symbols))
	for _, symbol := range symbols {
		addrs[symbol.Name] = symbol.Value
	}

	var unresolved []string
	for _, r := range t {
		r.srcVMA, r.dstVMA = addrs[r.src], addrs[r.dst]
		if r.srcVMA == 0 {
			unresolved = append(unresolved, r.src)
		}
		if r.dstVMA == 0 {
			unresolved = append(unresolved, fmt.Sprintf("%s (declared at %s)", r.dst, r.pos))
		}
	}

	if len(unresolved) != 0 {
		return fmt.Errorf("could not locate the address of: %s", strings.Join(unresolved, ", "))
	}

	return nil
}

// encode serializes the table into a buffer that fills a section of
// sectionSize bytes. Unused entries are left zeroed.
func (t redirectTable) encode(sectionSize uint64) ([]byte, error) {
	if need := uint64(len(t)) * tableEntrySize; need > sectionSize {
		return nil, fmt.Errorf("%s section holds %d entries; %d redirects found", redirectSection, sectionSize/tableEntrySize, len(t))
	}

	buf := make([]byte, sectionSize)
	for i, r := range t {
		binary.LittleEndian.PutUint64(buf[i*tableEntrySize:], r.srcVMA)
		binary.LittleEndian.PutUint64(buf[i*tableEntrySize+8:], r.dstVMA)
	}

	return buf, nil
}

// populate resolves the table against the kernel image at imgFile and writes
// it to the redirect section.
func (t redirectTable) populate(imgFile string) error {
	img, err := elf.Open(imgFile)
	if err != nil {
		return err
	}

	section := img.Section(redirectSection)
	symbols, err := img.Symbols()
	img.Close()

	switch {
	case section == nil:
		return fmt.Errorf("%s: missing %s section", imgFile, redirectSection)
	case err != nil:
		return fmt.Errorf("%s: %w", imgFile, err)
	}

	if err = t.resolve(symbols); err != nil {
		return fmt.Errorf("%s: %w", imgFile, err)
	}

	buf, err := t.encode(section.Size)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(imgFile, os.O_WRONLY, 0)
	if err != nil {
		return err
	}

	if _, err = f.WriteAt(buf, int64(section.Offset)); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func main() {
	flag.Parse()
	if info, err := os.Stat(kernelDir); err != nil || !info.IsDir() {
		exit(errors.New("this tool must be run from the module root folder"))
	}

	cmd := flag.Arg(0)
	switch {
	case cmd == "":
		exit(errors.New("missing command"))
	case cmd == "populate-table" && flag.NArg() != 2:
		exit(errors.New("populate-table requires the path to the kernel image as an argument"))
	case cmd != "count" && cmd != "list" && cmd != "populate-table":
		exit(fmt.Errorf("unknown command %q", cmd))
	}

	module, err := modulePath("go.mod")
	if err != nil {
		exit(err)
	}

	goFiles, err := collectGoFiles(kernelDir)
	if err != nil {
		exit(err)
	}

	table, err := findRedirects(module, goFiles)
	if err != nil {
		exit(err)
	}

	switch cmd {
	case "count":
		fmt.Printf("%d", len(table))
	case "list":
		for _, r := range table {
			fmt.Println(r)
		}
	case "populate-table":
		if err = table.populate(flag.Arg(1)); err != nil {
			exit(err)
		}
	}
}
