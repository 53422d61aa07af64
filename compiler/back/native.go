package back

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/plang/plang/compiler/ir"
	"github.com/plang/plang/compiler/tp"
)

type (
	// Native runs a module with an LLVM tool found in PATH.
	// A driver main calls the program's main and writes its result
	// to a file, so the value is not limited to an exit status.
	Native struct {
		Tool   string // lli or clang
		Stdout io.Writer
		Stderr io.Writer

		// Keep the temp dir with main.ll for inspection.
		Keep bool
	}
)

// MinLLVMVersion is the first release with opaque pointers by default.
const MinLLVMVersion = 15

// entryName is what the program's main is called in the printed module.
const entryName = "plang.main"

var (
	ErrToolNotFound = errors.New("tool not found")
	ErrToolTooOld   = errors.New("tool too old")
	ErrToolFailed   = errors.New("tool failed")
	ErrNoResult     = errors.New("program produced no result")
	ErrNameConflict = errors.New("function name reserved by native driver")
)

var versionRE = regexp.MustCompile(`version (\d+)\.`)

var driverReserved = []string{entryName, "fopen", "fprintf", "fclose"}

// Available reports whether the tool can be run and reads opaque pointer IR.
func (x *Native) Available() bool {
	v, err := x.Version(context.Background())

	return err == nil && v >= MinLLVMVersion
}

// Version returns the major LLVM version the tool reports.
func (x *Native) Version(ctx context.Context) (int, error) {
	tool, err := exec.LookPath(x.Tool)
	if err != nil {
		return 0, errors.Wrap(ErrToolNotFound, "%v", x.Tool)
	}

	out, err := exec.CommandContext(ctx, tool, "--version").CombinedOutput()
	if err != nil {
		return 0, errors.Wrap(err, "%v --version", x.Tool)
	}

	m := versionRE.FindSubmatch(out)
	if m == nil {
		return 0, errors.New("%v: no version in %q", x.Tool, out)
	}

	return strconv.Atoi(string(m[1]))
}

func (x *Native) Run(ctx context.Context, m *ir.Module, entry string) (res int64, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "native", "tool", x.Tool, "entry", entry)
	defer tr.Finish("res", &res, "err", &err)

	if entry != "main" {
		return 0, errors.New("native engine can only run main, got %v", entry)
	}

	f := m.Func(entry)
	if f == nil || f.Decl() {
		return 0, errors.New("no function %v", entry)
	}

	if len(f.Params) != 0 || !tp.Equal(f.Sig.Out, tp.Int32) {
		return 0, errors.New("entry function %v must be %v(): int", entry, entry)
	}

	for _, name := range driverReserved {
		if m.Func(name) != nil {
			return 0, errors.Wrap(ErrNameConflict, "%v", name)
		}
	}

	ver, err := x.Version(ctx)
	if err != nil {
		return 0, err
	}

	if ver < MinLLVMVersion {
		return 0, errors.Wrap(ErrToolTooOld, "%v is LLVM %d, want %d+", x.Tool, ver, MinLLVMVersion)
	}

	tool, err := exec.LookPath(x.Tool)
	if err != nil {
		return 0, errors.Wrap(ErrToolNotFound, "%v", x.Tool)
	}

	dir, err := os.MkdirTemp("", "plang")
	if err != nil {
		return 0, errors.Wrap(err, "temp dir")
	}

	if x.Keep {
		tr.Printw("keeping temp dir", "dir", dir)
	} else {
		defer os.RemoveAll(dir)
	}

	ll := filepath.Join(dir, "main.ll")
	result := filepath.Join(dir, "result")

	err = os.WriteFile(ll, driverModule(m, f, result), 0o644)
	if err != nil {
		return 0, errors.Wrap(err, "write ir")
	}

	var stderr bytes.Buffer

	var cmd *exec.Cmd

	switch filepath.Base(x.Tool) {
	case "lli":
		cmd = exec.CommandContext(ctx, tool, ll)
	case "clang":
		bin := filepath.Join(dir, "main")

		out, err := exec.CommandContext(ctx, tool, "-Wno-override-module", "-o", bin, ll).CombinedOutput()
		if err != nil {
			return 0, errors.Wrap(ErrToolFailed, "clang: %v: %s", err, out)
		}

		cmd = exec.CommandContext(ctx, bin)
	default:
		return 0, errors.Wrap(ErrUnknownEngine, "%q", x.Tool)
	}

	cmd.Stdout = x.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}

	errw := x.Stderr
	if errw == nil {
		errw = os.Stderr
	}

	cmd.Stderr = io.MultiWriter(errw, &stderr)

	err = cmd.Run()
	if err != nil {
		return 0, errors.Wrap(ErrToolFailed, "%v: %v: %s", x.Tool, err, bytes.TrimSpace(stderr.Bytes()))
	}

	data, err := os.ReadFile(result)
	if err != nil {
		return 0, errors.Wrap(ErrNoResult, "%v", err)
	}

	res, err = strconv.ParseInt(string(bytes.TrimSpace(data)), 10, 64)
	if err != nil {
		return 0, errors.Wrap(ErrNoResult, "parse %q", data)
	}

	return res, nil
}

// driverModule prints m with f renamed to entryName and appends a main
// that calls it and writes the result as decimal text to the result file.
// f is renamed only while printing.
func driverModule(m *ir.Module, f *ir.Func, result string) []byte {
	name := f.Name

	f.Name = entryName
	b := m.AppendText(nil)
	f.Name = name

	path := append([]byte(result), 0)
	mode := []byte("w\x00")
	format := []byte("%d\n\x00")

	b = append(b, '\n')
	b = hfmt.Appendf(b, "@.plang.path = private constant [%d x i8] %s\n", len(path), ir.ConstBytes(path).Ident())
	b = hfmt.Appendf(b, "@.plang.mode = private constant [%d x i8] %s\n", len(mode), ir.ConstBytes(mode).Ident())
	b = hfmt.Appendf(b, "@.plang.fmt = private constant [%d x i8] %s\n", len(format), ir.ConstBytes(format).Ident())

	b = append(b, `
declare ptr @fopen(ptr, ptr)
declare i32 @fprintf(ptr, ptr, ...)
declare i32 @fclose(ptr)

define i32 @main() {
entry:
  %r = call i32 @plang.main()
  %f = call ptr @fopen(ptr @.plang.path, ptr @.plang.mode)
  %ok = icmp ne ptr %f, null
  br i1 %ok, label %write, label %fail
write:
  %n = call i32 (ptr, ptr, ...) @fprintf(ptr %f, ptr @.plang.fmt, i32 %r)
  %c = call i32 @fclose(ptr %f)
  ret i32 0
fail:
  ret i32 1
}
`...)

	return b
}
