package back

import (
	"context"
	"io"

	"tlog.app/go/errors"

	"github.com/plang/plang/compiler/ir"
)

type (
	// Engine executes a function of a verified module and returns its result.
	Engine interface {
		Run(ctx context.Context, m *ir.Module, entry string) (int64, error)
	}
)

var ErrUnknownEngine = errors.New("unknown engine")

// New returns an engine by name: interp, lli or clang.
func New(name string, stdout io.Writer) (Engine, error) {
	switch name {
	case "", "interp":
		return &Interp{Stdout: stdout}, nil
	case "lli", "clang":
		return &Native{Tool: name, Stdout: stdout}, nil
	default:
		return nil, errors.Wrap(ErrUnknownEngine, "%q", name)
	}
}
