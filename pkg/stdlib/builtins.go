package stdlib

import (
	"io"

	"github.com/thomasrohde/uuu/pkg/evaluator"
)

// RegisterDefaults adds clock and print. print writes to out.
func RegisterDefaults(r *Registry, out io.Writer) {
	r.Register(Fn{Name: "clock", Arity: 0, Execute: stdlibClock})
	r.Register(Fn{Name: "print", Arity: 1, Execute: printTo(out)})
}

// clock() → milliseconds on a monotonic clock
func stdlibClock(args []evaluator.Value) (evaluator.Value, error) {
	return evaluator.NewNumber(evaluator.MonotonicMillis()), nil
}

// print(value) → writes the rendering plus a newline, returns null
func printTo(out io.Writer) evaluator.NativeFunc {
	return func(args []evaluator.Value) (evaluator.Value, error) {
		if _, err := io.WriteString(out, evaluator.Stringify(args[0])+"\n"); err != nil {
			return nil, err
		}
		return evaluator.NewNull(), nil
	}
}
