package back

import (
	"io"
	"math"
	"strconv"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
)

var ErrFormat = errors.New("bad format")

// Printf formats like C printf and writes the result to w.
// Arguments are int64 for integers, float64 for doubles and []byte for strings.
// Length modifiers are accepted and ignored.
func Printf(w io.Writer, format []byte, args []any) (n int, err error) {
	b, err := AppendPrintf(nil, format, args)
	if err != nil {
		return 0, err
	}

	return w.Write(b)
}

func AppendPrintf(b, format []byte, args []any) (_ []byte, err error) {
	argi := 0

	next := func(verb byte) (any, error) {
		if argi >= len(args) {
			return nil, errors.Wrap(ErrFormat, "missing argument for %%%c", verb)
		}

		a := args[argi]
		argi++

		return a, nil
	}

	for i := 0; i < len(format); {
		c := format[i]

		if c == 0 {
			break
		}

		if c != '%' {
			st := i

			for i < len(format) && format[i] != '%' && format[i] != 0 {
				i++
			}

			b = append(b, format[st:i]...)

			continue
		}

		i++

		var spec []byte
		spec = append(spec, '%')

		for i < len(format) && isFlag(format[i]) {
			spec = append(spec, format[i])
			i++
		}

		precision := false

		for i < len(format) && (isDigit(format[i]) || format[i] == '.') {
			if format[i] == '.' {
				precision = true
			}

			spec = append(spec, format[i])
			i++
		}

		if i < len(format) && format[i] == '*' {
			return nil, errors.Wrap(ErrFormat, "* width is not supported")
		}

		for i < len(format) && isLength(format[i]) {
			i++
		}

		if i >= len(format) || format[i] == 0 {
			return nil, errors.Wrap(ErrFormat, "unterminated conversion")
		}

		verb := format[i]
		i++

		if verb == '%' {
			b = append(b, '%')
			continue
		}

		a, err := next(verb)
		if err != nil {
			return nil, err
		}

		b, err = appendConv(b, spec, precision, verb, a)
		if err != nil {
			return nil, err
		}
	}

	return b, nil
}

func appendConv(b, spec []byte, precision bool, verb byte, a any) ([]byte, error) {
	switch verb {
	case 'd', 'i':
		return hfmt.Appendf(b, string(spec)+"d", asInt(a)), nil
	case 'u':
		return hfmt.Appendf(b, string(spec)+"d", uint32(asInt(a))), nil
	case 'x', 'X', 'o':
		return hfmt.Appendf(b, string(spec)+string(verb), uint32(asInt(a))), nil
	case 'c':
		return append(b, byte(asInt(a))), nil
	case 's':
		s, ok := a.([]byte)
		if !ok {
			return nil, errors.Wrap(ErrFormat, "%%s with %T argument", a)
		}

		return hfmt.Appendf(b, string(spec)+"s", s), nil
	case 'p':
		return append(b, "0x"+strconv.FormatUint(uint64(asInt(a)), 16)...), nil
	case 'f', 'F', 'e', 'E', 'g', 'G':
		f := asFloat(a)

		if math.IsInf(f, 0) || math.IsNaN(f) {
			return appendNonFinite(b, f, verb), nil
		}

		if !precision && (verb == 'g' || verb == 'G') {
			spec = append(spec, ".6"...)
		}

		return hfmt.Appendf(b, string(spec)+string(verb), f), nil
	default:
		return nil, errors.Wrap(ErrFormat, "unsupported conversion %%%c", verb)
	}
}

func appendNonFinite(b []byte, f float64, verb byte) []byte {
	var s string

	switch {
	case math.IsNaN(f):
		s = "nan"
	case f > 0:
		s = "inf"
	default:
		s = "-inf"
	}

	if verb >= 'A' && verb <= 'Z' {
		for i := 0; i < len(s); i++ {
			if s[i] >= 'a' {
				b = append(b, s[i]-'a'+'A')
			} else {
				b = append(b, s[i])
			}
		}

		return b
	}

	return append(b, s...)
}

func asInt(a any) int64 {
	switch a := a.(type) {
	case int64:
		return a
	case float64:
		return int64(math.Float64bits(a))
	default:
		return 0
	}
}

func asFloat(a any) float64 {
	switch a := a.(type) {
	case float64:
		return a
	case int64:
		return math.Float64frombits(uint64(a))
	default:
		return 0
	}
}

func isFlag(c byte) bool {
	switch c {
	case '-', '+', ' ', '#', '0':
		return true
	}

	return false
}

func isLength(c byte) bool {
	switch c {
	case 'h', 'l', 'z', 'j', 't', 'L', 'q':
		return true
	}

	return false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
