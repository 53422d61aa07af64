package back

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"
)

func TestPrintfFormats(t *testing.T) {
	for _, tc := range []struct {
		format string
		args   []any
		want   string
	}{
		{"plain", nil, "plain"},
		{"%d", []any{int64(-5)}, "-5"},
		{"%i|%5i|%-5d|%05d", []any{int64(1), int64(2), int64(3), int64(-4)}, "1|    2|3    |-0004"},
		{"%+d % d", []any{int64(3), int64(3)}, "+3  3"},
		{"%u", []any{int64(-1)}, "4294967295"},
		{"%x %X %#x %o %#o", []any{int64(255), int64(255), int64(255), int64(8), int64(8)}, "ff FF 0xff 10 010"},
		{"%c%c", []any{int64('o'), int64('k')}, "ok"},
		{"%s|%5s|%-5s|%.2s", []any{[]byte("ab"), []byte("ab"), []byte("ab"), []byte("abc")}, "ab|   ab|ab   |ab"},
		{"%f %.2f %8.3f", []any{1.5, 2.5, -1.0}, "1.500000 2.50   -1.000"},
		{"%e %E", []any{12345.678, 0.5}, "1.234568e+04 5.000000E-01"},
		{"%g %g %g %.3g", []any{100000.0, 1234567.0, 0.0001, 3.14159}, "100000 1.23457e+06 0.0001 3.14"},
		{"%f %F", []any{math.Inf(1), math.NaN()}, "inf NAN"},
		{"%ld %lld %hd %zu", []any{int64(1), int64(2), int64(3), int64(4)}, "1 2 3 4"},
		{"100%%", nil, "100%"},
		{"stop\x00here %d", nil, "stop"},
	} {
		var buf bytes.Buffer

		n, err := Printf(&buf, []byte(tc.format), tc.args)
		require.NoError(t, err, tc.format)

		assert.Equal(t, tc.want, buf.String(), tc.format)
		assert.Equal(t, len(tc.want), n, tc.format)
	}
}

func TestPrintfErrors(t *testing.T) {
	for _, tc := range []struct {
		format string
		args   []any
	}{
		{"%d", nil},
		{"%*d", []any{int64(1), int64(2)}},
		{"%", nil},
		{"%k", []any{int64(1)}},
		{"%s", []any{int64(1)}},
	} {
		_, err := AppendPrintf(nil, []byte(tc.format), tc.args)
		assert.True(t, errors.Is(err, ErrFormat), "%q: %v", tc.format, err)
	}
}
