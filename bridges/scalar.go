package bridges

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"unicode/utf8"
)

// scalarWriter renders JSON scalars the way the script engine stringifies them.
type scalarWriter struct {
	buf     bytes.Buffer
	encoder *json.Encoder
}

func newScalarWriter() *scalarWriter {
	w := new(scalarWriter)
	w.encoder = json.NewEncoder(&w.buf)
	w.encoder.SetEscapeHTML(false)
	return w
}

func (w *scalarWriter) appendString(b []byte, str string) []byte {
	w.buf.Reset()
	// encoding a string never fails
	_ = w.encoder.Encode(str)
	return appendUnescapedSeparators(b, bytes.TrimSuffix(w.buf.Bytes(), []byte("\n")))
}

// appendUnescapedSeparators writes U+2028 and U+2029 raw, as the engine's
// stringify does. encoding/json always escapes them.
func appendUnescapedSeparators(b []byte, encoded []byte) []byte {
	if !bytes.Contains(encoded, []byte(`\u202`)) {
		return append(b, encoded...)
	}
	for i := 0; i < len(encoded); i++ {
		c := encoded[i]
		if c != '\\' || i+1 >= len(encoded) {
			b = append(b, c)
			continue
		}
		if i+5 < len(encoded) && encoded[i+1] == 'u' {
			switch string(encoded[i+2 : i+6]) {
			case "2028":
				b = utf8.AppendRune(b, '\u2028')
				i += 5
				continue
			case "2029":
				b = utf8.AppendRune(b, '\u2029')
				i += 5
				continue
			}
		}
		// other escapes are copied whole
		b = append(b, c, encoded[i+1])
		i++
	}
	return b
}

func appendBool(b []byte, v bool) []byte {
	return strconv.AppendBool(b, v)
}

// appendFloat follows the engine's number printing: NaN and infinities have no
// JSON form and become null, -0 prints as 0, exponent form outside [1e-6, 1e21).
func appendFloat(b []byte, f float64, bits int) []byte {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return append(b, "null"...)
	}
	if f == 0 {
		return append(b, '0')
	}

	format := byte('f')
	if abs := math.Abs(f); abs < 1e-6 || abs >= 1e21 {
		format = 'e'
	}
	b = strconv.AppendFloat(b, f, format, -1, bits)

	if format == 'e' {
		// e-07 -> e-7
		n := len(b)
		if n >= 4 && b[n-4] == 'e' && b[n-3] == '-' && b[n-2] == '0' {
			b[n-2] = b[n-1]
			b = b[:n-1]
		}
	}

	return b
}
