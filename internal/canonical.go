package internal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// canonicalJSON re-encodes raw the way JSON.stringify would: compact, keys
// in source order, numbers in shortest round-trip form, strings with only
// the escapes JSON requires. Input that does not decode is returned trimmed.
func canonicalJSON(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	w := newCanonicalWriter()

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := w.value(dec); err != nil {
		return string(trimmed)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return string(trimmed)
	}
	return w.buf.String()
}

type canonicalWriter struct {
	buf bytes.Buffer
	enc *json.Encoder
}

func newCanonicalWriter() *canonicalWriter {
	w := &canonicalWriter{}
	w.enc = json.NewEncoder(&w.buf)
	w.enc.SetEscapeHTML(false)
	return w
}

func (w *canonicalWriter) value(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			w.buf.WriteByte('{')
			for first := true; dec.More(); first = false {
				if !first {
					w.buf.WriteByte(',')
				}
				keyTok, err := dec.Token()
				if err != nil {
					return err
				}
				key, ok := keyTok.(string)
				if !ok {
					return fmt.Errorf("object key is %T", keyTok)
				}
				if err := w.str(key); err != nil {
					return err
				}
				w.buf.WriteByte(':')
				if err := w.value(dec); err != nil {
					return err
				}
			}
			if _, err := dec.Token(); err != nil {
				return err
			}
			w.buf.WriteByte('}')
		case '[':
			w.buf.WriteByte('[')
			for first := true; dec.More(); first = false {
				if !first {
					w.buf.WriteByte(',')
				}
				if err := w.value(dec); err != nil {
					return err
				}
			}
			if _, err := dec.Token(); err != nil {
				return err
			}
			w.buf.WriteByte(']')
		default:
			return fmt.Errorf("unexpected delimiter %q", v)
		}
	case string:
		return w.str(v)
	case json.Number:
		w.buf.WriteString(jsNumber(v))
	case bool:
		w.buf.WriteString(strconv.FormatBool(v))
	case nil:
		w.buf.WriteString("null")
	default:
		return fmt.Errorf("unexpected token %T", tok)
	}
	return nil
}

func (w *canonicalWriter) str(s string) error {
	if err := w.enc.Encode(s); err != nil {
		return err
	}
	// Encode appends a newline
	w.buf.Truncate(w.buf.Len() - 1)
	return nil
}

// jsNumber formats n as a JavaScript number: shortest round-trip digits,
// exponent form only below 1e-6 or from 1e21 up. Values that overflow a
// float64 render as null.
func jsNumber(n json.Number) string {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return "null"
	}
	if f == 0 {
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		mant, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
		sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// jsText converts a JSON value to the string JavaScript produces when it
// joins it into text: null becomes empty, arrays join their elements with
// commas, objects become "[object Object]".
func jsText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}

	switch trimmed[0] {
	case '"':
		s, _ := jsonString(trimmed)
		return s
	case 'n':
		return ""
	case 't', 'f':
		return string(trimmed)
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return ""
		}
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = jsText(e)
		}
		return strings.Join(parts, ",")
	case '{':
		return "[object Object]"
	default:
		return jsNumber(json.Number(trimmed))
	}
}
