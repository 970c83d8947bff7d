package phpserialize

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

const maxDepth = 256

// SyntaxError describes malformed serialized input.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("phpserialize: %s at offset %d", e.Msg, e.Offset)
}

// Decode parses data into the untyped value model: nil, bool, int64,
// float64, string, *Array or *Object.
func Decode(data []byte) (interface{}, error) {
	d := &decoder{data: data}
	v, err := d.value(0)
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, d.errorf("trailing data")
	}
	return v, nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Offset: d.pos, Msg: fmt.Sprintf(format, args...)}
}

func (d *decoder) value(depth int) (interface{}, error) {
	if depth > maxDepth {
		return nil, d.errorf("nesting too deep")
	}
	if d.pos >= len(d.data) {
		return nil, d.errorf("unexpected end of input")
	}
	tag := d.data[d.pos]
	d.pos++

	switch tag {
	case 'N':
		if err := d.expect(';'); err != nil {
			return nil, err
		}
		return nil, nil
	case 'b':
		raw, err := d.scalar()
		if err != nil {
			return nil, err
		}
		switch raw {
		case "0":
			return false, nil
		case "1":
			return true, nil
		}
		return nil, d.errorf("invalid bool %q", raw)
	case 'i':
		raw, err := d.scalar()
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, d.errorf("invalid int %q", raw)
		}
		return n, nil
	case 'd':
		raw, err := d.scalar()
		if err != nil {
			return nil, err
		}
		return d.parseFloat(raw)
	case 's':
		return d.str()
	case 'a':
		return d.array(depth)
	case 'O':
		return d.object(depth)
	}
	return nil, &SyntaxError{Offset: d.pos - 1, Msg: fmt.Sprintf("unsupported type %q", tag)}
}

func (d *decoder) parseFloat(raw string) (interface{}, error) {
	switch raw {
	case "INF":
		return math.Inf(1), nil
	case "-INF":
		return math.Inf(-1), nil
	case "NAN":
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, d.errorf("invalid float %q", raw)
	}
	return f, nil
}

func (d *decoder) expect(b byte) error {
	if d.pos >= len(d.data) || d.data[d.pos] != b {
		return d.errorf("expected %q", b)
	}
	d.pos++
	return nil
}

// scalar reads ":<text>;" and returns text.
func (d *decoder) scalar() (string, error) {
	if err := d.expect(':'); err != nil {
		return "", err
	}
	end := bytes.IndexByte(d.data[d.pos:], ';')
	if end < 0 {
		return "", d.errorf("unterminated value")
	}
	raw := string(d.data[d.pos : d.pos+end])
	d.pos += end + 1
	return raw, nil
}

// length reads ":<n>:" and returns n.
func (d *decoder) length() (int, error) {
	if err := d.expect(':'); err != nil {
		return 0, err
	}
	end := bytes.IndexByte(d.data[d.pos:], ':')
	if end < 0 {
		return 0, d.errorf("unterminated length")
	}
	n, err := strconv.Atoi(string(d.data[d.pos : d.pos+end]))
	if err != nil || n < 0 {
		return 0, d.errorf("invalid length")
	}
	d.pos += end + 1
	return n, nil
}

// quoted reads `"<n bytes>"`.
func (d *decoder) quoted(n int) (string, error) {
	if err := d.expect('"'); err != nil {
		return "", err
	}
	if n > len(d.data)-d.pos {
		return "", d.errorf("string length %d exceeds input", n)
	}
	s := string(d.data[d.pos : d.pos+n])
	d.pos += n
	if err := d.expect('"'); err != nil {
		return "", err
	}
	return s, nil
}

func (d *decoder) str() (string, error) {
	n, err := d.length()
	if err != nil {
		return "", err
	}
	s, err := d.quoted(n)
	if err != nil {
		return "", err
	}
	if err := d.expect(';'); err != nil {
		return "", err
	}
	return s, nil
}

func (d *decoder) key() (interface{}, error) {
	start := d.pos
	k, err := d.value(maxDepth)
	if err != nil {
		return nil, err
	}
	switch k.(type) {
	case int64, string:
		return k, nil
	}
	return nil, &SyntaxError{Offset: start, Msg: "array key must be int or string"}
}

func (d *decoder) entries(n, depth int) ([]Entry, error) {
	if err := d.expect('{'); err != nil {
		return nil, err
	}
	// An entry is at least four bytes.
	out := make([]Entry, 0, min(n, (len(d.data)-d.pos)/4))
	for i := 0; i < n; i++ {
		k, err := d.key()
		if err != nil {
			return nil, err
		}
		v, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Key: k, Value: v})
	}
	if err := d.expect('}'); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *decoder) array(depth int) (*Array, error) {
	n, err := d.length()
	if err != nil {
		return nil, err
	}
	entries, err := d.entries(n, depth)
	if err != nil {
		return nil, err
	}
	return &Array{Entries: entries}, nil
}

func (d *decoder) object(depth int) (*Object, error) {
	n, err := d.length()
	if err != nil {
		return nil, err
	}
	class, err := d.quoted(n)
	if err != nil {
		return nil, err
	}
	count, err := d.length()
	if err != nil {
		return nil, err
	}
	entries, err := d.entries(count, depth)
	if err != nil {
		return nil, err
	}
	obj := &Object{Class: class, Props: make([]Property, 0, len(entries))}
	for _, e := range entries {
		name, ok := e.Key.(string)
		if !ok {
			name = strconv.FormatInt(e.Key.(int64), 10)
		}
		obj.Props = append(obj.Props, Property{Name: name, Value: e.Value})
	}
	return obj, nil
}
