package phpserialize

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Marshal serializes v in PHP serialize() format. Structs are written as
// objects and must be registered in scope; slices become list arrays and maps
// become keyed arrays with sorted keys.
func Marshal(v interface{}, scope *Scope) ([]byte, error) {
	e := &encoder{scope: scope}
	if err := e.encode(reflect.ValueOf(v)); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

type encoder struct {
	buf   bytes.Buffer
	scope *Scope
}

var (
	arrayType  = reflect.TypeOf((*Array)(nil))
	objectType = reflect.TypeOf((*Object)(nil))
)

func (e *encoder) encode(rv reflect.Value) error {
	if !rv.IsValid() {
		e.buf.WriteString("N;")
		return nil
	}

	switch rv.Type() {
	case arrayType:
		if rv.IsNil() {
			e.buf.WriteString("N;")
			return nil
		}
		return e.rawArray(rv.Interface().(*Array))
	case objectType:
		if rv.IsNil() {
			e.buf.WriteString("N;")
			return nil
		}
		return e.rawObject(rv.Interface().(*Object))
	}

	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr:
		if rv.IsNil() {
			e.buf.WriteString("N;")
			return nil
		}
		return e.encode(rv.Elem())
	case reflect.Bool:
		if rv.Bool() {
			e.buf.WriteString("b:1;")
		} else {
			e.buf.WriteString("b:0;")
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.writeInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return fmt.Errorf("phpserialize: uint %d overflows PHP int", u)
		}
		e.writeInt(int64(u))
	case reflect.Float32, reflect.Float64:
		e.buf.WriteString("d:")
		e.buf.WriteString(FormatFloat(rv.Float()))
		e.buf.WriteByte(';')
	case reflect.String:
		e.writeString(rv.String())
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			e.writeString(string(rv.Bytes()))
			return nil
		}
		return e.list(rv)
	case reflect.Array:
		return e.list(rv)
	case reflect.Map:
		return e.mapping(rv)
	case reflect.Struct:
		return e.object(rv)
	default:
		return fmt.Errorf("phpserialize: unsupported type %s", rv.Type())
	}
	return nil
}

func (e *encoder) writeInt(n int64) {
	e.buf.WriteString("i:")
	e.buf.WriteString(strconv.FormatInt(n, 10))
	e.buf.WriteByte(';')
}

func (e *encoder) writeString(s string) {
	fmt.Fprintf(&e.buf, "s:%d:\"%s\";", len(s), s)
}

func (e *encoder) writeKey(k interface{}) error {
	switch key := k.(type) {
	case int64:
		e.writeInt(key)
	case int:
		e.writeInt(int64(key))
	case string:
		e.writeString(key)
	default:
		return fmt.Errorf("phpserialize: invalid array key type %T", k)
	}
	return nil
}

func (e *encoder) list(rv reflect.Value) error {
	n := rv.Len()
	fmt.Fprintf(&e.buf, "a:%d:{", n)
	for i := 0; i < n; i++ {
		e.writeInt(int64(i))
		if err := e.encode(rv.Index(i)); err != nil {
			return err
		}
	}
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) mapping(rv reflect.Value) error {
	keys := rv.MapKeys()
	kind := rv.Type().Key().Kind()
	switch kind {
	case reflect.String:
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Int() < keys[j].Int() })
	default:
		return fmt.Errorf("phpserialize: unsupported map key type %s", rv.Type().Key())
	}

	fmt.Fprintf(&e.buf, "a:%d:{", len(keys))
	for _, k := range keys {
		if kind == reflect.String {
			e.writeString(k.String())
		} else {
			e.writeInt(k.Int())
		}
		if err := e.encode(rv.MapIndex(k)); err != nil {
			return err
		}
	}
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) object(rv reflect.Value) error {
	class, ok := e.scope.classOfType(rv.Type())
	if !ok {
		return fmt.Errorf("%w: no class registered for %s", ErrUnknownClass, rv.Type())
	}
	fields, err := structFields(rv.Type())
	if err != nil {
		return err
	}

	fmt.Fprintf(&e.buf, "O:%d:\"%s\":%d:{", len(class), class, len(fields))
	for _, f := range fields {
		e.writeString(mangle(class, f.name, f.vis))
		if err := e.encode(rv.Field(f.index)); err != nil {
			return fmt.Errorf("field %s: %w", f.name, err)
		}
	}
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) rawArray(a *Array) error {
	fmt.Fprintf(&e.buf, "a:%d:{", len(a.Entries))
	for _, entry := range a.Entries {
		if err := e.writeKey(entry.Key); err != nil {
			return err
		}
		if err := e.encode(reflect.ValueOf(entry.Value)); err != nil {
			return err
		}
	}
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) rawObject(o *Object) error {
	fmt.Fprintf(&e.buf, "O:%d:\"%s\":%d:{", len(o.Class), o.Class, len(o.Props))
	for _, p := range o.Props {
		e.writeString(p.Name)
		if err := e.encode(reflect.ValueOf(p.Value)); err != nil {
			return err
		}
	}
	e.buf.WriteByte('}')
	return nil
}

// FormatFloat renders f the way PHP's serialize() does with
// serialize_precision=-1.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case math.IsNaN(f):
		return "NAN"
	case f == 0:
		if math.Signbit(f) {
			return "-0"
		}
		return "0"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	idx := strings.IndexByte(sci, 'e')
	exp, _ := strconv.Atoi(sci[idx+1:])
	if exp >= -4 && exp < 15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	mantissa := sci[:idx]
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	return fmt.Sprintf("%sE%+d", mantissa, exp)
}
