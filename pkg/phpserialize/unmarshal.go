package phpserialize

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// Unmarshal decodes data and binds the root object to the Go type registered
// for its class. Properties without a matching field are ignored.
func Unmarshal(data []byte, scope *Scope) (interface{}, error) {
	raw, err := Decode(data)
	if err != nil {
		return nil, err
	}
	obj, ok := raw.(*Object)
	if !ok {
		return nil, fmt.Errorf("phpserialize: root value is %T, want object", raw)
	}
	return bindObject(obj, scope)
}

func bindObject(obj *Object, scope *Scope) (interface{}, error) {
	if scope == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, obj.Class)
	}
	target, err := scope.New(obj.Class)
	if err != nil {
		return nil, err
	}
	if err := assignObject(obj, reflect.ValueOf(target).Elem(), scope); err != nil {
		return nil, err
	}
	return target, nil
}

func assignObject(obj *Object, rv reflect.Value, scope *Scope) error {
	fields, err := structFields(rv.Type())
	if err != nil {
		return err
	}
	for _, p := range obj.Props {
		name, _ := PropertyName(p.Name)
		for _, f := range fields {
			if f.name != name {
				continue
			}
			if err := assign(p.Value, rv.Field(f.index), scope); err != nil {
				return fmt.Errorf("%s::%s: %w", obj.Class, name, err)
			}
			break
		}
	}
	return nil
}

func assign(src interface{}, dst reflect.Value, scope *Scope) error {
	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	switch dst.Kind() {
	case reflect.Ptr:
		if obj, ok := src.(*Object); ok && dst.Type().Elem().Kind() == reflect.Struct {
			return assignTypedObject(obj, dst, scope)
		}
		elem := reflect.New(dst.Type().Elem())
		if err := assign(src, elem.Elem(), scope); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	case reflect.Interface:
		v, err := generic(src, scope)
		if err != nil {
			return err
		}
		if v == nil {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		rv := reflect.ValueOf(v)
		if !rv.Type().AssignableTo(dst.Type()) {
			return fmt.Errorf("cannot assign %T to %s", v, dst.Type())
		}
		dst.Set(rv)
		return nil
	case reflect.Struct:
		obj, ok := src.(*Object)
		if !ok {
			return fmt.Errorf("cannot assign %T to %s", src, dst.Type())
		}
		holder := reflect.New(reflect.PointerTo(dst.Type())).Elem()
		if err := assignTypedObject(obj, holder, scope); err != nil {
			return err
		}
		dst.Set(holder.Elem())
		return nil
	case reflect.Slice:
		if dst.Type().Elem().Kind() == reflect.Uint8 {
			if s, ok := src.(string); ok {
				dst.SetBytes([]byte(s))
				return nil
			}
		}
		arr, ok := src.(*Array)
		if !ok {
			return fmt.Errorf("cannot assign %T to %s", src, dst.Type())
		}
		out := reflect.MakeSlice(dst.Type(), len(arr.Entries), len(arr.Entries))
		for i, e := range arr.Entries {
			if err := assign(e.Value, out.Index(i), scope); err != nil {
				return fmt.Errorf("[%v]: %w", e.Key, err)
			}
		}
		dst.Set(out)
		return nil
	case reflect.Map:
		arr, ok := src.(*Array)
		if !ok {
			return fmt.Errorf("cannot assign %T to %s", src, dst.Type())
		}
		out := reflect.MakeMapWithSize(dst.Type(), len(arr.Entries))
		for _, e := range arr.Entries {
			key := reflect.New(dst.Type().Key()).Elem()
			if err := assignScalar(e.Key, key); err != nil {
				return fmt.Errorf("key %v: %w", e.Key, err)
			}
			val := reflect.New(dst.Type().Elem()).Elem()
			if err := assign(e.Value, val, scope); err != nil {
				return fmt.Errorf("[%v]: %w", e.Key, err)
			}
			out.SetMapIndex(key, val)
		}
		dst.Set(out)
		return nil
	}
	return assignScalar(src, dst)
}

func assignTypedObject(obj *Object, dst reflect.Value, scope *Scope) error {
	class, ok := scope.classOfType(dst.Type().Elem())
	if !ok || class != obj.Class {
		if _, err := scope.New(obj.Class); err != nil {
			return err
		}
		return fmt.Errorf("class %s does not bind to %s", obj.Class, dst.Type())
	}
	ptr := reflect.New(dst.Type().Elem())
	if err := assignObject(obj, ptr.Elem(), scope); err != nil {
		return err
	}
	dst.Set(ptr)
	return nil
}

func assignScalar(src interface{}, dst reflect.Value) error {
	switch dst.Kind() {
	case reflect.String:
		switch v := src.(type) {
		case string:
			dst.SetString(v)
			return nil
		case int64:
			dst.SetString(strconv.FormatInt(v, 10))
			return nil
		}
	case reflect.Bool:
		switch v := src.(type) {
		case bool:
			dst.SetBool(v)
			return nil
		case int64:
			dst.SetBool(v != 0)
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch v := src.(type) {
		case int64:
			if dst.OverflowInt(v) {
				return fmt.Errorf("int %d overflows %s", v, dst.Type())
			}
			dst.SetInt(v)
			return nil
		case string:
			n, err := strconv.ParseInt(v, 10, 64)
			if err == nil && !dst.OverflowInt(n) {
				dst.SetInt(n)
				return nil
			}
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v, ok := src.(int64); ok && v >= 0 && !dst.OverflowUint(uint64(v)) {
			dst.SetUint(uint64(v))
			return nil
		}
	case reflect.Float32, reflect.Float64:
		switch v := src.(type) {
		case float64:
			dst.SetFloat(v)
			return nil
		case int64:
			dst.SetFloat(float64(v))
			return nil
		}
	}
	return fmt.Errorf("cannot assign %T to %s", src, dst.Type())
}

// generic converts decoded values for interface{} targets: lists become
// []interface{}, keyed arrays map[string]interface{}, objects their
// registered Go type.
func generic(src interface{}, scope *Scope) (interface{}, error) {
	switch v := src.(type) {
	case *Object:
		return bindObject(v, scope)
	case *Array:
		if v.IsList() {
			out := make([]interface{}, len(v.Entries))
			for i, e := range v.Entries {
				g, err := generic(e.Value, scope)
				if err != nil {
					return nil, err
				}
				out[i] = g
			}
			return out, nil
		}
		out := make(map[string]interface{}, len(v.Entries))
		for _, e := range v.Entries {
			g, err := generic(e.Value, scope)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(e.Key)] = g
		}
		return out, nil
	}
	return src, nil
}

type field struct {
	index int
	name  string
	vis   Visibility
}

var fieldCache sync.Map

// structFields lists the serializable fields of t in declaration order.
// Fields are named by their `php:"name[,protected|private]"` tag, or by the
// Go field name when untagged; `php:"-"` skips a field.
func structFields(t reflect.Type) ([]field, error) {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]field), nil
	}
	var fields []field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" {
			continue
		}
		tag := sf.Tag.Get("php")
		if tag == "-" {
			continue
		}
		name, opt, _ := strings.Cut(tag, ",")
		if name == "" {
			name = sf.Name
		}
		vis, err := parseVisibility(opt)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("field %s.%s", t.Name(), sf.Name), err)
		}
		fields = append(fields, field{index: i, name: name, vis: vis})
	}
	fieldCache.Store(t, fields)
	return fields, nil
}
