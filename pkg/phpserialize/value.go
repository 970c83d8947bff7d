package phpserialize

import (
	"fmt"
	"strings"
)

// Array is an ordered PHP array. Keys are int64 or string.
type Array struct {
	Entries []Entry
}

// Entry is a single key/value pair of an Array or an Object property.
type Entry struct {
	Key   interface{}
	Value interface{}
}

// Object is a decoded PHP object that has not been bound to a Go type.
type Object struct {
	Class string
	Props []Property
}

// Property is an object property. Name holds the visibility-mangled wire name
// ("\x00*\x00queue" for protected, "\x00Class\x00field" for private).
type Property struct {
	Name  string
	Value interface{}
}

// Visibility of an object property on the PHP side.
type Visibility int

const (
	Public Visibility = iota
	Protected
	Private
)

// Get returns the value stored under key.
func (a *Array) Get(key interface{}) (interface{}, bool) {
	for _, e := range a.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// IsList reports whether the keys are exactly 0..n-1 in order.
func (a *Array) IsList() bool {
	for i, e := range a.Entries {
		k, ok := e.Key.(int64)
		if !ok || k != int64(i) {
			return false
		}
	}
	return true
}

// Prop returns the value of the property with the given unmangled name.
func (o *Object) Prop(name string) (interface{}, bool) {
	for _, p := range o.Props {
		if n, _ := PropertyName(p.Name); n == name {
			return p.Value, true
		}
	}
	return nil, false
}

// PropertyName strips the visibility mangling from a wire property name.
func PropertyName(raw string) (string, Visibility) {
	if !strings.HasPrefix(raw, "\x00") {
		return raw, Public
	}
	rest := raw[1:]
	idx := strings.IndexByte(rest, 0)
	if idx < 0 {
		return raw, Public
	}
	if rest[:idx] == "*" {
		return rest[idx+1:], Protected
	}
	return rest[idx+1:], Private
}

func mangle(class, name string, vis Visibility) string {
	switch vis {
	case Protected:
		return "\x00*\x00" + name
	case Private:
		return "\x00" + class + "\x00" + name
	default:
		return name
	}
}

func parseVisibility(s string) (Visibility, error) {
	switch s {
	case "", "public":
		return Public, nil
	case "protected":
		return Protected, nil
	case "private":
		return Private, nil
	}
	return Public, fmt.Errorf("phpserialize: unknown visibility %q", s)
}
