package config

import (
	"errors"
	"fmt"
	"reflect"
)

// Variable errors returned by SetValue.
var (
	ErrVariableImmutable = errors.New("variable is a constant")
	ErrTypeMismatch      = errors.New("variable type mismatch")
	ErrNotAnOption       = errors.New("value is not in the option set")
)

// VarKind identifies the concrete form of a Variable.
type VarKind string

const (
	VarConstant    VarKind = "constant"
	VarMutable     VarKind = "mutable"
	VarEnumeration VarKind = "enumeration"
)

// Variable is a named value referenced from interface argument templates.
// A variable's runtime type is fixed at load time and never changes; only
// the value of a Mutable or Enumeration may be replaced.
type Variable interface {
	Kind() VarKind
	Value() any

	// SetValue replaces the current value. The new value must have the
	// same runtime type as the current one; an Enumeration additionally
	// requires membership in its option set.
	SetValue(v any) error
}

// Constant is a variable fixed at load time.
type Constant struct {
	Val any
}

func (c *Constant) Kind() VarKind { return VarConstant }
func (c *Constant) Value() any    { return c.Val }

func (c *Constant) SetValue(any) error {
	return ErrVariableImmutable
}

// Mutable is a variable whose value may be replaced by a new value of the
// same runtime type.
type Mutable struct {
	Val any
}

func (m *Mutable) Kind() VarKind { return VarMutable }
func (m *Mutable) Value() any    { return m.Val }

func (m *Mutable) SetValue(v any) error {
	if reflect.TypeOf(v) != reflect.TypeOf(m.Val) {
		return fmt.Errorf("%w: cannot assign %T to variable of type %T", ErrTypeMismatch, v, m.Val)
	}
	m.Val = v
	return nil
}

// Enumeration is a variable constrained to a fixed option set.
type Enumeration struct {
	Name    string
	Current any
	Options []any
}

func (e *Enumeration) Kind() VarKind { return VarEnumeration }
func (e *Enumeration) Value() any    { return e.Current }

func (e *Enumeration) SetValue(v any) error {
	if reflect.TypeOf(v) != reflect.TypeOf(e.Current) {
		return fmt.Errorf("%w: cannot assign %T to variable of type %T", ErrTypeMismatch, v, e.Current)
	}
	found := false
	for _, opt := range e.Options {
		if opt == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: enum %q cannot take value %v (options: %v)", ErrNotAnOption, e.Name, v, e.Options)
	}
	e.Current = v
	return nil
}
