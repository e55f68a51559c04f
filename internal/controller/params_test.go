package controller

import (
	"errors"
	"reflect"
	"testing"
)

func TestDeclareAndRead(t *testing.T) {
	p := NewParameters()

	if err := p.Declare("joint", ""); err != nil {
		t.Fatalf("Declare: %v", err)
	}
	if err := p.Declare("interface_names", []string{}); err != nil {
		t.Fatalf("Declare: %v", err)
	}

	if got := p.String("joint"); got != "" {
		t.Errorf("String(joint) = %q, want default \"\"", got)
	}

	if err := p.Set("joint", "tool0"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := p.String("joint"); got != "tool0" {
		t.Errorf("String(joint) = %q, want tool0", got)
	}

	names := []string{"linear_x", "linear_y"}
	if err := p.Set("interface_names", names); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := p.StringSlice("interface_names"); !reflect.DeepEqual(got, names) {
		t.Errorf("StringSlice(interface_names) = %v, want %v", got, names)
	}
}

func TestRedeclareFails(t *testing.T) {
	p := NewParameters()

	p.Declare("joint", "")
	err := p.Declare("joint", "other")
	if !errors.Is(err, ErrRedeclaredParameter) {
		t.Errorf("expected ErrRedeclaredParameter, got %v", err)
	}
}

func TestSetUndeclaredFails(t *testing.T) {
	p := NewParameters()

	err := p.Set("joint", "tool0")
	if !errors.Is(err, ErrUndeclaredParameter) {
		t.Errorf("expected ErrUndeclaredParameter, got %v", err)
	}
}

func TestTypeMismatchReadsZeroValue(t *testing.T) {
	p := NewParameters()
	p.Declare("joint", 42)

	if got := p.String("joint"); got != "" {
		t.Errorf("String on non-string parameter = %q, want \"\"", got)
	}
	if got := p.StringSlice("joint"); got != nil {
		t.Errorf("StringSlice on non-slice parameter = %v, want nil", got)
	}
}
