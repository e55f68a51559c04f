package controller

import (
	"errors"
	"testing"
)

func TestNewRegisteredType(t *testing.T) {
	ctrl, err := New(TwistControllerType, "arm")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ctrl.Name() != "arm" {
		t.Errorf("Name() = %q, want arm", ctrl.Name())
	}
	if _, ok := ctrl.(*TwistController); !ok {
		t.Errorf("New(%s) returned %T, want *TwistController", TwistControllerType, ctrl)
	}
}

func TestNewUnknownType(t *testing.T) {
	_, err := New("acc/NoSuchController", "arm")
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
}

func TestTypesContainsTwistController(t *testing.T) {
	for _, typeID := range Types() {
		if typeID == TwistControllerType {
			return
		}
	}
	t.Errorf("Types() = %v, missing %s", Types(), TwistControllerType)
}
