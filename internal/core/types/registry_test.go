package types

import (
	"reflect"
	"testing"
)

type widget struct {
	Name string
}

func TestRegisterNewAndNameOf(t *testing.T) {
	r := NewRegistry()
	Register[widget](r, "example.Widget")

	instance, err := r.New("example.Widget")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := instance.(*widget); !ok {
		t.Fatalf("expected *widget, got %T", instance)
	}

	name, ok := r.NameOf(widget{Name: "x"})
	if !ok || name != "example.Widget" {
		t.Fatalf("expected example.Widget, got %q (ok=%v)", name, ok)
	}

	name, ok = r.NameOf(&widget{Name: "x"})
	if !ok || name != "example.Widget" {
		t.Fatalf("expected NameOf to deref pointers, got %q (ok=%v)", name, ok)
	}
}

func TestNewUnregisteredType(t *testing.T) {
	r := NewRegistry()
	if _, err := r.New("example.Missing"); err == nil {
		t.Fatal("expected error for unregistered type")
	}
}

func TestNameOfType(t *testing.T) {
	r := NewRegistry()
	Register[widget](r, "example.Widget")

	var w widget
	name, ok := r.NameOfType(reflect.TypeOf(w))
	if !ok || name != "example.Widget" {
		t.Fatalf("expected example.Widget, got %q (ok=%v)", name, ok)
	}
}

func TestHas(t *testing.T) {
	r := NewRegistry()
	if r.Has("example.Widget") {
		t.Fatal("expected Has to report false before registration")
	}
	Register[widget](r, "example.Widget")
	if !r.Has("example.Widget") {
		t.Fatal("expected Has to report true after registration")
	}
}
