package registry

import (
	"context"
	"errors"
	"testing"

	"notam_mapper/internal/geometry"
	"notam_mapper/internal/notam"
)

type fakeParser struct {
	name     string
	priority int
	accept   bool
	shapes   []geometry.Shape
	failures []Failure
}

func (f *fakeParser) Name() string                { return f.name }
func (f *fakeParser) Priority() int               { return f.priority }
func (f *fakeParser) QuickCheck(text string) bool { return f.accept }
func (f *fakeParser) Parse(msg *notam.Message) ([]geometry.Shape, []Failure) {
	return f.shapes, f.failures
}

func TestDispatchOrderAndQuickCheck(t *testing.T) {
	r := New()
	r.Register(&fakeParser{name: "b", priority: 20, accept: true, shapes: []geometry.Shape{&geometry.Polygon{Name: "p"}}})
	r.Register(&fakeParser{name: "a", priority: 10, accept: true, shapes: []geometry.Shape{&geometry.Circle{Name: "c"}}})
	r.Register(&fakeParser{name: "skipped", priority: 1, accept: false, shapes: []geometry.Shape{&geometry.Circle{Name: "x"}}})
	r.Register(&fakeParser{name: "silent", priority: 5, accept: true})
	r.Sort()

	results, err := r.Dispatch(context.Background(), notam.NewMessage("test", "E) X"))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Parser != "a" || results[1].Parser != "b" {
		t.Errorf("order = %s, %s", results[0].Parser, results[1].Parser)
	}
}

func TestDispatchCancelled(t *testing.T) {
	r := New()
	r.Register(&fakeParser{name: "a", accept: true, shapes: []geometry.Shape{&geometry.Circle{}}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Dispatch(ctx, notam.NewMessage("test", "E) X")); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRegisterReplacesByName(t *testing.T) {
	r := New()
	r.Register(&fakeParser{name: "a", priority: 1})
	r.Register(&fakeParser{name: "a", priority: 2})

	if r.ParserCount() != 1 {
		t.Fatalf("ParserCount = %d, want 1", r.ParserCount())
	}
	p, ok := r.Lookup("a")
	if !ok || p.Priority() != 2 {
		t.Errorf("Lookup returned %v, %v", p, ok)
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Error("Lookup should miss unknown names")
	}
	if len(r.AllParsers()) != 1 {
		t.Error("AllParsers should list one parser")
	}
}

func TestFailureUnwrap(t *testing.T) {
	f := Failure{Parser: "circle", Err: geometry.ErrInvalidRadius}
	if !errors.Is(f, geometry.ErrInvalidRadius) {
		t.Error("Failure should unwrap to its error")
	}
	if f.Error() != "circle: invalid radius" {
		t.Errorf("Error() = %q", f.Error())
	}
}
