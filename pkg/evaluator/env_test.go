package evaluator_test

import (
	"testing"

	"github.com/thomasrohde/uuu/pkg/evaluator"
)

func TestEnvDefineAndGet(t *testing.T) {
	env := evaluator.NewEnv(nil)
	env.Define("a", evaluator.NewNumber(1))
	env.Define("a", evaluator.NewNumber(2))

	val, ok := env.GetAt("a", 0)
	if !ok {
		t.Fatal("expected a to be bound")
	}
	if n := val.(evaluator.Number); n.Value != 2 {
		t.Errorf("expected redefinition to overwrite, got %v", n.Value)
	}
}

func TestEnvGetAtWalksExactDepth(t *testing.T) {
	outer := evaluator.NewEnv(nil)
	outer.Define("a", evaluator.NewString("outer"))
	middle := outer.Child()
	middle.Define("a", evaluator.NewString("middle"))
	inner := middle.Child()

	tests := []struct {
		depth int
		want  string
		ok    bool
	}{
		{0, "", false},
		{1, "middle", true},
		{2, "outer", true},
		{3, "", false},
	}
	for _, tt := range tests {
		val, ok := inner.GetAt("a", tt.depth)
		if ok != tt.ok {
			t.Errorf("depth %d: ok = %v, want %v", tt.depth, ok, tt.ok)
			continue
		}
		if ok && val.(evaluator.String).Value != tt.want {
			t.Errorf("depth %d: got %v, want %s", tt.depth, val, tt.want)
		}
	}
}

func TestEnvAssignAtDoesNotCreate(t *testing.T) {
	outer := evaluator.NewEnv(nil)
	inner := outer.Child()

	if inner.AssignAt("missing", evaluator.NewNumber(1), 1) {
		t.Error("expected AssignAt to fail for an unbound name")
	}
	outer.Define("x", evaluator.NewNumber(1))
	if !inner.AssignAt("x", evaluator.NewNumber(5), 1) {
		t.Fatal("expected AssignAt to succeed")
	}
	val, _ := outer.GetAt("x", 0)
	if val.(evaluator.Number).Value != 5 {
		t.Errorf("expected outer x to be 5, got %v", val)
	}
	if _, ok := inner.GetAt("x", 0); ok {
		t.Error("assignment must not create a binding in the inner frame")
	}
}

func TestEnvDepthFreeLookup(t *testing.T) {
	root := evaluator.NewEnv(nil)
	root.Define("g", evaluator.NewBool(true))
	leaf := root.Child().Child()

	if !leaf.Has("g") {
		t.Error("expected g to be visible from a nested frame")
	}
	if _, ok := leaf.Get("nope"); ok {
		t.Error("expected lookup of an unbound name to fail")
	}
	if !leaf.Assign("g", evaluator.NewBool(false)) {
		t.Fatal("expected Assign to find g")
	}
	val, _ := root.Get("g")
	if val.(evaluator.Bool).Value {
		t.Error("expected g to be false after Assign")
	}
	if leaf.Assign("nope", evaluator.NewNull()) {
		t.Error("expected Assign of an unbound name to fail")
	}
}

func TestEnvSharedByClosures(t *testing.T) {
	shared := evaluator.NewEnv(nil)
	shared.Define("n", evaluator.NewNumber(0))
	a := shared.Child()
	b := shared.Child()

	a.AssignAt("n", evaluator.NewNumber(1), 1)
	val, _ := b.GetAt("n", 1)
	if val.(evaluator.Number).Value != 1 {
		t.Errorf("expected sibling frame to observe the write, got %v", val)
	}
	if a.Parent() != shared || b.Parent() != shared {
		t.Error("expected both children to share the parent frame")
	}
}
