package object

import (
	"errors"
	"testing"

	"strata/internal/classdef"
)

func newInstance(t *testing.T, reg *Registry, name string, args ...any) *Instance {
	t.Helper()
	inst, err := reg.New(name, args...)
	if err != nil {
		t.Fatalf("new %s: %v", name, err)
	}
	return inst
}

func TestMaterializeDiamondSharesOneSubInstance(t *testing.T) {
	reg := NewRegistry()
	defineClass(t, reg, classdef.Class{Name: "Base", Members: []classdef.Member{{Name: "tag", Value: "base"}}})
	defineClass(t, reg, classdef.Class{Name: "Left", Parents: []string{"Base"}})
	defineClass(t, reg, classdef.Class{Name: "Right", Parents: []string{"Base"}})
	defineClass(t, reg, classdef.Class{Name: "Child", Parents: []string{"Left", "Right"}})

	child := newInstance(t, reg, "Child")

	leftV, err := child.Get("Left")
	if err != nil {
		t.Fatalf("get Left: %v", err)
	}
	rightV, err := child.Get("Right")
	if err != nil {
		t.Fatalf("get Right: %v", err)
	}
	left, right := leftV.(*Instance), rightV.(*Instance)

	baseViaLeft, err := left.Get("Base")
	if err != nil {
		t.Fatalf("get Left.Base: %v", err)
	}
	baseViaRight, err := right.Get("Base")
	if err != nil {
		t.Fatalf("get Right.Base: %v", err)
	}
	if baseViaLeft != baseViaRight {
		t.Fatalf("diamond must produce exactly one Base sub-instance, got distinct ones")
	}
	baseViaChild, err := child.Get("Base")
	if err != nil {
		t.Fatalf("get Base: %v", err)
	}
	if baseViaChild != baseViaLeft {
		t.Fatalf("child's Base alias must reach the same sub-instance")
	}
}

func TestMaterializeCopiesInstanceValues(t *testing.T) {
	reg := NewRegistry()
	defineClass(t, reg, classdef.Class{
		Name: "Bag",
		Members: []classdef.Member{
			{Name: "items", Value: map[string]any{"a": int64(1)}},
		},
	})

	first := newInstance(t, reg, "Bag")
	second := newInstance(t, reg, "Bag")

	v, err := first.Get("items")
	if err != nil {
		t.Fatalf("get items: %v", err)
	}
	v.(map[string]any)["a"] = int64(99)

	w, err := second.Get("items")
	if err != nil {
		t.Fatalf("get items: %v", err)
	}
	if w.(map[string]any)["a"] != int64(1) {
		t.Fatalf("instance values must be deep-copied per instance, got %v", w)
	}
	desc, _ := reg.Lookup("Bag")
	if desc.Values["items"].(map[string]any)["a"] != int64(1) {
		t.Fatalf("template value on the descriptor must stay untouched")
	}
}

func TestMaterializeSharesStatics(t *testing.T) {
	reg := NewRegistry()
	defineClass(t, reg, classdef.Class{
		Name: "Counter",
		Members: []classdef.Member{
			{Name: "count", Value: int64(0), Mods: classdef.ModStatic},
		},
	})
	a := newInstance(t, reg, "Counter")
	b := newInstance(t, reg, "Counter")

	if err := a.Set("count", int64(5)); err != nil {
		t.Fatalf("set count: %v", err)
	}
	v, err := b.Get("count")
	if err != nil {
		t.Fatalf("get count: %v", err)
	}
	if v != int64(5) {
		t.Fatalf("static write through a must be visible through b, got %v", v)
	}
	desc, _ := reg.Lookup("Counter")
	if desc.Statics["count"].Value != int64(5) {
		t.Fatalf("static write must be visible through the class descriptor")
	}
}

func TestMaterializeStaticSharedAcrossHierarchy(t *testing.T) {
	reg := NewRegistry()
	defineClass(t, reg, classdef.Class{
		Name:    "Base",
		Members: []classdef.Member{{Name: "registry", Value: int64(0), Mods: classdef.ModStatic}},
	})
	defineClass(t, reg, classdef.Class{Name: "Derived", Parents: []string{"Base"}})

	derived := newInstance(t, reg, "Derived")
	if err := derived.Set("registry", int64(7)); err != nil {
		t.Fatalf("set: %v", err)
	}
	base := newInstance(t, reg, "Base")
	v, err := base.Get("registry")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != int64(7) {
		t.Fatalf("inherited static must alias the declaring class's cell, got %v", v)
	}
}

func TestStaticMemberShadowsParentAlias(t *testing.T) {
	reg := NewRegistry()
	defineClass(t, reg, classdef.Class{
		Name:    "lib.P",
		Members: []classdef.Member{{Name: "tag", Value: "p"}},
	})
	defineClass(t, reg, classdef.Class{
		Name:    "C",
		Parents: []string{"lib.P"},
		Members: []classdef.Member{
			{Name: "P", Value: int64(7), Mods: classdef.ModStatic},
		},
	})
	c := newInstance(t, reg, "C")

	v, err := c.Get("P")
	if err != nil {
		t.Fatalf("get P: %v", err)
	}
	if v != int64(7) {
		t.Fatalf("P = %v, want 7", v)
	}
	rec, ok := c.GetMember("P")
	if !ok {
		t.Fatalf("P missing from member view")
	}
	if rec.Value != int64(7) {
		t.Fatalf("GetMember(P).Value = %v (%T), want the static value 7", rec.Value, rec.Value)
	}
	if got := c.Members()["P"].Value; got != int64(7) {
		t.Fatalf("Members()[P].Value = %v (%T), want 7", got, got)
	}

	// The parent stays reachable through its qualified alias.
	qualified, err := c.Get("lib.P")
	if err != nil {
		t.Fatalf("get lib.P: %v", err)
	}
	sub, ok := qualified.(*Instance)
	if !ok {
		t.Fatalf("lib.P = %T, want the parent sub-instance", qualified)
	}
	tag, err := sub.Get("tag")
	if err != nil {
		t.Fatalf("get tag: %v", err)
	}
	if tag != "p" {
		t.Fatalf("tag = %v, want p", tag)
	}
}

func TestStaticShadowsInheritedInstanceMember(t *testing.T) {
	reg := NewRegistry()
	defineClass(t, reg, classdef.Class{
		Name:    "Base",
		Members: []classdef.Member{{Name: "mode", Value: "per-instance"}},
	})
	defineClass(t, reg, classdef.Class{
		Name:    "Child",
		Parents: []string{"Base"},
		Members: []classdef.Member{
			{Name: "mode", Value: "shared", Mods: classdef.ModStatic},
		},
	})
	child := newInstance(t, reg, "Child")

	rec, ok := child.GetMember("mode")
	if !ok {
		t.Fatalf("mode missing from member view")
	}
	if !rec.Meta.Mods.Has(classdef.ModStatic) || rec.Value != "shared" {
		t.Fatalf("member view must show the shadowing static, got %+v", rec)
	}
	// The parent's own storage is untouched behind its alias.
	baseV, err := child.Get("Base")
	if err != nil {
		t.Fatalf("get Base: %v", err)
	}
	inherited, err := baseV.(*Instance).Get("mode")
	if err != nil {
		t.Fatalf("get Base.mode: %v", err)
	}
	if inherited != "per-instance" {
		t.Fatalf("Base.mode = %v, want per-instance", inherited)
	}
}

func TestStaticMethodShadowingAliasIsCallable(t *testing.T) {
	reg := NewRegistry()
	defineClass(t, reg, classdef.Class{Name: "util.Base"})
	defineClass(t, reg, classdef.Class{
		Name:    "Tool",
		Parents: []string{"util.Base"},
		Members: []classdef.Member{
			{Name: "Base", Mods: classdef.ModStatic, Value: Method(func(self *Instance, _ ...any) (any, error) {
				return "ok", nil
			})},
		},
	})
	tool := newInstance(t, reg, "Tool")

	got, err := tool.Call("Base")
	if err != nil {
		t.Fatalf("static method under an alias name must be callable: %v", err)
	}
	if got != "ok" {
		t.Fatalf("Base() = %v, want ok", got)
	}
}

func TestConstructorRunsOnceAndIsRemoved(t *testing.T) {
	reg := NewRegistry()
	calls := 0
	defineClass(t, reg, classdef.Class{
		Name: "Point",
		Members: []classdef.Member{
			{Name: "x", Value: int64(0)},
			{Name: classdef.ConstructorName, Value: Method(func(self *Instance, args ...any) (any, error) {
				calls++
				if len(args) == 1 {
					return nil, self.Set("x", args[0])
				}
				return nil, nil
			})},
		},
	})

	p := newInstance(t, reg, "Point", int64(3))
	if calls != 1 {
		t.Fatalf("constructor calls = %d, want 1", calls)
	}
	v, err := p.Get("x")
	if err != nil {
		t.Fatalf("get x: %v", err)
	}
	if v != int64(3) {
		t.Fatalf("x = %v, want 3", v)
	}

	if _, err := p.Call(classdef.ConstructorName); err == nil {
		t.Fatalf("constructor must not be invocable after construction")
	}
	if calls != 1 {
		t.Fatalf("constructor ran again: %d calls", calls)
	}
	got, err := p.Get(classdef.ConstructorName)
	if err != nil {
		t.Fatalf("get constructor: %v", err)
	}
	if got != nil {
		t.Fatalf("constructor slot must be gone from the instance, got %T", got)
	}
}

func TestInheritedConstructorRuns(t *testing.T) {
	reg := NewRegistry()
	defineClass(t, reg, classdef.Class{
		Name: "Animal",
		Members: []classdef.Member{
			{Name: "name", Value: ""},
			{Name: classdef.ConstructorName, Value: Method(func(self *Instance, args ...any) (any, error) {
				return nil, self.Set("name", args[0])
			})},
		},
	})
	defineClass(t, reg, classdef.Class{Name: "Dog", Parents: []string{"Animal"}})

	dog := newInstance(t, reg, "Dog", "rex")
	v, err := dog.Get("name")
	if err != nil {
		t.Fatalf("get name: %v", err)
	}
	if v != "rex" {
		t.Fatalf("name = %v, want rex", v)
	}
}

func TestConstructorFailureDiscardsInstance(t *testing.T) {
	reg := NewRegistry()
	boom := errors.New("boom")
	defineClass(t, reg, classdef.Class{
		Name: "Fragile",
		Members: []classdef.Member{
			{Name: classdef.ConstructorName, Value: Method(func(self *Instance, _ ...any) (any, error) {
				return nil, boom
			})},
		},
	})
	inst, err := reg.New("Fragile")
	if !errors.Is(err, boom) {
		t.Fatalf("want constructor error, got %v", err)
	}
	if inst != nil {
		t.Fatalf("failed construction must not expose a partial instance")
	}
}

func TestAbstractInstantiationRejected(t *testing.T) {
	reg := NewRegistry()
	constructed := false
	defineClass(t, reg, classdef.Class{
		Name: "Shape",
		Members: []classdef.Member{
			{Name: "area", Mods: classdef.ModAbstract},
			{Name: classdef.ConstructorName, Value: Method(func(self *Instance, _ ...any) (any, error) {
				constructed = true
				return nil, nil
			})},
		},
	})

	_, err := reg.New("Shape")
	var abstract *AbstractInstantiationError
	if !errors.As(err, &abstract) {
		t.Fatalf("want AbstractInstantiationError, got %v", err)
	}
	if abstract.Class != "Shape" || len(abstract.Members) != 1 || abstract.Members[0] != "area" {
		t.Fatalf("error should name the class and member, got %+v", abstract)
	}
	if constructed {
		t.Fatalf("constructor must not run for an abstract class")
	}
}

func TestInterfaceInstantiationRejected(t *testing.T) {
	reg := NewRegistry()
	defineClass(t, reg, classdef.Class{Name: "Walker", Interface: true})
	var abstract *AbstractInstantiationError
	if _, err := reg.New("Walker"); !errors.As(err, &abstract) {
		t.Fatalf("want AbstractInstantiationError for interface, got %v", err)
	}
}

func TestInstanceCreatedHook(t *testing.T) {
	reg := NewRegistry()
	defineClass(t, reg, classdef.Class{Name: "Thing"})
	veto := errors.New("no instances")
	reg.Hooks.InstanceCreated = func(inst *Instance) (*Instance, error) {
		return nil, veto
	}
	if _, err := reg.New("Thing"); !errors.Is(err, veto) {
		t.Fatalf("hook veto must propagate, got %v", err)
	}
}
