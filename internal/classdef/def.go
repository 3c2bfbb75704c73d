package classdef

import (
	"strings"

	"strata/internal/diag"
)

// Reserved member names with engine-level meaning.
const (
	ConstructorName = "constructor"
	FinalizerName   = "finalize"
	CatchallName    = "member_missing"
)

// Member is one declared member of a class definition.
type Member struct {
	Name  string
	Value any
	Mods  ModifierSet
}

// Class is the input contract for the linker: a class-definition record as
// produced by the document layer (or built programmatically).
type Class struct {
	Name       string
	Parents    []string
	Implements []string
	Interface  bool
	Members    []Member
}

// Member returns the declared member with the given name.
func (c *Class) Member(name string) (Member, bool) {
	for _, m := range c.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// ShortName returns the last segment of a dotted class name.
func ShortName(qualified string) string {
	if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

// Validate checks a definition for document-level problems and reports them
// into bag. Returns false if any reported problem is an error.
func Validate(c *Class, bag *diag.Bag) bool {
	ok := true
	report := func(d diag.Diagnostic) {
		bag.Add(d)
		if d.Severity >= diag.SevError {
			ok = false
		}
	}
	if strings.TrimSpace(c.Name) == "" {
		report(diag.New(diag.DocEmptyClassName, c.Name, "", "class name is empty"))
	}
	seen := make(map[string]struct{}, len(c.Members))
	for _, m := range c.Members {
		if _, dup := seen[m.Name]; dup {
			report(diag.New(diag.DocDuplicateMember, c.Name, m.Name, "member declared twice"))
			continue
		}
		seen[m.Name] = struct{}{}
		if m.Mods.HasAny(ModParentRef | ModAmbiguous) {
			report(diag.New(diag.DocReservedModifier, c.Name, m.Name, "synthetic modifier %s is reserved", m.Mods))
		}
		if m.Mods.Has(ModAbstract) {
			if m.Value != nil {
				report(diag.New(diag.DocAbstractValue, c.Name, m.Name, "abstract member must not carry a value"))
			}
			if m.Mods.Has(ModStatic) {
				report(diag.New(diag.DocStaticAbstract, c.Name, m.Name, "member cannot be both static and abstract"))
			}
		}
		if c.Interface && !m.Mods.Has(ModAbstract) {
			report(diag.New(diag.DocInterfaceMember, c.Name, m.Name, "interface member must be abstract"))
		}
	}
	return ok
}
