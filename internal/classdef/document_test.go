package classdef

import (
	"testing"

	"strata/internal/diag"
)

func TestParsePreservesDocumentOrder(t *testing.T) {
	src := `
[class.Zebra]
[class.Zebra.members.z]
value = 1

[class.Animal]
[class.Animal.members.legs]
value = 4
[class.Animal.members.sound]
value = "?"
modifiers = ["protected"]
[class.Animal.members.age]
value = 0
`
	doc, bag, err := Parse([]byte(src), "zoo.toml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if len(doc.Classes) != 2 || doc.Classes[0].Name != "Zebra" || doc.Classes[1].Name != "Animal" {
		t.Fatalf("class order = %v", doc.Classes)
	}
	animal := doc.Classes[1]
	var names []string
	for _, m := range animal.Members {
		names = append(names, m.Name)
	}
	if len(names) != 3 || names[0] != "legs" || names[1] != "sound" || names[2] != "age" {
		t.Fatalf("member order = %v, want declaration order", names)
	}
	sound, _ := animal.Member("sound")
	if sound.Mods.Visibility() != ModProtected {
		t.Fatalf("sound mods = %v", sound.Mods)
	}
}

func TestParseParentsAndInterfaces(t *testing.T) {
	src := `
[class.Walker]
kind = "interface"
[class.Walker.members.walk]
modifiers = ["abstract"]

[class.Dog]
parents = ["Animal", "zoo.Pet"]
implements = ["Walker"]
`
	doc, _, err := Parse([]byte(src), "dog.toml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !doc.Classes[0].Interface {
		t.Fatalf("Walker should be an interface")
	}
	dog := doc.Classes[1]
	if len(dog.Parents) != 2 || dog.Parents[1] != "zoo.Pet" {
		t.Fatalf("parents = %v", dog.Parents)
	}
	if len(dog.Implements) != 1 || dog.Implements[0] != "Walker" {
		t.Fatalf("implements = %v", dog.Implements)
	}
}

func TestParseUnknownModifierDiagnostic(t *testing.T) {
	src := `
[class.Bad]
[class.Bad.members.x]
value = 1
modifiers = ["frobnicated"]
`
	doc, bag, err := Parse([]byte(src), "bad.toml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.DocUnknownModifier && d.Class == "Bad" && d.Member == "x" && d.Path == "bad.toml" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing DocUnknownModifier diagnostic: %v", bag.Items())
	}
	// The bad member is dropped, the class survives.
	if len(doc.Classes) != 1 || len(doc.Classes[0].Members) != 0 {
		t.Fatalf("classes = %+v", doc.Classes)
	}
}

func TestParseMalformedTOML(t *testing.T) {
	_, bag, err := Parse([]byte("[class.Broken\n"), "broken.toml")
	if err == nil {
		t.Fatalf("malformed document must fail")
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.DocParse {
		t.Fatalf("diagnostics = %v", bag.Items())
	}
}

func TestParseNormalizesNames(t *testing.T) {
	// "e\u0301" (e + combining acute) must come out as precomposed "\u00e9".
	src := "[class.\"Cafe\u0301\"]\n[class.\"Cafe\u0301\".members.x]\nvalue = 1\n"
	doc, _, err := Parse([]byte(src), "cafe.toml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Classes) != 1 || doc.Classes[0].Name != "Caf\u00e9" {
		t.Fatalf("name = %q, want NFC form", doc.Classes[0].Name)
	}
}

func TestValidateDiagnostics(t *testing.T) {
	cases := []struct {
		name string
		def  Class
		code diag.Code
	}{
		{
			"empty class name",
			Class{Name: " "},
			diag.DocEmptyClassName,
		},
		{
			"duplicate member",
			Class{Name: "C", Members: []Member{{Name: "x"}, {Name: "x"}}},
			diag.DocDuplicateMember,
		},
		{
			"synthetic modifier",
			Class{Name: "C", Members: []Member{{Name: "x", Mods: ModAmbiguous}}},
			diag.DocReservedModifier,
		},
		{
			"abstract with value",
			Class{Name: "C", Members: []Member{{Name: "x", Mods: ModAbstract, Value: int64(1)}}},
			diag.DocAbstractValue,
		},
		{
			"static abstract",
			Class{Name: "C", Members: []Member{{Name: "x", Mods: ModAbstract | ModStatic}}},
			diag.DocStaticAbstract,
		},
		{
			"concrete interface member",
			Class{Name: "C", Interface: true, Members: []Member{{Name: "x", Value: int64(1)}}},
			diag.DocInterfaceMember,
		},
	}
	for _, c := range cases {
		bag := diag.NewBag(8)
		if Validate(&c.def, bag) {
			t.Fatalf("%s: Validate should fail", c.name)
		}
		found := false
		for _, d := range bag.Items() {
			if d.Code == c.code {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s: missing %v in %v", c.name, c.code, bag.Items())
		}
	}
}

func TestValidateAcceptsCleanDefinition(t *testing.T) {
	def := Class{
		Name: "Animal",
		Members: []Member{
			{Name: "legs", Value: int64(4)},
			{Name: "sound", Mods: ModProtected, Value: "?"},
			{Name: "area", Mods: ModAbstract},
		},
	}
	bag := diag.NewBag(8)
	if !Validate(&def, bag) {
		t.Fatalf("clean definition rejected: %v", bag.Items())
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
}
