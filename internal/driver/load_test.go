package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"strata/internal/diag"
)

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func load(t *testing.T, path string) *Result {
	t.Helper()
	res, err := Load(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("load %s: %v", path, err)
	}
	return res
}

func TestLoadLinksAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	// The child is declared in a file that sorts before its parent's file;
	// linking must still succeed because order is dependency-driven.
	writeDoc(t, dir, "a_dog.toml", `
[class.Dog]
parents = ["Animal"]
[class.Dog.members.sound]
value = "woof"
`)
	writeDoc(t, dir, "b_animal.toml", `
[class.Animal]
[class.Animal.members.legs]
value = 4
`)

	res := load(t, dir)
	if res.Bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.Bag.Items())
	}
	dog, ok := res.Registry.Lookup("Dog")
	if !ok {
		t.Fatalf("Dog not linked")
	}
	if dog.Meta["legs"] == nil {
		t.Fatalf("Dog should inherit legs from Animal")
	}
	if len(res.Documents) != 2 {
		t.Fatalf("documents = %d, want 2", len(res.Documents))
	}
}

func TestLoadSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "one.toml", "[class.Solo]\n")
	res := load(t, path)
	if _, ok := res.Registry.Lookup("Solo"); !ok {
		t.Fatalf("Solo not linked")
	}
}

func TestLoadReportsDuplicateClass(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.toml", "[class.Thing]\n")
	writeDoc(t, dir, "b.toml", "[class.Thing]\n")

	res := load(t, dir)
	found := false
	for _, d := range res.Bag.Items() {
		if d.Code == diag.LinkDuplicateClass && d.Class == "Thing" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing duplicate-class diagnostic: %v", res.Bag.Items())
	}
	// The first declaration wins and stays linked.
	if _, ok := res.Registry.Lookup("Thing"); !ok {
		t.Fatalf("first declaration should survive")
	}
}

func TestLoadReportsCycle(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "cycle.toml", `
[class.A]
parents = ["B"]
[class.B]
parents = ["A"]
[class.Bystander]
`)

	res := load(t, dir)
	cycles := 0
	for _, d := range res.Bag.Items() {
		if d.Code == diag.LinkCycle {
			cycles++
		}
	}
	if cycles != 2 {
		t.Fatalf("cycle diagnostics = %d, want one per participant: %v", cycles, res.Bag.Items())
	}
	if _, ok := res.Registry.Lookup("A"); ok {
		t.Fatalf("cyclic class must not be linked")
	}
	if _, ok := res.Registry.Lookup("Bystander"); !ok {
		t.Fatalf("classes outside the cycle must still link")
	}
}

func TestLoadReportsUnresolvedParent(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "orphan.toml", `
[class.Orphan]
parents = ["Ghost"]
`)

	res := load(t, dir)
	found := false
	for _, d := range res.Bag.Items() {
		if d.Code == diag.LinkUnresolvedParent && d.Class == "Orphan" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing unresolved-parent diagnostic: %v", res.Bag.Items())
	}
}

func TestLoadWarnsAboutAmbiguityAndAbstractLeaks(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "zoo.toml", `
[class.A]
[class.A.members.foo]
value = 1
[class.B]
[class.B.members.foo]
value = 2
[class.C]
parents = ["A", "B"]

[class.Shape]
[class.Shape.members.area]
modifiers = ["abstract"]
`)

	res := load(t, dir)
	if res.Bag.HasErrors() {
		t.Fatalf("warnings must not be errors: %v", res.Bag.Items())
	}
	var ambiguous, leak bool
	for _, d := range res.Bag.Items() {
		switch {
		case d.Code == diag.LinkAmbiguousMember && d.Class == "C" && d.Member == "foo":
			ambiguous = true
		case d.Code == diag.LinkAbstractLeak && d.Class == "Shape":
			leak = true
		}
	}
	if !ambiguous || !leak {
		t.Fatalf("ambiguous=%v leak=%v: %v", ambiguous, leak, res.Bag.Items())
	}
}

func TestLoadEmitsEvents(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "one.toml", "[class.One]\n")
	writeDoc(t, dir, "two.toml", "[class.Two]\n")

	events := make(chan Event, 32)
	if _, err := Load(context.Background(), dir, Options{Events: events}); err != nil {
		t.Fatalf("load: %v", err)
	}
	counts := make(map[Stage]int)
	for ev := range events {
		counts[ev.Stage]++
	}
	if counts[StageParse] != 2 || counts[StageDone] != 2 || counts[StageLink] != 2 {
		t.Fatalf("event counts = %v", counts)
	}
}

func TestLoadMissingPath(t *testing.T) {
	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope"), Options{}); err == nil {
		t.Fatalf("missing path must be an I/O error, not a diagnostic")
	}
}

func TestListDocumentsSortsAndFilters(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "b.toml", "")
	writeDoc(t, dir, "a.toml", "")
	writeDoc(t, dir, "notes.txt", "not a document")

	files, err := ListDocuments(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 ||
		filepath.Base(files[0]) != "a.toml" ||
		filepath.Base(files[1]) != "b.toml" {
		t.Fatalf("files = %v", files)
	}
}
