package classdef

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"

	"strata/internal/diag"
)

// Document is one parsed class document: the definitions it declares, in
// document order.
type Document struct {
	Path    string
	Classes []Class
}

type rawMember struct {
	Value     any      `toml:"value"`
	Modifiers []string `toml:"modifiers"`
}

type rawClass struct {
	Parents    []string             `toml:"parents"`
	Implements []string             `toml:"implements"`
	Kind       string               `toml:"kind"`
	Members    map[string]rawMember `toml:"members"`
}

type rawDocument struct {
	Class map[string]rawClass `toml:"class"`
}

// LoadFile reads and parses one TOML class document. Document-level problems
// are reported into the returned bag; the returned Document contains every
// definition that parsed, including invalid ones.
func LoadFile(path string) (*Document, *diag.Bag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return Parse(data, path)
}

// Parse decodes a TOML class document. Definition order follows the
// document's key order, not Go map iteration.
func Parse(data []byte, path string) (*Document, *diag.Bag, error) {
	bag := diag.NewBag(64)
	var raw rawDocument
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		d := diag.New(diag.DocParse, "", "", "failed to parse TOML: %v", err)
		d.Path = path
		bag.Add(d)
		return nil, bag, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}

	doc := &Document{Path: path}
	classOrder, memberOrder := keyOrder(meta)
	for _, name := range classOrder {
		rc, ok := raw.Class[name]
		if !ok {
			continue
		}
		def := Class{
			Name:       norm.NFC.String(name),
			Parents:    normalizeAll(rc.Parents),
			Implements: normalizeAll(rc.Implements),
			Interface:  rc.Kind == "interface",
		}
		for _, memberName := range memberOrder[name] {
			rm, ok := rc.Members[memberName]
			if !ok {
				continue
			}
			mods, err := ParseModifiers(rm.Modifiers)
			if err != nil {
				d := diag.New(diag.DocUnknownModifier, def.Name, memberName, "%v", err)
				d.Path = path
				bag.Add(d)
				continue
			}
			def.Members = append(def.Members, Member{
				Name:  norm.NFC.String(memberName),
				Value: rm.Value,
				Mods:  mods,
			})
		}
		docBag := diag.NewBag(64)
		Validate(&def, docBag)
		for _, d := range docBag.Items() {
			d.Path = path
			bag.Add(d)
		}
		doc.Classes = append(doc.Classes, def)
	}
	return doc, bag, nil
}

// keyOrder recovers class and member declaration order from the TOML
// metadata key list.
func keyOrder(meta toml.MetaData) (classes []string, members map[string][]string) {
	members = make(map[string][]string)
	seenClass := make(map[string]struct{})
	seenMember := make(map[string]struct{})
	for _, key := range meta.Keys() {
		if len(key) < 2 || key[0] != "class" {
			continue
		}
		name := key[1]
		if _, ok := seenClass[name]; !ok {
			seenClass[name] = struct{}{}
			classes = append(classes, name)
		}
		if len(key) >= 4 && key[2] == "members" {
			memberKey := name + "\x00" + key[3]
			if _, ok := seenMember[memberKey]; !ok {
				seenMember[memberKey] = struct{}{}
				members[name] = append(members[name], key[3])
			}
		}
	}
	return classes, members
}

func normalizeAll(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = norm.NFC.String(n)
	}
	return out
}
