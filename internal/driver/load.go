// Package driver loads class documents from disk and links them into a
// registry: files parse concurrently, definitions link sequentially in
// dependency order.
package driver

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"strata/internal/classdef"
	"strata/internal/diag"
	"strata/internal/object"
)

// Stage identifies a pipeline phase for progress events.
type Stage uint8

const (
	StageParse Stage = iota
	StageLink
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageParse:
		return "parse"
	case StageLink:
		return "link"
	case StageDone:
		return "done"
	}
	return "unknown"
}

// Event reports per-file progress to an optional listener.
type Event struct {
	Path  string
	Stage Stage
	Err   error
}

// Options configures a load run.
type Options struct {
	// MaxDiagnostics bounds the merged bag. Zero means 100.
	MaxDiagnostics int
	// Events, when non-nil, receives one event per file per stage. The
	// channel is closed when the run finishes.
	Events chan<- Event
}

// Result is the outcome of loading one file or directory.
type Result struct {
	Registry  *object.Registry
	Documents []*classdef.Document
	Bag       *diag.Bag
}

// Load parses the class documents at path (a .toml file or a directory of
// them) and links every definition into a fresh registry. Problems are
// collected in the result bag; only I/O-level failures return an error.
func Load(ctx context.Context, path string, opts Options) (*Result, error) {
	defer func() {
		if opts.Events != nil {
			close(opts.Events)
		}
	}()

	files, err := ListDocuments(path)
	if err != nil {
		return nil, err
	}
	maxDiag := opts.MaxDiagnostics
	if maxDiag <= 0 {
		maxDiag = 100
	}
	res := &Result{
		Registry: object.NewRegistry(),
		Bag:      diag.NewBag(maxDiag),
	}

	docs, err := parseAll(ctx, files, opts.Events)
	if err != nil {
		return nil, err
	}
	for _, parsed := range docs {
		res.Documents = append(res.Documents, parsed.doc)
		res.Bag.Merge(parsed.bag)
	}

	link(res, opts.Events)
	res.Bag.Sort()
	return res, nil
}

type parsedDoc struct {
	doc *classdef.Document
	bag *diag.Bag
}

// parseAll parses every file concurrently, preserving file order in the
// returned slice.
func parseAll(ctx context.Context, files []string, events chan<- Event) ([]parsedDoc, error) {
	out := make([]parsedDoc, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for idx, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			emit(events, Event{Path: file, Stage: StageParse})
			doc, bag, err := classdef.LoadFile(file)
			if err != nil && doc == nil && bag == nil {
				// I/O failure, not a document problem.
				emit(events, Event{Path: file, Stage: StageDone, Err: err})
				return err
			}
			if doc == nil {
				doc = &classdef.Document{Path: file}
			}
			out[idx] = parsedDoc{doc: doc, bag: bag}
			emit(events, Event{Path: file, Stage: StageDone, Err: err})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// link defines every parsed class in dependency order, reporting duplicate
// names, cycles, unresolved parents and surviving ambiguities.
func link(res *Result, events chan<- Event) {
	type entry struct {
		def  classdef.Class
		path string
	}
	byName := make(map[string]entry)
	var order []string
	for _, doc := range res.Documents {
		for _, def := range doc.Classes {
			if prev, dup := byName[def.Name]; dup {
				d := diag.New(diag.LinkDuplicateClass, def.Name, "",
					"class already defined in %s", prev.path)
				d.Path = doc.Path
				res.Bag.Add(d)
				continue
			}
			byName[def.Name] = entry{def: def, path: doc.Path}
			order = append(order, def.Name)
		}
	}

	linked, cyclic := topoOrder(order, func(name string) []string {
		e := byName[name]
		deps := make([]string, 0, len(e.def.Parents)+len(e.def.Implements))
		deps = append(deps, e.def.Parents...)
		deps = append(deps, e.def.Implements...)
		return deps
	})
	for _, name := range cyclic {
		d := diag.New(diag.LinkCycle, name, "", "class participates in an inheritance cycle")
		d.Path = byName[name].path
		res.Bag.Add(d)
	}

	for _, name := range linked {
		e := byName[name]
		emit(events, Event{Path: e.path, Stage: StageLink})
		desc, err := res.Registry.Define(e.def)
		if err != nil {
			res.Bag.Add(linkDiag(e.def.Name, e.path, err))
			continue
		}
		reportLinked(res.Bag, e.path, desc)
	}
}

// reportLinked emits warnings for slots a linked class leaves unusable.
func reportLinked(bag *diag.Bag, path string, desc *object.ClassDescriptor) {
	for _, name := range desc.MemberNames() {
		if desc.Meta[name].Mods.Has(classdef.ModAmbiguous) {
			d := diag.New(diag.LinkAmbiguousMember, desc.Name, name,
				"inherited from multiple unrelated parents; override it or qualify access")
			d.Path = path
			bag.Add(d)
		}
	}
	if desc.HasAbstract && !desc.Interface {
		d := diag.New(diag.LinkAbstractLeak, desc.Name, "",
			"class cannot be instantiated: unimplemented abstract members: %s",
			strings.Join(desc.AbstractMembers, ", "))
		d.Path = path
		bag.Add(d)
	}
}

func linkDiag(class, path string, err error) diag.Diagnostic {
	var unresolved *object.UnresolvedParentError
	var d diag.Diagnostic
	switch {
	case errors.As(err, &unresolved):
		d = diag.New(diag.LinkUnresolvedParent, class, "", "unknown parent %q", unresolved.Parent)
	case errors.Is(err, object.ErrParentIsInterface):
		d = diag.New(diag.LinkParentInterface, class, "", "%v", err)
	case errors.Is(err, object.ErrNotAnInterface):
		d = diag.New(diag.LinkNotAnInterface, class, "", "%v", err)
	default:
		d = diag.New(diag.LinkInfo, class, "", "%v", err)
		d.Severity = diag.SevError
	}
	d.Path = path
	return d
}

// topoOrder returns names in dependency order (dependencies first), keeping
// the declaration order among independent classes. Names on a cycle are
// returned separately and excluded from the linkable order. Dependencies on
// undeclared names are ignored here; Define reports them.
func topoOrder(names []string, deps func(string) []string) (order, cyclic []string) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(names))
	declared := make(map[string]struct{}, len(names))
	onCycle := make(map[string]struct{})
	for _, name := range names {
		declared[name] = struct{}{}
	}

	var visit func(name string) bool
	visit = func(name string) bool {
		switch state[name] {
		case visiting:
			return false
		case done:
			_, bad := onCycle[name]
			return !bad
		}
		state[name] = visiting
		ok := true
		for _, dep := range deps(name) {
			if _, known := declared[dep]; !known {
				continue
			}
			if !visit(dep) {
				ok = false
			}
		}
		state[name] = done
		if !ok {
			onCycle[name] = struct{}{}
		} else {
			order = append(order, name)
		}
		return ok
	}
	for _, name := range names {
		visit(name)
	}
	cyclic = make([]string, 0, len(onCycle))
	for name := range onCycle {
		cyclic = append(cyclic, name)
	}
	sort.Strings(cyclic)
	return order, cyclic
}

// ListDocuments returns the sorted list of class documents at path.
func ListDocuments(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(p), ".toml") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func emit(events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	events <- ev
}
