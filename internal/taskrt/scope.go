package taskrt

// Scope stack operations. Each task owns an independent stack; code running
// outside any task uses the implicit main stack. Values are opaque to the
// scheduler.

// PushScope pushes a value onto the current task's scope stack.
func (e *Executor) PushScope(v any) {
	if e == nil {
		return
	}
	if t := e.tasks[e.current]; t != nil {
		t.scopes = append(t.scopes, v)
		return
	}
	e.mainScopes = append(e.mainScopes, v)
}

// PopScope removes the top of the current task's scope stack. Popping an
// empty stack is a no-op so that unwinding code can always pair pushes with
// deferred pops.
func (e *Executor) PopScope() {
	if e == nil {
		return
	}
	if t := e.tasks[e.current]; t != nil {
		if n := len(t.scopes); n > 0 {
			t.scopes = t.scopes[:n-1]
		}
		return
	}
	if n := len(e.mainScopes); n > 0 {
		e.mainScopes = e.mainScopes[:n-1]
	}
}

// Scope returns the top of the current task's scope stack, or nil when the
// stack is empty.
func (e *Executor) Scope() any {
	if e == nil {
		return nil
	}
	if t := e.tasks[e.current]; t != nil {
		if n := len(t.scopes); n > 0 {
			return t.scopes[n-1]
		}
		return nil
	}
	if n := len(e.mainScopes); n > 0 {
		return e.mainScopes[n-1]
	}
	return nil
}

// ScopeDepth returns the current stack depth, for invariant checks in tests.
func (e *Executor) ScopeDepth() int {
	if e == nil {
		return 0
	}
	if t := e.tasks[e.current]; t != nil {
		return len(t.scopes)
	}
	return len(e.mainScopes)
}
