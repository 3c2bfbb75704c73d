// Package taskrt is a single-threaded cooperative task executor. Tasks run
// one at a time; a running task keeps the thread until it yields or returns.
// Each task carries its own scope stack so that engine state tracked "for the
// current call" never leaks between interleaved tasks.
package taskrt

import (
	"fmt"
	"runtime"
)

// TaskID identifies a spawned task. TaskID(0) is the implicit main task:
// code running outside any spawned task.
type TaskID uint64

// TaskStatus describes task scheduling state.
type TaskStatus uint8

const (
	TaskReady TaskStatus = iota
	TaskRunning
	TaskDone
)

// Task stores executor-visible task state.
type Task struct {
	ID     TaskID
	Status TaskStatus

	fn      func(*Handle)
	resume  chan struct{}
	parked  chan struct{}
	started bool
	failure any

	scopes []any
}

// Handle is passed to a task body; it is the task's only way to interact
// with the scheduler.
type Handle struct {
	exec *Executor
	id   TaskID
}

// ID returns the task's identifier.
func (h *Handle) ID() TaskID {
	if h == nil {
		return 0
	}
	return h.id
}

// Yield parks the task at the back of the ready queue and hands the thread
// to the next ready task. It returns when the scheduler resumes this task.
func (h *Handle) Yield() {
	if h == nil {
		return
	}
	h.exec.yield(h.id)
}

// Executor runs cooperative tasks with a deterministic FIFO scheduler.
// It is not safe for use from multiple OS threads; the engine is
// single-threaded by design.
type Executor struct {
	nextID   TaskID
	tasks    map[TaskID]*Task
	ready    []TaskID
	current  TaskID
	stopping bool

	// mainScopes backs the implicit main task.
	mainScopes []any
}

// New constructs an empty executor.
func New() *Executor {
	return &Executor{
		nextID: 1,
		tasks:  make(map[TaskID]*Task),
	}
}

// Spawn registers a task and enqueues it for execution. The task body does
// not run until Run is called.
func (e *Executor) Spawn(fn func(*Handle)) TaskID {
	if e == nil || fn == nil {
		return 0
	}
	id := e.nextID
	e.nextID++
	e.tasks[id] = &Task{
		ID:     id,
		fn:     fn,
		resume: make(chan struct{}),
		parked: make(chan struct{}),
	}
	e.ready = append(e.ready, id)
	return id
}

// Current returns the ID of the running task, or 0 when no task is running.
func (e *Executor) Current() TaskID {
	if e == nil {
		return 0
	}
	return e.current
}

// Run drains the ready queue. Every spawned task runs to completion, with
// interleaving determined solely by where tasks yield. A panic inside a task
// is re-raised here after the remaining tasks are unscheduled.
func (e *Executor) Run() {
	if e == nil {
		return
	}
	for len(e.ready) > 0 {
		id := e.ready[0]
		e.ready = e.ready[1:]
		t := e.tasks[id]
		if t == nil || t.Status == TaskDone {
			continue
		}
		e.step(t)
		if t.failure != nil {
			failure := t.failure
			e.abandon()
			panic(failure)
		}
	}
}

// step hands the thread to one task until it yields or finishes.
func (e *Executor) step(t *Task) {
	e.current = t.ID
	t.Status = TaskRunning
	if !t.started {
		t.started = true
		go e.drive(t)
	} else {
		t.resume <- struct{}{}
	}
	<-t.parked
	e.current = 0
	if t.Status == TaskDone {
		delete(e.tasks, t.ID)
	}
}

// drive is the goroutine body hosting one task. Only one such goroutine is
// ever unblocked at a time.
func (e *Executor) drive(t *Task) {
	defer func() {
		if r := recover(); r != nil {
			t.failure = fmt.Errorf("task %d: %v", t.ID, r)
		}
		t.Status = TaskDone
		t.parked <- struct{}{}
	}()
	t.fn(&Handle{exec: e, id: t.ID})
}

// abandon unwinds every parked task goroutine after a failure. Each one is
// resumed just long enough to exit through its deferred cleanup; no further
// task body runs.
func (e *Executor) abandon() {
	e.stopping = true
	e.ready = nil
	for _, t := range e.tasks {
		if !t.started || t.Status == TaskDone {
			continue
		}
		t.resume <- struct{}{}
		<-t.parked
		delete(e.tasks, t.ID)
	}
}

func (e *Executor) yield(id TaskID) {
	t := e.tasks[id]
	if t == nil || e.current != id {
		return
	}
	t.Status = TaskReady
	e.ready = append(e.ready, id)
	t.parked <- struct{}{}
	<-t.resume
	if e.stopping {
		runtime.Goexit()
	}
	t.Status = TaskRunning
}
