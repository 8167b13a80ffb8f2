// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import "fmt"

// WorkResult is what an operation reports to the scheduler.
type WorkResult int

const (
	// Yield means the operation is still waiting.
	Yield WorkResult = iota
	// Finish means the operation completed and its process may resume.
	Finish
)

func (r WorkResult) String() string {
	switch r {
	case Yield:
		return "yield"
	case Finish:
		return "finish"
	}
	return fmt.Sprintf("WorkResult(%d)", int(r))
}

// Operation is a blocking primitive a process waits on.
//
// Init validates the call arguments and sets the operation up; a returned
// error discards the operation. Evaluate drives progress that consumes no
// time and Work drives progress once per tick. When the operation finishes,
// PushResults returns the values the process resumes with. Terminate
// releases everything the operation holds, whatever state it is in.
//
// Implementations embed [Base], which supplies the owning process, the
// finished flag and defaults for every method but Init.
type Operation interface {
	Init(args Args) error
	Evaluate(h *Host) WorkResult
	Work(h *Host, dt Time) WorkResult
	PushResults() Values
	Terminate(h *Host)

	IsFinished() bool
	SetFinished(finished bool)
	Process() *Process
	SetProcess(p *Process)
}

// Base is the embeddable common part of every operation.
type Base struct {
	process  *Process
	finished bool
}

// Process returns the process that owns the operation.
func (b *Base) Process() *Process {
	return b.process
}

// SetProcess binds the owning process. It is set once, before Init.
func (b *Base) SetProcess(p *Process) {
	invariant(b.process == nil || b.process == p, "operation owner reassigned")
	b.process = p
}

func (b *Base) IsFinished() bool {
	return b.finished
}

func (b *Base) SetFinished(finished bool) {
	b.finished = finished
}

// Evaluate reports Yield: most operations only progress in Work.
func (b *Base) Evaluate(*Host) WorkResult {
	return Yield
}

func (b *Base) Work(*Host, Time) WorkResult {
	if b.finished {
		return Finish
	}
	return Yield
}

func (b *Base) PushResults() Values {
	return nil
}

func (b *Base) Terminate(*Host) {}

// Constructor creates an unbound operation.
type Constructor func() Operation

// OperationDescription binds a script-visible name to a constructor.
type OperationDescription struct {
	Name string
	New  Constructor
}

// Namespace maps operation names to constructors.
// A Call effect is served by the constructor registered under its name.
type Namespace map[string]Constructor

// RegisterOperations installs descriptions in ns.
func RegisterOperations(ns Namespace, descriptions []OperationDescription) {
	for _, d := range descriptions {
		ns[d.Name] = d.New
	}
}

// UnregisterOperations removes the names of descriptions from ns.
func UnregisterOperations(ns Namespace, descriptions []OperationDescription) {
	for _, d := range descriptions {
		delete(ns, d.Name)
	}
}

// StandardOperations returns the descriptions of the bundled operations.
func StandardOperations() []OperationDescription {
	return []OperationDescription{
		{Name: "log", New: func() Operation { return &logOp{} }},
		{Name: "sleep", New: func() Operation { return &sleepOp{} }},
		{Name: "par", New: func() Operation { return &parOp{} }},
		{Name: "alt", New: func() Operation { return &altOp{} }},
		{Name: "out", New: func() Operation { return &outOp{} }},
		{Name: "in", New: func() Operation { return &inOp{} }},
		{Name: "close", New: func() Operation { return &closeOp{} }},
		{Name: "source", New: func() Operation { return &sourceOp{} }},
	}
}

// RegisterStandardOperations installs the bundled operations in ns.
func RegisterStandardOperations(ns Namespace) {
	RegisterOperations(ns, StandardOperations())
}

// UnregisterStandardOperations removes the bundled operations from ns.
func UnregisterStandardOperations(ns Namespace) {
	UnregisterOperations(ns, StandardOperations())
}
