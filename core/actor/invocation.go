package actor

import (
	"fmt"
	"strings"
)

// Invocation is one queued unit of work: a closure over the target actor, a
// one-shot completion for its result, and a readable representation used for
// dead letters and logs.
type Invocation struct {
	target         *Environment
	closure        func(a Actor) (any, error)
	representation string
	completion     *Completion
	snapshot       ExecutionContext

	// noRoute suppresses failure routing for this delivery. Set on
	// supervisor notifications: a failing inform is logged, never
	// re-routed, and must not wedge the supervisor's own mailbox.
	noRoute bool
}

// Representation returns the human-readable "method(arg1,arg2)" string.
func (i *Invocation) Representation() string { return i.representation }

// Completion returns the invocation's result slot.
func (i *Invocation) Completion() *Completion { return i.completion }

// Representation renders a method name and its arguments the way dead
// letters and logs report an invocation: "method(arg1,arg2)".
func Representation(method string, args ...any) string {
	if len(args) == 0 {
		return method + "()"
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	return fmt.Sprintf("%s(%s)", method, strings.Join(parts, ","))
}
