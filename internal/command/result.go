package command

import (
	"strings"

	"github.com/and161185/league-keeper/internal/model"
)

// Result is the structured outcome of a command.
// Messages report success, Warnings soft refusals and Errors hard failures.
type Result[T any] struct {
	Success  bool
	Result   T
	Messages []string
	Warnings []string
	Errors   []string
	// Reason carries the sentinel from package errs when the command did not succeed cleanly.
	Reason error
	// Unchanged is set when the command succeeded without modifying the entity.
	Unchanged bool
}

// Success returns a successful result with the given messages.
func Success[T any](messages ...string) Result[T] {
	return Result[T]{Success: true, Messages: messages}
}

// Failure returns a hard failure with reason and a user-facing error.
func Failure[T any](reason error, message string) Result[T] {
	return Result[T]{Reason: reason, Errors: []string{message}}
}

// Refusal returns a soft, non-fatal failure reported as a warning.
func Refusal[T any](reason error, message string) Result[T] {
	return Result[T]{Reason: reason, Warnings: []string{message}}
}

// absorb appends the messages, warnings and errors of src to dst.
func absorb[T, U any](dst *Result[T], src Result[U]) {
	dst.Messages = append(dst.Messages, src.Messages...)
	dst.Warnings = append(dst.Warnings, src.Warnings...)
	dst.Errors = append(dst.Errors, src.Errors...)
}

// Summary joins every message, warning and error into one readable string.
func (r Result[T]) Summary() string {
	parts := make([]string, 0, len(r.Errors)+len(r.Warnings)+len(r.Messages))
	parts = append(parts, r.Errors...)
	parts = append(parts, r.Warnings...)
	parts = append(parts, r.Messages...)
	return strings.Join(parts, ", ")
}

// recast keeps the outcome of r but drops its typed payload.
func recast[T, U any](r Result[T]) Result[U] {
	return Result[U]{
		Success:   r.Success,
		Messages:  r.Messages,
		Warnings:  r.Warnings,
		Errors:    r.Errors,
		Reason:    r.Reason,
		Unchanged: r.Unchanged,
	}
}

// erase converts a typed result into the registry-facing shape.
func erase[T model.Audited](r Result[T]) Result[model.Audited] {
	out := recast[T, model.Audited](r)
	if r.Success {
		out.Result = r.Result
	}
	return out
}
