// Package validator holds the per-format structural checks run against an
// uploaded file before it is released for coupon issuance.
package validator

import "io"

// RequiredHeader is the only column header accepted in the first row.
const RequiredHeader = "customer_id"

// Failure messages shared by the built-in strategies.
const (
	MsgInvalidHeader = "Invalid header. Expected 'customer_id'."
	MsgFileEmpty     = "File is empty."
)

// Result is the verdict of a single validation run.
type Result struct {
	Valid        bool
	ErrorMessage string
}

func Success() Result {
	return Result{Valid: true}
}

func Failure(msg string) Result {
	return Result{Valid: false, ErrorMessage: msg}
}

// Strategy validates the structure of one file format. Implementations must
// report malformed input through the returned Result and never panic on it.
type Strategy interface {
	Validate(r io.Reader) Result
}

// Func adapts a plain function to Strategy.
type Func func(r io.Reader) Result

func (f Func) Validate(r io.Reader) Result {
	return f(r)
}
