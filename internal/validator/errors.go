package validator

import "fmt"

// Issue is a single validation failure.
type Issue struct {
	Kind   string // duplicate-control, duplicate-param, parent-link, missing-param, ...
	ID     string
	Reason string
	Err    error
}

func (e *Issue) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Kind, e.ID, e.Reason)
}

func (e *Issue) Unwrap() error {
	return e.Err
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap lets errors.Is and errors.As see every failure.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// Issues returns all validation failures if err is an AggregateError.
// Otherwise returns nil.
func Issues(err error) []error {
	if aggr, ok := err.(*AggregateError); ok {
		return aggr.Errors
	}
	return nil
}
