package workers

import "fmt"

// PanicError reports a panic recovered while evaluating one item.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker panic: %v", e.Value)
}
