package extract

import "fmt"

// ExtractionError wraps a failed model call or an unparseable response.
// An upload that hits one aborts before anything is persisted.
type ExtractionError struct {
	Stage string // read, request, response, decode
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction %s: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
