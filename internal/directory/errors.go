package directory

import "fmt"

// LoadError represents an error reading or decoding a directory file
type LoadError struct {
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load directory: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load directory: %s", e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
