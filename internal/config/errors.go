package config

import "fmt"

// Error reports selection configuration that could not be turned into a
// runtime Config. Field names the offending setting using its YAML path.
type Error struct {
	Field string
	Value string
	Err   error
}

func (e *Error) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("config %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
