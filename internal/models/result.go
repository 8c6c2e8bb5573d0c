package models

// Result is the soft outcome of a mutating boundary operation. Err keeps the
// underlying failure for diagnostics and never reaches the wire.
type Result struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Err     error  `json:"-"`
}

// OK builds a successful result.
func OK(id string) Result {
	return Result{Success: true, ID: id}
}

// Failed builds a failed result carrying err.
func Failed(err error) Result {
	return Result{Err: err}
}

// Saved builds a successful result naming a stored file.
func Saved(name string) Result {
	return Result{Success: true, Name: name}
}
