package media

import "fmt"

// Kind classifies an operation failure.
type Kind string

const (
	// KindConfig — the service or its backend is not usable as configured.
	KindConfig Kind = "config"
	// KindInput — the caller-supplied input could not be used.
	KindInput Kind = "input"
	// KindBackend — the object store rejected or failed the call.
	KindBackend Kind = "backend"
	// KindNotFound — the requested key does not exist.
	KindNotFound Kind = "not_found"
)

// Error is the uniform failure shape every operation returns. The raw
// backend error is wrapped, never propagated untyped; callers branch on
// Kind, not on backend client types.
type Error struct {
	Op   string // operation name: "put", "get", "get_base64", "presign", "delete"
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
