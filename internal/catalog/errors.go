package catalog

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Configuration errors returned while loading factor sources. Every load
// failure wraps ErrInvalidSource, so callers only need errors.Is against it to
// refuse to start.
var (
	ErrInvalidSource  = constError("invalid emission factor source")
	ErrMissingSection = constError("missing factor section")
	ErrInvalidShape   = constError("unsupported factor document shape")
	ErrNonNumeric     = constError("non-numeric factor value")
	ErrDuplicateKey   = constError("conflicting duplicate factor key")
)
