package tilesheet

// SheetError describes the outcome of importing a tile sheet.
// SizeMismatch is a warning: the sheet is padded and still accepted.
type SheetError int

const (
	Success SheetError = iota
	Unsupported
	TooLarge
	NotFound
	InvalidArg
	SizeMismatch
)

// String returns a human-readable name for the error.
func (e SheetError) String() string {
	switch e {
	case Success:
		return "success"
	case Unsupported:
		return "unsupported image format"
	case TooLarge:
		return "image too large"
	case NotFound:
		return "file not found"
	case InvalidArg:
		return "invalid argument"
	case SizeMismatch:
		return "image size is not a multiple of the tile size"
	default:
		return "unknown sheet error"
	}
}

// Error implements the error interface.
func (e SheetError) Error() string {
	return "tilesheet: " + e.String()
}

// IsAccepted reports whether a sheet with this result was registered.
func (e SheetError) IsAccepted() bool {
	return e == Success || e == SizeMismatch
}

// Err returns nil for Success and the SheetError itself otherwise, so callers
// can use the usual err != nil checks.
func (e SheetError) Err() error {
	if e == Success {
		return nil
	}
	return e
}
