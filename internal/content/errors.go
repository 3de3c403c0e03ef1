package content

import "errors"

var (
	ErrUnknownKind    = errors.New("unknown content kind")
	ErrUnknownPageKey = errors.New("unknown page key")
	// markdown
	ErrMDConversion = errors.New("could not convert MD to HTML")
)
