package bridges

import (
	"errors"
	"fmt"
)

var (
	ErrSourceUnavailable = errors.New("callable source unavailable")
	ErrUnsupportedValue  = errors.New("unsupported value")
)

// CircularReferenceError reports a container reached twice in one encode call.
type CircularReferenceError struct {
	Path string
}

func (c *CircularReferenceError) Error() string {
	return fmt.Sprintf("circular reference at %s", c.Path)
}
