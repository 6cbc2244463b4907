package safe

import (
	"fmt"

	"github.com/pkg/errors"
)

//be safe, don't panic

// Run invokes fn and converts a panic into a returned error, so user
// callbacks (buffer factories, boundary selectors) can't unwind through the
// operator machinery.
func Run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch x := r.(type) {
			case string:
				err = errors.New(x)
			case error:
				err = x
			default:
				err = fmt.Errorf("%#v", x)
			}
		}
	}()
	err = fn()
	return err
}

// Call runs a value-returning callback under Run.
func Call[T any](fn func() T) (out T, err error) {
	err = Run(func() error {
		out = fn()
		return nil
	})
	return out, err
}
