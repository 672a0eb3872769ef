package vecalign

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInput is the sentinel every InputError unwraps to.
var ErrInput = errors.New("invalid input")

// InputError reports malformed or mismatched caller input. It is never
// retried: the same input always fails the same way.
type InputError struct {
	Op  string
	Msg string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *InputError) Unwrap() error {
	return ErrInput
}

func inputErrorf(op, format string, args ...any) error {
	return &InputError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// IsInputError reports whether err (or anything it wraps) is an InputError.
func IsInputError(err error) bool {
	var inErr *InputError
	return errors.As(err, &inErr)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate rejects negative or NaN penalties.
func (g GapPenalty) Validate() error {
	if err := structValidator().Struct(g); err != nil {
		return inputErrorf("gap penalty", "open=%v extend=%v: %v", g.Open, g.Extend, err)
	}
	return nil
}
