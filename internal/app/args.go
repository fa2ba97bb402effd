package app

import (
	"fmt"
	"io"
	"strconv"

	"github.com/tphakala/faunagram-go/internal/errors"
)

// ParseID parses a positive resource id argument
func ParseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, errors.Newf("invalid id %q: must be a positive number", arg).
			Category(errors.CategoryValidation).
			Component("cmd").
			Build()
	}
	return id, nil
}

// Print writes a rendered view followed by a newline
func Print(w io.Writer, rendered string) {
	fmt.Fprintln(w, rendered)
}

// Failure turns the inline message of a view into the command error
func Failure(message string, err error) error {
	if message == "" {
		return err
	}
	return errors.NewStd(message)
}
