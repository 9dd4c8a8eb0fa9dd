package ui

import (
	"context"
	"time"

	"github.com/sandeepkv93/movie-catalog-backend/internal/tools/common"
)

// Action is a unit of tool work that reports human-readable detail lines.
type Action func(context.Context) ([]string, error)

// Execute runs action with a deadline. In CI mode the outcome is printed as
// JSON; otherwise it is rendered interactively. A failed action is returned
// as a common.ExitError with exitCode.
func Execute(ci bool, title string, timeout time.Duration, exitCode int, action Action) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	var err error
	if ci {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		var details []string
		details, err = action(ctx)
		common.PrintCIResult(err == nil, title, details, err)
	} else {
		_, err = Run(title, timeout, action)
	}
	if err != nil {
		return &common.ExitError{Code: exitCode, Err: err}
	}
	return nil
}
