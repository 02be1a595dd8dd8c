package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bryanwahyu/code-understood/internal/domain/analysis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		if !shown(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}

// shown reports whether the regions already displayed err to the user.
func shown(err error) bool {
	var be *analysis.BackendError
	return errors.As(err, &be) ||
		errors.Is(err, analysis.ErrEmptyInput) ||
		errors.Is(err, analysis.ErrMissingField)
}
