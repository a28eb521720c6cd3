package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errDiagnostics) {
			fmt.Fprintln(os.Stderr, errorColor.Sprint("error:"), err)
		}
		os.Exit(1)
	}
}
