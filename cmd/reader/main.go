package main

import (
	"errors"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.As(err, new(reportedError)) {
			printFailure(err.Error())
		}
		os.Exit(1)
	}
}
