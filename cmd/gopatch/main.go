package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()

	if err := cmd.Execute(); err != nil {
		code := exitFatal
		var ec *exitCodeError
		if errors.As(err, &ec) {
			code = ec.code
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "gopatch:", err)
		os.Exit(code)
	}
}
