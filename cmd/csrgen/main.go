//go:build !test
// +build !test

package main

import (
	"fmt"
	"os"

	"github.com/wrouesnel/csrgen/internal/entrypoint"
)

func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Println(err) //nolint:forbidigo
			os.Exit(1)
		}
	}()

	if err := entrypoint.Entrypoint(os.Stdout, os.Stderr, os.Stdin); err != nil {
		os.Exit(1) //nolint:gocritic
	}
	os.Exit(0)
}
