// Command cineverse runs the CineVerse backend and its maintenance tasks.
//
// Configuration is read from the environment, see cineverse.Config.
//
//	cineverse migrate
//	cineverse serve
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
