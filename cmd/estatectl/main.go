// Command estatectl runs operator tasks against the estate database:
// migrations, account creation, key generation and remember-token cleanup.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "estatectl:", err)
		cancel()
		os.Exit(1)
	}
}
