package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"stasis/internal/client"
	"stasis/internal/config"
)

// Reads one command per line from stdin and prints the server's reply.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	policy := client.DefaultRetryPolicy()
	policy.MaxRetries = cfg.DialRetries
	policy.BaseBackoff = cfg.DialBackoff

	c, err := client.Dial(ctx, cfg.Addr, cfg.Framing, cfg.MaxFrame, policy)
	if err != nil {
		return err
	}
	defer c.Close()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		reply, err := c.Do(line)
		if err != nil {
			return err
		}
		fmt.Println(reply)
	}
	return scanner.Err()
}
