package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lumen/pkg/network"
	protocol "lumen/pkg/shared/network"
	"lumen/pkg/shared/properties"
	"lumen/pkg/shared/world"
)

var (
	serverURL string
	duration  time.Duration
)

var loginCmd = &cobra.Command{
	Use:   "login <name>",
	Short: "Log in and print every property update the server sends",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if duration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, duration)
			defer cancel()
		}

		reg := properties.NewRegistry()
		if err := world.Preload(reg, logger); err != nil {
			return err
		}

		c, err := network.Dial(ctx, serverURL, reg, logger)
		if err != nil {
			return err
		}
		defer c.Close()

		if _, err := c.Login(ctx, args[0]); err != nil {
			return err
		}

		for {
			u, err := c.Next(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				if errors.Is(err, network.ErrUnknownEntity) {
					logger.Warn("skipping update", "error", err)
					continue
				}
				return err
			}
			printUpdate(u)
		}
	},
}

func init() {
	loginCmd.Flags().StringVar(&serverURL, "url", "ws://127.0.0.1:8081/ws", "server websocket URL")
	loginCmd.Flags().DurationVar(&duration, "for", 0, "stop after this long (0 runs until interrupted)")
}

func printUpdate(u network.Update) {
	switch u.Op {
	case protocol.OpEntityLeave:
		fmt.Fprintf(os.Stdout, "%-16s %-6d %s\n", u.Op, u.Handle, u.Type)
		return
	case protocol.OpEntityEnter, protocol.OpEntityProperties:
	default:
		return
	}

	props := slices.Clone(u.Properties)
	slices.SortFunc(props, func(a, b protocol.Property) int { return int(a.ID) - int(b.ID) })
	fields := make([]string, 0, len(props))
	for _, p := range props {
		fields = append(fields, fmt.Sprintf("%d=%s", p.ID, p.Value))
	}
	fmt.Fprintf(os.Stdout, "%-16s %-6d %-8s %s\n", u.Op, u.Handle, u.Type, strings.Join(fields, " "))
}
