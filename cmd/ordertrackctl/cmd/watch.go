package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Dragoner91/ordertrack/internal/client"
	"github.com/Dragoner91/ordertrack/internal/domain"
)

var (
	watchOrderID string
	watchPlain   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [order-id]",
	Short: "Watch live order status updates",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		watchOrderID = ""
		if len(args) == 1 {
			watchOrderID = args[0]
		}

		if watchPlain || IsQuiet() {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatchPlain(ctx, cmd.OutOrStdout())
		}
		return runWatchUI()
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchPlain, "plain", false, "line-per-update output without the TUI")
}

func newWatchClient(onUpdate func(domain.StatusUpdateNotification), onConn func(bool)) *client.Client {
	return client.New(client.Options{
		URL:                serverURL + "/api/sse/order-updates",
		HTTPClient:         httpClient,
		OnUpdate:           onUpdate,
		OnConnectionChange: onConn,
	})
}

// runWatchPlain streams updates as plain lines until the context ends or
// the client gives up reconnecting.
func runWatchPlain(ctx context.Context, out io.Writer) error {
	updates := make(chan domain.StatusUpdateNotification, 16)
	conns := make(chan bool, 4)

	cl := newWatchClient(
		func(n domain.StatusUpdateNotification) {
			select {
			case updates <- n:
			default:
			}
		},
		func(connected bool) {
			select {
			case conns <- connected:
			default:
			}
		},
	)
	cl.Connect()
	defer cl.Disconnect()

	for {
		select {
		case <-ctx.Done():
			return nil
		case connected := <-conns:
			if !connected && cl.State() == client.StateDisconnected {
				return fmt.Errorf("connection lost and reconnect attempts exhausted")
			}
		case n := <-updates:
			if watchOrderID != "" && n.OrderID != watchOrderID {
				continue
			}
			line := fmt.Sprintf("%s  order %s  %s", n.Timestamp.Format("15:04:05"), n.OrderID, n.Status)
			if n.Note != "" {
				line += "  " + n.Note
			}
			fmt.Fprintln(out, line)
		}
	}
}

func runWatchUI() error {
	m := NewWatchModel(watchOrderID)
	ui := NewUI(m)

	cl := newWatchClient(
		func(n domain.StatusUpdateNotification) { ui.Send(updateMsg(n)) },
		func(connected bool) { ui.Send(connMsg(connected)) },
	)
	cl.Connect()
	defer cl.Disconnect()

	return ui.Run()
}
