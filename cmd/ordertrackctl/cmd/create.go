package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/Dragoner91/ordertrack/internal/broker"
	natsbroker "github.com/Dragoner91/ordertrack/internal/broker/nats"
	"github.com/Dragoner91/ordertrack/internal/domain"
)

var (
	createClientID int64
	createAddress  string
	createTotal    float64
	createDirect   bool
	createOrderID  int64
	createNATSURL  string
)

// publisherFactory is swapped in tests.
var publisherFactory = func(ctx context.Context, url string) (broker.Publisher, error) {
	return natsbroker.New(ctx, url)
}

type createdOrder struct {
	ID       int64                `json:"id"`
	ClientID int64                `json:"client_id"`
	Address  string               `json:"address"`
	Total    float64              `json:"total"`
	History  []domain.StatusEntry `json:"history"`
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new order",
	RunE: func(cmd *cobra.Command, args []string) error {
		if createDirect {
			return createViaBroker(cmd)
		}
		if createAddress == "" {
			return fmt.Errorf("must provide --address")
		}

		body, err := json.Marshal(map[string]any{
			"client_id": createClientID,
			"address":   createAddress,
			"total":     createTotal,
		})
		if err != nil {
			return err
		}

		ctx, cancel := NewCommandContext(context.Background())
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL+"/api/orders", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusCreated {
			return fmt.Errorf("server returned %s: %s", resp.Status, raw)
		}

		var order createdOrder
		if err := json.Unmarshal(raw, &order); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}

		switch {
		case IsQuiet():
			fmt.Fprintln(cmd.OutOrStdout(), order.ID)
		case IsJSONOutput():
			var pretty bytes.Buffer
			_ = json.Indent(&pretty, raw, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "Order %d created (%s)\n", order.ID, domain.StatusPending)
		}
		return nil
	},
}

// createViaBroker publishes the created event straight to the broker,
// bypassing the REST surface. The order must already exist in the store;
// this path only kicks off the automatic progression for it.
func createViaBroker(cmd *cobra.Command) error {
	if createOrderID == 0 {
		return fmt.Errorf("--direct requires --order-id")
	}

	ctx, cancel := NewCommandContext(context.Background())
	defer cancel()

	pub, err := publisherFactory(ctx, createNATSURL)
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	defer pub.Close()

	data, err := json.Marshal(domain.CreatedOrderEvent{
		OrderID:       createOrderID,
		InitialStatus: domain.StatusPending,
	})
	if err != nil {
		return err
	}

	if err := pub.Publish(ctx, natsbroker.SubjectOrderCreated, data); err != nil {
		return fmt.Errorf("publish created event: %w", err)
	}

	if IsQuiet() {
		fmt.Fprintln(cmd.OutOrStdout(), createOrderID)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Published created event for order %d\n", createOrderID)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().Int64Var(&createClientID, "client-id", 0, "Client the order belongs to")
	createCmd.Flags().StringVar(&createAddress, "address", "", "Delivery address")
	createCmd.Flags().Float64Var(&createTotal, "total", 0, "Order total")
	createCmd.Flags().BoolVar(&createDirect, "direct", false, "Publish the created event straight to the broker")
	createCmd.Flags().Int64Var(&createOrderID, "order-id", 0, "Order to publish for (with --direct)")
	createCmd.Flags().StringVar(&createNATSURL, "nats-url", "nats://localhost:4222", "Broker URL (with --direct)")
}
