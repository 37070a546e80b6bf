package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Dragoner91/ordertrack/internal/domain"
)

type orderDetail struct {
	ID       int64                `json:"id"`
	ClientID int64                `json:"client_id"`
	Address  string               `json:"address"`
	Total    float64              `json:"total"`
	History  []domain.StatusEntry `json:"history"`
}

var statusCmd = &cobra.Command{
	Use:   "status <order-id>",
	Short: "Show an order and its status history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid order id %q", args[0])
		}

		ctx, cancel := NewCommandContext(context.Background())
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/api/orders/%d", serverURL, id), nil)
		if err != nil {
			return err
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("get order: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("order %d not found", id)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned %s: %s", resp.Status, raw)
		}

		var order orderDetail
		if err := json.Unmarshal(raw, &order); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}

		out := cmd.OutOrStdout()
		switch {
		case IsQuiet():
			if len(order.History) > 0 {
				fmt.Fprintln(out, order.History[len(order.History)-1].Status)
			}
		case IsJSONOutput():
			var pretty bytes.Buffer
			_ = json.Indent(&pretty, raw, "", "  ")
			fmt.Fprintln(out, pretty.String())
		default:
			fmt.Fprintf(out, "Order %d  %s  total %.2f\n\n", order.ID, order.Address, order.Total)
			for _, e := range order.History {
				line := fmt.Sprintf("  %s  %s", e.Timestamp.Format("15:04:05"), renderStatus(e.Status))
				if e.Note != "" {
					line += "  " + e.Note
				}
				fmt.Fprintln(out, line)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
