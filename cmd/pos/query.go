package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/imrishuroy/go-pos-frontend/internal/backend"
	"github.com/imrishuroy/go-pos-frontend/internal/config"
	"github.com/imrishuroy/go-pos-frontend/internal/validation"
	"github.com/imrishuroy/go-pos-frontend/internal/views"
)

func newClient() (*backend.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return backend.NewClient(cfg.APIBaseURL)
}

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <code>",
		Short: "Look up a product by code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := strings.TrimSpace(args[0])
			if code == "" {
				return errors.New("enter a product code")
			}
			client, err := newClient()
			if err != nil {
				return err
			}
			p, err := client.GetProduct(cmd.Context(), code)
			if errors.Is(err, backend.ErrNotFound) {
				return fmt.Errorf("product not found: %s", code)
			}
			if err != nil {
				return err
			}
			printProduct(cmd.OutOrStdout(), p)
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <transaction-id>",
		Short: "Show a recorded transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("transaction not found: %s", args[0])
			}
			client, err := newClient()
			if err != nil {
				return err
			}
			trn, err := client.GetTransaction(cmd.Context(), id)
			if errors.Is(err, backend.ErrNotFound) {
				return fmt.Errorf("transaction not found: %d", id)
			}
			if err != nil {
				return err
			}
			printTransaction(cmd.OutOrStdout(), trn)
			return nil
		},
	}
}

func printProduct(w io.Writer, p *validation.Product) {
	fmt.Fprintf(w, "%d\t%s\t%s\tex %s\tin %s\n",
		p.ID, p.Code, p.Name, views.Money(p.PriceExTax), views.Money(p.PriceInTax))
}

func printTransaction(w io.Writer, trn *validation.Transaction) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Transaction ID: %d\n", trn.TransactionID)
	fmt.Fprintln(tw, "ITEM\tQTY\tPRICE\tAMOUNT")
	for _, l := range trn.Items {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", l.ProductName, l.Quantity, views.Money(l.PriceInTax), views.Money(l.LineAmount))
	}
	fmt.Fprintf(tw, "Total (ex tax)\t\t\t%s\n", views.Money(trn.TotalAmountEx))
	fmt.Fprintf(tw, "Total (in tax)\t\t\t%s\n", views.Money(trn.TotalAmount))
	_ = tw.Flush()
}
