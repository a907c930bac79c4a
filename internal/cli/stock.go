package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mams/internal/core/types"
	"mams/internal/domain/base"
	"mams/internal/domain/inventory"
)

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Compute the balance of an item",
	Long: `Compute the derived balance of an item as of a date.

Without --base or --base-id the balance aggregates every base, so transfers
net out.`,
	Args: cobra.NoArgs,
	RunE: runStock,
}

func init() {
	rootCmd.AddCommand(stockCmd)
	stockCmd.Flags().StringP("item", "i", "", "Item name, exact match (empty aggregates all items)")
	stockCmd.Flags().StringP("base", "b", "", "Base name")
	stockCmd.Flags().Int64("base-id", 0, "Base id (wins over --base)")
	stockCmd.Flags().String("as-of", "", "Balance date, YYYY-MM-DD (default today)")
}

type stockOutput struct {
	Item    string            `json:"item,omitempty"`
	Base    string            `json:"base,omitempty"`
	AsOf    string            `json:"asOf"`
	Balance inventory.Balance `json:"balance"`
}

func runStock(cmd *cobra.Command, args []string) error {
	item, _ := cmd.Flags().GetString("item")
	baseName, _ := cmd.Flags().GetString("base")
	asOfRaw, _ := cmd.Flags().GetString("as-of")

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	q := inventory.BalanceQuery{Item: item}
	out := stockOutput{Item: item}

	ref := base.Ref{Name: baseName}
	if cmd.Flags().Changed("base-id") {
		id, _ := cmd.Flags().GetInt64("base-id")
		ref.ID = &id
	}
	if !ref.IsZero() {
		b, err := s.svc.Bases.Resolve(s.ctx, ref)
		if err != nil {
			return err
		}
		q.BaseID = &b.ID
		out.Base = b.Name
	}

	asOf := s.svc.Calculator.Today()
	if asOfRaw != "" {
		if asOf, err = types.ParseDate(asOfRaw); err != nil {
			return fmt.Errorf("--as-of: %w", err)
		}
	}
	q.AsOf = &asOf
	out.AsOf = asOf.String()

	if out.Balance, err = s.svc.Calculator.Compute(s.ctx, q); err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}
