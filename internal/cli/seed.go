package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mams/internal/app"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default bases",
	Long: `Create the reference bases (Alpha, Beta, Charley, Delta) that do not exist yet.

With --demo every newly created base also receives an opening stock of
purchases. Bases that already exist are left untouched.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().Bool("demo", false, "Purchase demo stock at newly created bases")
}

func runSeed(cmd *cobra.Command, args []string) error {
	demo, _ := cmd.Flags().GetBool("demo")

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := app.Seed(s.ctx, s.svc, demo)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %d bases, %d purchases\n", res.Bases, res.Purchases)
	return nil
}
