package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"mams/internal/core/security"
	"mams/internal/domain/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token",
	Long: `Issue a signed access token for the API.

Roles are admin, base_commander and logistics. Scoped roles need --base-id.`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringP("user", "u", "", "User id (required)")
	tokenCmd.Flags().StringP("role", "r", "admin", "Role")
	tokenCmd.Flags().Int64("base-id", 0, "Home base id")
	tokenCmd.Flags().Duration("ttl", 12*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
}

type tokenOutput struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func runToken(cmd *cobra.Command, args []string) error {
	user, _ := cmd.Flags().GetString("user")
	role, _ := cmd.Flags().GetString("role")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	id := auth.Identity{UserID: user, Role: role}
	if cmd.Flags().Changed("base-id") {
		baseID, _ := cmd.Flags().GetInt64("base-id")
		id.BaseID = &baseID
	} else if security.Role(role) != security.RoleAdmin {
		return errors.New("--base-id is required for role " + role)
	}

	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.Issuer = cfg.JWTIssuer
	token, expiresAt, err := auth.NewJWTService(jwtConfig).GenerateAccessToken(id, ttl)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), tokenOutput{Token: token, ExpiresAt: expiresAt})
}
