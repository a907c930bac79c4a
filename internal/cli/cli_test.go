package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mams/internal/domain/auth"
)

const testSecret = "cli-test-secret-cli-test-secret-0"

func memoryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORE", "memory")
	t.Setenv("APP_ENV", "development")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("JWT_ISSUER", "mams")
}

// resetFlags restores defaults between runs; the command tree is package state.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := Root()
	resetFlags(root)
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestToken_Admin(t *testing.T) {
	memoryEnv(t)

	out, err := run(t, "token", "--user", "ops-1")
	require.NoError(t, err)

	var got tokenOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	cfg := auth.DefaultJWTConfig(testSecret)
	user, err := auth.NewJWTService(cfg).ValidateToken(got.Token)
	require.NoError(t, err)
	assert.Equal(t, "ops-1", user.UserID)
	assert.Equal(t, "admin", user.Role)
	assert.Nil(t, user.BaseID)
}

func TestToken_ScopedRoleNeedsBase(t *testing.T) {
	memoryEnv(t)

	_, err := run(t, "token", "--user", "cmdr", "--role", "base_commander")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--base-id")

	out, err := run(t, "token", "--user", "cmdr", "--role", "base_commander", "--base-id", "2")
	require.NoError(t, err)

	var got tokenOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	user, err := auth.NewJWTService(auth.DefaultJWTConfig(testSecret)).ValidateToken(got.Token)
	require.NoError(t, err)
	require.NotNil(t, user.BaseID)
	assert.Equal(t, int64(2), *user.BaseID)
}

func TestToken_Errors(t *testing.T) {
	memoryEnv(t)

	_, err := run(t, "token", "--user", "x", "--role", "quartermaster")
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "")
	_, err = run(t, "token", "--user", "x")
	assert.Error(t, err)
}

func TestStock_MemoryStore(t *testing.T) {
	memoryEnv(t)

	out, err := run(t, "stock", "--item", "Rifle")
	require.NoError(t, err)
	var all stockOutput
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	assert.Equal(t, int64(400), all.Balance.Available)
	assert.Empty(t, all.Base)

	out, err = run(t, "stock", "--item", "Rifle", "--base", "Alpha")
	require.NoError(t, err)
	var alpha stockOutput
	require.NoError(t, json.Unmarshal([]byte(out), &alpha))
	assert.Equal(t, "Alpha", alpha.Base)
	assert.Equal(t, int64(100), alpha.Balance.Available)
	assert.Equal(t, int64(100), alpha.Balance.Purchased)

	out, err = run(t, "stock", "--item", "Rifle", "--as-of", "2000-01-01")
	require.NoError(t, err)
	var past stockOutput
	require.NoError(t, json.Unmarshal([]byte(out), &past))
	assert.Equal(t, "2000-01-01", past.AsOf)
	assert.Zero(t, past.Balance.Available)
}

func TestStock_Errors(t *testing.T) {
	memoryEnv(t)

	_, err := run(t, "stock", "--item", "Rifle", "--base", "Nowhere")
	assert.Error(t, err)

	_, err = run(t, "stock", "--as-of", "yesterday")
	assert.Error(t, err)
}

func TestSeed_MemoryStore(t *testing.T) {
	memoryEnv(t)

	// The session already seeds a memory store, so an explicit seed finds everything present.
	out, err := run(t, "seed", "--demo")
	require.NoError(t, err)
	assert.Contains(t, out, "created 0 bases, 0 purchases")
}

func TestMigrate(t *testing.T) {
	memoryEnv(t)

	out, err := run(t, "migrate", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "001_init.sql")

	_, err = run(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE=postgres")
}
