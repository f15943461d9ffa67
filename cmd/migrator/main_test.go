package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveDSN_FlagWins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env")
	require.Equal(t, "postgres://flag", resolveDSN("postgres://flag", ""))
}

func TestResolveDSN_Env(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env")
	require.Equal(t, "postgres://env", resolveDSN("", "does-not-matter.yaml"))
}

func TestMigrate_UnknownCommand(t *testing.T) {
	t.Parallel()

	err := migrate(context.Background(), "postgres://unused", "sideways")
	require.ErrorContains(t, err, "unknown command")
}
