package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/result-processing/internal/service"
)

const testSecret = "cli-test-secret-0123456789abcdefghij"

func TestTokenCommand(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", testSecret)

	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--claims", `{"email":"a@x.com","name":"A"}`})
	require.NoError(t, cmd.Execute())

	token := strings.TrimSpace(out.String())
	claims, err := service.NewTokenService(testSecret, 0).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email())
	assert.Equal(t, "A", claims["name"])
}

func TestTokenCommandRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		claims string
	}{
		{"short secret", "short", `{"email":"a@x.com"}`},
		{"not json", testSecret, `email=a@x.com`},
		{"not an object", testSecret, `null`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("ACCESS_TOKEN_SECRET", tc.secret)

			cmd := rootCmd()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs([]string{"token", "--claims", tc.claims})
			assert.Error(t, cmd.Execute())
		})
	}
}

func TestMigrateCommand(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "cli.db"))

	for i := 0; i < 2; i++ {
		cmd := rootCmd()
		cmd.SetArgs([]string{"migrate"})
		require.NoError(t, cmd.Execute(), "run %d", i)
	}
}

func TestMigrateCommandUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"migrate"})
	assert.Error(t, cmd.Execute())
}
