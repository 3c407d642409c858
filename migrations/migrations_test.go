package migrations

import (
	"io"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(FS, ".")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, ident, err := src.ReadUp(first)
	require.NoError(t, err)
	defer up.Close()
	assert.Equal(t, "stations", ident)

	body, err := io.ReadAll(up)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "PRIMARY KEY (network, code)"))

	down, _, err := src.ReadDown(first)
	require.NoError(t, err)
	down.Close()
}
