package holdem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadTableConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.hcl")
	contents := `
small_blind = 10
big_blind   = 20
min_buy_in  = 400
max_buy_in  = 2000
min_players = 2
max_players = 6
timeout_ms  = 15000
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := LoadTableConfig(path)
	require.NoError(t, err)
	require.Equal(t, 10, cfg.SmallBlind)
	require.Equal(t, 20, cfg.BigBlind)
	require.Equal(t, 400, cfg.MinBuyIn)
	require.Equal(t, 2000, cfg.MaxBuyIn)
	require.Equal(t, 2, cfg.MinPlayers)
	require.Equal(t, 6, cfg.MaxPlayers)
	require.Equal(t, 15000, cfg.TimeoutMs)
}

func TestLoadTableConfigMissingFile(t *testing.T) {
	_, err := LoadTableConfig("/nonexistent/table.hcl")
	require.Error(t, err)
}
