package holdem

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// tableConfigFile is the on-disk HCL shape for a TableConfig. Shuffler,
// Logger, and Clock are runtime collaborators with no serializable
// form, so a loaded config leaves all three unset: NewTable defaults
// Logger and Clock, while a hand cannot start until Shuffler is set or
// a deck is injected with SetDeck.
type tableConfigFile struct {
	SmallBlind int `hcl:"small_blind"`
	BigBlind   int `hcl:"big_blind"`
	MinBuyIn   int `hcl:"min_buy_in"`
	MaxBuyIn   int `hcl:"max_buy_in"`
	MinPlayers int `hcl:"min_players"`
	MaxPlayers int `hcl:"max_players"`
	TimeoutMs  int `hcl:"timeout_ms,optional"`
}

// LoadTableConfig decodes an HCL file into a TableConfig (spec §6's
// configuration-loading expansion). The caller must still set Shuffler
// (and optionally Logger/Clock) on the result before calling NewTable.
func LoadTableConfig(path string) (TableConfig, error) {
	var f tableConfigFile
	if err := hclsimple.DecodeFile(path, nil, &f); err != nil {
		return TableConfig{}, fmt.Errorf("holdem: loading table config from %s: %w", path, err)
	}
	return TableConfig{
		SmallBlind: f.SmallBlind,
		BigBlind:   f.BigBlind,
		MinBuyIn:   f.MinBuyIn,
		MaxBuyIn:   f.MaxBuyIn,
		MinPlayers: f.MinPlayers,
		MaxPlayers: f.MaxPlayers,
		TimeoutMs:  f.TimeoutMs,
	}, nil
}
