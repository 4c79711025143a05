package engine

import (
	"github.com/lox/holdem-engine/internal/evaluator"
	"github.com/lox/holdem-engine/internal/pot"
)

// handRanking adapts evaluator.HandRank to pot.Ranking so internal/pot
// never has to import internal/evaluator directly.
type handRanking struct {
	rank evaluator.HandRank
}

func (h handRanking) Compare(other pot.Ranking) int {
	return h.rank.Compare(other.(handRanking).rank)
}

func (h handRanking) String() string {
	return h.rank.String()
}
