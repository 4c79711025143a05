// Package evaluator implements the Texas Hold'em hand evaluator: ranking
// a best-5 hand out of 2 hole cards plus 3-5 community cards, and total
// ordering of two rankings for showdown comparison.
//
// The core algorithm follows the approach used by classic evaluators
// like Cactus Kev's: count rank and suit occurrences, build a rank
// bitmap, detect flush/straight first, then fall through the category
// checks from strongest to weakest. Unlike a fixed 7-card evaluator this
// one ranks an arbitrary 5-card subset directly and, when given more
// than 5 cards, tries every ⁿC₅ combination and keeps the best.
package evaluator

import "github.com/lox/holdem-engine/internal/card"

// Rank returns the best HandRank achievable from holeCards plus
// community. len(holeCards) must be 2 and len(community) must be >= 3.
func Rank(holeCards, community []card.Card) HandRank {
	all := make([]card.Card, 0, len(holeCards)+len(community))
	all = append(all, holeCards...)
	all = append(all, community...)
	return Best(all)
}

// Best returns the best HandRank over every 5-card combination of cards.
// len(cards) must be between 5 and 7 inclusive.
func Best(cards []card.Card) HandRank {
	if len(cards) == 5 {
		return rankFive(cards)
	}

	var best HandRank
	first := true
	forEachCombination(len(cards), 5, func(idx []int) {
		five := [5]card.Card{cards[idx[0]], cards[idx[1]], cards[idx[2]], cards[idx[3]], cards[idx[4]]}
		r := rankFive(five[:])
		if first || r > best {
			best = r
			first = false
		}
	})
	return best
}

// forEachCombination invokes fn with every k-length, strictly ascending
// index combination drawn from [0, n).
func forEachCombination(n, k int, fn func(idx []int)) {
	if k > n {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		fn(idx)

		// Advance to the next combination in lexicographic order.
		i := k - 1
		for i >= 0 && idx[i] == i+n-k {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// rankFive ranks exactly 5 cards.
func rankFive(cards []card.Card) HandRank {
	var rankCounts [15]int
	var suitCounts [4]int
	var rankBits uint32

	for _, c := range cards {
		rankCounts[c.Rank]++
		suitCounts[c.Suit]++
		rankBits |= 1 << uint(c.Rank)
	}

	flushSuit := card.Suit(-1)
	for _, s := range card.Suits {
		if suitCounts[s] == 5 {
			flushSuit = s
			break
		}
	}

	if flushSuit >= 0 {
		var flushBits uint32
		for _, c := range cards {
			if c.Suit == flushSuit {
				flushBits |= 1 << uint(c.Rank)
			}
		}
		if high := straightHigh(flushBits); high > 0 {
			if high == int(card.Ace) {
				return encode(RoyalFlush, high)
			}
			return encode(StraightFlush, high)
		}
		return encode(Flush, descendingRanks(rankCounts, 1, 5)...)
	}

	// Group ranks by count, from four-of-a-kind down to singles.
	var fours, threes, pairs, singles []int
	for rank := int(card.Ace); rank >= int(card.Two); rank-- {
		switch rankCounts[rank] {
		case 4:
			fours = append(fours, rank)
		case 3:
			threes = append(threes, rank)
		case 2:
			pairs = append(pairs, rank)
		case 1:
			singles = append(singles, rank)
		}
	}

	switch {
	case len(fours) > 0:
		kicker := highestOf(threes, pairs, singles)
		return encode(FourOfAKind, fours[0], kicker)

	case len(threes) > 0 && (len(pairs) > 0 || len(threes) > 1):
		pairRank := 0
		if len(threes) > 1 {
			pairRank = threes[1]
		} else {
			pairRank = pairs[0]
		}
		return encode(FullHouse, threes[0], pairRank)
	}

	if high := straightHigh(rankBits); high > 0 {
		return encode(Straight, high)
	}

	switch {
	case len(threes) > 0:
		kickers := append(append([]int{}, singles...), pairs...)
		sortDescending(kickers)
		return encode(ThreeOfAKind, threes[0], kickers[0], kickers[1])

	case len(pairs) >= 2:
		return encode(TwoPair, pairs[0], pairs[1], highestOf(singles))

	case len(pairs) == 1:
		return encode(OnePair, pairs[0], singles[0], singles[1], singles[2])

	default:
		return encode(HighCard, singles[0], singles[1], singles[2], singles[3], singles[4])
	}
}

// straightHigh returns the high card of a straight found in rankBits, or
// 0 if there is none. The wheel (A-2-3-4-5) ranks with 5 as its high
// card per the engine's wheel rule.
func straightHigh(rankBits uint32) int {
	wheel := uint32(1<<int(card.Ace) | 1<<int(card.Five) | 1<<int(card.Four) | 1<<int(card.Three) | 1<<int(card.Two))
	if rankBits&wheel == wheel {
		return int(card.Five)
	}
	for high := int(card.Ace); high >= int(card.Six); high-- {
		mask := uint32(0x1F) << uint(high-4)
		if rankBits&mask == mask {
			return high
		}
	}
	return 0
}

func highestOf(groups ...[]int) int {
	best := 0
	for _, g := range groups {
		if len(g) > 0 && g[0] > best {
			best = g[0]
		}
	}
	return best
}

func sortDescending(ranks []int) {
	for i := 1; i < len(ranks); i++ {
		for j := i; j > 0 && ranks[j] > ranks[j-1]; j-- {
			ranks[j], ranks[j-1] = ranks[j-1], ranks[j]
		}
	}
}

// descendingRanks collects up to n ranks with count >= minCount, in
// descending order. Used for flush kicker extraction where every card
// has count 1.
func descendingRanks(rankCounts [15]int, minCount, n int) []int {
	var out []int
	for rank := int(card.Ace); rank >= int(card.Two) && len(out) < n; rank-- {
		if rankCounts[rank] >= minCount {
			out = append(out, rank)
		}
	}
	return out
}
