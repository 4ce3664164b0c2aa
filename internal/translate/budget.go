package translate

import (
	"fmt"
	"unicode/utf8"
)

// Budget caps one batch, measured in the translation service's accounting unit.
type Budget struct {
	Unit  string // items|chars|tokens
	Limit int
}

// Measure returns the cost of one item.
func (b Budget) Measure(text string) int {
	switch b.Unit {
	case "items":
		return 1
	case "tokens":
		// Roughly four characters per token for mixed Latin text and markup.
		return (utf8.RuneCountInString(text) + 3) / 4
	default:
		return utf8.RuneCountInString(text)
	}
}

func (b Budget) String() string { return fmt.Sprintf("%d %s", b.Limit, b.Unit) }

// Plan greedily packs consecutive items into batches under the budget and returns
// the index ranges of each batch in order. Items are never split or reordered; an
// item larger than the whole budget is sent alone.
func Plan(items []string, b Budget) [][]int {
	var (
		batches [][]int
		cur     []int
		used    int
	)
	for i, it := range items {
		cost := b.Measure(it)
		if len(cur) > 0 && used+cost > b.Limit {
			batches = append(batches, cur)
			cur, used = nil, 0
		}
		cur = append(cur, i)
		used += cost
	}
	if len(cur) > 0 {
		batches = append(batches, cur)
	}
	return batches
}
