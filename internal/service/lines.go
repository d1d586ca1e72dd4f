package service

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineInput is one (item, quantity) pair of a request or withdrawal.
type LineInput struct {
	ItemID   uuid.UUID       `json:"item_id" validate:"uuid_required"`
	Quantity decimal.Decimal `json:"quantity" validate:"decimal_gt0,decimal_scale=3"`
}

// mergeLines sums duplicate items and returns the lines ordered by item id,
// which is also the row-lock order for stock updates.
func mergeLines(lines []LineInput) []LineInput {
	totals := make(map[uuid.UUID]decimal.Decimal, len(lines))
	for _, l := range lines {
		totals[l.ItemID] = totals[l.ItemID].Add(l.Quantity)
	}
	merged := make([]LineInput, 0, len(totals))
	for id, qty := range totals {
		merged = append(merged, LineInput{ItemID: id, Quantity: qty})
	}
	sortByItem(merged, func(l LineInput) uuid.UUID { return l.ItemID })
	return merged
}

func sortByItem[T any](s []T, key func(T) uuid.UUID) {
	sort.Slice(s, func(i, j int) bool {
		a, b := key(s[i]), key(s[j])
		return bytes.Compare(a[:], b[:]) < 0
	})
}

func lineItemIDs(lines []LineInput) []uuid.UUID {
	ids := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		ids[i] = l.ItemID
	}
	return ids
}
