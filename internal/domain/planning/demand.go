package planning

import (
	"fmt"
	"sort"
	"time"
)

// DemandSignal is one order line asking for grams of a variety on a harvest date
type DemandSignal struct {
	OrderID       string    `json:"order_id" validate:"required"`
	VarietyID     string    `json:"variety_id" validate:"required"`
	QuantityGrams float64   `json:"quantity_grams" validate:"gt=0"`
	HarvestDate   time.Time `json:"harvest_date" validate:"required"`
}

// Key is the aggregation key of demand and plans
type Key struct {
	VarietyID   string
	HarvestDate time.Time
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%s", k.VarietyID, k.HarvestDate.Format(DateLayout))
}

// DateLayout is the calendar-date format used for plan dates
const DateLayout = "2006-01-02"

// NormalizeDate truncates a time to its UTC calendar date
func NormalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DemandGroup is the additive total of signals sharing a key.
// OrderGrams holds each order's quantity; demand without an order id is
// collected under the empty id.
type DemandGroup struct {
	Key        Key
	TotalGrams float64
	OrderIDs   []string
	OrderGrams map[string]float64
}

// NewDemandGroup totals per-order quantities. OrderIDs come back sorted and
// without the empty id.
func NewDemandGroup(key Key, orderGrams map[string]float64) DemandGroup {
	ids := make([]string, 0, len(orderGrams))
	for id := range orderGrams {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	group := DemandGroup{Key: key, OrderGrams: make(map[string]float64, len(orderGrams))}
	for _, id := range ids {
		grams := orderGrams[id]
		group.OrderGrams[id] = grams
		group.TotalGrams += grams
		if id != "" {
			group.OrderIDs = append(group.OrderIDs, id)
		}
	}
	return group
}

// GroupDemand sums signals per (variety, harvest date). Lines of one order
// add up. Groups come back sorted by harvest date then variety so plans are
// produced deterministically.
func GroupDemand(signals []DemandSignal) []DemandGroup {
	byKey := make(map[Key]map[string]float64)
	var keys []Key

	for _, s := range signals {
		key := Key{VarietyID: s.VarietyID, HarvestDate: NormalizeDate(s.HarvestDate)}
		orders, ok := byKey[key]
		if !ok {
			orders = make(map[string]float64)
			byKey[key] = orders
			keys = append(keys, key)
		}
		orders[s.OrderID] += s.QuantityGrams
	}

	groups := make([]DemandGroup, 0, len(keys))
	for _, key := range keys {
		groups = append(groups, NewDemandGroup(key, byKey[key]))
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].Key, groups[j].Key
		if !a.HarvestDate.Equal(b.HarvestDate) {
			return a.HarvestDate.Before(b.HarvestDate)
		}
		return a.VarietyID < b.VarietyID
	})
	return groups
}
