// Package rms computes sliding-window root-mean-square price statistics
// over filled exchange orders, and flags accepters who appear to be
// shilling the price rather than taking the best available offer.
package rms

import (
	"math"
	"sort"
	"time"

	"github.com/forensic-graph/warehouse/internal/exchange"
)

const (
	oneHour      = time.Hour
	twentyFour   = 24 * time.Hour
)

func calculateRMS(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum float64
	for _, x := range data {
		sum += x * x
	}
	return math.Sqrt(sum / float64(len(data)))
}

// IncludeRMSStats sorts swaps by FilledAt and, for each one, computes the
// RMS of every other order's price within the trailing 1-hour and 24-hour
// windows — excluding orders with the same maker (User) or the same
// accepter as the current order, so neither party's own activity in that
// role inflates the RMS baseline.
func IncludeRMSStats(swaps []exchange.Order) {
	sort.SliceStable(swaps, func(i, j int) bool { return swaps[i].FilledAt.Before(swaps[j].FilledAt) })

	var window1h, window24h []exchange.Order

	for i := range swaps {
		current := &swaps[i]
		currentTime := current.FilledAt

		for len(window1h) > 0 && currentTime.Sub(window1h[0].FilledAt) > oneHour {
			window1h = window1h[1:]
		}
		for len(window24h) > 0 && currentTime.Sub(window24h[0].FilledAt) > twentyFour {
			window24h = window24h[1:]
		}

		window1h = append(window1h, *current)
		window24h = append(window24h, *current)

		filtered1h := filterPrices(window1h, current)
		filtered24h := filterPrices(window24h, current)

		current.RMSHour = calculateRMS(filtered1h)
		current.RMS24Hour = calculateRMS(filtered24h)

		if current.RMSHour > 0 {
			current.PriceVsRMSHour = current.Price / current.RMSHour
		} else {
			current.PriceVsRMSHour = 0
		}
		if current.RMS24Hour > 0 {
			current.PriceVsRMS24Hour = current.Price / current.RMS24Hour
		} else {
			current.PriceVsRMS24Hour = 0
		}
	}
}

func filterPrices(window []exchange.Order, current *exchange.Order) []float64 {
	var prices []float64
	for _, s := range window {
		if s.User != current.User && s.Accepter != current.Accepter {
			prices = append(prices, s.Price)
		}
	}
	return prices
}

// GetCompetingOffers counts, among allOffers, how many open orders of the
// same type were created before and still unfilled at the moment
// currentOrder filled — the candidate competing offers an accepter could
// have taken instead.
func GetCompetingOffers(currentOrder exchange.Order, allOffers []exchange.Order) exchange.CompetingOffers {
	comp := exchange.CompetingOffers{OfferType: currentOrder.OrderType}

	for _, other := range allOffers {
		if comp.OfferType != other.OrderType {
			continue
		}
		if other.CreatedAt.Before(currentOrder.FilledAt) && other.FilledAt.After(currentOrder.FilledAt) {
			comp.OpenSameType++
			if other.Amount <= currentOrder.Amount {
				comp.WithinAmount++
				if other.Price <= currentOrder.Price {
					comp.WithinAmountLowerPrice++
				}
			}
		}
	}
	return comp
}

// ProcessShill flags each order's accepter as shilling the price down (for
// Buy offers: there were open offers of no larger amount priced above this
// one that the accepter passed over) or up (for Sell offers: there were
// open offers of no larger amount priced at or below this one that the
// accepter ignored).
func ProcessShill(orders []exchange.Order) {
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].FilledAt.Before(orders[j].FilledAt) })
	snapshot := make([]exchange.Order, len(orders))
	copy(snapshot, orders)

	for i := range orders {
		current := &orders[i]
		comp := GetCompetingOffers(*current, snapshot)
		current.CompetingOffers = &comp

		switch comp.OfferType {
		case exchange.OrderTypeBuy:
			if comp.WithinAmount > comp.WithinAmountLowerPrice {
				current.AccepterShillDown = true
			}
		case exchange.OrderTypeSell:
			if comp.WithinAmountLowerPrice > 0 {
				current.AccepterShillUp = true
			}
		}
	}
}
