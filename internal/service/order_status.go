package service

import (
	"sort"
	"strings"

	"github.com/shelfwise/bookstore/internal/constants"
)

// orderTransitions 订单状态流转表，paid / cancelled 为终态
var orderTransitions = map[string][]string{
	constants.OrderStatusDraft:   {constants.OrderStatusPending, constants.OrderStatusCancelled},
	constants.OrderStatusPending: {constants.OrderStatusPaid, constants.OrderStatusCancelled},
}

// shippingTransitions 物流状态流转表
var shippingTransitions = map[string][]string{
	constants.ShippingStatusPending: {constants.ShippingStatusShipped},
	constants.ShippingStatusShipped: {constants.ShippingStatusDelivered, constants.ShippingStatusReturned},
}

func canTransition(table map[string][]string, from, to string) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// canTransitionOrder 判断订单状态能否从 from 流转到 to
func canTransitionOrder(from, to string) bool {
	return canTransition(orderTransitions, normalizeStatus(from), normalizeStatus(to))
}

// canTransitionShipping 判断物流状态能否从 from 流转到 to
func canTransitionShipping(from, to string) bool {
	return canTransition(shippingTransitions, normalizeStatus(from), normalizeStatus(to))
}

// orderSourcesFor 返回可流转到 to 的全部订单状态，用于条件更新
func orderSourcesFor(to string) []string {
	return sourcesFor(orderTransitions, normalizeStatus(to))
}

// shippingSourcesFor 返回可流转到 to 的全部物流状态
func shippingSourcesFor(to string) []string {
	return sourcesFor(shippingTransitions, normalizeStatus(to))
}

func sourcesFor(table map[string][]string, to string) []string {
	sources := make([]string, 0, len(table))
	for from := range table {
		if canTransition(table, from, to) {
			sources = append(sources, from)
		}
	}
	sort.Strings(sources)
	return sources
}

// shippingAllowedForOrder 订单状态是否允许物流流转到 to
func shippingAllowedForOrder(orderStatus, to string) bool {
	switch normalizeStatus(orderStatus) {
	case constants.OrderStatusCancelled:
		return false
	case constants.OrderStatusPaid:
		return true
	}
	return normalizeStatus(to) != constants.ShippingStatusShipped
}

// isValidShippingStatus 判断物流状态是否合法
func isValidShippingStatus(status string) bool {
	switch normalizeStatus(status) {
	case constants.ShippingStatusPending,
		constants.ShippingStatusShipped,
		constants.ShippingStatusDelivered,
		constants.ShippingStatusReturned:
		return true
	default:
		return false
	}
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}
