package foods

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Items are written as "40g avena - 150kcal" or "1 plátano - 100kcal".
var (
	measuredItem = regexp.MustCompile(`(?i)^(\d+(?:[.,]\d+)?)\s*(ml|g|kg)\s+(.+?)(?:\s+-\s+(\d+)\s*kcal)?$`)
	kcalItem     = regexp.MustCompile(`(?i)^(.+?)\s+-\s+(\d+)\s*kcal$`)
)

// ScaleItem multiplies the measured quantity and the kcal annotation of item
// by factor. Unit counts ("1 plátano") keep their count; unrecognised text is
// returned unchanged.
func ScaleItem(item string, factor float64) string {
	item = strings.TrimSpace(item)
	if m := measuredItem.FindStringSubmatch(item); m != nil {
		qty, _ := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
		newQty := int(math.Round(qty * factor))
		if newQty < 1 {
			newQty = 1
		}
		if m[4] == "" {
			return fmt.Sprintf("%d%s %s", newQty, m[2], m[3])
		}
		kcal, _ := strconv.Atoi(m[4])
		return fmt.Sprintf("%d%s %s - %dkcal", newQty, m[2], m[3], int(math.Round(float64(kcal)*factor)))
	}
	if m := kcalItem.FindStringSubmatch(item); m != nil {
		kcal, _ := strconv.Atoi(m[2])
		return fmt.Sprintf("%s - %dkcal", m[1], int(math.Round(float64(kcal)*factor)))
	}
	return item
}

// ScaleItems applies ScaleItem to every entry.
func ScaleItems(items []string, factor float64) []string {
	if items == nil {
		return nil
	}
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = ScaleItem(it, factor)
	}
	return out
}

// ItemKcal reads the kcal annotation of item.
func ItemKcal(item string) (int, bool) {
	if m := kcalItem.FindStringSubmatch(strings.TrimSpace(item)); m != nil {
		kcal, err := strconv.Atoi(m[2])
		return kcal, err == nil
	}
	return 0, false
}

// ItemsKcal sums the kcal annotations of items. ok is false when any item has none.
func ItemsKcal(items []string) (total int, ok bool) {
	ok = len(items) > 0
	for _, it := range items {
		k, found := ItemKcal(it)
		if !found {
			ok = false
			continue
		}
		total += k
	}
	return total, ok
}

// ItemName strips the quantity and kcal annotation: "40g avena - 150kcal" -> "avena".
func ItemName(item string) string {
	item = strings.TrimSpace(item)
	if m := measuredItem.FindStringSubmatch(item); m != nil {
		return m[3]
	}
	if m := kcalItem.FindStringSubmatch(item); m != nil {
		item = m[1]
	}
	return strings.TrimSpace(strings.TrimLeft(item, "0123456789 "))
}

// ReplaceName swaps the food name of item keeping quantity and kcal.
func ReplaceName(item, food string) string {
	item = strings.TrimSpace(item)
	if m := measuredItem.FindStringSubmatch(item); m != nil {
		if m[4] == "" {
			return fmt.Sprintf("%s%s %s", m[1], m[2], food)
		}
		return fmt.Sprintf("%s%s %s - %skcal", m[1], m[2], food, m[4])
	}
	if m := kcalItem.FindStringSubmatch(item); m != nil {
		return fmt.Sprintf("%s - %skcal", food, m[2])
	}
	return food
}
