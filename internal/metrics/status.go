package metrics

import "sort"

// StatusRow is one line of the status-code distribution.
type StatusRow struct {
	Class Class
	Code  int
	Count int64
}

// StatusDistribution flattens both classes into rows: success codes first,
// then error codes, each in ascending code order.
func StatusDistribution(stats Stats) []StatusRow {
	rows := appendClassRows(nil, ClassSuccess, stats.Success.Statuses)
	return appendClassRows(rows, ClassError, stats.Error.Statuses)
}

func appendClassRows(rows []StatusRow, class Class, statuses map[int]int64) []StatusRow {
	codes := make([]int, 0, len(statuses))
	for code := range statuses {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		rows = append(rows, StatusRow{Class: class, Code: code, Count: statuses[code]})
	}
	return rows
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
