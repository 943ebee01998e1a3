package counter

import "strconv"

// Width is the zero-padded width of ids below 10000.
const Width = 4

// Format renders a sequence number: 1 to 9999 as four zero-padded digits
// ("0001"), larger values with their natural digit count ("10000").
// Lexical order breaks at the boundary; compare ids with record.CompareIDs.
func Format(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) >= Width {
		return s
	}
	return "0000"[:Width-len(s)] + s
}
