package legislature

import (
	"regexp"
	"strconv"
	"strings"
)

var billNumberPattern = regexp.MustCompile(`^([A-Z]+)0*(\d+)([A-Z]?)$`)

// NormalizeBillNumber uppercases a bill number and strips leading zeros from its numeric
// part, keeping one optional trailing amendment letter: "S00256" -> "S256", "a100b" -> "A100B".
// Unrecognized formats are returned uppercased but otherwise unchanged.
func NormalizeBillNumber(billNumber string) string {
	upper := strings.ToUpper(strings.TrimSpace(billNumber))
	m := billNumberPattern.FindStringSubmatch(upper)
	if m == nil {
		return upper
	}
	return m[1] + m[2] + m[3]
}

// SessionYear returns the session key for year. Sessions span two years and are keyed by
// their odd starting year, so even years map to the year before.
func SessionYear(year int) int {
	if year%2 == 0 {
		return year - 1
	}
	return year
}

// BillID is the numeric identifier of a bill: sessionYear * 1,000,000 plus the numeric part
// of the bill number. The chamber prefix and amendment letter do not contribute, so Senate and
// Assembly bills with the same number (S100, A100) share an id. Stores that key bills must use
// the session and bill number; chunks keyed by BillID of one chamber are replaced when the
// other chamber's bill is embedded.
func BillID(sessionYear int, billNumber string) int64 {
	m := billNumberPattern.FindStringSubmatch(NormalizeBillNumber(billNumber))
	var num int64
	if m != nil {
		num, _ = strconv.ParseInt(m[2], 10, 64)
	}
	return int64(sessionYear)*1_000_000 + num
}
