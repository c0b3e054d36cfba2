package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatMoney renders minor units as "INR 2,500.00".
func FormatMoney(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	whole := strconv.FormatInt(minor/100, 10)
	var b strings.Builder
	for i, ch := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	return fmt.Sprintf("%s %s%s.%02d", strings.ToUpper(currency), sign, b.String(), minor%100)
}
