// Package format renders order fields for display: padded order numbers,
// German-locale currency amounts, and TT.MM.JJJJ dates.
package format

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var german = message.NewPrinter(language.German)

// OrderNumber renders an order number zero-padded to 8 digits. This is a
// presentation transform only; the stored value stays a plain integer.
func OrderNumber(n int64) string {
	return fmt.Sprintf("%08d", n)
}

// EUR renders an amount in the de-DE convention ("1.234,56 €"). Nil renders
// empty.
func EUR(value *float64) string {
	if value == nil {
		return ""
	}
	return german.Sprintf("%.2f €", *value)
}

// Date renders a calendar date as TT.MM.JJJJ. Nil renders empty.
func Date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02.01.2006")
}
