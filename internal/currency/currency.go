// Package currency holds the static lookup tables shared by the report
// reader and the metrics engine. The tables are never modified after
// package initialization.
package currency

import (
	"strings"
	"time"
)

// codes are the ISO codes accepted as the base or quote of a forex symbol.
var codes = map[string]string{
	"AED": "UAE Dirham",
	"AOA": "Angolan Kwanza",
	"ARS": "Argentine Peso",
	"AUD": "Australian Dollar",
	"BGN": "Bulgaria Lev",
	"BHD": "Bahraini Dinar",
	"BRL": "Brazilian Real",
	"CAD": "Canadian Dollar",
	"CHF": "Swiss Franc",
	"CLP": "Chilean Peso",
	"CNY": "Chinese Yuan onshore",
	"CNH": "Chinese Yuan offshore",
	"COP": "Colombian Peso",
	"CZK": "Czech Koruna",
	"DKK": "Danish Krone",
	"EUR": "Euro",
	"GBP": "British Pound Sterling",
	"HKD": "Hong Kong Dollar",
	"HRK": "Croatian Kuna",
	"HUF": "Hungarian Forint",
	"IDR": "Indonesian Rupiah",
	"ILS": "Israeli New Sheqel",
	"INR": "Indian Rupee",
	"ISK": "Icelandic Krona",
	"JPY": "Japanese Yen",
	"KRW": "South Korean Won",
	"KWD": "Kuwaiti Dinar",
	"MAD": "Moroccan Dirham",
	"MXN": "Mexican Peso",
	"MYR": "Malaysian Ringgit",
	"NGN": "Nigerian Naira",
	"NOK": "Norwegian Krone",
	"NZD": "New Zealand Dollar",
	"OMR": "Omani Rial",
	"PEN": "Peruvian Nuevo Sol",
	"PHP": "Philippine Peso",
	"PLN": "Polish Zloty",
	"RON": "Romanian Leu",
	"RUB": "Russian Ruble",
	"SAR": "Saudi Arabian Riyal",
	"SEK": "Swedish Krona",
	"SGD": "Singapore Dollar",
	"THB": "Thai Baht",
	"TRY": "Turkish Lira",
	"TWD": "Taiwanese Dollar",
	"USD": "US Dollar",
	"VND": "Vietnamese Dong",
	"XAG": "Silver (troy ounce)",
	"XAU": "Gold (troy ounce)",
	"XPD": "Palladium",
	"XPT": "Platinum",
	"ZAR": "South African Rand",
}

var symbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"AUD": "$",
	"CAD": "$",
	"NZD": "$",
	"GBP": "£",
	"JPY": "¥",
}

// DefaultSymbol is returned by Symbol for currencies without a known sign.
const DefaultSymbol = "$"

var weekdays = [7]string{
	time.Sunday:    "sunday",
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
}

// IsCode reports whether code is a recognized currency code.
func IsCode(code string) bool {
	_, ok := codes[strings.ToUpper(code)]
	return ok
}

// Name returns the display name of a currency code, or "" if unknown.
func Name(code string) string {
	return codes[strings.ToUpper(code)]
}

// Symbol returns the display sign of a currency, falling back to DefaultSymbol.
func Symbol(code string) string {
	if s, ok := symbols[strings.ToUpper(code)]; ok {
		return s
	}
	return DefaultSymbol
}

// Weekday returns the lower-case English name of d.
func Weekday(d time.Weekday) string {
	return weekdays[d]
}

// SplitPair returns base and quote of a six letter instrument symbol.
// Any other length yields two empty strings.
func SplitPair(symbol string) (base, quote string) {
	if len(symbol) != 6 {
		return "", ""
	}
	return symbol[:3], symbol[3:]
}
