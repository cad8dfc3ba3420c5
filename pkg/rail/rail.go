// Package rail is the static provider registry: which provider serves which
// payment method or disbursement in which country. Lookups are pure and an
// unknown country is simply unsupported.
package rail

import (
	"sort"
	"strings"

	"github.com/amirasaad/paylink/pkg/domain/transaction"
	"github.com/amirasaad/paylink/pkg/money"
	"github.com/amirasaad/paylink/pkg/provider"
)

// AccountType is the withdrawal destination kind.
type AccountType string

// Withdrawal account types.
const (
	AccountMobile AccountType = "mobile"
	AccountBank   AccountType = "bank"
)

// Rail is a provider/method pair serving one country.
type Rail struct {
	Method             transaction.Method
	Provider           provider.Kind
	Country            string
	SettlementCurrency money.Code
}

type collection struct {
	provider   provider.Kind
	currencies map[string]money.Code
}

var collections = map[transaction.Method][]collection{
	transaction.MethodCard: {
		{provider.Pesapal, map[string]money.Code{
			"KE": "USD", "UG": "USD", "TZ": "USD", "RW": "USD", "MW": "USD", "ZM": "USD",
		}},
		{provider.Stripe, map[string]money.Code{
			"US": "USD", "GB": "GBP", "CA": "CAD", "IE": "EUR", "DE": "EUR", "FR": "EUR", "NL": "EUR",
		}},
	},
	transaction.MethodMobileMoney: {
		{provider.Flutterwave, map[string]money.Code{
			"RW": "RWF", "KE": "KES", "UG": "UGX", "TZ": "TZS", "GH": "GHS",
			"ZM": "ZMW", "CM": "XAF", "CI": "XOF", "SN": "XOF",
		}},
	},
	transaction.MethodBankTransfer: {
		{provider.Paystack, map[string]money.Code{
			"NG": "NGN", "GH": "GHS", "ZA": "ZAR", "KE": "KES",
		}},
	},
}

var (
	mobileDisbursementCountries = set("RW", "KE", "UG", "TZ", "GH", "ZM")
	virtualCardCountries        = set("RW", "KE", "UG", "TZ", "NG", "GH", "ZA")
)

// methodOrder fixes the order ListMethodsFor returns.
var methodOrder = []transaction.Method{
	transaction.MethodCard,
	transaction.MethodMobileMoney,
	transaction.MethodBankTransfer,
}

func set(countries ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(countries))
	for _, c := range countries {
		m[c] = struct{}{}
	}
	return m
}

// NormalizeCountry upper-cases and trims an ISO 3166 alpha-2 code. Anything
// that is not two ASCII letters comes back empty.
func NormalizeCountry(country string) string {
	c := strings.ToUpper(strings.TrimSpace(country))
	if len(c) != 2 || c[0] < 'A' || c[0] > 'Z' || c[1] < 'A' || c[1] > 'Z' {
		return ""
	}
	return c
}

// Lookup returns the collection rail for method in country.
func Lookup(method transaction.Method, country string) (Rail, bool) {
	c := NormalizeCountry(country)
	if c == "" {
		return Rail{}, false
	}
	for _, col := range collections[method] {
		if cur, ok := col.currencies[c]; ok {
			return Rail{Method: method, Provider: col.provider, Country: c, SettlementCurrency: cur}, true
		}
	}
	return Rail{}, false
}

// MethodSupported reports whether any provider collects method in country.
func MethodSupported(method transaction.Method, country string) bool {
	_, ok := Lookup(method, country)
	return ok
}

// ListMethodsFor returns the collection methods available in country.
func ListMethodsFor(country string) []transaction.Method {
	var out []transaction.Method
	for _, m := range methodOrder {
		if MethodSupported(m, country) {
			out = append(out, m)
		}
	}
	return out
}

// ListRailsFor returns every collection rail available in country.
func ListRailsFor(country string) []Rail {
	var out []Rail
	for _, m := range methodOrder {
		if r, ok := Lookup(m, country); ok {
			out = append(out, r)
		}
	}
	return out
}

// DisbursementSupported reports whether an automated withdrawal to
// accountType exists in country.
func DisbursementSupported(accountType AccountType, country string) bool {
	c := NormalizeCountry(country)
	switch accountType {
	case AccountMobile:
		_, ok := mobileDisbursementCountries[c]
		return ok
	case AccountBank:
		_, ok := virtualCardCountries[c]
		return ok
	}
	return false
}

// Countries returns every country with at least one collection rail, sorted.
func Countries() []string {
	seen := map[string]struct{}{}
	for _, cols := range collections {
		for _, col := range cols {
			for c := range col.currencies {
				seen[c] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
