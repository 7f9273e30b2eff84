package extract

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
)

var (
	symbolAmountRe = regexp.MustCompile(`([£€$¥])\s?(\d[\d,]*(?:\.\d+)?)(k?)\b`)
	amountUnitRe   = regexp.MustCompile(`\b(\d[\d,]*(?:\.\d+)?)(k?)\s*([a-z]{3,10})\b`)
	codeAmountRe   = regexp.MustCompile(`\b([a-z]{3})\s?(\d[\d,]*(?:\.\d+)?)(k?)\b`)
	bareNumberRe   = regexp.MustCompile(`\b(\d[\d,]*(?:\.\d+)?)(k?)\b`)
)

// moneyHit is one parsed amount. Currency is "" when no unit was adjacent.
type moneyHit struct {
	AmountCents int64
	Currency    string
}

// parseMoney finds an amount with an explicit unit: symbol-prefixed, a unit
// word, or an ISO code. Consumed spans are recorded.
func parseMoney(text string, spans *spanSet) (moneyHit, bool) {
	if m := symbolAmountRe.FindStringSubmatchIndex(text); m != nil {
		code := currencySymbols[text[m[2]:m[3]]]
		cents, ok := parseAmountCents(text[m[4]:m[5]], text[m[6]:m[7]])
		if ok && code != "" {
			spans.add(m[0], m[1])
			return moneyHit{AmountCents: cents, Currency: code}, true
		}
	}
	for _, m := range amountUnitRe.FindAllStringSubmatchIndex(text, -1) {
		if spans.overlaps(m[0], m[1]) {
			continue
		}
		unit := text[m[6]:m[7]]
		code, ok := resolveCurrencyUnit(unit)
		if !ok {
			continue
		}
		cents, amountOK := parseAmountCents(text[m[2]:m[3]], text[m[4]:m[5]])
		if !amountOK {
			continue
		}
		spans.add(m[0], m[1])
		return moneyHit{AmountCents: cents, Currency: code}, true
	}
	if m := codeAmountRe.FindStringSubmatchIndex(text); m != nil && !spans.overlaps(m[0], m[1]) {
		code, ok := resolveCurrencyUnit(text[m[2]:m[3]])
		if ok {
			cents, amountOK := parseAmountCents(text[m[4]:m[5]], text[m[6]:m[7]])
			if amountOK {
				spans.add(m[0], m[1])
				return moneyHit{AmountCents: cents, Currency: code}, true
			}
		}
	}
	return moneyHit{}, false
}

// parseBareNumber returns the first number that no earlier rule consumed.
func parseBareNumber(text string, spans *spanSet) (int64, bool) {
	for _, m := range bareNumberRe.FindAllStringSubmatchIndex(text, -1) {
		if spans.overlaps(m[0], m[1]) {
			continue
		}
		cents, ok := parseAmountCents(text[m[2]:m[3]], text[m[4]:m[5]])
		if !ok {
			continue
		}
		spans.add(m[0], m[1])
		return cents, true
	}
	return 0, false
}

// resolveCurrencyUnit turns a word or ISO code into a validated ISO 4217
// code via x/text/currency.
func resolveCurrencyUnit(tok string) (string, bool) {
	tok = strings.ToLower(strings.TrimSpace(tok))
	if code, ok := currencyWords[tok]; ok {
		return code, true
	}
	if len(tok) == 3 {
		if unit, err := currency.ParseISO(strings.ToUpper(tok)); err == nil {
			return unit.String(), true
		}
	}
	return "", false
}

func parseAmountCents(num, suffix string) (int64, bool) {
	num = strings.ReplaceAll(num, ",", "")
	f, err := strconv.ParseFloat(num, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	if suffix == "k" {
		f *= 1000
	}
	return int64(f*100 + 0.5), true
}
