// Package extract turns one utterance into typed candidate facts with
// confidence and provenance. It never mutates the brief: candidates flow
// back through the state machine, which owns every slot transition.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"tripsmith/app/services/planner/internal/engine/brief"
	"tripsmith/app/services/planner/internal/engine/geo"

	"github.com/samber/lo"
)

// Extractor resolves utterances against the place catalog and the current
// brief (for disambiguation, e.g. "London" as origin vs destination).
type Extractor struct {
	catalog       *geo.Catalog
	minConfidence int
	now           func() time.Time
}

func New(catalog *geo.Catalog, minConfidence int) *Extractor {
	return &Extractor{catalog: catalog, minConfidence: minConfidence, now: time.Now}
}

// WithClock overrides the extractor clock, used to resolve year-less dates.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// Extract parses one utterance. An empty Findings list is not an error; it
// signals "ask again".
func (e *Extractor) Extract(utterance string, b *brief.TripBrief) brief.Extraction {
	text := normalizeText(utterance)
	var ex brief.Extraction
	if text == "" {
		return ex
	}

	ex.Affirmed, ex.Denied = detectReply(text)
	if code, ok := detectCurrencyOnly(text); ok {
		ex.CurrencyOnly = code
		return ex
	}

	spans := &spanSet{}

	if b != nil && b.Pending != nil && b.Pending.Kind == brief.PendingAmbiguity {
		if cand, ok := resolveAmbiguity(text, b.Pending); ok {
			ex.Findings = append(ex.Findings, brief.Finding{
				Slot: b.Pending.Slot, Variant: brief.VariantSingle, Candidates: []brief.Candidate{cand},
			})
			e.extractNonPlace(text, b, spans, &ex)
			return ex
		}
	}

	if f, ok := e.extractPlaces(text, b); ok {
		ex.Findings = append(ex.Findings, f...)
	}
	e.extractNonPlace(text, b, spans, &ex)
	return ex
}

// extractNonPlace handles dates, travelers, money, style and preferences.
// Order matters: consumed spans keep the bare-number rule from stealing
// nights or headcounts.
func (e *Extractor) extractNonPlace(text string, b *brief.TripBrief, spans *spanSet, ex *brief.Extraction) {
	if dr, ok := parseDates(text, e.now(), spans); ok {
		ex.Findings = append(ex.Findings, singleFinding(brief.Candidate{
			Slot: brief.SlotDates, Dates: &dr, Confidence: 90, Source: brief.SourceExplicit,
		}))
	}
	if tv, ok := parseTravelers(text, spans); ok {
		ex.Findings = append(ex.Findings, singleFinding(tv))
	}
	if hit, ok := parseMoney(text, spans); ok {
		ex.Findings = append(ex.Findings, singleFinding(brief.Candidate{
			Slot: brief.SlotBudget,
			Budget: &brief.Budget{AmountCents: hit.AmountCents, Currency: hit.Currency},
			Confidence: 92, Source: brief.SourceExplicit,
		}))
	} else if cents, ok := parseBareNumber(text, spans); ok {
		ex.Findings = append(ex.Findings, e.interpretBareNumber(cents, b))
	}
	if style, ok := scanKeywords(text, styleWords); ok {
		s := style[0]
		ex.Findings = append(ex.Findings, singleFinding(brief.Candidate{
			Slot: brief.SlotStyle, Style: &s, Confidence: 85, Source: brief.SourceExplicit,
		}))
	}
	if prefs, ok := scanPreferences(text); ok {
		ex.Findings = append(ex.Findings, singleFinding(brief.Candidate{
			Slot: brief.SlotPreferences, Preferences: &prefs, Confidence: 80, Source: brief.SourceExplicit,
		}))
	}
}

// interpretBareNumber uses the brief to decide what a unit-less number most
// plausibly fills. Large numbers are always budget amounts; the budget
// currency stays PENDING so the machine asks a follow-up rather than
// failing.
func (e *Extractor) interpretBareNumber(cents int64, b *brief.TripBrief) brief.Finding {
	whole := cents / 100
	isWhole := cents%100 == 0
	if b != nil && isWhole {
		if !b.Dates.Filled && whole > 0 && whole <= 60 {
			dr := brief.DateRange{Nights: int(whole)}
			return singleFinding(brief.Candidate{
				Slot: brief.SlotDates, Dates: &dr, Confidence: 70, Source: brief.SourceInferred,
			})
		}
		if b.Dates.Filled && !b.Travelers.Filled && whole > 0 && whole <= 12 {
			tv := brief.Travelers{Adults: int(whole), GroupType: groupTypeFor(int(whole))}
			return singleFinding(brief.Candidate{
				Slot: brief.SlotTravelers, Travelers: &tv, Confidence: 70, Source: brief.SourceInferred,
			})
		}
	}
	return brief.Finding{
		Slot:    brief.SlotBudget,
		Variant: brief.VariantPendingUnit,
		Candidates: []brief.Candidate{{
			Slot:   brief.SlotBudget,
			Budget: &brief.Budget{AmountCents: cents, Currency: brief.CurrencyPending},
			Confidence: 75, Source: brief.SourceExplicit,
		}},
	}
}

// extractPlaces resolves city and country mentions into origin and
// destination findings.
func (e *Extractor) extractPlaces(text string, b *brief.TripBrief) ([]brief.Finding, bool) {
	hits := e.scanPlaces(text)
	if len(hits) == 0 {
		return nil, false
	}

	var findings []brief.Finding
	knownCountry := briefCountry(b)
	mentionedCountry := ""
	for _, h := range hits {
		if h.isCountry {
			mentionedCountry = h.country
		}
	}

	var destCities []geo.City
	var destConf int
	for _, h := range hits {
		if h.isCountry {
			continue
		}
		matches := h.matches
		if len(matches) > 1 {
			narrow := knownCountry
			if mentionedCountry != "" {
				narrow = mentionedCountry
			}
			if narrow != "" {
				if city, ok := e.catalog.CityIn(h.name, narrow); ok {
					matches = []geo.Match{{City: city, Confidence: 95}}
				}
			}
		}
		if len(matches) > 1 {
			over := lo.Filter(matches, func(m geo.Match, _ int) bool {
				return m.Confidence >= e.minConfidence
			})
			if len(over) > 1 {
				options := lo.Map(over, func(m geo.Match, _ int) string {
					return m.City.Name + ", " + m.City.Country
				})
				cands := lo.Map(over, func(m geo.Match, _ int) brief.Candidate {
					return destinationCandidate(brief.Destination{
						Type: brief.DestCity, Primary: m.City.Name, Country: m.City.Country,
					}, m.Confidence)
				})
				return []brief.Finding{{
					Slot: brief.SlotDestination, Variant: brief.VariantAmbiguous,
					Candidates: cands, Options: options,
				}}, true
			}
			matches = over
		}
		if len(matches) == 0 {
			continue
		}
		city := matches[0].City
		if h.isOrigin {
			origin := city.Name
			findings = append(findings, singleFinding(brief.Candidate{
				Slot: brief.SlotOrigin, Origin: &origin,
				Confidence: matches[0].Confidence, Source: brief.SourceExplicit,
			}))
			continue
		}
		if !lo.ContainsBy(destCities, func(c geo.City) bool { return c.Name == city.Name && c.Country == city.Country }) {
			destCities = append(destCities, city)
			if matches[0].Confidence > destConf {
				destConf = matches[0].Confidence
			}
		}
	}

	switch {
	case len(destCities) >= 2:
		names := lo.Map(destCities, func(c geo.City, _ int) string { return c.Name })
		findings = append(findings, singleFinding(destinationCandidate(brief.Destination{
			Type: brief.DestMultiCity, Primary: names[0],
			Country: commonCountry(destCities), DetectedCities: names,
		}, destConf)))
	case len(destCities) == 1:
		findings = append(findings, singleFinding(destinationCandidate(brief.Destination{
			Type: brief.DestCity, Primary: destCities[0].Name, Country: destCities[0].Country,
		}, destConf)))
	case mentionedCountry != "":
		findings = append(findings, singleFinding(destinationCandidate(brief.Destination{
			Type: brief.DestCountry, Primary: mentionedCountry, Country: mentionedCountry,
		}, 92)))
	}
	return findings, len(findings) > 0
}

type placeHit struct {
	name      string
	pos       int
	isOrigin  bool
	isCountry bool
	country   string
	matches   []geo.Match
}

// scanPlaces finds every catalog name in the text, tagging origin role from
// a preceding "from" and returning hits in positional order.
func (e *Extractor) scanPlaces(text string) []placeHit {
	var hits []placeHit
	seen := map[string]bool{}

	names := map[string][]geo.Match{}
	for _, city := range e.catalog.Cities() {
		for _, alias := range append([]string{city.Name}, city.Aliases...) {
			key := strings.ToLower(alias)
			names[key] = e.catalog.FindCity(alias)
		}
	}
	for name, matches := range names {
		re := wordPattern(name)
		for _, m := range re.FindAllStringIndex(text, -1) {
			if seen[fmt.Sprintf("%s@%d", name, m[0])] {
				continue
			}
			seen[fmt.Sprintf("%s@%d", name, m[0])] = true
			hits = append(hits, placeHit{
				name: name, pos: m[0],
				isOrigin: hasOriginMarker(text, m[0]),
				matches:  matches,
			})
		}
	}

	countries := lo.Uniq(lo.Map(e.catalog.Cities(), func(c geo.City, _ int) string { return c.Country }))
	for _, country := range countries {
		re := wordPattern(strings.ToLower(country))
		if m := re.FindStringIndex(text); m != nil {
			hits = append(hits, placeHit{name: country, pos: m[0], isCountry: true, country: country})
		}
	}

	// drop city hits fully contained in a longer hit ("paris texas" vs "paris")
	hits = lo.Filter(hits, func(h placeHit, i int) bool {
		for j, other := range hits {
			if i == j {
				continue
			}
			if other.pos <= h.pos && len(other.name) > len(h.name) &&
				strings.Contains(other.name, h.name) && h.pos < other.pos+len(other.name) {
				return false
			}
		}
		return true
	})

	for i := 0; i < len(hits); i++ {
		for j := i + 1; j < len(hits); j++ {
			if hits[j].pos < hits[i].pos {
				hits[i], hits[j] = hits[j], hits[i]
			}
		}
	}

	// "london to rome": the first city of an A-to-B pair is the origin
	cityHits := lo.Filter(hits, func(h placeHit, _ int) bool { return !h.isCountry })
	if len(cityHits) == 2 && !cityHits[0].isOrigin && !cityHits[1].isOrigin {
		between := text[cityHits[0].pos:cityHits[1].pos]
		if strings.Contains(between, " to ") {
			for i := range hits {
				if !hits[i].isCountry && hits[i].pos == cityHits[0].pos {
					hits[i].isOrigin = true
				}
			}
		}
	}
	return hits
}

func hasOriginMarker(text string, pos int) bool {
	start := pos - 12
	if start < 0 {
		start = 0
	}
	window := text[start:pos]
	return strings.Contains(window, "from ") || strings.Contains(window, "leaving ") ||
		strings.Contains(window, "departing ")
}

// resolveAmbiguity matches a reply against an open clarification's options:
// by country, by full option text, or by ordinal.
func resolveAmbiguity(text string, p *brief.Pending) (brief.Candidate, bool) {
	ordinals := []string{"first", "second", "third", "fourth"}
	for i, opt := range p.Options {
		normOpt := normalizeText(opt)
		if strings.Contains(text, normOpt) {
			return p.Candidates[i], true
		}
		if parts := strings.SplitN(normOpt, " ", 2); len(parts) == 2 {
			// match on the qualifier (usually the country)
			qualifier := strings.TrimSpace(strings.TrimPrefix(normOpt, parts[0]))
			if qualifier != "" && strings.Contains(text, qualifier) {
				return p.Candidates[i], true
			}
		}
		if i < len(ordinals) && strings.Contains(text, ordinals[i]+" one") {
			return p.Candidates[i], true
		}
	}
	return brief.Candidate{}, false
}

var travelersRe = regexp.MustCompile(`\b(\d{1,2}|[a-z]+)\s+(adults?|people|persons?|travellers?|travelers?|of us)\b`)
var familyRe = regexp.MustCompile(`\bfamily of (\d{1,2}|[a-z]+)\b`)

func parseTravelers(text string, spans *spanSet) (brief.Candidate, bool) {
	if m := familyRe.FindStringSubmatchIndex(text); m != nil {
		n := parseCount(text[m[2]:m[3]])
		if n > 0 {
			spans.add(m[0], m[1])
			return travelersCandidate(n, "family", 90), true
		}
	}
	if m := travelersRe.FindStringSubmatchIndex(text); m != nil {
		n := parseCount(text[m[2]:m[3]])
		if n > 0 {
			spans.add(m[0], m[1])
			return travelersCandidate(n, groupTypeFor(n), 90), true
		}
	}
	for _, solo := range []string{"solo", "by myself", "just me", "on my own", "alone"} {
		if strings.Contains(text, solo) {
			return travelersCandidate(1, "solo", 85), true
		}
	}
	for _, pair := range []string{"couple", "my partner", "my wife", "my husband", "the two of us"} {
		if strings.Contains(text, pair) {
			return travelersCandidate(2, "couple", 85), true
		}
	}
	return brief.Candidate{}, false
}

func travelersCandidate(n int, group string, conf int) brief.Candidate {
	return brief.Candidate{
		Slot:      brief.SlotTravelers,
		Travelers: &brief.Travelers{Adults: n, GroupType: group},
		Confidence: conf, Source: brief.SourceExplicit,
	}
}

func groupTypeFor(n int) string {
	switch {
	case n <= 1:
		return "solo"
	case n == 2:
		return "couple"
	default:
		return "group"
	}
}

func scanPreferences(text string) (brief.Preferences, bool) {
	var p brief.Preferences
	found := false
	if hits, ok := scanKeywords(text, interestWords); ok {
		p.Interests = hits
		found = true
	}
	if hits, ok := scanKeywords(text, dietaryWords); ok {
		p.Dietary = hits
		found = true
	}
	if hits, ok := scanKeywords(text, accommodationWords); ok {
		p.Accommodation = hits[0]
		found = true
	}
	return p, found
}

func scanKeywords(text string, table map[string]string) ([]string, bool) {
	var out []string
	for word, tag := range table {
		if wordPattern(word).MatchString(text) {
			out = append(out, tag)
		}
	}
	out = lo.Uniq(out)
	if len(out) == 0 {
		return nil, false
	}
	// deterministic order
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j] < out[i] {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, true
}

func detectReply(text string) (affirmed, denied bool) {
	for _, guard := range []string{"no more than", "no less than", "not more than"} {
		if strings.HasPrefix(text, guard) {
			return false, false
		}
	}
	first := firstToken(text)
	for _, p := range denyPhrases {
		if text == p || strings.HasPrefix(text, p+" ") || first == p {
			return false, true
		}
	}
	for _, p := range affirmPhrases {
		if text == p || strings.HasPrefix(text, p+" ") {
			return true, false
		}
	}
	return false, false
}

func detectCurrencyOnly(text string) (string, bool) {
	trimmed := strings.TrimPrefix(text, "in ")
	trimmed = strings.TrimSpace(trimmed)
	if code, ok := currencySymbols[trimmed]; ok {
		return code, true
	}
	if strings.Count(trimmed, " ") > 0 {
		return "", false
	}
	return resolveCurrencyUnit(trimmed)
}

func destinationCandidate(d brief.Destination, conf int) brief.Candidate {
	return brief.Candidate{
		Slot: brief.SlotDestination, Destination: &d,
		Confidence: conf, Source: brief.SourceExplicit,
	}
}

func singleFinding(c brief.Candidate) brief.Finding {
	return brief.Finding{Slot: c.Slot, Variant: brief.VariantSingle, Candidates: []brief.Candidate{c}}
}

func briefCountry(b *brief.TripBrief) string {
	if b == nil || !b.Destination.Filled {
		return ""
	}
	return b.Destination.Value.Country
}

func commonCountry(cities []geo.City) string {
	if len(cities) == 0 {
		return ""
	}
	country := cities[0].Country
	for _, c := range cities[1:] {
		if c.Country != country {
			return ""
		}
	}
	return country
}

var digitCommaRe = regexp.MustCompile(`(\d),(\d)`)
var digitDotRe = regexp.MustCompile(`(\d)\.(\d)`)
var punctRe = regexp.MustCompile(`[.,!?;:'"()]+`)
var spaceRe = regexp.MustCompile(`\s+`)

// normalizeText lowercases and strips punctuation while keeping currency
// symbols, digits, thousands separators, decimal points, slashes and
// hyphens intact.
func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "’", "")
	s = digitCommaRe.ReplaceAllString(s, "$1\x00$2")
	s = digitDotRe.ReplaceAllString(s, "$1\x01$2")
	s = punctRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "\x00", ",")
	s = strings.ReplaceAll(s, "\x01", ".")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func firstToken(s string) string {
	if i := strings.IndexByte(s, ' '); i > 0 {
		return s[:i]
	}
	return s
}

func wordPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
}

// spanSet tracks consumed byte ranges so later rules skip them.
type spanSet struct {
	spans [][2]int
}

func (s *spanSet) add(start, end int) {
	s.spans = append(s.spans, [2]int{start, end})
}

func (s *spanSet) overlaps(start, end int) bool {
	for _, sp := range s.spans {
		if start < sp[1] && end > sp[0] {
			return true
		}
	}
	return false
}
