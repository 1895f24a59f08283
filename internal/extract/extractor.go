// Package extract parses free-text infrastructure requests into structured
// requirement profiles. Extraction is rule-based and never fails: ambiguous
// or missing fields fall back to documented defaults with floor confidence.
package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"infra-planner/pkg/api"
	"infra-planner/pkg/confidence"
)

// Documented defaults applied when a field cannot be extracted.
const (
	DefaultExpectedUsers = 100
	DefaultMonthlyBudget = 50
)

var (
	// usersPattern matches "5000 users", "5,000 monthly users", "50k visitors".
	usersPattern = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*(k|thousand|m|million)?\s*\+?\s*(?:concurrent\s+|monthly\s+|daily\s+|active\s+|expected\s+)?(?:users?|visitors?|customers?|seats)\b`)

	// usersReversePattern matches "users: 5000" and "user base of 5000".
	usersReversePattern = regexp.MustCompile(`users?\s*(?:base)?\s*(?:of|:|=|around|about)?\s*(\d[\d,]*)\s*(k|thousand|m|million)?\b`)

	// dollarPattern matches "$300", "$1,200.50/month", "$2k per month".
	dollarPattern = regexp.MustCompile(`\$\s*(\d[\d,]*(?:\.\d+)?)\s*(k|m)?(?:\s*(?:/|per\s+)(?:month|mo)\b)?`)

	// budgetPattern matches "budget of 300", "budget: 300".
	budgetPattern = regexp.MustCompile(`budget\s*(?:of|:|=|is|around|about)?\s*\$?\s*(\d[\d,]*(?:\.\d+)?)\s*(k|m)?\b`)

	// currencyPattern matches "300 usd monthly", "300 dollars per month".
	currencyPattern = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*(k|m)?\s*(?:usd|dollars)\b`)

	// percentPattern matches uptime targets like "99.9%".
	percentPattern = regexp.MustCompile(`(\d{2,3}(?:\.\d+)?)\s*%`)
)

// Extractor converts raw request text into a RequirementProfile.
type Extractor struct{}

// NewExtractor creates a requirement extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses text into a profile. Empty or unparseable text yields an
// all-default profile with floor confidence on every field.
func (e *Extractor) Extract(text string) api.RequirementProfile {
	normalized := normalize(text)

	profile := api.RequirementProfile{
		CloudProvider:    api.ProviderUnspecified,
		ExpectedUsers:    DefaultExpectedUsers,
		MonthlyBudget:    decimal.NewFromInt(DefaultMonthlyBudget),
		SecurityLevel:    api.SecurityUnspecified,
		ArchitectureHint: api.HintUnspecified,
		FieldConfidence: map[string]float64{
			api.FieldCloudProvider:    confidence.DefaultFloor,
			api.FieldExpectedUsers:    confidence.DefaultFloor,
			api.FieldMonthlyBudget:    confidence.DefaultFloor,
			api.FieldSecurityLevel:    confidence.DefaultFloor,
			api.FieldUptimeTarget:     confidence.DefaultFloor,
			api.FieldArchitectureHint: confidence.DefaultFloor,
		},
	}

	if normalized == "" {
		return profile
	}

	e.extractProvider(normalized, &profile)

	if users, conf, ok := extractUsers(normalized); ok {
		profile.ExpectedUsers = users
		profile.FieldConfidence[api.FieldExpectedUsers] = conf
	}

	if budget, conf, ok := extractBudget(normalized); ok {
		profile.MonthlyBudget = budget
		profile.FieldConfidence[api.FieldMonthlyBudget] = conf
	}

	if level, conf, ok := matchVocab(normalized, securityRules); ok {
		profile.SecurityLevel = level
		profile.FieldConfidence[api.FieldSecurityLevel] = conf
	}

	if uptime, conf, ok := extractUptime(normalized); ok {
		profile.UptimeTarget = uptime
		profile.FieldConfidence[api.FieldUptimeTarget] = conf
	}

	if hint, conf, ok := matchVocab(normalized, architectureRules); ok {
		profile.ArchitectureHint = hint
		profile.FieldConfidence[api.FieldArchitectureHint] = conf
	}

	return profile
}

// extractProvider resolves the cloud provider field. Two or more distinct
// single-provider mentions imply a multi-cloud deployment even without an
// explicit multi-cloud keyword.
func (e *Extractor) extractProvider(text string, profile *api.RequirementProfile) {
	multiMatched := false
	var multiConf float64

	type hit struct {
		provider api.CloudProvider
		conf     float64
		pos      int
	}
	var hits []hit

	for _, rule := range providerRules {
		for _, kw := range rule.keywords {
			pos := keywordIndex(text, kw)
			if pos < 0 {
				continue
			}
			if rule.value == api.ProviderMultiCloud {
				multiMatched = true
				multiConf = rule.confidence
			} else {
				hits = append(hits, hit{provider: rule.value, conf: rule.confidence, pos: pos})
			}
			break
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	for _, h := range hits {
		profile.MatchedProviders = append(profile.MatchedProviders, h.provider)
	}

	switch {
	case multiMatched:
		profile.CloudProvider = api.ProviderMultiCloud
		profile.FieldConfidence[api.FieldCloudProvider] = multiConf
	case len(hits) >= 2:
		profile.CloudProvider = api.ProviderMultiCloud
		profile.FieldConfidence[api.FieldCloudProvider] = confidence.Matched
	case len(hits) == 1:
		profile.CloudProvider = hits[0].provider
		profile.FieldConfidence[api.FieldCloudProvider] = hits[0].conf
	}
}

func extractUsers(text string) (int, float64, bool) {
	if m := usersPattern.FindStringSubmatch(text); m != nil {
		if v, ok := parseScaled(m[1], m[2]); ok && plausibleUsers(v) {
			return int(v), confidence.Explicit, true
		}
	}
	if m := usersReversePattern.FindStringSubmatch(text); m != nil {
		if v, ok := parseScaled(m[1], m[2]); ok && plausibleUsers(v) {
			return int(v), confidence.Matched, true
		}
	}
	return 0, 0, false
}

func extractBudget(text string) (decimal.Decimal, float64, bool) {
	if m := dollarPattern.FindStringSubmatch(text); m != nil {
		if v, ok := parseScaled(m[1], m[2]); ok && plausibleBudget(v) {
			return decimal.NewFromFloat(v), confidence.Explicit, true
		}
	}
	if m := budgetPattern.FindStringSubmatch(text); m != nil {
		if v, ok := parseScaled(m[1], m[2]); ok && plausibleBudget(v) {
			return decimal.NewFromFloat(v), confidence.Matched, true
		}
	}
	if m := currencyPattern.FindStringSubmatch(text); m != nil {
		if v, ok := parseScaled(m[1], m[2]); ok && plausibleBudget(v) {
			return decimal.NewFromFloat(v), confidence.Matched, true
		}
	}
	return decimal.Zero, 0, false
}

// extractUptime looks for an availability percentage. Bare percentages only
// count when an uptime keyword appears somewhere in the request.
func extractUptime(text string) (float64, float64, bool) {
	for _, entry := range uptimePhrases {
		if strings.Contains(text, entry.phrase) {
			return entry.pct, confidence.Matched, true
		}
	}

	hasKeyword := strings.Contains(text, "uptime") ||
		strings.Contains(text, "availability") ||
		strings.Contains(text, "sla")
	if !hasKeyword {
		return 0, 0, false
	}

	for _, m := range percentPattern.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if v >= 90 && v <= 100 {
			return v, confidence.Explicit, true
		}
	}
	return 0, 0, false
}

// matchVocab evaluates rules in priority order and returns the first hit.
func matchVocab[T ~string](text string, rules []vocabRule[T]) (T, float64, bool) {
	sorted := make([]vocabRule[T], len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].priority > sorted[j].priority })

	for _, rule := range sorted {
		for _, kw := range rule.keywords {
			if keywordIndex(text, kw) >= 0 {
				return rule.value, rule.confidence, true
			}
		}
	}
	var zero T
	return zero, 0, false
}

// keywordIndex returns the position of kw in text, requiring word boundaries
// so "saws" never matches "aws". Returns -1 when absent.
func keywordIndex(text, kw string) int {
	for start := 0; ; {
		idx := strings.Index(text[start:], kw)
		if idx < 0 {
			return -1
		}
		idx += start
		before := idx == 0 || !isWordChar(text[idx-1])
		afterIdx := idx + len(kw)
		after := afterIdx >= len(text) || !isWordChar(text[afterIdx])
		if before && after {
			return idx
		}
		start = idx + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}

func parseScaled(num, suffix string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	switch suffix {
	case "k", "thousand":
		v *= 1_000
	case "m", "million":
		v *= 1_000_000
	}
	return v, true
}

func plausibleUsers(v float64) bool {
	return v >= 1 && v <= 500_000_000
}

func plausibleBudget(v float64) bool {
	return v > 0 && v <= 100_000_000
}

// DefaultedFields returns the names of fields that fell back to their
// documented defaults, in stable order.
func DefaultedFields(profile api.RequirementProfile) []string {
	var fields []string
	for name, conf := range profile.FieldConfidence {
		if conf <= confidence.DefaultFloor {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	return fields
}

// normalize lowercases the text and collapses whitespace so vocabulary and
// numeric rules see a canonical form.
func normalize(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	return strings.Join(strings.Fields(lowered), " ")
}
