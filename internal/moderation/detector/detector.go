// Package detector scores message text for social-engineering and phishing
// signals. Detection is deterministic and rule-based: four independent
// passes over the text accumulate findings without short-circuiting, so a
// single message can surface evidence from several passes at once.
package detector

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/phishguard/phishguard/internal/setup/config"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Category classifies a piece of threat evidence.
type Category string

const (
	CategoryShortenedLink Category = "shortened-link"
	CategoryBankPhone     Category = "bank-phone-pattern"
	CategoryScamKeyword   Category = "scam-keyword"
	CategoryUrgency       Category = "artificial-urgency"
)

// evidenceLimit bounds the length of displayed evidence excerpts.
// The whole message is always scanned; only what is shown is truncated.
const evidenceLimit = 50

// urgencyThreshold is the number of urgency phrase occurrences, repeats
// included, at which a message is considered artificially urgent.
const urgencyThreshold = 2

var (
	urlPattern   = regexp.MustCompile(`https?://\S+`)
	phonePattern = regexp.MustCompile(`[+(]?[1-9][0-9().\-]{7,}[0-9]`)
)

// Finding is a single piece of evidence that a message is risky.
type Finding struct {
	Category Category // What kind of signal matched
	Detail   string   // Human-readable evidence excerpt, bounded length
}

// Result carries the ordered findings of one analysis pass over a message.
// Findings appear in detection-pass order: links, phone numbers, keywords,
// then urgency. FailedPasses lists passes that panicked; a result with
// failed passes and no findings must not be treated as clean.
type Result struct {
	Findings     []Finding
	FailedPasses []string
}

// Suspicious reports whether any pass produced evidence.
func (r *Result) Suspicious() bool {
	return len(r.Findings) > 0
}

// Degraded reports whether any pass failed to complete.
func (r *Result) Degraded() bool {
	return len(r.FailedPasses) > 0
}

// Top returns at most n findings for display purposes.
func (r *Result) Top(n int) []Finding {
	if len(r.Findings) <= n {
		return r.Findings
	}

	return r.Findings[:n]
}

// Detector analyzes message text against an injected immutable rule set.
// It is pure and side-effect-free; a single instance is safe for
// concurrent use.
type Detector struct {
	shortenerDomains []string
	scamKeywords     []string // normalized form, original casing kept alongside
	scamOriginals    []string
	urgencyPhrases   []string // normalized form
	bankPrefixes     []string
}

// New creates a detector from the configured rule lists. Keyword and
// urgency phrases are normalized once here so each message only pays for
// its own normalization.
func New(rules *config.Detection) *Detector {
	d := &Detector{
		shortenerDomains: make([]string, 0, len(rules.ShortenerDomains)),
		scamKeywords:     make([]string, 0, len(rules.ScamKeywords)),
		scamOriginals:    make([]string, 0, len(rules.ScamKeywords)),
		urgencyPhrases:   make([]string, 0, len(rules.UrgencyPhrases)),
		bankPrefixes:     make([]string, 0, len(rules.BankPrefixes)),
	}

	for _, domain := range rules.ShortenerDomains {
		d.shortenerDomains = append(d.shortenerDomains, strings.ToLower(domain))
	}

	for _, keyword := range rules.ScamKeywords {
		d.scamKeywords = append(d.scamKeywords, normalize(keyword))
		d.scamOriginals = append(d.scamOriginals, keyword)
	}

	for _, phrase := range rules.UrgencyPhrases {
		d.urgencyPhrases = append(d.urgencyPhrases, normalize(phrase))
	}

	for prefix := range rules.BankPrefixes {
		d.bankPrefixes = append(d.bankPrefixes, prefix)
	}

	return d
}

// Detect runs all four passes over the text and accumulates findings.
// Empty input yields an empty result. A pass that panics is recorded in
// FailedPasses and the remaining passes still execute.
func (d *Detector) Detect(text string) *Result {
	result := &Result{}

	if strings.TrimSpace(text) == "" {
		return result
	}

	normalized := normalize(text)

	d.runPass(result, "links", func() []Finding { return d.detectLinks(text) })
	d.runPass(result, "phones", func() []Finding { return d.detectBankPhones(text) })
	d.runPass(result, "keywords", func() []Finding { return d.detectKeywords(normalized) })
	d.runPass(result, "urgency", func() []Finding { return d.detectUrgency(normalized) })

	return result
}

// runPass executes a detection pass, isolating panics so one broken pass
// cannot suppress the evidence of the others.
func (d *Detector) runPass(result *Result, name string, pass func() []Finding) {
	defer func() {
		if r := recover(); r != nil {
			result.FailedPasses = append(result.FailedPasses, name)
		}
	}()

	result.Findings = append(result.Findings, pass()...)
}

// detectLinks emits a finding for every URL whose host belongs to a known
// shortener or redirect domain.
func (d *Detector) detectLinks(text string) []Finding {
	var findings []Finding

	for _, url := range urlPattern.FindAllString(text, -1) {
		host := hostOf(url)
		for _, domain := range d.shortenerDomains {
			if host == domain || strings.HasSuffix(host, "."+domain) {
				findings = append(findings, Finding{
					Category: CategoryShortenedLink,
					Detail:   truncate(url, evidenceLimit),
				})

				break
			}
		}
	}

	return findings
}

// detectBankPhones emits a finding for every phone-shaped substring whose
// digit string starts with a known bank or short-code prefix. Fraudsters
// routinely spoof these numbers to pose as bank support.
func (d *Detector) detectBankPhones(text string) []Finding {
	var findings []Finding

	for _, phone := range phonePattern.FindAllString(text, -1) {
		digits := strings.Map(func(r rune) rune {
			if unicode.IsDigit(r) {
				return r
			}
			return -1
		}, phone)

		for _, prefix := range d.bankPrefixes {
			if strings.HasPrefix(digits, prefix) {
				findings = append(findings, Finding{
					Category: CategoryBankPhone,
					Detail:   truncate(phone, evidenceLimit),
				})

				break
			}
		}
	}

	return findings
}

// detectKeywords emits one finding per configured scam phrase present in
// the normalized text. Duplicate phrases in the rule list produce
// duplicate findings; no deduplication happens here.
func (d *Detector) detectKeywords(normalized string) []Finding {
	var findings []Finding

	for i, keyword := range d.scamKeywords {
		if keyword != "" && strings.Contains(normalized, keyword) {
			findings = append(findings, Finding{
				Category: CategoryScamKeyword,
				Detail:   truncate(d.scamOriginals[i], evidenceLimit),
			})
		}
	}

	return findings
}

// detectUrgency emits a single finding when urgency phrases occur at least
// twice, repeats included. This is a pattern-of-language signal rather
// than a single substring match, so the finding carries no excerpt.
func (d *Detector) detectUrgency(normalized string) []Finding {
	count := 0
	for _, phrase := range d.urgencyPhrases {
		if phrase != "" {
			count += strings.Count(normalized, phrase)
		}
	}

	if count < urgencyThreshold {
		return nil
	}

	return []Finding{{Category: CategoryUrgency}}
}

// hostOf extracts the host fragment of a matched URL without allocating a
// full parse: everything after the scheme up to the first slash, with any
// port or credentials stripped.
func hostOf(url string) string {
	rest := url
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	}

	if idx := strings.IndexAny(rest, "/?#"); idx >= 0 {
		rest = rest[:idx]
	}

	if idx := strings.LastIndex(rest, "@"); idx >= 0 {
		rest = rest[idx+1:]
	}

	if idx := strings.Index(rest, ":"); idx >= 0 {
		rest = rest[:idx]
	}

	return strings.ToLower(rest)
}

// truncate bounds an evidence excerpt to limit runes.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit])
}

// normalize folds case and strips diacritics so keyword matching is not
// defeated by decorative Unicode. A fresh transformer is built per call
// because the chain is stateful and Detect must stay concurrency-safe.
func normalize(s string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Map(unicode.ToLower),
		norm.NFKC,
	)

	result, _, err := transform.String(t, s)
	if err != nil || result == "" {
		return strings.ToLower(s)
	}

	return result
}
