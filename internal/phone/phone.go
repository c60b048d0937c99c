// Package phone classifies phone numbers by numeric prefix: mobile
// operator, bank short codes, and region for Russian numbers. It is a
// pure lookup over configuration tables with no state or I/O.
package phone

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/phishguard/phishguard/internal/setup/config"
)

const unknownLabel = "Unknown"

// Analyzer resolves phone number prefixes against injected lookup tables.
type Analyzer struct {
	operatorCodes map[string]string
	regionCodes   map[string]string
	bankPrefixes  map[string]string
}

// NewAnalyzer creates an analyzer from the configured lookup tables.
// Bank prefixes are shared with the threat detector's rule list.
func NewAnalyzer(cfg *config.Phone, bankPrefixes map[string]string) *Analyzer {
	return &Analyzer{
		operatorCodes: cfg.OperatorCodes,
		regionCodes:   cfg.RegionCodes,
		bankPrefixes:  bankPrefixes,
	}
}

// Report holds the classification of a single phone number.
type Report struct {
	Number   string // The number as provided
	Operator string // Mobile operator, or Unknown
	Bank     string // Bank matching a short-code prefix, or empty
	Region   string // Region for Russian 11-digit numbers, or empty
}

// Analyze classifies a raw phone number string.
func (a *Analyzer) Analyze(raw string) *Report {
	cleaned := clean(raw)

	report := &Report{
		Number:   raw,
		Operator: a.identifyOperator(cleaned),
		Bank:     a.identifyBank(cleaned),
	}

	digits := strings.TrimPrefix(cleaned, "+")
	if strings.HasPrefix(digits, "7") && len(digits) == 11 {
		report.Region = a.regionCodes[digits[1:4]]
	}

	return report
}

// Format renders the report as a Discord-markdown security summary.
func (a *Analyzer) Format(report *Report) string {
	var b strings.Builder

	b.WriteString("📊 **PHONE NUMBER ANALYSIS**\n\n")
	fmt.Fprintf(&b, "🔢 Number: `%s`\n\n", report.Number)
	fmt.Fprintf(&b, "📱 Operator: %s\n", report.Operator)

	bank := report.Bank
	if bank == "" {
		bank = "Not identified"
	}

	fmt.Fprintf(&b, "🏦 Bank: %s\n", bank)

	if report.Region != "" {
		fmt.Fprintf(&b, "🌍 Region: %s\n", report.Region)
	}

	b.WriteString("\n🛡️ **SAFETY RECOMMENDATIONS:**\n")
	b.WriteString("• Verify identity over a video call\n")
	b.WriteString("• Do not follow links from strangers\n")
	b.WriteString("• Never share codes from SMS\n")
	b.WriteString("• Enable two-factor authentication\n")

	b.WriteString("\n🔍 **BANK VERIFICATION:**\n")
	b.WriteString(bankCheckInfo(clean(report.Number)))

	return b.String()
}

// bankCheckInfo lists ways to verify a number through banking apps.
// Transfer lookups only work for full 11-digit numbers; Sberbank lookup
// additionally needs a Russian mobile number.
func bankCheckInfo(cleaned string) string {
	digits := strings.TrimPrefix(cleaned, "+")

	var b strings.Builder

	if strings.HasPrefix(digits, "79") {
		b.WriteString("• Sberbank Online: look up in the app\n")
	}

	if len(digits) == 11 {
		b.WriteString("• Tinkoff: transfer by phone number\n")
		b.WriteString("• VTB: check via transfers\n")
		b.WriteString("• Alfa-Bank: look up in the app\n")
	}

	if b.Len() == 0 {
		return "• Use the official banking apps\n"
	}

	return b.String()
}

// identifyOperator resolves the mobile operator from the two digits after
// the country prefix.
func (a *Analyzer) identifyOperator(cleaned string) string {
	var prefix string

	switch {
	case strings.HasPrefix(cleaned, "+7"):
		prefix = safeSlice(cleaned, 2, 4)
	case strings.HasPrefix(cleaned, "7"), strings.HasPrefix(cleaned, "8"):
		prefix = safeSlice(cleaned, 1, 3)
	default:
		prefix = safeSlice(cleaned, 0, 2)
	}

	if operator, ok := a.operatorCodes[prefix]; ok {
		return operator
	}

	return unknownLabel
}

// identifyBank matches bank short-code prefixes at either end of the
// digit string, since short codes appear both standalone and embedded in
// full numbers.
func (a *Analyzer) identifyBank(cleaned string) string {
	digits := strings.TrimPrefix(cleaned, "+")

	for prefix, bank := range a.bankPrefixes {
		if strings.HasPrefix(digits, prefix) || strings.HasSuffix(digits, prefix) {
			return bank
		}
	}

	return ""
}

// clean strips everything except digits and a leading plus.
func clean(raw string) string {
	var b strings.Builder

	for i, r := range raw {
		if unicode.IsDigit(r) || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// safeSlice slices a string without panicking on short input.
func safeSlice(s string, from, to int) string {
	if from > len(s) {
		return ""
	}

	if to > len(s) {
		to = len(s)
	}

	return s[from:to]
}
