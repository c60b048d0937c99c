package phone_test

import (
	"testing"

	"github.com/phishguard/phishguard/internal/phone"
	"github.com/phishguard/phishguard/internal/setup/config"
	"github.com/stretchr/testify/assert"
)

func testAnalyzer() *phone.Analyzer {
	cfg := &config.Phone{
		OperatorCodes: map[string]string{
			"91": "МТС",
			"92": "Теле2",
			"90": "Билайн",
		},
		RegionCodes: map[string]string{
			"495": "Москва",
			"812": "Санкт-Петербург",
		},
	}

	return phone.NewAnalyzer(cfg, map[string]string{
		"900": "Сбербанк",
		"555": "Тинькофф",
	})
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	analyzer := testAnalyzer()

	tests := []struct {
		name     string
		number   string
		operator string
		bank     string
		region   string
	}{
		{
			name:     "mobile number with country code",
			number:   "+79123456789",
			operator: "МТС",
		},
		{
			name:     "mobile number with eight prefix",
			number:   "89201234567",
			operator: "Теле2",
		},
		{
			name:     "formatted number is cleaned",
			number:   "+7 (912) 345-67-89",
			operator: "МТС",
		},
		{
			name:   "bank short code",
			number: "900",
			bank:   "Сбербанк",
		},
		{
			name:     "moscow landline",
			number:   "+74951234567",
			operator: "Unknown",
			region:   "Москва",
		},
		{
			name:     "unknown operator",
			number:   "+12025550123",
			operator: "Unknown",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			report := analyzer.Analyze(tt.number)

			if tt.operator != "" {
				assert.Equal(t, tt.operator, report.Operator)
			}

			assert.Equal(t, tt.bank, report.Bank)
			assert.Equal(t, tt.region, report.Region)
		})
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	analyzer := testAnalyzer()
	report := analyzer.Analyze("900")
	out := analyzer.Format(report)

	assert.Contains(t, out, "`900`")
	assert.Contains(t, out, "Сбербанк")
	assert.Contains(t, out, "SAFETY RECOMMENDATIONS")
}

func TestFormatBankVerification(t *testing.T) {
	t.Parallel()

	analyzer := testAnalyzer()

	t.Run("russian mobile number gets all lookups", func(t *testing.T) {
		t.Parallel()

		out := analyzer.Format(analyzer.Analyze("+79123456789"))

		assert.Contains(t, out, "BANK VERIFICATION")
		assert.Contains(t, out, "Sberbank Online")
		assert.Contains(t, out, "Tinkoff: transfer by phone number")
		assert.Contains(t, out, "VTB")
		assert.Contains(t, out, "Alfa-Bank")
	})

	t.Run("eleven digit landline gets transfer lookups only", func(t *testing.T) {
		t.Parallel()

		out := analyzer.Format(analyzer.Analyze("+74951234567"))

		assert.Contains(t, out, "Tinkoff: transfer by phone number")
		assert.NotContains(t, out, "Sberbank Online")
	})

	t.Run("short code falls back to generic guidance", func(t *testing.T) {
		t.Parallel()

		out := analyzer.Format(analyzer.Analyze("900"))

		assert.Contains(t, out, "BANK VERIFICATION")
		assert.Contains(t, out, "Use the official banking apps")
		assert.NotContains(t, out, "Tinkoff: transfer by phone number")
	})
}
