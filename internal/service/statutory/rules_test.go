package statutory

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func compute(t *testing.T, rule payroll.StatutoryRule, gross, basic string) decimal.Decimal {
	t.Helper()
	v, err := rule.Compute(context.Background(), payroll.StatutoryInput{Gross: dec(gross), Basic: dec(basic)})
	require.NoError(t, err)
	return v
}

func TestNewRuleSet_Order(t *testing.T) {
	rules := NewRuleSet(DefaultConfig())

	kinds := make([]payroll.StatutoryKind, 0, len(rules))
	for _, r := range rules {
		kinds = append(kinds, r.Kind())
	}
	assert.Equal(t, payroll.StatutoryOrder, kinds)
}

func TestPFRule(t *testing.T) {
	rule := pfRule{rate: dec("12"), ceiling: dec("15000")}

	assert.True(t, dec("1200").Equal(compute(t, rule, "20000", "10000")))
	assert.True(t, dec("1800").Equal(compute(t, rule, "42000", "30000")), "capped at ceiling")

	uncapped := pfRule{rate: dec("12")}
	assert.True(t, dec("3600").Equal(compute(t, uncapped, "42000", "30000")))
}

func TestESIRule(t *testing.T) {
	rule := esiRule{rate: dec("0.75"), threshold: dec("21000")}

	assert.True(t, dec("150").Equal(compute(t, rule, "20000", "10000")))
	assert.True(t, dec("157.5").Equal(compute(t, rule, "21000", "10000")), "threshold is inclusive")
	assert.True(t, compute(t, rule, "21000.01", "10000").IsZero())
}

func TestTDSRule(t *testing.T) {
	rule := tdsRule{slabs: MustParseSlabs("300000:0,700000:5,1000000:10,inf:30")}

	tests := []struct {
		name  string
		gross string
		want  string
	}{
		{"below first bracket", "20000", "0"},
		{"inside second bracket", "50000", "1250"}, // 600000 annual: 300000*5% = 15000 / 12
		{"top bracket", "100000", "9166.67"},       // 1200000: 20000+30000+60000 = 110000 / 12
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compute(t, rule, tt.gross, "0")
			assert.True(t, dec(tt.want).Round(2).Equal(got.Round(2)), "got %s", got)
		})
	}
}

func TestPTRule(t *testing.T) {
	rule := ptRule{slabs: MustParseSlabs("7500:0,10000:175,inf:200")}

	assert.True(t, compute(t, rule, "7500", "0").IsZero())
	assert.True(t, dec("175").Equal(compute(t, rule, "9000", "0")))
	assert.True(t, dec("200").Equal(compute(t, rule, "42000", "0")))
}

func TestParseSlabs(t *testing.T) {
	slabs, err := ParseSlabs(" 7500:0 , 10000:175, INF:200 ")
	require.NoError(t, err)
	require.Len(t, slabs, 3)
	assert.True(t, dec("7500").Equal(*slabs[0].UpTo))
	assert.Nil(t, slabs[2].UpTo)
	assert.True(t, dec("200").Equal(slabs[2].Value))

	for _, bad := range []string{"7500", "abc:1", "100:x", "200:1,100:2", "inf:1,100:2"} {
		_, err := ParseSlabs(bad)
		assert.Error(t, err, bad)
	}
}
