package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	blob := map[string]any{
		"commissions_cashIn":   2.5,
		"commissions_cashOut":  3.0,
		"locale_fiatCurrency":  "USD",
		"commissionsX_ignored": true,
	}

	got := From(Commissions, blob)

	assert.Equal(t, map[string]any{"cashIn": 2.5, "cashOut": 3.0}, got)
}

func TestFrom_AbsentNamespace(t *testing.T) {
	t.Run("no matching keys", func(t *testing.T) {
		got := From(Commissions, map[string]any{"locale_fiatCurrency": "EUR"})
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("nil blob", func(t *testing.T) {
		got := From(Commissions, nil)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestTo(t *testing.T) {
	obj := map[string]any{
		"cashIn":    1.0,
		"overrides": []any{map[string]any{"machine": "A"}},
	}

	got := To(Commissions, obj)

	assert.Equal(t, map[string]any{
		"commissions_cashIn":    1.0,
		"commissions_overrides": []any{map[string]any{"machine": "A"}},
	}, got)
	// исходный объект не меняется
	assert.Contains(t, obj, "cashIn")
}

func TestRoundTrip(t *testing.T) {
	cases := []map[string]any{
		{},
		{"cashIn": 1.5, "cashOut": 0.0, "fixedFee": 0.0, "minimumTx": 10.0},
		{"active": true, "name": "Operator", "email": "ops@example.com"},
		{"overrides": []any{map[string]any{"machine": "B", "cashIn": 2.0}}},
		{"field_with_underscore": "value"},
	}

	for _, ns := range []string{Commissions, Locale, OperatorInfo, TermsConditions} {
		for _, x := range cases {
			assert.Equal(t, x, From(ns, To(ns, x)), "namespace %s", ns)
		}
	}
}
