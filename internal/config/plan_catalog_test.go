package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlanCatalog(t *testing.T) {
	catalog, err := ParsePlanCatalog(`
[[plan]]
code = "CI-1"
label = "Cotisation 1"
amount_per_month = "1000.50"
duration_months = 12
support_min = "5000"

[[plan]]
code = "CI-9"
label = "Retired"
amount_per_month = "9000"
duration_months = 6
nominal = "50000"
inactive = true
`)
	require.NoError(t, err)
	require.Len(t, catalog.Plans, 2)

	first := catalog.Plans[0].ToDomain()
	assert.Equal(t, "CI-1", first.Code)
	assert.True(t, first.AmountPerMonth.Equal(decimal.RequireFromString("1000.50")))
	require.NotNil(t, first.SupportMin)
	assert.True(t, first.SupportMin.Equal(decimal.NewFromInt(5000)))
	assert.Nil(t, first.SupportMax)
	assert.Nil(t, first.Nominal)
	assert.True(t, first.IsActive)

	second := catalog.Plans[1].ToDomain()
	require.NotNil(t, second.Nominal)
	assert.True(t, second.Nominal.Equal(decimal.NewFromInt(50000)))
	assert.False(t, second.IsActive)
}

func TestParsePlanCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "missing code", data: "[[plan]]\namount_per_month = \"1000\"\nduration_months = 12\n"},
		{name: "duplicate code", data: "[[plan]]\ncode = \"A\"\namount_per_month = \"1\"\nduration_months = 1\n[[plan]]\ncode = \"A\"\namount_per_month = \"1\"\nduration_months = 1\n"},
		{name: "zero amount", data: "[[plan]]\ncode = \"A\"\namount_per_month = \"0\"\nduration_months = 1\n"},
		{name: "zero duration", data: "[[plan]]\ncode = \"A\"\namount_per_month = \"10\"\nduration_months = 0\n"},
		{name: "bad decimal", data: "[[plan]]\ncode = \"A\"\namount_per_month = \"ten\"\nduration_months = 1\n"},
		{name: "not toml", data: "[[plan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlanCatalog(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestLoadPlanCatalog(t *testing.T) {
	catalog, err := LoadPlanCatalog(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Len(t, catalog.Plans, len(DefaultPlanCatalog().Plans))

	path := filepath.Join(t.TempDir(), "plans.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[plan]]\ncode = \"X\"\nlabel = \"X\"\namount_per_month = \"10\"\nduration_months = 2\n"), 0o600))
	catalog, err = LoadPlanCatalog(path)
	require.NoError(t, err)
	require.Len(t, catalog.Plans, 1)
	assert.Equal(t, "X", catalog.Plans[0].Code)
}

func TestLoadPlanCatalog_ShippedFile(t *testing.T) {
	catalog, err := LoadPlanCatalog(filepath.Join("..", "..", "configs", "plans.toml"))
	require.NoError(t, err)
	assert.Len(t, catalog.Plans, 4)
	for _, p := range catalog.Plans {
		assert.True(t, p.AmountPerMonth.IsPositive(), p.Code)
	}
}

func TestFundConfig_Location(t *testing.T) {
	assert.Equal(t, "UTC", FundConfig{TimeZone: "UTC"}.Location().String())
	assert.Equal(t, "Local", FundConfig{}.Location().String())
	assert.Equal(t, "Local", FundConfig{TimeZone: "Nowhere/Atlantis"}.Location().String())
}
