package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadFundConfig_ReconcileSchedule(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		expected string
	}{
		{name: "off unless configured", env: "", expected: ""},
		{name: "explicit schedule", env: "*/15 * * * *", expected: "*/15 * * * *"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FUND_RECONCILE_CRON", tt.env)

			assert.Equal(t, tt.expected, loadFundConfig().ReconcileCron)
		})
	}
}
