package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatriculeCode(t *testing.T) {
	tests := []struct {
		name      string
		matricule string
		expected  string
	}{
		{name: "dotted matricule", matricule: "8438.MK.160126", expected: "8438"},
		{name: "short numeric run is padded", matricule: "12-A", expected: "0012"},
		{name: "long run is cut to four digits", matricule: "1234567", expected: "1234"},
		{name: "leading letters are skipped", matricule: "MK-77.2020", expected: "0077"},
		{name: "no digits", matricule: "ABC", expected: "0000"},
		{name: "empty", matricule: "", expected: "0000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MatriculeCode(tt.matricule))
		})
	}
}

func TestIDFormatter_DemandID(t *testing.T) {
	f := NewIDFormatter("", "", time.UTC)
	at := time.Date(2026, 1, 27, 22, 19, 45, 0, time.UTC)

	assert.Equal(t, "PREFIX_8438_270126_2219", f.DemandID("8438.MK.160126", at))
	assert.Equal(t, "CONTRACT_0042_270126_2219", f.ContractID(42, at))
}

func TestIDFormatter_UsesConfiguredZone(t *testing.T) {
	dakar := time.FixedZone("GMT+1", 3600)
	f := NewIDFormatter("EF", "CT", dakar)
	at := time.Date(2026, 1, 27, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, "EF_0012_280126_0030", f.DemandID("12", at))
}

func TestWithSequence(t *testing.T) {
	assert.Equal(t, "PREFIX_8438_270126_2219", WithSequence("PREFIX_8438_270126_2219", 1))
	assert.Equal(t, "PREFIX_8438_270126_2219", WithSequence("PREFIX_8438_270126_2219", 0))
	assert.Equal(t, "PREFIX_8438_270126_2219_3", WithSequence("PREFIX_8438_270126_2219", 3))
}

func TestStoreSequence_CountsSuffixedIdentifiers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seq := NewStoreSequence(env.demands)

	n, err := seq.Next(ctx, "PREFIX_8438_270126_2219")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	first := env.create(t)
	second := env.create(t)
	assert.Equal(t, "PREFIX_8438_270126_2219", first.ID)
	assert.Equal(t, "PREFIX_8438_270126_2219_2", second.ID)

	n, err = seq.Next(ctx, "PREFIX_8438_270126_2219")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
