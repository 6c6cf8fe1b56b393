package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"emergency-fund/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert_CreatesLinkedContract(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	d := env.demandIn(t, domain.StatusApproved)

	first := date(2026, time.March, 1)
	res, err := env.service.Convert(ctx, d.ID, &first, officerID)
	require.NoError(t, err)

	assert.False(t, res.Resumed)
	assert.Equal(t, domain.StatusConverted, res.Demand.Status)
	require.NotNil(t, res.Demand.ContractID)
	assert.Equal(t, res.Contract.ID, *res.Demand.ContractID)
	require.NotNil(t, res.Demand.Trace.Converted)

	contract := res.Contract
	assert.Equal(t, "CONTRACT_0001_270126_2219", contract.ID)
	require.NotNil(t, contract.DemandID)
	assert.Equal(t, d.ID, *contract.DemandID)
	assert.Equal(t, domain.ContractActive, contract.Status)
	assert.True(t, contract.Nominal.Equal(decimal.NewFromInt(150000)))
	assert.True(t, contract.SupportMin.IsZero())
	assert.True(t, contract.SupportMax.IsZero())
	assert.True(t, first.Equal(contract.FirstPaymentDate))

	stored, err := env.service.GetContract(ctx, contract.ID)
	require.NoError(t, err)
	assert.True(t, stored.Nominal.Equal(decimal.NewFromInt(150000)))

	assert.Contains(t, env.events.types(), domain.EventDemandConverted)
}

func TestConvert_FirstPaymentDefaultsToDesiredStart(t *testing.T) {
	env := newTestEnv(t)
	d := env.demandIn(t, domain.StatusApproved)

	res, err := env.service.Convert(context.Background(), d.ID, nil, officerID)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-15", res.Contract.FirstPaymentDate.Format("2006-01-02"))
}

func TestConvert_Twice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	d := env.demandIn(t, domain.StatusApproved)

	res, err := env.service.Convert(ctx, d.ID, nil, officerID)
	require.NoError(t, err)

	_, err = env.service.Convert(ctx, d.ID, nil, officerID)
	require.ErrorIs(t, err, domain.ErrAlreadyConverted)
	assert.ErrorIs(t, err, domain.ErrStateConflict)

	var converted *domain.AlreadyConvertedError
	require.True(t, errors.As(err, &converted))
	assert.Equal(t, res.Contract.ID, converted.ContractID)
}

func TestConvert_RequiresApproved(t *testing.T) {
	for _, status := range []domain.DemandStatus{domain.StatusPending, domain.StatusRejected, domain.StatusReopened} {
		t.Run(string(status), func(t *testing.T) {
			env := newTestEnv(t)
			d := env.demandIn(t, status)

			_, err := env.service.Convert(context.Background(), d.ID, nil, officerID)
			assert.ErrorIs(t, err, domain.ErrStateConflict)
			assert.NotErrorIs(t, err, domain.ErrAlreadyConverted)
		})
	}
}

func TestConvert_ResumesUnlinkedContract(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	d := env.demandIn(t, domain.StatusApproved)

	// a previous attempt created the contract and stopped before linking
	orphan := DeriveContract(d, "CONTRACT_ORPHAN", nil, officerID, env.clock.Now())
	require.NoError(t, env.contracts.Create(ctx, orphan))

	res, err := env.service.Convert(ctx, d.ID, nil, officerID)
	require.NoError(t, err)
	assert.True(t, res.Resumed)
	assert.Equal(t, "CONTRACT_ORPHAN", res.Contract.ID)
	assert.Equal(t, "CONTRACT_ORPHAN", *res.Demand.ContractID)
}

func TestDeleteContract_RollsBackDemand(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	d := env.demandIn(t, domain.StatusConverted)
	contractID := *d.ContractID

	require.NoError(t, env.service.DeleteContract(ctx, contractID, officerID))

	reverted, err := env.service.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, reverted.Status)
	assert.Equal(t, domain.StatusApproved.Priority(), reverted.Priority)
	assert.Nil(t, reverted.ContractID)
	assert.NotNil(t, reverted.Trace.Accepted)

	// traceability stamps are kept; the ROLLBACK row records the undo
	require.NotNil(t, d.Trace.Converted)
	require.NotNil(t, reverted.Trace.Converted)
	assert.Equal(t, d.Trace.Converted.By, reverted.Trace.Converted.By)
	assert.True(t, d.Trace.Converted.At.Equal(reverted.Trace.Converted.At))

	_, err = env.service.GetContract(ctx, contractID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	history, err := env.service.History(ctx, d.ID)
	require.NoError(t, err)
	last := history[len(history)-1]
	assert.Equal(t, domain.ActionRollback, last.Action)
	assert.Equal(t, domain.StatusConverted, last.FromStatus)
	assert.Equal(t, domain.StatusApproved, last.ToStatus)

	assert.Contains(t, env.events.types(), domain.EventContractDeleted)

	// the demand can be converted again
	res, err := env.service.Convert(ctx, d.ID, nil, officerID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConverted, res.Demand.Status)
}

func TestDeleteContract_BlockedByActivity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	d := env.demandIn(t, domain.StatusConverted)
	env.addPayment(t, *d.ContractID)

	err := env.service.DeleteContract(ctx, *d.ContractID, officerID)
	require.ErrorIs(t, err, domain.ErrDependentActivity)

	var dependent *domain.DependentActivityError
	require.True(t, errors.As(err, &dependent))
	assert.Equal(t, int64(1), dependent.Activity.Payments)
	assert.Zero(t, dependent.Activity.SupportItems)

	current, err := env.service.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConverted, current.Status)
	_, err = env.service.GetContract(ctx, *d.ContractID)
	assert.NoError(t, err)
}

func TestDeleteContract_Missing(t *testing.T) {
	env := newTestEnv(t)

	err := env.service.DeleteContract(context.Background(), "CONTRACT_NONE", officerID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReconcileConversions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	linkable := env.demandIn(t, domain.StatusApproved)
	require.NoError(t, env.contracts.Create(ctx,
		DeriveContract(linkable, "CONTRACT_A", nil, officerID, env.clock.Now())))

	// its demand is still pending, nothing to link
	stale := env.demandIn(t, domain.StatusPending)
	require.NoError(t, env.contracts.Create(ctx,
		DeriveContract(stale, "CONTRACT_B", nil, officerID, env.clock.Now())))

	linked := env.demandIn(t, domain.StatusConverted)

	result, err := env.service.ReconcileConversions(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, []string{"CONTRACT_A"}, result.Linked)
	assert.Equal(t, []string{"CONTRACT_B"}, result.Skipped)

	d, err := env.service.Get(ctx, linkable.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConverted, d.Status)
	assert.Equal(t, "CONTRACT_A", *d.ContractID)

	d, err = env.service.Get(ctx, linked.ID)
	require.NoError(t, err)
	assert.Equal(t, *linked.ContractID, *d.ContractID)

	again, err := env.service.ReconcileConversions(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Scanned)
	assert.Empty(t, again.Linked)
}
