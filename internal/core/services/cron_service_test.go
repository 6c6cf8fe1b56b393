package services

import (
	"context"
	"errors"
	"testing"

	"emergency-fund/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPurger struct {
	calls int
	err   error
}

func (p *countingPurger) PurgeExpiredTokens(context.Context) (int64, error) {
	p.calls++
	return 3, p.err
}

func TestCronService_Start(t *testing.T) {
	env := newTestEnv(t)

	bad := NewCronService(env.service, nil, officerID, 10)
	assert.Error(t, bad.Start("every now and then"))

	svc := NewCronService(env.service, &countingPurger{}, officerID, 10)
	require.NoError(t, svc.Start("@every 1h"))
	assert.Len(t, svc.cron.Entries(), 2)
	svc.Stop()

	noReconcile := NewCronService(env.service, &countingPurger{}, officerID, 10)
	require.NoError(t, noReconcile.Start(""))
	assert.Len(t, noReconcile.cron.Entries(), 1)
	noReconcile.Stop()
}

func TestCronService_RunReconcileLinksOrphan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	d := env.demandIn(t, domain.StatusApproved)
	require.NoError(t, env.contracts.Create(ctx, DeriveContract(d, "CONTRACT_ORPHAN", nil, officerID, env.clock.Now())))

	NewCronService(env.service, nil, officerID, 10).RunReconcile()

	linked, err := env.service.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConverted, linked.Status)
	require.NotNil(t, linked.ContractID)
	assert.Equal(t, "CONTRACT_ORPHAN", *linked.ContractID)
}

func TestCronService_TokenPurge(t *testing.T) {
	env := newTestEnv(t)

	purger := &countingPurger{}
	NewCronService(env.service, purger, officerID, 10).runTokenPurge()
	assert.Equal(t, 1, purger.calls)

	failing := &countingPurger{err: errors.New("db down")}
	NewCronService(env.service, failing, officerID, 10).runTokenPurge()
	assert.Equal(t, 1, failing.calls)
}
