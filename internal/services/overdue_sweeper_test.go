package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/library/domain"
	"github.com/fastygo/library/internal/services"
	"github.com/fastygo/library/internal/testutil"
	"github.com/fastygo/library/pkg/clock"
	"github.com/fastygo/library/usecase/ledger"
)

type health bool

func (h health) IsOnline() bool { return bool(h) }

func Test_OverdueSweeper_Run(t *testing.T) {
	// setup
	store := testutil.GivenStore(t)
	clk := clock.NewFixed(testutil.FakeClock)
	loans := ledger.New(store, clk, nil)
	member := testutil.GivenMember(t, store, "Jane", domain.RoleUser)
	book := testutil.GivenBook(t, store, "1984")
	ctx := context.Background()
	loan, err := loans.Borrow(ctx, book.ID, member.ID, testutil.ActorOf(member))
	require.NoError(t, err)
	clk.Advance(domain.LoanPeriod + time.Minute)

	offline, err := services.NewOverdueSweeper(loans, health(false), nil, services.SweeperConfig{})
	require.NoError(t, err)
	swept, err := offline.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, swept)

	sweeper, err := services.NewOverdueSweeper(loans, health(true), nil, services.SweeperConfig{Schedule: "*/5 * * * *"})
	require.NoError(t, err)

	// act
	swept, err = sweeper.Run(ctx)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, swept)
	stored, err := store.Loans().GetByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanOverdue, stored.Status)
}

func Test_OverdueSweeper_InvalidSchedule(t *testing.T) {
	_, err := services.NewOverdueSweeper(nil, nil, nil, services.SweeperConfig{Schedule: "every tuesday"})
	assert.Error(t, err)
}

func Test_OverdueSweeper_StartStop(t *testing.T) {
	sweeper, err := services.NewOverdueSweeper(nil, nil, nil, services.SweeperConfig{})
	require.NoError(t, err)
	sweeper.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, sweeper.Stop(ctx))
}
