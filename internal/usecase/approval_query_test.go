package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"signoff.io/signoff/internal/domain/approval"
	apperrors "signoff.io/signoff/internal/pkg/errors"
	"signoff.io/signoff/internal/service"
	"signoff.io/signoff/internal/testutil"
)

func TestNormalizePage(t *testing.T) {
	require.Equal(t, Page{Number: 1, Size: 20}, NormalizePage(0, 0))
	require.Equal(t, Page{Number: 1, Size: 20}, NormalizePage(-3, -1))
	require.Equal(t, Page{Number: 2, Size: 50}, NormalizePage(2, 50))
	require.Equal(t, Page{Number: 1, Size: 100}, NormalizePage(1, 500))
}

func TestPendingFor_OnlyCurrentStep(t *testing.T) {
	dir := orgChart()
	store := testutil.NewMemStore(dir)
	svc := NewApprovalService(store, service.NewChainBuilder(), nil)
	query := NewApprovalQueryService(store)

	req, err := svc.CreateLeave(context.Background(), "it-staff", leaveDetail(t))
	require.NoError(t, err)

	// The chain is it-lead, it-head, admin; only it-lead holds it now.
	page, err := query.PendingFor(context.Background(), "it-lead", NormalizePage(1, 20))
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	require.Equal(t, req.ID(), page.Items[0].ID())

	page, err = query.PendingFor(context.Background(), "it-head", NormalizePage(1, 20))
	require.NoError(t, err)
	require.Zero(t, page.Total)

	_, err = svc.Approve(context.Background(), req.ID(), "it-lead", "")
	require.NoError(t, err)

	page, err = query.PendingFor(context.Background(), "it-head", NormalizePage(1, 20))
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)

	page, err = query.PendingFor(context.Background(), "it-lead", NormalizePage(1, 20))
	require.NoError(t, err)
	require.Zero(t, page.Total)
}

func TestMine_FiltersByStatus(t *testing.T) {
	dir := orgChart()
	store := testutil.NewMemStore(dir)
	svc := NewApprovalService(store, service.NewChainBuilder(), nil)
	query := NewApprovalQueryService(store)

	first, err := svc.CreateLeave(context.Background(), "it-staff", leaveDetail(t))
	require.NoError(t, err)
	second, err := svc.CreateExpense(context.Background(), "it-staff", expenseDetail(t))
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), first.ID(), "it-lead", "no")
	require.NoError(t, err)

	all, err := query.Mine(context.Background(), "it-staff", "", NormalizePage(1, 20))
	require.NoError(t, err)
	require.Equal(t, 2, all.Total)

	rejected, err := query.Mine(context.Background(), "it-staff", approval.StatusRejected, NormalizePage(1, 20))
	require.NoError(t, err)
	require.Equal(t, 1, rejected.Total)
	require.Equal(t, first.ID(), rejected.Items[0].ID())

	pending, err := query.Mine(context.Background(), "it-staff", approval.StatusPending, NormalizePage(1, 20))
	require.NoError(t, err)
	require.Equal(t, 1, pending.Total)
	require.Equal(t, second.ID(), pending.Items[0].ID())
}

func TestDetail_Authorization(t *testing.T) {
	dir := orgChart()
	store := testutil.NewMemStore(dir)
	svc := NewApprovalService(store, service.NewChainBuilder(), nil)
	query := NewApprovalQueryService(store)

	req, err := svc.CreateLeave(context.Background(), "it-staff", leaveDetail(t))
	require.NoError(t, err)

	// Requester and chain participants may view.
	for _, viewer := range []string{"it-staff", "it-lead", "it-head", "admin"} {
		got, err := query.Detail(context.Background(), req.ID(), viewer, false)
		require.NoError(t, err, "viewer %s", viewer)
		require.Equal(t, req.ID(), got.ID())
	}

	// An unrelated user may not, unless admin.
	_, err = query.Detail(context.Background(), req.ID(), "hr-head", false)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeApprovalNotAuthorized, appErr.Code)

	_, err = query.Detail(context.Background(), req.ID(), "hr-head", true)
	require.NoError(t, err)
}

func TestDetail_NotFound(t *testing.T) {
	query := NewApprovalQueryService(testutil.NewMemStore(nil))

	_, err := query.Detail(context.Background(), "missing", "anyone", true)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeApprovalNotFound, appErr.Code)
}
