// Package service holds domain services that span aggregates. The chain
// builder derives an approval chain from the organizational directory
// at submission time; the chain is then frozen into the request.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"signoff.io/signoff/internal/directory"
	"signoff.io/signoff/internal/domain/approval"
)

// ErrChainBuild is returned when no valid approval chain can be derived
// for a requester. Wrapped variants carry the concrete reason.
var ErrChainBuild = errors.New("approval chain cannot be built")

// ChainBuilder derives approver chains from the directory.
//
// The chain is, in order: every colleague in the requester's department
// with a strictly higher role level (ascending by level), then for
// expense requests the highest-authority HR employee when the requester
// is not in HR, then the platform administrator. Employees without a
// linked account can never approve and are skipped.
type ChainBuilder struct{}

// NewChainBuilder creates a ChainBuilder.
func NewChainBuilder() *ChainBuilder {
	return &ChainBuilder{}
}

// Build returns the ordered approver account ids for a new request. The
// directory is expected to be scoped to the same transaction as the
// request insert so the chain matches the org snapshot being committed.
func (b *ChainBuilder) Build(ctx context.Context, dir directory.Directory, typ approval.Type, requesterID string) ([]string, error) {
	requester, err := dir.GetEmployeeByAccount(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("resolve requester employee: %w", err)
	}
	if requester == nil {
		return nil, fmt.Errorf("%w: requester %s has no employee record", ErrChainBuild, requesterID)
	}

	colleagues, err := dir.ListEmployeesByDepartment(ctx, requester.Department)
	if err != nil {
		return nil, fmt.Errorf("list department %s: %w", requester.Department, err)
	}

	superiors := make([]directory.Employee, 0, len(colleagues))
	for _, e := range colleagues {
		if e.RoleLevel <= requester.RoleLevel {
			continue
		}
		if e.AccountID == "" || e.AccountID == requesterID {
			continue
		}
		superiors = append(superiors, e)
	}
	sort.Slice(superiors, func(i, j int) bool {
		if superiors[i].RoleLevel != superiors[j].RoleLevel {
			return superiors[i].RoleLevel < superiors[j].RoleLevel
		}
		return superiors[i].AccountID < superiors[j].AccountID
	})

	chain := make([]string, 0, len(superiors)+2)
	seen := make(map[string]struct{}, len(superiors)+2)
	appendApprover := func(accountID string) {
		if accountID == "" || accountID == requesterID {
			return
		}
		if _, dup := seen[accountID]; dup {
			return
		}
		seen[accountID] = struct{}{}
		chain = append(chain, accountID)
	}

	for _, e := range superiors {
		appendApprover(e.AccountID)
	}

	if typ == approval.TypeExpense && requester.Department != directory.DepartmentHR {
		reviewer, err := b.hrReviewer(ctx, dir)
		if err != nil {
			return nil, err
		}
		appendApprover(reviewer)
	}

	admin, err := dir.FindHighestAuthorityAccount(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve administrator account: %w", err)
	}
	appendApprover(admin)

	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: no eligible approvers for requester %s", ErrChainBuild, requesterID)
	}
	return chain, nil
}

// hrReviewer picks the highest-level HR employee with a linked account,
// breaking level ties by ascending account id. Returns "" when HR has
// no eligible member.
func (b *ChainBuilder) hrReviewer(ctx context.Context, dir directory.Directory) (string, error) {
	members, err := dir.ListEmployeesByDepartment(ctx, directory.DepartmentHR)
	if err != nil {
		return "", fmt.Errorf("list department %s: %w", directory.DepartmentHR, err)
	}

	var best *directory.Employee
	for i := range members {
		e := &members[i]
		if e.AccountID == "" {
			continue
		}
		if best == nil ||
			e.RoleLevel > best.RoleLevel ||
			(e.RoleLevel == best.RoleLevel && e.AccountID < best.AccountID) {
			best = e
		}
	}
	if best == nil {
		return "", nil
	}
	return best.AccountID, nil
}
