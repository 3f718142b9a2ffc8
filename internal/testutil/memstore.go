// Package testutil provides in-memory fakes for tests that must run
// without PostgreSQL.
package testutil

import (
	"context"
	"sort"
	"sync"

	"signoff.io/signoff/internal/directory"
	"signoff.io/signoff/internal/domain/approval"
	"signoff.io/signoff/internal/jobs"
	"signoff.io/signoff/internal/repository"
)

// MemDirectory is an in-memory org chart.
type MemDirectory struct {
	Employees []directory.Employee
	AdminID   string
}

var _ directory.Directory = (*MemDirectory)(nil)

// Add appends an employee with a linked account.
func (d *MemDirectory) Add(accountID, department string, level int) {
	d.Employees = append(d.Employees, directory.Employee{
		ID:         int64(len(d.Employees) + 1),
		IDNo:       "E-" + accountID,
		Department: department,
		RoleName:   "role",
		RoleLevel:  level,
		AccountID:  accountID,
	})
}

func (d *MemDirectory) GetEmployeeByAccount(_ context.Context, accountID string) (*directory.Employee, error) {
	for i := range d.Employees {
		if d.Employees[i].AccountID == accountID {
			e := d.Employees[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (d *MemDirectory) ListEmployeesByDepartment(_ context.Context, department string) ([]directory.Employee, error) {
	var out []directory.Employee
	for _, e := range d.Employees {
		if e.Department == department {
			out = append(out, e)
		}
	}
	return out, nil
}

func (d *MemDirectory) FindHighestAuthorityAccount(_ context.Context) (string, error) {
	return d.AdminID, nil
}

// MemStore is an in-memory repository.Store. Notices enqueued in a
// failed transaction are discarded like the real implementation would
// roll them back.
type MemStore struct {
	mu       sync.Mutex
	Requests map[string]*approval.Request
	Dir      *MemDirectory
	Notices  []jobs.DecisionNoticeArgs

	// InsertErr, when set, makes InsertRequest fail.
	InsertErr error
	// UpdateErr, when set, makes UpdateRequest fail.
	UpdateErr error
}

var (
	_ repository.Store = (*MemStore)(nil)
	_ repository.Tx    = (*memTx)(nil)
)

// NewMemStore creates an empty store over the given directory.
func NewMemStore(dir *MemDirectory) *MemStore {
	if dir == nil {
		dir = &MemDirectory{}
	}
	return &MemStore{
		Requests: make(map[string]*approval.Request),
		Dir:      dir,
	}
}

func (s *MemStore) InTx(_ context.Context, fn func(tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	savedRequests := make(map[string]*approval.Request, len(s.Requests))
	for k, v := range s.Requests {
		savedRequests[k] = v
	}
	savedNotices := len(s.Notices)

	if err := fn(&memTx{store: s}); err != nil {
		s.Requests = savedRequests
		s.Notices = s.Notices[:savedNotices]
		return err
	}
	return nil
}

func (s *MemStore) GetRequest(_ context.Context, id string) (*approval.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Requests[id], nil
}

func (s *MemStore) ListByRequester(_ context.Context, requesterID string, status approval.Status, page, size int) ([]*approval.Request, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*approval.Request
	for _, r := range s.Requests {
		if r.RequesterID() != requesterID {
			continue
		}
		if status != "" && r.Status() != status {
			continue
		}
		matched = append(matched, r)
	}
	sortNewestFirst(matched)
	return paginate(matched, page, size), len(matched), nil
}

func (s *MemStore) ListPendingForApprover(_ context.Context, approverID string, page, size int) ([]*approval.Request, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*approval.Request
	for _, r := range s.Requests {
		if r.Status() != approval.StatusPending {
			continue
		}
		if step, ok := r.CurrentStep(); ok && step.ApproverID == approverID {
			matched = append(matched, r)
		}
	}
	sortNewestFirst(matched)
	return paginate(matched, page, size), len(matched), nil
}

type memTx struct {
	store *MemStore
}

func (t *memTx) Directory() directory.Directory {
	return t.store.Dir
}

func (t *memTx) GetRequestForUpdate(_ context.Context, id string) (*approval.Request, error) {
	return t.store.Requests[id], nil
}

func (t *memTx) InsertRequest(_ context.Context, req *approval.Request) error {
	if t.store.InsertErr != nil {
		return t.store.InsertErr
	}
	t.store.Requests[req.ID()] = req
	return nil
}

func (t *memTx) UpdateRequest(_ context.Context, req *approval.Request) error {
	if t.store.UpdateErr != nil {
		return t.store.UpdateErr
	}
	t.store.Requests[req.ID()] = req
	return nil
}

func (t *memTx) EnqueueNotice(_ context.Context, args jobs.DecisionNoticeArgs) error {
	t.store.Notices = append(t.store.Notices, args)
	return nil
}

func sortNewestFirst(reqs []*approval.Request) {
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].CreatedAt().Equal(reqs[j].CreatedAt()) {
			return reqs[i].ID() > reqs[j].ID()
		}
		return reqs[i].CreatedAt().After(reqs[j].CreatedAt())
	})
}

func paginate(reqs []*approval.Request, page, size int) []*approval.Request {
	start := (page - 1) * size
	if start >= len(reqs) {
		return nil
	}
	end := start + size
	if end > len(reqs) {
		end = len(reqs)
	}
	return reqs[start:end]
}
