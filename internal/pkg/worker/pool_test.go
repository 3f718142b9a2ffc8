package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"signoff.io/signoff/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

func TestNewPools(t *testing.T) {
	pools, err := NewPools(context.Background(), DefaultPoolConfig())
	if err != nil {
		t.Fatalf("NewPools() error = %v", err)
	}
	defer pools.Shutdown()

	if pools.General == nil {
		t.Error("General pool is nil")
	}
	if pools.Audit == nil {
		t.Error("Audit pool is nil")
	}
}

func TestPool_Submit(t *testing.T) {
	pools, err := NewPools(context.Background(), PoolConfig{GeneralPoolSize: 10, AuditPoolSize: 2})
	if err != nil {
		t.Fatalf("NewPools() error = %v", err)
	}
	defer pools.Shutdown()

	var executed atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)

	err = pools.General.Submit(context.Background(), func(ctx context.Context) {
		executed.Store(true)
		wg.Done()
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	wg.Wait()
	if !executed.Load() {
		t.Error("task was not executed")
	}
}

func TestPool_SubmitCancelledContext(t *testing.T) {
	pools, err := NewPools(context.Background(), PoolConfig{GeneralPoolSize: 2, AuditPoolSize: 2})
	if err != nil {
		t.Fatalf("NewPools() error = %v", err)
	}
	defer pools.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = pools.General.Submit(ctx, func(ctx context.Context) {
		t.Error("task must not run with a cancelled context")
	})
	if err == nil {
		t.Fatal("Submit() with cancelled context should return an error")
	}
}

func TestPools_SubmitDetached(t *testing.T) {
	pools, err := NewPools(context.Background(), PoolConfig{GeneralPoolSize: 2, AuditPoolSize: 2})
	if err != nil {
		t.Fatalf("NewPools() error = %v", err)
	}
	defer pools.Shutdown()

	done := make(chan struct{})
	err = pools.SubmitDetached("audit", func(ctx context.Context) {
		close(done)
	})
	if err != nil {
		t.Fatalf("SubmitDetached() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("detached task did not run")
	}
}
