package queue

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/kavanlabs/primewatch/internal/types"
)

func task(id uint64) *types.CheckTask {
	return types.NewPrpTask(id, big.NewInt(1), 300)
}

func TestSendRecvRoundTrip(t *testing.T) {
	q := New(4)
	ctx := context.Background()
	if err := q.Send(ctx, task(1)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, err := q.Recv(ctx)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if got.ID != 1 {
		t.Errorf("got task %d, want 1", got.ID)
	}
}

func TestTrySendFailsWhenFull(t *testing.T) {
	q := New(1)
	if !q.TrySend(task(1)) {
		t.Fatal("expected first TrySend to succeed")
	}
	if q.TrySend(task(2)) {
		t.Fatal("expected second TrySend to fail on a full queue")
	}
}

func TestTryRecvEmpty(t *testing.T) {
	q := New(1)
	if _, ok := q.TryRecv(); ok {
		t.Fatal("expected TryRecv to fail on an empty queue")
	}
}

func TestDrainNonBlockingMovesOneTask(t *testing.T) {
	src, dst := New(4), New(4)
	src.TrySend(task(1))

	if !DrainNonBlocking(src, dst) {
		t.Fatal("expected DrainNonBlocking to move a task")
	}
	if got, ok := dst.TryRecv(); !ok || got.ID != 1 {
		t.Fatalf("dst did not receive the moved task: got=%v ok=%v", got, ok)
	}
}

func TestDrainNonBlockingNoopWhenDstFull(t *testing.T) {
	src, dst := New(4), New(1)
	dst.TrySend(task(99))
	src.TrySend(task(1))

	if DrainNonBlocking(src, dst) {
		t.Fatal("expected DrainNonBlocking to report no move when dst is full")
	}
	if _, ok := src.TryRecv(); !ok {
		t.Fatal("task should have been put back into src")
	}
}

func TestDrainBlockingMovesEverything(t *testing.T) {
	src, dst := New(4), New(4)
	src.TrySend(task(1))
	src.TrySend(task(2))
	src.TrySend(task(3))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := DrainBlocking(ctx, src, dst); err != nil {
		t.Fatalf("DrainBlocking: %v", err)
	}
	if dst.Len() != 3 {
		t.Errorf("dst.Len() = %d, want 3", dst.Len())
	}
	if src.Len() != 0 {
		t.Errorf("src.Len() = %d, want 0", src.Len())
	}
}

func TestReserveSlotsUnblocksOnceFreed(t *testing.T) {
	q := New(2)
	q.TrySend(task(1))
	q.TrySend(task(2))

	done := make(chan error, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go func() { done <- q.ReserveSlots(ctx, 1) }()

	time.Sleep(10 * time.Millisecond)
	q.TryRecv() // frees one slot

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ReserveSlots: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("ReserveSlots did not unblock after a slot freed")
	}
}
