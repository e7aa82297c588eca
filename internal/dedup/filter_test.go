package dedup

import (
	"math/big"
	"testing"
	"time"

	"github.com/kavanlabs/primewatch/internal/types"
)

func fp(id uint64) types.Fingerprint {
	task := types.NewPrpTask(id, big.NewInt(int64(id+1)), 300)
	return task.Fingerprint()
}

func TestInsertThenQueryFindsFingerprint(t *testing.T) {
	f := New(2500, 1e-3, time.Hour)
	key := fp(42)

	present, err := f.Query(key)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if present {
		t.Fatal("fresh filter should not contain anything")
	}

	f.Insert(key)
	present, err = f.Query(key)
	if err != nil {
		t.Fatalf("Query after insert: %v", err)
	}
	if !present {
		t.Fatal("expected fingerprint to be present after Insert")
	}
}

func TestQueryDistinguishesDistinctFingerprints(t *testing.T) {
	f := New(2500, 1e-3, time.Hour)
	f.Insert(fp(1))

	present, err := f.Query(fp(2))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if present {
		t.Fatal("unrelated fingerprint should (almost certainly) not be reported present")
	}
}

func TestLevelRotationExpiresOldEntries(t *testing.T) {
	f := New(2500, 1e-3, 10*time.Millisecond)
	key := fp(7)
	f.Insert(key)

	// Force every level to rotate out by waiting past maxLevels * levelDuration.
	time.Sleep(time.Duration(maxLevels+1) * 15 * time.Millisecond)

	present, err := f.Query(key)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if present {
		t.Fatal("fingerprint should have expired after all levels rotated past it")
	}
}

func TestSaturatedLevelReturnsError(t *testing.T) {
	f := New(4, 1e-3, time.Hour)
	for i := uint64(0); i < 20; i++ {
		f.Insert(fp(i))
	}
	_, err := f.Query(fp(9999))
	if err != ErrFilterFull {
		t.Fatalf("expected ErrFilterFull once a level is saturated, got %v", err)
	}
}
