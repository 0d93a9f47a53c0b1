package engine

import (
	"math"
	"sync"
	"testing"

	"github.com/sauronlib/sauron/internal/bitmap"
	"github.com/sauronlib/sauron/internal/directory"
	"github.com/sauronlib/sauron/pkg/logger"
	"github.com/sauronlib/sauron/pkg/options"
)

func newTestEngine() *Engine {
	opts := options.NewDefaultOptions()
	return New(directory.New(opts), bitmap.New(false), logger.Noop())
}

func TestGetAbsentIsZero(t *testing.T) {
	e := newTestEngine()
	if got := e.Get(0xC0A80101); got != 0 {
		t.Fatalf("Get on absent key = %d, want 0", got)
	}
}

func TestGetExDistinguishesAbsent(t *testing.T) {
	e := newTestEngine()
	if _, ok := e.GetEx(0xC0A80101); ok {
		t.Fatal("GetEx reported found for an absent key")
	}

	e.Set(0xC0A80101, 5)
	if s, ok := e.GetEx(0xC0A80101); !ok || s != 5 {
		t.Fatalf("GetEx = (%d, %v), want (5, true)", s, ok)
	}

	e.Set(0xC0A80101, 0)
	if _, ok := e.GetEx(0xC0A80101); ok {
		t.Fatal("GetEx reported found for a stored-zero key")
	}
}

func TestSetReturnsPrevious(t *testing.T) {
	e := newTestEngine()
	if prev := e.Set(0xC0A80101, 50); prev != 0 {
		t.Fatalf("first Set returned %d, want 0", prev)
	}
	if prev := e.Set(0xC0A80101, 70); prev != 50 {
		t.Fatalf("second Set returned %d, want 50", prev)
	}
}

func TestScenarioABasic(t *testing.T) {
	e := newTestEngine()
	ip := uint32(0xC0A80164) // 192.168.1.100

	if got := e.Set(ip, 50); got != 0 {
		t.Fatalf("Set = %d, want 0", got)
	}
	if got := e.Increment(ip, 10); got != 60 {
		t.Fatalf("Increment = %d, want 60", got)
	}
	if got := e.Decrement(ip, 20); got != 40 {
		t.Fatalf("Decrement = %d, want 40", got)
	}
	e.Delete(ip)
	if got := e.Get(ip); got != 0 {
		t.Fatalf("Get after Delete = %d, want 0", got)
	}
	if got := e.ScoreCount(); got != 0 {
		t.Fatalf("ScoreCount after Delete = %d, want 0", got)
	}
}

func TestScenarioBSaturation(t *testing.T) {
	e := newTestEngine()

	e.Set(0x0A000001, 32760)
	if got := e.Increment(0x0A000001, 100); got != 32767 {
		t.Fatalf("Increment = %d, want 32767", got)
	}

	e.Set(0x0A000002, -32760)
	if got := e.Increment(0x0A000002, -100); got != -32767 {
		t.Fatalf("Increment = %d, want -32767", got)
	}
}

func TestDecrementMinInt16Edge(t *testing.T) {
	e := newTestEngine()
	ip := uint32(0x0A000003)
	e.Set(ip, 0)
	if got := e.Decrement(ip, math.MinInt16); got != 32767 {
		t.Fatalf("Decrement(MinInt16) = %d, want 32767", got)
	}
}

func TestIncrementDeltaZeroIsPureRead(t *testing.T) {
	e := newTestEngine()
	if got := e.Increment(0xC0A80101, 0); got != 0 {
		t.Fatalf("Increment(0) on absent key = %d, want 0", got)
	}
}

func TestIncrementThenDecrementRoundTrips(t *testing.T) {
	e := newTestEngine()
	ip := uint32(0x0A000004)
	e.Set(ip, 100)
	e.Increment(ip, 25)
	got := e.Increment(ip, -25)
	if got != 100 {
		t.Fatalf("round trip increment = %d, want 100", got)
	}
}

func TestDeleteAbsentSucceeds(t *testing.T) {
	e := newTestEngine()
	if !e.Delete(0x0A0000FF) {
		t.Fatal("Delete on an absent key should report success")
	}
}

func TestBatchIncrement(t *testing.T) {
	e := newTestEngine()
	ips := []uint32{0x0A000001, 0x0A000002, 0x0A000003}
	deltas := []int16{10, 20, 30}

	n := e.BatchIncrement(ips, deltas)
	if n != 3 {
		t.Fatalf("BatchIncrement applied %d, want 3", n)
	}
	if e.Get(0x0A000001) != 10 || e.Get(0x0A000002) != 20 || e.Get(0x0A000003) != 30 {
		t.Fatal("BatchIncrement did not apply all deltas")
	}
}

func TestBatchIncrementMismatchedLengths(t *testing.T) {
	e := newTestEngine()
	ips := []uint32{0x0A000001, 0x0A000002, 0x0A000003}
	deltas := []int16{10}

	n := e.BatchIncrement(ips, deltas)
	if n != 1 {
		t.Fatalf("BatchIncrement applied %d, want 1", n)
	}
}

func TestClearZeroesEverything(t *testing.T) {
	e := newTestEngine()
	e.Set(0xC0A80101, 10)
	e.Set(0xC0A80102, 20)
	e.Set(0x0A000001, 30)

	e.Clear()

	if e.ScoreCount() != 0 {
		t.Fatalf("ScoreCount after Clear = %d, want 0", e.ScoreCount())
	}
	if e.Get(0xC0A80101) != 0 || e.Get(0xC0A80102) != 0 || e.Get(0x0A000001) != 0 {
		t.Fatal("Clear left a non-zero score behind")
	}
	if e.bm.Test(0xC0A801) || e.bm.Test(0x0A0000) {
		t.Fatal("Clear left a bitmap bit set")
	}
}

func TestForeachOrderAndCount(t *testing.T) {
	e := newTestEngine()
	e.Set(0x0A000003, 3)
	e.Set(0x0A000001, 1)
	e.Set(0x0A000002, 2)

	var seen []uint32
	count := e.Foreach(func(ip uint32, score int16) bool {
		seen = append(seen, ip)
		return false
	})

	if count != 3 {
		t.Fatalf("Foreach count = %d, want 3", count)
	}
	want := []uint32{0x0A000001, 0x0A000002, 0x0A000003}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("Foreach order[%d] = %#x, want %#x", i, seen[i], want[i])
		}
	}
}

func TestForeachStopsEarly(t *testing.T) {
	e := newTestEngine()
	e.Set(0x0A000001, 1)
	e.Set(0x0A000002, 2)
	e.Set(0x0A000003, 3)

	count := e.Foreach(func(ip uint32, score int16) bool {
		return true
	})
	if count != 1 {
		t.Fatalf("Foreach with immediate stop = %d, want 1", count)
	}
}

func TestConcurrentIncrementSaturates(t *testing.T) {
	e := newTestEngine()
	ip := uint32(0x0A0000AA)

	const goroutines = 50
	const perGoroutine = 1000

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				e.Increment(ip, 1)
			}
		}()
	}
	wg.Wait()

	want := int16(scoreMax)
	if total := goroutines * perGoroutine; total < int(scoreMax) {
		want = int16(total)
	}
	if got := e.Get(ip); got != want {
		t.Fatalf("Get after concurrent increments = %d, want %d", got, want)
	}
}
