package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestInitialSnapshot(t *testing.T) {
	c := New()
	s := c.Read()
	if s.Reachable || s.MetricsText != "" || s.LastError != "" {
		t.Fatalf("unexpected initial snapshot: %+v", s)
	}
}

func TestWriteReplacesAllFields(t *testing.T) {
	c := New()
	c.Write(Snapshot{MetricsText: "a 1\n", Reachable: true})
	c.Write(Snapshot{MetricsText: "b 2\n", Reachable: false, LastError: "HTTP 500"})
	got := c.Read()
	want := Snapshot{MetricsText: "b 2\n", Reachable: false, LastError: "HTTP 500"}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestUpdateKeepsText(t *testing.T) {
	c := New()
	c.Write(Snapshot{MetricsText: "a 1\n", Reachable: true})
	c.Update(func(s Snapshot) Snapshot {
		s.Reachable = false
		s.LastError = "HTTP 503"
		return s
	})
	got := c.Read()
	if got.MetricsText != "a 1\n" || got.Reachable || got.LastError != "HTTP 503" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}

// Readers must only ever observe snapshots that some writer stored whole.
func TestConcurrentReadWrite(t *testing.T) {
	c := New()
	c.Write(Snapshot{LastError: "Connection failed: not yet fetched"})
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				if i%2 == 0 {
					c.Write(Snapshot{MetricsText: fmt.Sprintf("m %d", w), Reachable: true})
				} else {
					c.Update(func(s Snapshot) Snapshot {
						return Snapshot{MetricsText: s.MetricsText, LastError: "HTTP 502"}
					})
				}
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				s := c.Read()
				if s.Reachable != (s.LastError == "") {
					t.Errorf("torn snapshot: %+v", s)
					return
				}
			}
		}()
	}
	wg.Wait()
}
