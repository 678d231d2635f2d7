package clipboard

import (
	"sync"
	"testing"
)

func TestNewMem(t *testing.T) {
	c := NewMem()
	for _, text := range []string{"", "Hello, World!", "Hello, 世界"} {
		if err := c.Store(text); err != nil {
			t.Fatalf("Store(%q)=%v", text, err)
		}
		if got, err := c.Fetch(); err != nil || got != text {
			t.Errorf("Fetch()=%q,%v want %q,nil", got, err, text)
		}
	}
}

func TestMemConcurrent(t *testing.T) {
	c := NewMem()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Store("x")
			c.Fetch()
		}()
	}
	wg.Wait()
	if got, _ := c.Fetch(); got != "x" {
		t.Errorf("Fetch()=%q, want \"x\"", got)
	}
}
