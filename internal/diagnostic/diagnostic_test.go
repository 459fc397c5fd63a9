package diagnostic

import (
	"strings"
	"sync"
	"testing"
)

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{
		Severity: SeverityWarning,
		Category: CategoryOverrideUnmatched,
		Subject:  "N.B.Foo",
		Message:  "no overridable member in the base chain",
		Hint:     "check the base type descriptor",
	}

	got := d.String()
	for _, want := range []string{"N.B.Foo - ", "warning: ", "[override-unmatched] ", "\n  hint: check"} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, should contain %q", got, want)
		}
	}
}

func TestCollector(t *testing.T) {
	c := NewCollector(false)
	c.Warn(CategoryOverrideUnmatched, "N.B.Foo", "no match")
	c.Info(CategoryInheritanceConflict, "N.C", "IA and IB both declare Bar")
	c.Warnf(CategoryExternalAncestor, "N.A", "base %s not analyzed", "System.Object")

	if got := len(c.Diagnostics()); got != 3 {
		t.Fatalf("len(Diagnostics()) = %d, want 3", got)
	}
	if got := c.WarningCount(); got != 2 {
		t.Errorf("WarningCount() = %d, want 2", got)
	}
	if got := c.Count(CategoryInheritanceConflict); got != 1 {
		t.Errorf("Count(conflict) = %d, want 1", got)
	}

	diags := c.Diagnostics()
	if diags[0].Subject != "N.A" || diags[2].Subject != "N.C" {
		t.Errorf("Diagnostics() not ordered by subject: %v", diags)
	}
}

func TestCollectorQuietDropsInfo(t *testing.T) {
	c := NewCollector(true)
	c.Info(CategoryInheritanceConflict, "N.C", "ignored")
	c.Warn(CategoryOverrideUnmatched, "N.C.M", "kept")

	if got := len(c.Diagnostics()); got != 1 {
		t.Errorf("quiet collector kept %d diagnostics, want 1", got)
	}
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.Warn(CategoryOverrideUnmatched, "x", "y")
	if c.Diagnostics() != nil || c.WarningCount() != 0 {
		t.Error("nil collector should be inert")
	}
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector(false)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Warn(CategoryOverrideUnmatched, "N.T", "m")
		}()
	}
	wg.Wait()

	if got := c.WarningCount(); got != 50 {
		t.Errorf("WarningCount() = %d, want 50", got)
	}
}
