package testsupport

import (
	"testing"

	"stitchcast/internal/config"
	"stitchcast/internal/journal"
)

// MustOpenJournal opens the journal for tests and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Journal {
	t.Helper()

	j, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = j.Close()
	})
	return j
}
