package testutil

import (
	"testing"

	"github.com/dalemusser/waffle/pantry/storage"
)

// SetupTestStorage returns a local blob store rooted in a per-test temp
// directory. The directory is removed by the testing package on cleanup.
func SetupTestStorage(t *testing.T) storage.Store {
	t.Helper()

	store, err := storage.NewLocal(storage.LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "/files",
	})
	if err != nil {
		t.Fatalf("failed to create local test storage: %v", err)
	}
	return store
}
