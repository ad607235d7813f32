package generate

import (
	"os"
	"path/filepath"
	"testing"
)

// compareGolden checks got against a golden file. UPDATE_GOLDEN=1 rewrites
// the file from got; otherwise a missing golden file fails the test.
func compareGolden(t *testing.T, path, got string) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDEN") == "1" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(got), 0o644); err != nil {
			t.Fatalf("write golden file: %v", err)
		}
		t.Logf("wrote golden file: %s", path)
		return
	}

	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Fatalf("golden file %s is missing (run with UPDATE_GOLDEN=1 to create it)", path)
	}
	if err != nil {
		t.Fatalf("read golden file: %v", err)
	}
	assertText(t, string(want), got)
}
