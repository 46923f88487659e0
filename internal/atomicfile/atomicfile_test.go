package atomicfile

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestWriteCreatesDirectoryAndMode(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	path := filepath.Join(dir, "users")

	if err := Write(path, []byte("hello\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "hello\n" {
		t.Fatalf("unexpected content %q", got)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected mode 0600, got %v", info.Mode().Perm())
	}
	assertNoTempFiles(t, dir)
}

func TestWriteFailureLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	// A directory at the target path makes the rename fail.
	target := filepath.Join(dir, "hosts")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(target, "keep"), nil, 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := Write(target, []byte("x"), 0o644); err == nil {
		t.Fatalf("expected rename over non-empty directory to fail")
	}
	assertNoTempFiles(t, dir)
}

func TestConcurrentReadersSeeWholeFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host_groups")
	old := bytes.Repeat([]byte("a"), 64<<10)
	next := bytes.Repeat([]byte("b"), 96<<10)
	if err := Write(path, old, 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan string, 8)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				data, err := os.ReadFile(path)
				if err != nil {
					errs <- err.Error()
					return
				}
				if !bytes.Equal(data, old) && !bytes.Equal(data, next) {
					errs <- "observed partial content"
					return
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		content := next
		if i%2 == 1 {
			content = old
		}
		if err := Write(path, content, 0o644); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	close(stop)
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Fatalf("reader: %s", msg)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("temp files left behind: %v", matches)
	}
}
