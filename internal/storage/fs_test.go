package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func tempRoot(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempRoot(t)
	content := []byte(`{"font_size": 16}`)
	if err := s.Write("styleConfig.json", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("styleConfig.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesParentDir(t *testing.T) {
	s := tempRoot(t)
	if err := s.Write("config/cellsConfig.json", []byte("{}")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("config/cellsConfig.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "{}" {
		t.Errorf("content = %q", got)
	}
}

func TestWriteFromCopiesBytes(t *testing.T) {
	s := tempRoot(t)
	payload := strings.Repeat("\x89PNG\r\n", 1000)
	if err := s.WriteFrom("images/photo.png", strings.NewReader(payload)); err != nil {
		t.Fatalf("WriteFrom: %v", err)
	}
	got, err := s.Read("images/photo.png")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != payload {
		t.Errorf("copied %d bytes, want %d", len(got), len(payload))
	}
}

func TestReadMissingIsNotExist(t *testing.T) {
	s := tempRoot(t)
	_, err := s.Read("config/none.json")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestExists(t *testing.T) {
	s := tempRoot(t)
	ok, err := s.Exists("images/a.png")
	if err != nil || ok {
		t.Fatalf("Exists before write = %v, %v", ok, err)
	}
	_ = s.Write("images/a.png", []byte("a"))
	ok, err = s.Exists("images/a.png")
	if err != nil || !ok {
		t.Errorf("Exists after write = %v, %v", ok, err)
	}
}

func TestDelete(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("images/del.png", []byte("bye"))
	if err := s.Delete("images/del.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("images/del.png"); err == nil {
		t.Error("expected error reading deleted file")
	}
	if err := s.Delete("images/del.png"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("second delete err = %v, want os.ErrNotExist", err)
	}
}

func TestList(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("images/b.png", []byte("b"))
	_ = s.Write("images/a.jpg", []byte("aa"))
	_ = s.Write("images/nested/c.png", []byte("c"))
	_ = os.WriteFile(filepath.Join(s.root, "images", TempPrefix+"123"), []byte("x"), 0o644)

	items, err := s.List("images")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(items), items)
	}
	if items[0].Name != "a.jpg" || items[1].Name != "b.png" {
		t.Errorf("names = %s, %s", items[0].Name, items[1].Name)
	}
	if items[0].Size != 2 {
		t.Errorf("size = %d, want 2", items[0].Size)
	}
}

func TestListMissingDir(t *testing.T) {
	s := tempRoot(t)
	items, err := s.List("images")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len = %d, want 0", len(items))
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempRoot(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.json",
		"/etc/shadow",
		"images/../../escape.png",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
		if err := s.Delete(p); err == nil {
			t.Errorf("expected error for delete of %q", p)
		}
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("config/atomic.json", []byte(`{"v":1}`))

	updated := []byte(`{"v":2}`)
	if err := s.Write("config/atomic.json", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("config/atomic.json")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, "config", TempPrefix+"*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestLockSerialisesSamePath(t *testing.T) {
	s := tempRoot(t)

	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := s.Lock("config/./counter.json")
			v := counter
			v++
			counter = v
			unlock()
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
}

func TestLockIndependentPaths(t *testing.T) {
	s := tempRoot(t)
	unlockA := s.Lock("config/a.json")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := s.Lock("config/b.json")
		unlock()
		close(done)
	}()
	<-done
}

func (f *FS) lockCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.locks)
}

func TestLockEntriesReleased(t *testing.T) {
	s := tempRoot(t)

	for i := 0; i < 100; i++ {
		unlock := s.Lock(filepath.Join("config", strings.Repeat("x", i+1)+".json"))
		unlock()
	}
	if n := s.lockCount(); n != 0 {
		t.Errorf("lock entries after release = %d, want 0", n)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := s.Lock("config/shared.json")
			unlock()
		}()
	}
	wg.Wait()
	if n := s.lockCount(); n != 0 {
		t.Errorf("lock entries after contention = %d, want 0", n)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "marquee-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
