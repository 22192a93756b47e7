package pidfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"wcagscan/internal/pidfile"
)

func TestReadAbsentFile(t *testing.T) {
	record := pidfile.New(filepath.Join(t.TempDir(), "server.pid"))
	pid, known, err := record.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if known || pid != 0 {
		t.Fatalf("absent file should report not known, got pid=%d known=%v", pid, known)
	}
}

func TestWriteReadRemove(t *testing.T) {
	record := pidfile.New(filepath.Join(t.TempDir(), "nested", "server.pid"))
	if err := record.Write(4242); err != nil {
		t.Fatalf("Write: %v", err)
	}
	pid, known, err := record.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !known || pid != 4242 {
		t.Fatalf("expected pid 4242, got pid=%d known=%v", pid, known)
	}
	if err := record.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := record.Remove(); err != nil {
		t.Fatalf("Remove on absent file should succeed: %v", err)
	}
}

func TestMalformedFileIsSelfHealing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.pid")
	if err := os.WriteFile(path, []byte("not-a-pid\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	record := pidfile.New(path)
	_, known, err := record.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if known {
		t.Fatal("malformed file should report not known")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("malformed file should have been removed")
	}
}

func TestResolveClearsStaleRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.pid")
	record := pidfile.New(path)

	// Spawn and reap a child so its pid is guaranteed dead.
	proc, err := os.StartProcess("/bin/true", []string{"true"}, &os.ProcAttr{})
	if err != nil {
		t.Skipf("cannot spawn probe process: %v", err)
	}
	state, err := proc.Wait()
	if err != nil || !state.Exited() {
		t.Fatalf("probe process did not exit cleanly: %v", err)
	}
	if err := record.Write(proc.Pid); err != nil {
		t.Fatalf("Write: %v", err)
	}

	_, known, err := record.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if known {
		t.Fatal("dead pid should resolve to not known")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("stale record should have been removed")
	}
}

func TestResolveKeepsLiveRecord(t *testing.T) {
	record := pidfile.New(filepath.Join(t.TempDir(), "server.pid"))
	self := os.Getpid()
	if err := record.Write(self); err != nil {
		t.Fatalf("Write: %v", err)
	}
	pid, known, err := record.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !known || pid != self {
		t.Fatalf("expected live pid %d, got pid=%d known=%v", self, pid, known)
	}
}
