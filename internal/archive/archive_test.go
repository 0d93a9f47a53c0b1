package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sauronlib/sauron/internal/bitmap"
	"github.com/sauronlib/sauron/internal/directory"
	"github.com/sauronlib/sauron/internal/engine"
	"github.com/sauronlib/sauron/pkg/errors"
	"github.com/sauronlib/sauron/pkg/ipaddr"
	"github.com/sauronlib/sauron/pkg/logger"
	"github.com/sauronlib/sauron/pkg/options"
)

func newTestEngine() *engine.Engine {
	opts := options.NewDefaultOptions()
	return engine.New(directory.New(opts), bitmap.New(false), logger.Noop())
}

func TestScenarioEPersistence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.sau")

	src := newTestEngine()
	ip1, _ := ipaddr.ParseV4("192.168.10.1")
	ip2, _ := ipaddr.ParseV4("192.168.10.2")
	ip3, _ := ipaddr.ParseV4("10.20.30.40")
	src.Set(ip1, 100)
	src.Set(ip2, -200)
	src.Set(ip3, 500)

	if err := Save(src, path, 0); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if len(raw) != headerSize+3*entrySize {
		t.Fatalf("archive length = %d, want %d", len(raw), headerSize+3*entrySize)
	}
	if string(raw[0:4]) != "SAUR" {
		t.Fatalf("magic = %q, want SAUR", raw[0:4])
	}
	if raw[4] != 1 || raw[5] != 0 || raw[6] != 0 || raw[7] != 0 {
		t.Fatalf("version bytes = %v, want [1 0 0 0]", raw[4:8])
	}
	if raw[8] != 3 {
		t.Fatalf("entry count low byte = %d, want 3", raw[8])
	}

	dst := newTestEngine()
	if err := Load(dst, path, 0); err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if dst.Get(ip1) != 100 || dst.Get(ip2) != -200 || dst.Get(ip3) != 500 {
		t.Fatal("loaded scores don't match saved scores")
	}
	if dst.ScoreCount() != 3 {
		t.Fatalf("ScoreCount = %d, want 3", dst.ScoreCount())
	}
}

func TestZeroScoresNeverWritten(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.sau")

	src := newTestEngine()
	ip, _ := ipaddr.ParseV4("1.2.3.4")
	src.Set(ip, 10)
	src.Set(ip, 0) // store-to-zero; active count back to 0

	if err := Save(src, path, 0); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if len(raw) != headerSize {
		t.Fatalf("archive length = %d, want header-only %d", len(raw), headerSize)
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.sau")
	os.WriteFile(path, []byte("XXXX\x01\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"), 0o644)

	e := newTestEngine()
	err := Load(e, path, 0)
	if err == nil {
		t.Fatal("expected an error for a bad magic")
	}
	if !errors.IsArchiveError(err) {
		t.Fatal("expected an ArchiveError")
	}
}

func TestLoadRejectsVersionZero(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "v0.sau")
	os.WriteFile(path, []byte("SAUR\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"), 0o644)

	e := newTestEngine()
	if err := Load(e, path, 0); err == nil {
		t.Fatal("expected an error for version 0")
	}
}

func TestLoadRejectsFutureVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vhigh.sau")
	os.WriteFile(path, []byte("SAUR\x02\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"), 0o644)

	e := newTestEngine()
	if err := Load(e, path, 0); err == nil {
		t.Fatal("expected an error for an unsupported future version")
	}
}

func TestLoadRejectsTruncatedEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trunc.sau")
	// header claims 1 entry but none follow.
	os.WriteFile(path, []byte("SAUR\x01\x00\x00\x00\x01\x00\x00\x00\x00\x00\x00\x00"), 0o644)

	e := newTestEngine()
	if err := Load(e, path, 0); err == nil {
		t.Fatal("expected an error for a truncated entry")
	}
}

func TestLoadClearsExistingStoreFirst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.sau")

	src := newTestEngine()
	ip, _ := ipaddr.ParseV4("5.6.7.8")
	src.Set(ip, 9)
	if err := Save(src, path, 0); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	dst := newTestEngine()
	staleIP, _ := ipaddr.ParseV4("9.9.9.9")
	dst.Set(staleIP, 123)

	if err := Load(dst, path, 0); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if dst.Get(staleIP) != 0 {
		t.Fatal("Load did not clear the pre-existing store")
	}
	if dst.Get(ip) != 9 {
		t.Fatalf("Get = %d, want 9", dst.Get(ip))
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.sau")

	e := newTestEngine()
	err := Load(e, path, 0)
	if err == nil {
		t.Fatal("expected an error for a missing archive file")
	}
	if !errors.IsArchiveError(err) {
		t.Fatal("expected an ArchiveError")
	}
}

func TestSaveCreatesMissingParentDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "archive.sau")

	src := newTestEngine()
	ip, _ := ipaddr.ParseV4("1.1.1.1")
	src.Set(ip, 42)

	if err := Save(src, path, 0); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	dst := newTestEngine()
	if err := Load(dst, path, 0); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if dst.Get(ip) != 42 {
		t.Fatalf("Get = %d, want 42", dst.Get(ip))
	}
}

func TestSaveLeavesNoTempFileOnSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.sau")

	src := newTestEngine()
	if err := Save(src, path, 0); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("directory has %d entries after Save, want 1", len(entries))
	}
}
