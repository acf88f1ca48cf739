package dest

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func newTestChain(t *testing.T) (*Chain, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.chain")
	c, err := OpenChain(path)
	if err != nil {
		t.Fatalf("failed to open chain: %v", err)
	}
	return c, path
}

func TestChainSequentialWritesVerify(t *testing.T) {
	c, path := newTestChain(t)

	for i := 0; i < 5; i++ {
		if err := c.Write([]byte(`{"version":1,"eventcode":2}` + "\n")); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	c.Close()

	result := VerifyChain(path)
	if !result.Valid {
		t.Fatalf("expected valid chain, got error at line %d: %s", result.Line, result.Err)
	}
	if result.Records != 5 {
		t.Fatalf("expected 5 records, got %d", result.Records)
	}
}

func TestChainFirstEntryCarriesGenesis(t *testing.T) {
	c, path := newTestChain(t)
	rec := []byte(`{"version":1}` + "\n")
	if err := c.Write(rec); err != nil {
		t.Fatal(err)
	}
	c.Close()

	data, _ := os.ReadFile(path)
	var entry chainEntry
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("failed to parse entry: %v", err)
	}
	if entry.Seq != 1 {
		t.Fatalf("expected seq 1, got %d", entry.Seq)
	}
	if entry.Prev != GenesisHash {
		t.Fatalf("expected genesis hash %s, got %s", GenesisHash, entry.Prev)
	}
	if !bytes.Equal(entry.Record, rec) {
		t.Fatalf("expected record %q, got %q", rec, entry.Record)
	}
	if entry.Time == "" {
		t.Fatal("expected a timestamp")
	}
}

func TestChainVerifyDetectsTamperedEntry(t *testing.T) {
	c, path := newTestChain(t)

	for i := 0; i < 3; i++ {
		if err := c.Write([]byte(`{"version":1}` + "\n")); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	c.Close()

	// Tamper: shift the timestamp of line 2 into another century
	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	lines[1] = strings.Replace(lines[1], `"time":"2`, `"time":"3`, 1)
	os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644)

	result := VerifyChain(path)
	if result.Valid {
		t.Fatal("expected tampered chain to be invalid")
	}
	if result.Line != 3 {
		t.Fatalf("expected error at line 3, got line %d", result.Line)
	}
}

func TestChainVerifyDetectsDeletedEntry(t *testing.T) {
	c, path := newTestChain(t)

	for i := 0; i < 3; i++ {
		if err := c.Write([]byte(`{"version":1}` + "\n")); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	c.Close()

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	remaining := []string{lines[0], lines[2]}
	os.WriteFile(path, []byte(strings.Join(remaining, "\n")+"\n"), 0644)

	result := VerifyChain(path)
	if result.Valid {
		t.Fatal("expected chain with deleted entry to be invalid")
	}
	if result.Line != 2 {
		t.Fatalf("expected error at line 2, got line %d", result.Line)
	}
}

func TestChainEmptyFileVerifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.chain")
	os.WriteFile(path, []byte{}, 0644)

	result := VerifyChain(path)
	if !result.Valid {
		t.Fatalf("expected empty chain to be valid, got: %s", result.Err)
	}
	if result.Records != 0 {
		t.Fatalf("expected 0 records, got %d", result.Records)
	}
}

func TestChainContinuesAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.chain")

	c1, err := OpenChain(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		c1.Write([]byte(`{"version":1}` + "\n"))
	}
	c1.Close()

	c2, err := OpenChain(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		c2.Write([]byte(`{"version":1}` + "\n"))
	}
	c2.Close()

	result := VerifyChain(path)
	if !result.Valid {
		t.Fatalf("expected valid chain after reopen, got error at line %d: %s", result.Line, result.Err)
	}
	if result.Records != 5 {
		t.Fatalf("expected 5 records, got %d", result.Records)
	}
}

func TestChainReopenContinuesChain(t *testing.T) {
	c, path := newTestChain(t)
	c.Write([]byte(`{"version":1}` + "\n"))

	if err := c.Reopen(); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	c.Write([]byte(`{"version":1}` + "\n"))
	c.Close()

	result := VerifyChain(path)
	if !result.Valid {
		t.Fatalf("expected valid chain after reopen, got error at line %d: %s", result.Line, result.Err)
	}
	if result.Records != 2 {
		t.Fatalf("expected 2 records, got %d", result.Records)
	}
}

func TestChainConcurrentWritesSerialize(t *testing.T) {
	c, path := newTestChain(t)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Write([]byte(`{"version":1}` + "\n"))
		}()
	}
	wg.Wait()
	c.Close()

	result := VerifyChain(path)
	if !result.Valid {
		t.Fatalf("expected valid chain after concurrent writes, got error at line %d: %s", result.Line, result.Err)
	}
	if result.Records != 100 {
		t.Fatalf("expected 100 records, got %d", result.Records)
	}
}

func TestHashLineFormat(t *testing.T) {
	line := []byte(`{"seq":1,"time":"2026-01-15T10:30:00.000Z","prev":"sha256:abc","record":"e30="}`)
	h1 := HashLine(line)
	h2 := HashLine(line)
	if h1 != h2 {
		t.Fatalf("expected same hash, got %s and %s", h1, h2)
	}
	if !strings.HasPrefix(h1, "sha256:") {
		t.Fatalf("expected sha256: prefix, got %s", h1)
	}
	if len(h1) != 7+64 { // "sha256:" + 64 hex chars
		t.Fatalf("expected 71 char hash string, got %d", len(h1))
	}
	if HashLine([]byte("other")) == h1 {
		t.Fatal("expected different hashes for different inputs")
	}
}
