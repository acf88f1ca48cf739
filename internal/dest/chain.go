package dest

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// GenesisHash is the prev hash of the first entry in a new chain file.
const GenesisHash = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

// chainEntry is one line of a chain file. The record travels base64
// encoded so that binary formats chain the same way as text ones.
type chainEntry struct {
	Seq    uint64 `json:"seq"`
	Time   string `json:"time"`
	Prev   string `json:"prev"`
	Record []byte `json:"record"`
}

// Chain appends records to a JSONL file with SHA-256 hash chaining: each
// entry carries the hash of the previous line, making silent tampering
// or truncation in the middle detectable.
type Chain struct {
	mu   sync.Mutex
	path string
	f    *os.File
	seq  uint64
	prev string
}

// OpenChain opens (or creates) a chain file for appending. An existing
// file has its last line read back to recover the chain tail.
func OpenChain(path string) (*Chain, error) {
	c := &Chain{path: path}
	if err := c.open(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Chain) open() error {
	seq, prev, err := chainTail(c.path)
	if err != nil {
		return err
	}
	f, err := openAppend(c.path)
	if err != nil {
		return err
	}
	c.f = f
	c.seq = seq
	c.prev = prev
	return nil
}

// chainTail reads an existing chain file and returns the last sequence
// number and the hash of the last line.
func chainTail(path string) (uint64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, GenesisHash, nil
		}
		return 0, "", fmt.Errorf("dest: read chain: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxChainLine)
	var lastLine []byte
	for scanner.Scan() {
		lastLine = append(lastLine[:0], scanner.Bytes()...)
	}
	if err := scanner.Err(); err != nil {
		return 0, "", fmt.Errorf("dest: scan chain: %w", err)
	}
	if len(lastLine) == 0 {
		return 0, GenesisHash, nil
	}
	var entry chainEntry
	if err := json.Unmarshal(lastLine, &entry); err != nil {
		return 0, "", fmt.Errorf("dest: parse chain tail: %w", err)
	}
	return entry.Seq, HashLine(lastLine), nil
}

const maxChainLine = 16 * 1024 * 1024

func (c *Chain) Write(rec []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.f == nil {
		return fmt.Errorf("dest: chain %s is closed", c.path)
	}

	entry := chainEntry{
		Seq:    c.seq + 1,
		Time:   time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Prev:   c.prev,
		Record: rec,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("dest: marshal chain entry: %w", err)
	}
	if _, err := c.f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("dest: write chain entry: %w", err)
	}
	if err := c.f.Sync(); err != nil {
		return fmt.Errorf("dest: sync chain: %w", err)
	}
	c.seq = entry.Seq
	c.prev = HashLine(line)
	return nil
}

// Reopen reopens the chain file and recovers its tail, picking up an
// external rotation.
func (c *Chain) Reopen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.f != nil {
		c.f.Close()
		c.f = nil
	}
	return c.open()
}

func (c *Chain) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.f == nil {
		return nil
	}
	err := c.f.Close()
	c.f = nil
	return err
}

// HashLine returns "sha256:<hex>" of the given bytes.
func HashLine(line []byte) string {
	h := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(h[:])
}

// VerifyResult holds the outcome of a chain verification.
type VerifyResult struct {
	Valid   bool   `json:"valid"`
	Records int    `json:"records"`
	Err     string `json:"error,omitempty"`
	Line    int    `json:"error_line,omitempty"`
}

// VerifyChain reads a chain file and validates hash linkage and sequence
// continuity. It reports the first broken link.
func VerifyChain(path string) VerifyResult {
	f, err := os.Open(path)
	if err != nil {
		return VerifyResult{Err: fmt.Sprintf("open: %v", err)}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxChainLine)
	lineNum := 0
	prevHash := GenesisHash
	var prevSeq uint64

	for scanner.Scan() {
		lineNum++
		line := append([]byte(nil), scanner.Bytes()...)

		var entry chainEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return VerifyResult{Err: fmt.Sprintf("parse: %v", err), Line: lineNum}
		}
		if entry.Prev != prevHash {
			return VerifyResult{
				Err:  fmt.Sprintf("hash mismatch: expected %s, got %s", prevHash, entry.Prev),
				Line: lineNum,
			}
		}
		if entry.Seq != prevSeq+1 {
			return VerifyResult{
				Err:  fmt.Sprintf("sequence gap: expected %d, got %d", prevSeq+1, entry.Seq),
				Line: lineNum,
			}
		}
		prevHash = HashLine(line)
		prevSeq = entry.Seq
	}
	if err := scanner.Err(); err != nil {
		return VerifyResult{Err: fmt.Sprintf("scan: %v", err)}
	}
	return VerifyResult{Valid: true, Records: lineNum}
}
