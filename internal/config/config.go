// Package config holds the effective settings of the monitor. A Config is
// loaded once, validated, and then passed around as an immutable snapshot;
// nothing in the engine consults global state.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultPath is consulted when no config path is given.
const defaultPath = "/etc/esmon/esmon.yaml"

// Formats and destinations accepted in the log section.
var (
	knownFormats = map[string]bool{"json": true, "text": true, "proto": true}
	knownDests   = map[string]bool{
		"stdout": true, "file": true, "chain": true,
		"syslog": true, "sqlite": true, "grpc": true,
	}
)

// Omit switches individual record fields off. A switch suppresses a field
// that is present in the descriptor; it never fabricates one that is not.
type Omit struct {
	Mode  bool `yaml:"mode"`
	Size  bool `yaml:"size"`
	Mtime bool `yaml:"mtime"`
	Ctime bool `yaml:"ctime"`
	Btime bool `yaml:"btime"`
	SID   bool `yaml:"sid"`
	// Groups drops all group ids and names from processes and images.
	Groups bool `yaml:"groups"`
	// AppleHashes drops content hashes for positively validated platform
	// vendor images. Hashes of unsigned or third-party images always
	// appear regardless of this switch.
	AppleHashes bool `yaml:"apple_hashes"`
}

// Log selects the record format and destination.
type Log struct {
	// Format is one of json, text, proto.
	Format string `yaml:"format"`
	// OneLine forces compact single-line records. Unset picks the
	// destination default: indented on stdout, compact everywhere else.
	OneLine *bool `yaml:"oneline"`
	// Dest is one of stdout, file, chain, syslog, sqlite, grpc.
	Dest string `yaml:"destination"`
	// File is the output path for the file, chain and sqlite destinations.
	File string `yaml:"file"`
	// Addr is the collector address for the grpc destination.
	Addr string `yaml:"addr"`
}

// Suppress mutes classes of events before serialization. List entries are
// patterns: *x* matches contains, *x suffix, x* prefix, anything else
// exactly.
type Suppress struct {
	ImageExecAtStart            bool     `yaml:"image_exec_at_start"`
	ImageExecByIdent            []string `yaml:"image_exec_by_ident"`
	ImageExecByPath             []string `yaml:"image_exec_by_path"`
	ImageExecByAncestorIdent    []string `yaml:"image_exec_by_ancestor_ident"`
	ImageExecByAncestorPath     []string `yaml:"image_exec_by_ancestor_path"`
	ProcessAccessBySubjectIdent []string `yaml:"process_access_by_subject_ident"`
	ProcessAccessBySubjectPath  []string `yaml:"process_access_by_subject_path"`
	SocketOpLocalhost           bool     `yaml:"socket_op_localhost"`
	SocketOpBySubjectIdent      []string `yaml:"socket_op_by_subject_ident"`
	SocketOpBySubjectPath       []string `yaml:"socket_op_by_subject_path"`
}

// Config holds all configurable monitor parameters.
type Config struct {
	// ID is an operator-chosen identifier reported in ops records.
	ID    string `yaml:"id"`
	Debug bool   `yaml:"debug"`

	// Events is the set of kinds that get serialized at all.
	Events EventSet `yaml:"events"`

	// StatsInterval is the seconds between self-emitted stats records in
	// daemon mode. Zero disables periodic stats.
	StatsInterval uint `yaml:"stats_interval"`

	// Hashes selects the digest kinds emitted for images.
	Hashes HashSet `yaml:"hashes"`

	// ResolveIDs turns numeric uid/gid values into names at
	// serialization time.
	ResolveIDs bool `yaml:"resolve_users_groups"`

	Omit Omit `yaml:"omit"`

	// Ancestors bounds the process ancestry list.
	Ancestors Depth `yaml:"ancestors"`

	Log Log `yaml:"log"`

	// LimitNoFile is the RLIMIT_NOFILE value the daemon requests.
	LimitNoFile uint64 `yaml:"limit_nofile"`

	Suppress Suppress `yaml:"suppress"`

	path string
	hash string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Events:        AllEvents(),
		StatsInterval: 3600,
		Hashes:        HashSHA256,
		ResolveIDs:    true,
		Omit: Omit{
			AppleHashes: true,
		},
		Ancestors: Unlimited,
		Log: Log{
			Format: "json",
			Dest:   "stdout",
		},
		LimitNoFile: 8192,
		Suppress: Suppress{
			ImageExecAtStart: true,
		},
		path: defaultPath,
		hash: hashBytes(nil),
	}
}

// Load reads configuration from a YAML file. Empty path falls back to
// /etc/esmon/esmon.yaml. Missing file returns defaults. Invalid YAML or
// invalid settings return an error. The returned config remembers the
// path it came from and the SHA-256 of the raw bytes for provenance.
func Load(path string) (*Config, error) {
	if path == "" {
		path = defaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			cfg.path = path
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Start with defaults, YAML overwrites only specified fields
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.path = path
	cfg.hash = hashBytes(data)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks setting combinations that cannot be expressed through
// the field types alone.
func (c *Config) Validate() error {
	if !knownFormats[c.Log.Format] {
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	if !knownDests[c.Log.Dest] {
		return fmt.Errorf("config: unknown log destination %q", c.Log.Dest)
	}
	switch c.Log.Dest {
	case "file", "chain", "sqlite":
		if c.Log.File == "" {
			return fmt.Errorf("config: log destination %q requires log.file", c.Log.Dest)
		}
	case "grpc":
		if c.Log.Addr == "" {
			return fmt.Errorf("config: log destination grpc requires log.addr")
		}
	}
	if c.Events == 0 {
		return fmt.Errorf("config: events must enable at least one kind")
	}
	return nil
}

// Path returns the path the configuration was loaded from.
func (c *Config) Path() string { return c.path }

// Hash returns "sha256:<hex>" over the raw config bytes on disk. For
// defaults it is the hash of empty input.
func (c *Config) Hash() string { return c.hash }

// OneLine resolves the compact-record switch for the configured
// destination.
func (c *Config) OneLine() bool {
	if c.Log.OneLine != nil {
		return *c.Log.OneLine
	}
	return c.Log.Dest != "stdout"
}

func hashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(h[:])
}
