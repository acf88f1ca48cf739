package event

import (
	"encoding/json"
	"fmt"
)

// FileStat is the stat-derived subset of an image's file attributes.
// A nil *FileStat on ImageExec means the capture layer never stated the
// file; individual redaction switches decide which present fields appear
// in records.
type FileStat struct {
	Mode  uint32   `json:"mode"`
	UID   uint32   `json:"uid"`
	GID   uint32   `json:"gid"`
	Size  uint64   `json:"size"`
	Mtime Timespec `json:"mtime"`
	Ctime Timespec `json:"ctime"`
	Btime Timespec `json:"btime"`
}

// Hashes holds the content digests computed for an image file. A nil kind
// was not computed; which of the present kinds get emitted is a
// configuration concern, not a descriptor concern.
type Hashes struct {
	MD5    Buf `json:"md5,omitempty"`
	SHA1   Buf `json:"sha1,omitempty"`
	SHA256 Buf `json:"sha256,omitempty"`
}

// SignStatus is the outcome of code signature evaluation.
type SignStatus int

const (
	SignUnsigned SignStatus = iota
	SignGood
	SignBad
	SignError
)

var signStatusNames = map[SignStatus]string{
	SignUnsigned: "unsigned",
	SignGood:     "good",
	SignBad:      "bad",
	SignError:    "error",
}

// String returns the status name as it appears in records.
func (s SignStatus) String() string {
	if n, ok := signStatusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalJSON renders the status by name.
func (s SignStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a status name.
func (s *SignStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for v, n := range signStatusNames {
		if n == name {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("event: unknown signature status %q", name)
}

// SignOrigin identifies the certificate chain anchoring a good signature.
type SignOrigin int

const (
	// OriginUnknown means the verifier did not classify the chain.
	OriginUnknown SignOrigin = iota
	// OriginSystem is the platform vendor's own code.
	OriginSystem
	OriginAppStore
	OriginDevID
	OriginTrustedCA
	OriginGeneric
)

var signOriginNames = map[SignOrigin]string{
	OriginSystem:    "system",
	OriginAppStore:  "appstore",
	OriginDevID:     "devid",
	OriginTrustedCA: "trusted",
	OriginGeneric:   "generic",
}

// String returns the origin name as it appears in records. OriginUnknown
// has no name; it is never emitted.
func (o SignOrigin) String() string {
	if n, ok := signOriginNames[o]; ok {
		return n
	}
	return fmt.Sprintf("origin(%d)", int(o))
}

// MarshalJSON renders the origin by name, or null for OriginUnknown.
func (o SignOrigin) MarshalJSON() ([]byte, error) {
	if o == OriginUnknown {
		return []byte("null"), nil
	}
	return json.Marshal(o.String())
}

// UnmarshalJSON parses an origin name or null.
func (o *SignOrigin) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = OriginUnknown
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for v, n := range signOriginNames {
		if n == name {
			*o = v
			return nil
		}
	}
	return fmt.Errorf("event: unknown signature origin %q", name)
}

// Signature is the outcome of code signature verification for an image.
// Optional members are empty when the verifier did not produce them.
type Signature struct {
	Status SignStatus `json:"status"`
	Origin SignOrigin `json:"origin,omitempty"`
	CDHash Buf        `json:"cdhash,omitempty"`
	Ident  string     `json:"ident,omitempty"`
	TeamID string     `json:"teamid,omitempty"`
	CertCN string     `json:"certcn,omitempty"`
}

// Good reports whether the signature verified successfully.
func (s *Signature) Good() bool {
	return s != nil && s.Status == SignGood
}

// Platform reports whether the image is positively validated platform
// vendor code. Platform images are what the apple hash omission switch
// applies to.
func (s *Signature) Platform() bool {
	return s.Good() && s.Origin == OriginSystem
}

// ImageExec describes one resolved image execution. It does double duty:
// as the descriptor of an image-exec event, and as the execution context
// attached to a process (its current image, and transitively the ancestry
// chain through Prev).
type ImageExec struct {
	Header
	// PID of the process that performed the exec.
	PID  int32  `json:"pid"`
	Path string `json:"path"`
	CWD  string `json:"cwd,omitempty"`

	Argv []string `json:"argv,omitempty"`
	Env  []string `json:"env,omitempty"`

	Stat      *FileStat  `json:"stat,omitempty"`
	Hashes    *Hashes    `json:"hashes,omitempty"`
	Signature *Signature `json:"signature,omitempty"`

	// Script is the interpreted file when Path is an interpreter invoked
	// through a shebang. Scripts never carry a Signature.
	Script *ImageExec `json:"script,omitempty"`

	// Subject is the credential set of the executing process, absent for
	// reconstructed executions.
	Subject *Process `json:"subject,omitempty"`

	// Prev is the image the process ran before this execution. The chain
	// is acyclic; walkers bound their traversal by the configured
	// ancestor depth rather than trusting termination.
	Prev *ImageExec `json:"prev,omitempty"`

	// ForkTime is the time the process was forked, when known.
	ForkTime Timespec `json:"fork_time,omitzero"`

	// Reconstructed marks an image rebuilt from a live process table
	// lookup rather than observed at exec time. Reconstructed images have
	// no trustworthy exec time and no captured subject credentials.
	Reconstructed bool `json:"reconstructed,omitempty"`
}
