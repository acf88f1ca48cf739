package event

import (
	"encoding/json"
	"net/netip"
)

// Process is the credential set of a process as captured from the audit
// subsystem, plus an optional reference to the image it is executing.
//
// On the wire, an id field that is absent resolves to NoID and an absent
// dev to NoDev; a zero-valued id is a real root credential, not a gap.
type Process struct {
	PID int32 `json:"pid"`

	AUID uint32 `json:"auid"`
	EUID uint32 `json:"euid"`
	EGID uint32 `json:"egid"`
	RUID uint32 `json:"ruid"`
	RGID uint32 `json:"rgid"`

	// SID is the audit session identifier.
	SID uint32 `json:"sid"`

	// Dev is the controlling terminal, NoDev when the process has none.
	Dev Dev `json:"dev"`

	// Addr is the login source address, unset for local sessions.
	Addr netip.Addr `json:"addr,omitzero"`

	// Image is the current image execution of the process, when the
	// capture layer resolved it.
	Image *ImageExec `json:"image,omitempty"`
}

// UnmarshalJSON decodes a process, defaulting absent ids to NoID and an
// absent dev to NoDev so that gaps in spooled descriptors stay gaps.
func (p *Process) UnmarshalJSON(data []byte) error {
	type alias Process
	a := (*alias)(p)
	a.AUID = NoID
	a.EUID = NoID
	a.EGID = NoID
	a.RUID = NoID
	a.RGID = NoID
	a.Dev = NoDev
	return json.Unmarshal(data, a)
}
