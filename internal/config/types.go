package config

import (
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/avetisov/esmon/internal/event"
)

// EventSet is a bitmask of enabled event kinds.
type EventSet uint16

// AllEvents returns the set with every defined kind enabled.
func AllEvents() EventSet {
	return EventSet(1<<uint(event.CodeCount)) - 1
}

// ParseEvents builds a set from kind names.
func ParseEvents(names []string) (EventSet, error) {
	var set EventSet
	for _, name := range names {
		code, ok := event.CodeByName(name)
		if !ok {
			return 0, fmt.Errorf("config: unknown event kind %q", name)
		}
		set |= 1 << uint(code)
	}
	return set, nil
}

// Has reports whether the kind is enabled.
func (e EventSet) Has(code event.Code) bool {
	return e&(1<<uint(code)) != 0
}

// Names returns the enabled kind names in code order.
func (e EventSet) Names() []string {
	var names []string
	for c := event.Code(0); c < event.CodeCount; c++ {
		if e.Has(c) {
			names = append(names, c.String())
		}
	}
	return names
}

// String joins the enabled kind names with commas.
func (e EventSet) String() string {
	return strings.Join(e.Names(), ",")
}

// UnmarshalYAML decodes a sequence of kind names.
func (e *EventSet) UnmarshalYAML(value *yaml.Node) error {
	var names []string
	if err := value.Decode(&names); err != nil {
		return fmt.Errorf("config: events must be a list of kind names: %w", err)
	}
	set, err := ParseEvents(names)
	if err != nil {
		return err
	}
	*e = set
	return nil
}

// MarshalYAML encodes the set as a sequence of kind names.
func (e EventSet) MarshalYAML() (interface{}, error) {
	return e.Names(), nil
}

// HashSet selects which digest kinds appear in records.
type HashSet uint

const (
	HashMD5 HashSet = 1 << iota
	HashSHA1
	HashSHA256
)

// ParseHashSet parses a comma-joined digest list such as "md5,sha256".
// The empty string and "none" disable hash emission.
func ParseHashSet(s string) (HashSet, error) {
	if s == "" || s == "none" {
		return 0, nil
	}
	var set HashSet
	for _, part := range strings.Split(s, ",") {
		switch strings.TrimSpace(part) {
		case "md5":
			set |= HashMD5
		case "sha1":
			set |= HashSHA1
		case "sha256":
			set |= HashSHA256
		default:
			return 0, fmt.Errorf("config: unknown hash %q", part)
		}
	}
	return set, nil
}

// Has reports whether the digest kind is selected.
func (h HashSet) Has(kind HashSet) bool {
	return h&kind != 0
}

// String returns the comma-joined digest list, or "none".
func (h HashSet) String() string {
	var parts []string
	if h.Has(HashMD5) {
		parts = append(parts, "md5")
	}
	if h.Has(HashSHA1) {
		parts = append(parts, "sha1")
	}
	if h.Has(HashSHA256) {
		parts = append(parts, "sha256")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// UnmarshalYAML decodes the comma-joined digest list.
func (h *HashSet) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("config: hashes must be a string: %w", err)
	}
	set, err := ParseHashSet(s)
	if err != nil {
		return err
	}
	*h = set
	return nil
}

// MarshalYAML encodes the digest list as a string.
func (h HashSet) MarshalYAML() (interface{}, error) {
	return h.String(), nil
}

// Depth bounds ancestor traversal in process serialization. Zero disables
// the ancestors list entirely; Unlimited removes the bound.
type Depth uint64

// Unlimited is the unbounded traversal depth.
const Unlimited Depth = math.MaxUint64

// IsUnlimited reports whether the depth is unbounded.
func (d Depth) IsUnlimited() bool { return d == Unlimited }

// String renders the depth as a count or "unlimited".
func (d Depth) String() string {
	if d.IsUnlimited() {
		return "unlimited"
	}
	return fmt.Sprintf("%d", uint64(d))
}

// UnmarshalYAML decodes a count or the string "unlimited".
func (d *Depth) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil && s == "unlimited" {
		*d = Unlimited
		return nil
	}
	var n uint64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("config: ancestors must be a count or \"unlimited\": %w", err)
	}
	*d = Depth(n)
	return nil
}

// MarshalYAML encodes the depth as a count or "unlimited".
func (d Depth) MarshalYAML() (interface{}, error) {
	if d.IsUnlimited() {
		return "unlimited", nil
	}
	return uint64(d), nil
}
