// Package ident resolves numeric user and group ids to names. Resolution
// happens at serialization time, off the capture hot path, and a failed
// lookup silently degrades to the numeric id alone.
package ident

import (
	"os/user"
	"strconv"
)

// Resolver maps numeric ids to names. Implementations return ok=false for
// any id they cannot resolve.
type Resolver interface {
	User(uid uint32) (string, bool)
	Group(gid uint32) (string, bool)
}

// System returns a resolver backed by the host user database.
func System() Resolver {
	return systemResolver{}
}

type systemResolver struct{}

func (systemResolver) User(uid uint32) (string, bool) {
	u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10))
	if err != nil || u.Username == "" {
		return "", false
	}
	return u.Username, true
}

func (systemResolver) Group(gid uint32) (string, bool) {
	g, err := user.LookupGroupId(strconv.FormatUint(uint64(gid), 10))
	if err != nil || g.Name == "" {
		return "", false
	}
	return g.Name, true
}

// Disabled returns a resolver that never resolves. It backs the
// resolve_users_groups switch.
func Disabled() Resolver {
	return disabledResolver{}
}

type disabledResolver struct{}

func (disabledResolver) User(uint32) (string, bool)  { return "", false }
func (disabledResolver) Group(uint32) (string, bool) { return "", false }

// Static returns a resolver over fixed tables. Tests use it to keep
// records independent of the host user database.
func Static(users, groups map[uint32]string) Resolver {
	return staticResolver{users: users, groups: groups}
}

type staticResolver struct {
	users  map[uint32]string
	groups map[uint32]string
}

func (r staticResolver) User(uid uint32) (string, bool) {
	name, ok := r.users[uid]
	return name, ok
}

func (r staticResolver) Group(gid uint32) (string, bool) {
	name, ok := r.groups[gid]
	return name, ok
}
