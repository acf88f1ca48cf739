//go:build unix

package build

import "golang.org/x/sys/unix"

// Host returns the host identity from uname: kernel name, release and
// build version.
func Host() System {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return System{Name: "unknown"}
	}
	return System{
		Name:    utsString(uts.Sysname[:]),
		Version: utsString(uts.Release[:]),
		Build:   utsString(uts.Version[:]),
	}
}

func utsString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
