//go:build !unix

package build

import "runtime"

// Host returns the host identity. Without uname only the platform name
// is known.
func Host() System {
	return System{Name: runtime.GOOS}
}
