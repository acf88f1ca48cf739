package build

import "testing"

func TestCurrent(t *testing.T) {
	b := Current()
	if b.Version == "" {
		t.Error("binary version must not be empty")
	}
	if b.Date == "" {
		t.Error("binary date must not be empty")
	}
}

func TestHost(t *testing.T) {
	sys := Host()
	if sys.Name == "" {
		t.Error("host name must not be empty")
	}
}
