package event

import (
	"encoding/json"
	"testing"
)

func TestCodeNames(t *testing.T) {
	want := map[Code]string{
		CodeOps:           "ops",
		CodeStats:         "stats",
		CodeImageExec:     "image_exec",
		CodeProcessAccess: "process_access",
		CodeLaunchdAdd:    "launchd_add",
		CodeSocketListen:  "socket_listen",
		CodeSocketAccept:  "socket_accept",
		CodeSocketConnect: "socket_connect",
	}
	for code, name := range want {
		if got := code.String(); got != name {
			t.Errorf("code %d: got %q, want %q", uint(code), got, name)
		}
		back, ok := CodeByName(name)
		if !ok || back != code {
			t.Errorf("CodeByName(%q) = %d, %v; want %d, true", name, uint(back), ok, uint(code))
		}
	}
	if _, ok := CodeByName("no_such_kind"); ok {
		t.Error("CodeByName accepted an unknown kind")
	}
}

func TestDevMajorMinor(t *testing.T) {
	d := Dev(16<<24 | 5)
	if d.Major() != 16 || d.Minor() != 5 {
		t.Errorf("got %d,%d, want 16,5", d.Major(), d.Minor())
	}
	if d.String() != "16,5" {
		t.Errorf("String() = %q, want %q", d.String(), "16,5")
	}
}

func TestBufHexRoundtrip(t *testing.T) {
	b := Buf{0xde, 0xad, 0xbe, 0xef}
	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"deadbeef"` {
		t.Errorf("marshal = %s, want %q", data, `"deadbeef"`)
	}

	var back Buf
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(back) != string(b) {
		t.Errorf("roundtrip changed bytes: %x != %x", back, b)
	}

	var null Buf
	if err := json.Unmarshal([]byte("null"), &null); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if null != nil {
		t.Errorf("null should decode to nil, got %x", null)
	}

	if err := json.Unmarshal([]byte(`"xyz"`), &back); err == nil {
		t.Error("non-hex input should fail")
	}
}

func TestSignatureHelpers(t *testing.T) {
	var nilSig *Signature
	if nilSig.Good() || nilSig.Platform() {
		t.Error("nil signature must be neither good nor platform")
	}

	good := &Signature{Status: SignGood, Origin: OriginDevID}
	if !good.Good() {
		t.Error("good devid signature reported not good")
	}
	if good.Platform() {
		t.Error("devid signature reported as platform")
	}

	platform := &Signature{Status: SignGood, Origin: OriginSystem}
	if !platform.Platform() {
		t.Error("good system signature not reported as platform")
	}

	badSystem := &Signature{Status: SignBad, Origin: OriginSystem}
	if badSystem.Platform() {
		t.Error("bad signature must never be platform")
	}
}

func TestSignStatusJSON(t *testing.T) {
	data, err := json.Marshal(SignGood)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"good"` {
		t.Errorf("marshal = %s, want %q", data, `"good"`)
	}
	var s SignStatus
	if err := json.Unmarshal([]byte(`"unsigned"`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s != SignUnsigned {
		t.Errorf("got %v, want unsigned", s)
	}
	if err := json.Unmarshal([]byte(`"fancy"`), &s); err == nil {
		t.Error("unknown status should fail")
	}
}

func TestProcessUnmarshalDefaults(t *testing.T) {
	var p Process
	if err := json.Unmarshal([]byte(`{"pid": 123}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.PID != 123 {
		t.Errorf("pid = %d, want 123", p.PID)
	}
	for name, id := range map[string]uint32{
		"auid": p.AUID, "euid": p.EUID, "egid": p.EGID,
		"ruid": p.RUID, "rgid": p.RGID,
	} {
		if id != NoID {
			t.Errorf("absent %s should default to NoID, got %d", name, id)
		}
	}
	if p.Dev != NoDev {
		t.Errorf("absent dev should default to NoDev, got %d", p.Dev)
	}
	if p.Addr.IsValid() {
		t.Errorf("absent addr should stay unset, got %v", p.Addr)
	}
}

func TestProcessUnmarshalExplicit(t *testing.T) {
	var p Process
	raw := `{"pid": 1, "auid": 0, "euid": 501, "dev": 268435461, "addr": "10.0.0.8"}`
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.AUID != 0 {
		t.Errorf("explicit auid 0 must stay 0, got %d", p.AUID)
	}
	if p.EUID != 501 {
		t.Errorf("euid = %d, want 501", p.EUID)
	}
	if p.Dev.Major() != 16 || p.Dev.Minor() != 5 {
		t.Errorf("dev = %s, want 16,5", p.Dev)
	}
	if p.Addr.String() != "10.0.0.8" {
		t.Errorf("addr = %s, want 10.0.0.8", p.Addr)
	}
}
