package record

import (
	"net/netip"
	"strings"
	"testing"

	"github.com/avetisov/esmon/internal/event"
)

func TestProcessAccessRecord(t *testing.T) {
	subject := &event.Process{
		PID: 300, AUID: 501, EUID: 501, EGID: 20, RUID: 501, RGID: 20,
		SID: 100002, Dev: event.NoDev,
		Image: &event.ImageExec{
			Header: hdr(event.CodeImageExec),
			PID:    300,
			Path:   "/usr/bin/lldb",
		},
	}

	t.Run("full object", func(t *testing.T) {
		ev := &event.ProcessAccess{
			Header: hdr(event.CodeProcessAccess),
			Method: "task_for_pid",
			Object: &event.Process{
				PID: 200, AUID: 0, EUID: 0, EGID: 0, RUID: 0, RGID: 0,
				Dev: event.NoDev,
			},
			Subject: subject,
		}
		m := decodeRecord(t, emitJSON(t, testEmitter(testConfig()), ev))
		if m["method"] != "task_for_pid" {
			t.Errorf("method = %v", m["method"])
		}
		obj := m["object"].(map[string]any)
		if obj["pid"] != float64(200) || obj["auname"] != "root" {
			t.Errorf("object = %v", obj)
		}
		subj := m["subject"].(map[string]any)
		if subj["pid"] != float64(300) {
			t.Errorf("subject = %v", subj)
		}
		img := subj["image"].(map[string]any)
		if img["path"] != "/usr/bin/lldb" {
			t.Errorf("subject image = %v", img)
		}
	})

	t.Run("bare pid object", func(t *testing.T) {
		ev := &event.ProcessAccess{
			Header:    hdr(event.CodeProcessAccess),
			Method:    "ptrace",
			ObjectPID: 999,
			ObjectImage: &event.ImageExec{
				Header:        hdr(event.CodeImageExec),
				PID:           999,
				Path:          "/usr/sbin/cron",
				Reconstructed: true,
			},
			Subject: subject,
		}
		raw := emitJSON(t, testEmitter(testConfig()), ev)
		if !strings.Contains(raw, `"object":{"reconstructed":true,"pid":999,"image":{"exec_pid":999,"path":"/usr/sbin/cron"},"ancestors":[]}`) {
			t.Errorf("bare pid object mismatch: %s", raw)
		}
	})

	t.Run("pid overrides credentials", func(t *testing.T) {
		ev := &event.ProcessAccess{
			Header:    hdr(event.CodeProcessAccess),
			Method:    "ptrace",
			Object:    &event.Process{PID: 200, AUID: 501, EUID: 501, EGID: 20, RUID: 501, RGID: 20, Dev: event.NoDev},
			ObjectPID: 999,
			Subject:   subject,
		}
		raw := emitJSON(t, testEmitter(testConfig()), ev)
		if !strings.Contains(raw, `"object":{"pid":999}`) {
			t.Errorf("expected bare pid to win over credentials: %s", raw)
		}
	})
}

func TestLaunchdAddRecord(t *testing.T) {
	t.Run("full program", func(t *testing.T) {
		ev := &event.LaunchdAdd{
			Header:       hdr(event.CodeLaunchdAdd),
			PlistPath:    "/Library/LaunchDaemons/com.evil.agent.plist",
			ProgramRPath: "agent",
			ProgramPath:  "/opt/evil/agent",
			ProgramArgv:  []string{"/opt/evil/agent", "--quiet"},
			Subject:      &event.Process{PID: 55, AUID: 0, EUID: 0, EGID: 0, RUID: 0, RGID: 0, Dev: event.NoDev},
		}
		raw := emitJSON(t, testEmitter(testConfig()), ev)
		want := `"plist":{"path":"/Library/LaunchDaemons/com.evil.agent.plist"},` +
			`"program":{"rpath":"agent","path":"/opt/evil/agent",` +
			`"argv":["/opt/evil/agent","--quiet"]},"subject":{"pid":55,`
		if !strings.Contains(raw, want) {
			t.Errorf("launchd record mismatch\n got: %s\nwant fragment: %s", raw, want)
		}
	})

	t.Run("no subject", func(t *testing.T) {
		ev := &event.LaunchdAdd{
			Header:    hdr(event.CodeLaunchdAdd),
			PlistPath: "/Library/LaunchAgents/a.plist",
			NoSubject: true,
			Subject:   &event.Process{PID: 55},
		}
		raw := emitJSON(t, testEmitter(testConfig()), ev)
		if strings.Contains(raw, "subject") {
			t.Errorf("expected subject dropped, got %s", raw)
		}
	})

	t.Run("empty program", func(t *testing.T) {
		ev := &event.LaunchdAdd{
			Header:    hdr(event.CodeLaunchdAdd),
			PlistPath: "/Library/LaunchAgents/broken.plist",
			NoSubject: true,
		}
		raw := emitJSON(t, testEmitter(testConfig()), ev)
		if !strings.Contains(raw, `"program":{}`) {
			t.Errorf("expected empty program dict, got %s", raw)
		}
	})
}

func TestSocketRecords(t *testing.T) {
	subject := &event.Process{PID: 70, AUID: 501, EUID: 501, EGID: 20, RUID: 501, RGID: 20, Dev: event.NoDev}

	t.Run("listen has no peer", func(t *testing.T) {
		ev := &event.SocketOp{
			Header:   hdr(event.CodeSocketListen),
			Proto:    "tcp4",
			SockAddr: netip.MustParseAddr("0.0.0.0"),
			SockPort: 8080,
			PeerAddr: netip.MustParseAddr("10.0.0.9"),
			PeerPort: 55555,
			Subject:  subject,
		}
		raw := emitJSON(t, testEmitter(testConfig()), ev)
		if !strings.Contains(raw, `"proto":"tcp4","sockaddr":"0.0.0.0","sockport":8080`) {
			t.Errorf("listen record mismatch: %s", raw)
		}
		if strings.Contains(raw, "peeraddr") {
			t.Errorf("listen must not carry a peer: %s", raw)
		}
	})

	t.Run("accept carries both ends", func(t *testing.T) {
		ev := &event.SocketOp{
			Header:   hdr(event.CodeSocketAccept),
			Proto:    "tcp6",
			SockAddr: netip.MustParseAddr("::1"),
			SockPort: 443,
			PeerAddr: netip.MustParseAddr("2001:db8::7"),
			PeerPort: 40000,
			Subject:  subject,
		}
		raw := emitJSON(t, testEmitter(testConfig()), ev)
		if !strings.Contains(raw, `"sockaddr":"::1","sockport":443,"peeraddr":"2001:db8::7","peerport":40000`) {
			t.Errorf("accept record mismatch: %s", raw)
		}
	})

	t.Run("unset address drops the pair", func(t *testing.T) {
		ev := &event.SocketOp{
			Header:   hdr(event.CodeSocketConnect),
			Proto:    "tcp4",
			SockPort: 12345,
			PeerAddr: netip.MustParseAddr("203.0.113.9"),
			PeerPort: 443,
			Subject:  subject,
		}
		raw := emitJSON(t, testEmitter(testConfig()), ev)
		if strings.Contains(raw, "sockaddr") || strings.Contains(raw, "sockport") {
			t.Errorf("expected local pair dropped with unset address: %s", raw)
		}
		if !strings.Contains(raw, `"peeraddr":"203.0.113.9","peerport":443`) {
			t.Errorf("connect record mismatch: %s", raw)
		}
	})

	t.Run("no proto", func(t *testing.T) {
		ev := &event.SocketOp{Header: hdr(event.CodeSocketConnect), Subject: subject}
		raw := emitJSON(t, testEmitter(testConfig()), ev)
		if strings.Contains(raw, "proto") {
			t.Errorf("expected proto omitted, got %s", raw)
		}
	})
}

func TestReconstructedExec(t *testing.T) {
	prev := &event.ImageExec{
		Header:        hdr(event.CodeImageExec),
		PID:           40,
		Path:          "/usr/libexec/xpcproxy",
		Reconstructed: true,
	}
	ev := &event.ImageExec{
		Header:        hdr(event.CodeImageExec),
		PID:           40,
		Path:          "/usr/bin/osascript",
		Reconstructed: true,
		Subject:       &event.Process{PID: 40, AUID: 501, EUID: 501, EGID: 20, RUID: 501, RGID: 20, Dev: event.NoDev},
		Prev:          prev,
	}
	raw := emitJSON(t, testEmitter(testConfig()), ev)
	m := decodeRecord(t, raw)

	if m["reconstructed"] != true {
		t.Errorf("expected reconstructed flag on record: %s", raw)
	}
	subj := m["subject"].(map[string]any)
	if subj["reconstructed"] != true {
		t.Errorf("expected reconstructed flag on subject: %s", raw)
	}
	// Reconstructed executions have no captured credentials.
	if _, ok := subj["auid"]; ok {
		t.Errorf("expected no credentials on reconstructed subject: %s", raw)
	}
	img := subj["image"].(map[string]any)
	if _, ok := img["exec_time"]; ok {
		t.Errorf("expected no exec_time on reconstructed image: %s", raw)
	}
	if img["exec_pid"] != float64(40) {
		t.Errorf("subject image = %v", img)
	}
}

func TestSubjectFallsBackToAttachedImage(t *testing.T) {
	ev := &event.SocketOp{
		Header: hdr(event.CodeSocketConnect),
		Subject: &event.Process{
			PID: 80, AUID: 501, EUID: 501, EGID: 20, RUID: 501, RGID: 20, Dev: event.NoDev,
			Image: &event.ImageExec{
				Header: hdr(event.CodeImageExec),
				PID:    80,
				Path:   "/usr/bin/curl",
			},
		},
	}
	m := decodeRecord(t, emitJSON(t, testEmitter(testConfig()), ev))
	subj := m["subject"].(map[string]any)
	img, ok := subj["image"].(map[string]any)
	if !ok || img["path"] != "/usr/bin/curl" {
		t.Errorf("expected subject image from attached image, got %v", subj)
	}
}
