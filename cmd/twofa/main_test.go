package main

import (
	"strings"
	"testing"
)

func TestRunVersion(t *testing.T) {
	app, _, stdout, _ := newTestApp(t, "")
	if code := run([]string{"twofa", "-version"}, app); code != 0 {
		t.Fatalf("run -version = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "twofa version test (abc) built on today") {
		t.Errorf("version output = %q", stdout.String())
	}
}

func TestRunNoCommandPrintsUsage(t *testing.T) {
	app, _, _, stderr := newTestApp(t, "")
	if code := run([]string{"twofa"}, app); code != 2 {
		t.Fatalf("run with no command = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "Usage: twofa") {
		t.Errorf("usage not printed: %q", stderr.String())
	}
}

func TestRunRequiresAccount(t *testing.T) {
	app, _, _, stderr := newTestApp(t, "")
	if code := run([]string{"twofa", "-code"}, app); code != 1 {
		t.Fatalf("run -code without -account = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "account is required") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunVerifyAgainstMemStore(t *testing.T) {
	code := expectedCode(t)
	app, _, _, _ := newTestApp(t, code+"\n")

	if rc := run([]string{"twofa", "-enroll", "-account", "jane@example.com"}, app); rc != 0 {
		t.Fatalf("enroll run = %d, want 0", rc)
	}
	if rc := run([]string{"twofa", "-verify", code, "-account", "jane@example.com"}, app); rc != 0 {
		t.Fatalf("verify run = %d, want 0", rc)
	}
	if rc := run([]string{"twofa", "-verify", "nope", "-account", "jane@example.com"}, app); rc != 1 {
		t.Fatalf("verify with bad code = %d, want 1", rc)
	}
}

func TestRunUnknownFlag(t *testing.T) {
	app, _, _, _ := newTestApp(t, "")
	if code := run([]string{"twofa", "-definitely-not-a-flag"}, app); code != 2 {
		t.Fatalf("run with unknown flag = %d, want 2", code)
	}
}
