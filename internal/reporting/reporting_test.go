package reporting

import (
	"errors"
	"testing"
)

func TestReporterDisabledWithoutToken(t *testing.T) {
	reporter := New(Config{Environment: "test"})
	if reporter.Enabled() {
		t.Fatal("expected reporter to be disabled without token")
	}

	reporter.Error(errors.New("gateway timeout"), map[string]interface{}{"application_id": 7})
	reporter.Error(nil, nil)
	reporter.Critical("panic", nil)
	reporter.Close()
}

func TestNilReporterIsSafe(t *testing.T) {
	var reporter *Reporter
	if reporter.Enabled() {
		t.Fatal("expected nil reporter to be disabled")
	}
	reporter.Error(errors.New("ignored"), nil)
}
