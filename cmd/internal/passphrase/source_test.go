package passphrase

import (
	"os"
	"strings"
	"testing"
)

func TestSourceReadsEnvironmentOnce(t *testing.T) {
	t.Setenv("BASALT_TEST_PASSPHRASE", "hunter2")
	src := NewSource("BASALT_TEST_PASSPHRASE")
	got, err := src.Get()
	if err != nil || got != "hunter2" {
		t.Fatalf("Get() = %q, %v", got, err)
	}
	os.Setenv("BASALT_TEST_PASSPHRASE", "changed")
	if again, _ := src.Get(); again != "hunter2" {
		t.Fatalf("expected cached passphrase, got %q", again)
	}
}

func TestSourceRejectsBlankEnvironment(t *testing.T) {
	t.Setenv("BASALT_TEST_PASSPHRASE", "   ")
	_, err := NewSource("BASALT_TEST_PASSPHRASE").Get()
	if err == nil || !strings.Contains(err.Error(), "set but empty") {
		t.Fatalf("expected blank passphrase error, got %v", err)
	}
}
