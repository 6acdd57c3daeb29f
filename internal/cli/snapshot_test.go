package cli

import (
	"testing"
	"time"

	"github.com/bob7452/Icarus/pkg/utils"
)

func TestResolveSessionExplicitDate(t *testing.T) {
	got, err := resolveSession("2025-04-17")
	if err != nil {
		t.Fatalf("resolveSession() error = %v", err)
	}

	want := time.Date(2025, time.April, 17, utils.SessionCloseHour, 0, 0, 0, utils.EasternLocation)
	if !got.Equal(want) {
		t.Errorf("resolveSession(2025-04-17) = %v, want %v", got, want)
	}
}

func TestResolveSessionDefault(t *testing.T) {
	got, err := resolveSession("")
	if err != nil {
		t.Fatalf("resolveSession() error = %v", err)
	}

	want := utils.PreviousSessionClose(time.Now())
	if !got.Equal(want) {
		t.Errorf("resolveSession(\"\") = %v, want %v", got, want)
	}
	if wd := got.Weekday(); wd == time.Saturday || wd == time.Sunday {
		t.Errorf("default session landed on a weekend: %v", got)
	}
}

func TestResolveSessionInvalidDate(t *testing.T) {
	if _, err := resolveSession("17-04-2025"); err == nil {
		t.Fatal("resolveSession() accepted a malformed date")
	}
}
