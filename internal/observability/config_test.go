package observability

import "testing"

func TestStartDisabled(t *testing.T) {
	for _, mode := range []string{"", "off", " OFF "} {
		stop, err := Start(Config{Profile: mode})
		if err != nil {
			t.Fatalf("expected %q to disable profiling, got %v", mode, err)
		}
		stop()
	}
}

func TestStartRejectsUnknownMode(t *testing.T) {
	stop, err := Start(Config{Profile: "block"})
	if err == nil {
		t.Fatalf("expected unknown mode to fail")
	}
	stop()
}
