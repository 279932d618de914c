package netdiscover

import "testing"

func TestAdvertiseThenShutdown(t *testing.T) {
	adv, err := Advertise("orchsup-test", "/tmp/orchsup-test.sock", 0)
	if err != nil {
		t.Skipf("mdns unavailable in this environment: %v", err)
	}
	if err := adv.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestShutdownOnNilAdvertiserIsSafe(t *testing.T) {
	var adv *Advertiser
	if err := adv.Shutdown(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
