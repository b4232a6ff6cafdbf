package config

import "testing"

func TestDefaults(t *testing.T) {
	for _, key := range []string{"HOSTNAME", "PORT", "DATADIR", "RESERVATIONSDIR", "RESERVATIONDURATION", "XNODES"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Addr() != "0.0.0.0:35963" {
		t.Fatalf("addr = %s", cfg.Addr())
	}
	if cfg.ReservationDuration != 3600 {
		t.Fatalf("duration = %d", cfg.ReservationDuration)
	}
	if cfg.ReservationsDir != "/var/lib/xnode-reserved/reservation" {
		t.Fatalf("reservations dir = %s", cfg.ReservationsDir)
	}
	if len(cfg.Xnodes) != 0 {
		t.Fatalf("xnodes = %v", cfg.Xnodes)
	}
}

func TestOverrides(t *testing.T) {
	t.Setenv("HOSTNAME", "127.0.0.1")
	t.Setenv("PORT", "8080")
	t.Setenv("DATADIR", "/tmp/xr")
	t.Setenv("RESERVATIONSDIR", "")
	t.Setenv("RESERVATIONDURATION", "60")
	t.Setenv("XNODES", "https://a.example  https://b.example")

	cfg := Load()
	if cfg.Addr() != "127.0.0.1:8080" {
		t.Fatalf("addr = %s", cfg.Addr())
	}
	if cfg.ReservationsDir != "/tmp/xr/reservation" {
		t.Fatalf("reservations dir = %s", cfg.ReservationsDir)
	}
	if cfg.ReservationDuration != 60 {
		t.Fatalf("duration = %d", cfg.ReservationDuration)
	}
	if len(cfg.Xnodes) != 2 || cfg.Xnodes[1] != "https://b.example" {
		t.Fatalf("xnodes = %v", cfg.Xnodes)
	}
}

func TestMalformedDurationFallsBack(t *testing.T) {
	t.Setenv("RESERVATIONDURATION", "soon")
	cfg := Load()
	if cfg.ReservationDuration != 3600 {
		t.Fatalf("duration = %d, want default", cfg.ReservationDuration)
	}

	t.Setenv("RESERVATIONDURATION", "-5")
	cfg = Load()
	if cfg.ReservationDuration != 3600 {
		t.Fatalf("negative duration accepted: %d", cfg.ReservationDuration)
	}
}
