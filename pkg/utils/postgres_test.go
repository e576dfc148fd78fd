package utils

import "testing"

func TestPoolDefaults(t *testing.T) {
	c := PostgresPoolConfig{}.withDefaults()
	if c.MaxOpenConns <= 0 || c.MaxIdleConns <= 0 {
		t.Fatalf("expected pool defaults, got %+v", c)
	}
	if c.PingTimeout <= 0 {
		t.Fatalf("expected ping timeout default")
	}
}
