package vdsorng

import "testing"

func TestConfigProbe(t *testing.T) {
	function, pageSize, err := mockResolver{}.Resolve()
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	cfg, err := newConfig(function, pageSize)
	if err != nil {
		t.Fatalf("unexpected config error: %v", err)
	}
	if cfg.PageSize == 0 {
		t.Fatal("expected a nonzero page size")
	}
	if cfg.PagesPerBlock == 0 {
		t.Fatal("expected at least one page per block")
	}
	if cfg.StatesPerPage == 0 {
		t.Fatal("expected at least one state per page")
	}
	if cfg.Params.SizeOfOpaqueStates != 64 {
		t.Fatalf("expected probed state size 64, got %d", cfg.Params.SizeOfOpaqueStates)
	}
}
