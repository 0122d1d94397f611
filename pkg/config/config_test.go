package config

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("既定の設定が不正です: %v", err)
	}
	if cfg.ScenePolicy().MaxAttempts != 3 {
		t.Errorf("期待値 3, 実際の値 %d", cfg.ScenePolicy().MaxAttempts)
	}
	if cfg.CoverPolicy().MaxAttempts != 5 {
		t.Errorf("期待値 5, 実際の値 %d", cfg.CoverPolicy().MaxAttempts)
	}
	if cfg.ScenePolicy().BaseDelay != 500*time.Millisecond {
		t.Errorf("期待値 500ms, 実際の値 %v", cfg.ScenePolicy().BaseDelay)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SceneMaxAttempts = 0
	cfg.RateBurst = 0
	cfg.RetryBaseDelay = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("不正な設定でエラーになりませんでした")
	}
}
