package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shouni/go-utils/envutil"

	kitconfig "github.com/shouni/go-scene-kit/pkg/config"
)

// デフォルト値の定義なのだ
const (
	DefaultServiceName = "scenekit"
	DefaultOutputDir   = "output"
	DefaultScriptFile  = "turns.yaml"
	DefaultTimeout     = 10 * time.Minute
)

// Config はアプリケーション全体の環境設定を保持する構造体なのだ。
type Config struct {
	Kit kitconfig.Config

	// OTel の送信先です。空ならトレースは無効になります。
	OTelEndpoint string `env:"OTEL_EXPORTER_ENDPOINT"`
	ServiceName  string `env:"OTEL_SERVICE_NAME"`
	LogLevel     string `env:"LOG_LEVEL"`

	Options PlayOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() (*Config, error) {
	kit := kitconfig.DefaultConfig()
	kit.GeminiAPIKey = envutil.GetEnv("GEMINI_API_KEY", "")
	kit.ImageModel = envutil.GetEnv("IMAGE_GEMINI_MODEL", kit.ImageModel)
	kit.StyleSuffix = envutil.GetEnv("IMAGE_PROMPT_SUFFIX", kit.StyleSuffix)

	// 未設定の環境変数は既定値のまま残るのだ
	if err := env.Parse(&kit); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := kit.Validate(); err != nil {
		return nil, fmt.Errorf("設定値が不正です: %w", err)
	}

	cfg := &Config{Kit: kit, ServiceName: DefaultServiceName, LogLevel: "info"}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// SlogLevel は LOG_LEVEL (debug, info, warn, error) を slog のレベルに変換します。
// 空の場合は info です。
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if strings.TrimSpace(c.LogLevel) == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL が不正です: %w", err)
	}
	return l, nil
}

// PlayOptions は CLI フラグから渡される実行時のパラメータなのだ。
type PlayOptions struct {
	ScriptFile string        // --script
	OutputDir  string        // --output
	GameID     string        // --game-id
	StyleIndex int           // --style
	CoverTitle string        // --title
	AutoAccept bool          // --auto-accept
	Timeout    time.Duration // --timeout
}
