package config

import (
	"errors"
	"time"

	"github.com/shouni/go-scene-kit/pkg/generator"
)

// デフォルト値の定義
const (
	DefaultImageModel         = "gemini-3-pro-image-preview"
	DefaultRateInterval       = 2 * time.Second
	DefaultRateBurst          = 2
	DefaultMaxCoverReferences = 4
	DefaultStyleSuffix        = "picture book illustration, warm lighting, clear character silhouettes"
)

// Config は Scene Kit のエンジンを動作させるための基本設定です。
// env タグの付いた項目は環境変数で上書きできます。
type Config struct {
	// --- Google AI (Gemini API) Settings ---
	GeminiAPIKey string
	ImageModel   string

	// --- Generation Settings ---
	StyleSuffix        string
	AssetDir           string `env:"SCENE_ASSET_DIR"`
	PlaceholderEnabled bool   `env:"SCENE_PLACEHOLDER_ENABLED"`
	MaxCoverReferences int    `env:"SCENE_MAX_COVER_REFERENCES"`

	// --- Timeout & Retries ---
	SceneMaxAttempts int           `env:"SCENE_MAX_ATTEMPTS"`
	CoverMaxAttempts int           `env:"COVER_MAX_ATTEMPTS"`
	RetryBaseDelay   time.Duration `env:"SCENE_RETRY_BASE_DELAY"`
	RetryMaxDelay    time.Duration `env:"SCENE_RETRY_MAX_DELAY"`
	AttemptTimeout   time.Duration `env:"SCENE_ATTEMPT_TIMEOUT"`

	// --- Rate Limit ---
	RateInterval time.Duration `env:"SCENE_RATE_INTERVAL"`
	RateBurst    int           `env:"SCENE_RATE_BURST"`
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		ImageModel:         DefaultImageModel,
		StyleSuffix:        DefaultStyleSuffix,
		PlaceholderEnabled: true,
		MaxCoverReferences: DefaultMaxCoverReferences,
		SceneMaxAttempts:   generator.DefaultSceneAttempts,
		CoverMaxAttempts:   generator.DefaultCoverAttempts,
		RetryBaseDelay:     generator.DefaultBaseDelay,
		RetryMaxDelay:      generator.DefaultMaxDelay,
		AttemptTimeout:     generator.DefaultAttemptTimeout,
		RateInterval:       DefaultRateInterval,
		RateBurst:          DefaultRateBurst,
	}
}

// Validate は設定値の整合性を確認します。
func (c Config) Validate() error {
	var errs []error
	if c.SceneMaxAttempts < 1 {
		errs = append(errs, errors.New("SceneMaxAttempts は1以上である必要があります"))
	}
	if c.CoverMaxAttempts < 1 {
		errs = append(errs, errors.New("CoverMaxAttempts は1以上である必要があります"))
	}
	if c.RetryBaseDelay < 0 || c.RetryMaxDelay < 0 || c.AttemptTimeout < 0 || c.RateInterval < 0 {
		errs = append(errs, errors.New("待機時間に負の値は指定できません"))
	}
	if c.RateBurst < 1 {
		errs = append(errs, errors.New("RateBurst は1以上である必要があります"))
	}
	return errors.Join(errs...)
}

// ScenePolicy は場面生成の再試行方針を返します。
func (c Config) ScenePolicy() generator.RetryPolicy {
	return c.policy(c.SceneMaxAttempts)
}

// CoverPolicy は表紙生成の再試行方針を返します。
func (c Config) CoverPolicy() generator.RetryPolicy {
	return c.policy(c.CoverMaxAttempts)
}

func (c Config) policy(attempts int) generator.RetryPolicy {
	return generator.RetryPolicy{
		MaxAttempts:    attempts,
		BaseDelay:      c.RetryBaseDelay,
		MaxDelay:       c.RetryMaxDelay,
		AttemptTimeout: c.AttemptTimeout,
	}
}
