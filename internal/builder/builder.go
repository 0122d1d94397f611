package builder

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/shouni/go-scene-kit/pkg/asset"
	kitconfig "github.com/shouni/go-scene-kit/pkg/config"
	"github.com/shouni/go-scene-kit/pkg/dictionary"
	"github.com/shouni/go-scene-kit/pkg/domain"
	"github.com/shouni/go-scene-kit/pkg/gamectx"
	"github.com/shouni/go-scene-kit/pkg/gemini"
	"github.com/shouni/go-scene-kit/pkg/generator"
	"github.com/shouni/go-scene-kit/pkg/prompts"
	"github.com/shouni/go-scene-kit/pkg/scene"
)

// Engine は組み立て済みのエンジンと、その補助リソースです。
type Engine struct {
	Service *scene.Service
	Assets  *asset.Library
	Store   *gamectx.Store
}

// BuildEngine は指定されたバックエンドを使ってエンジンを組み立てます。
func BuildEngine(ctx context.Context, cfg kitconfig.Config, backend generator.Backend) (*Engine, error) {
	dict, err := dictionary.Default()
	if err != nil {
		return nil, fmt.Errorf("キーワード辞書の初期化に失敗しました: %w", err)
	}

	assembler, err := prompts.NewAssembler(cfg.StyleSuffix)
	if err != nil {
		return nil, fmt.Errorf("プロンプトビルダーの作成に失敗しました: %w", err)
	}

	library := asset.NewLibrary(cfg.AssetDir, dict.Canonicals(domain.CategoryCharacter),
		asset.WithPlaceholder(cfg.PlaceholderEnabled))
	if _, err := library.Preload(ctx); err != nil {
		slog.WarnContext(ctx, "既定画像の事前読み込みに失敗しました。必要時に再試行します", "error", err)
	}

	client := generator.NewClient(backend,
		generator.WithAssets(library),
		generator.WithRateLimiter(newLimiter(cfg)))

	store := gamectx.NewStore()
	svc := scene.NewService(dict, store, assembler, client,
		scene.WithScenePolicy(cfg.ScenePolicy()),
		scene.WithCoverPolicy(cfg.CoverPolicy()),
		scene.WithMaxCoverReferences(cfg.MaxCoverReferences))

	return &Engine{Service: svc, Assets: library, Store: store}, nil
}

// InitializeBackend は Gemini の画像生成バックエンドを初期化します。
func InitializeBackend(ctx context.Context, cfg kitconfig.Config) (generator.Backend, error) {
	backend, err := gemini.NewBackend(ctx, gemini.Config{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.ImageModel,
	})
	if err != nil {
		return nil, fmt.Errorf("Geminiバックエンドの初期化に失敗したのだ: %w", err)
	}
	return backend, nil
}

func newLimiter(cfg kitconfig.Config) *rate.Limiter {
	if cfg.RateInterval <= 0 {
		return rate.NewLimiter(rate.Inf, cfg.RateBurst)
	}
	return rate.NewLimiter(rate.Every(cfg.RateInterval), cfg.RateBurst)
}
