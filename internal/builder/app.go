package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/shouni/go-scene-kit/internal/config"
	"github.com/shouni/go-scene-kit/internal/telemetry"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各Build関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config   *config.Config     // Configは、環境変数から読み込まれたグローバルな設定です。
	Options  config.PlayOptions // Optionsは、コマンドラインから渡された実行時の設定です。
	Engine   *Engine            // Engineは、場面合成サービスとその補助リソースです。
	shutdown telemetry.Shutdown // shutdown はトレースの送信を終了します。
}

// NewAppContext はトレースを初期化し、Gemini バックエンドでエンジンを組み立てます。
func NewAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	shutdown, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("トレースの初期化に失敗しました: %w", err)
	}

	backend, err := InitializeBackend(ctx, cfg.Kit)
	if err != nil {
		return nil, errors.Join(err, shutdown(ctx))
	}

	engine, err := BuildEngine(ctx, cfg.Kit, backend)
	if err != nil {
		return nil, errors.Join(err, shutdown(ctx))
	}

	return &AppContext{
		Config:   cfg,
		Options:  cfg.Options,
		Engine:   engine,
		shutdown: shutdown,
	}, nil
}

// Close は未送信のトレースを送信します。
func (a *AppContext) Close(ctx context.Context) error {
	if a.shutdown == nil {
		return nil
	}
	return a.shutdown(ctx)
}
