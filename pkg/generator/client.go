package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/shouni/go-scene-kit/pkg/domain"
	"github.com/shouni/go-scene-kit/pkg/prompts"
)

const tracerName = "github.com/shouni/go-scene-kit/pkg/generator"

// GenerateRequest は1枚の画像を得るための要求です。
type GenerateRequest struct {
	Prompt string
	// References が空でなければ画像から画像への生成を最初に試します。
	References []Reference
	// Archetypes は既定画像を探すキャラクターの正規名です。先頭から順に探します。
	Archetypes []string
	Policy     RetryPolicy
}

// Result は生成結果と、それを提供したフォールバック段階です。
type Result struct {
	Image Image
	Tier  domain.Tier
	// GenerationErr は生成段階が失敗して既定画像などで代替した場合の最後のエラーです。
	GenerationErr error
}

// Client は再試行とフォールバックを備えた画像生成クライアントです。
type Client struct {
	backend Backend
	assets  AssetSource
	limiter *rate.Limiter
	tracer  trace.Tracer
}

// Option は Client の設定を変更します。
type Option func(*Client)

// WithRateLimiter はバックエンド呼び出しの前に待機するレートリミッターを設定します。
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithAssets は既定画像とプレースホルダーの提供元を設定します。
func WithAssets(a AssetSource) Option {
	return func(c *Client) { c.assets = a }
}

// WithTracerProvider はスパンの出力先を設定します。既定ではグローバルのプロバイダを使います。
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = tp.Tracer(tracerName) }
}

// NewClient は Client を作成します。
func NewClient(backend Backend, opts ...Option) *Client {
	c := &Client{
		backend: backend,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate は以下の順で画像を取得します。
//  1. 参照画像があれば画像から画像への生成（失敗したら参照なしで1回だけ再試行）
//  2. 参照画像がなければプロンプトのみの生成
//  3. 検出されたキャラクター原型の既定画像
//  4. プレースホルダー画像
//
// 全ての段階が失敗した場合は domain.ErrAllTiersExhausted を返します。
// ctx がキャンセルされた場合はフォールバックせずに ctx.Err() を返します。
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "generator.Generate", trace.WithAttributes(
		attribute.Int("generator.references", len(req.References)),
		attribute.Int("generator.max_attempts", req.Policy.MaxAttempts),
	))
	defer span.End()

	res, err := c.generate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("generator.tier", res.Tier.String()))
	return res, nil
}

func (c *Client) generate(ctx context.Context, req GenerateRequest) (*Result, error) {
	var lastErr error

	if len(req.References) > 0 {
		names := make([]string, len(req.References))
		for i, r := range req.References {
			names[i] = r.Name
		}
		i2i := Request{
			Prompt:     prompts.ReferenceInstruction(names) + "\n\n" + req.Prompt,
			References: req.References,
		}
		img, err := c.runTier(ctx, domain.TierImageToImage, req.Policy, i2i)
		if err == nil {
			return &Result{Image: *img, Tier: domain.TierImageToImage}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		img, err = c.runTier(ctx, domain.TierTextOnlyFallback, req.Policy.Once(), Request{Prompt: req.Prompt})
		if err == nil {
			return &Result{Image: *img, Tier: domain.TierTextOnlyFallback, GenerationErr: lastErr}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	} else {
		img, err := c.runTier(ctx, domain.TierTextToImage, req.Policy, Request{Prompt: req.Prompt})
		if err == nil {
			return &Result{Image: *img, Tier: domain.TierTextToImage}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}

	if c.assets != nil {
		for _, name := range req.Archetypes {
			if img, ok := c.assets.DefaultImage(ctx, name); ok {
				slog.WarnContext(ctx, "生成に失敗したため既定画像で代替します",
					"tier", domain.TierDefaultAsset.String(), "character", name, "error", lastErr)
				return &Result{Image: *img, Tier: domain.TierDefaultAsset, GenerationErr: lastErr}, nil
			}
		}
		if img, ok := c.assets.Placeholder(ctx); ok {
			slog.WarnContext(ctx, "生成に失敗したためプレースホルダーで代替します",
				"tier", domain.TierPlaceholder.String(), "error", lastErr)
			return &Result{Image: *img, Tier: domain.TierPlaceholder, GenerationErr: lastErr}, nil
		}
	}

	slog.ErrorContext(ctx, "全てのフォールバック段階が失敗しました", "error", lastErr)
	return nil, fmt.Errorf("%w: %w", domain.ErrAllTiersExhausted, lastErr)
}

// runTier は1つの生成段階を方針に従って実行し、結果をログとスパンに残します。
func (c *Client) runTier(ctx context.Context, tier domain.Tier, policy RetryPolicy, req Request) (*Image, error) {
	ctx, span := c.tracer.Start(ctx, "generator.tier."+tier.String(), trace.WithAttributes(
		attribute.String("generator.tier", tier.String()),
		attribute.Int("generator.prompt_length", len(req.Prompt)),
	))
	defer span.End()

	logger := slog.With("tier", tier.String(), "references", len(req.References))
	logger.DebugContext(ctx, "画像生成を開始します")

	startTime := time.Now()
	img, err := policy.Do(ctx, c.limiter, func(attemptCtx context.Context) (*Image, error) {
		return c.backend.GenerateImage(attemptCtx, req)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WarnContext(ctx, "生成段階が失敗しました", "error", err)
		return nil, err
	}

	if img.MimeType == "" {
		img.MimeType = "image/png"
	}
	logger.InfoContext(ctx, "画像生成が完了しました",
		"duration", time.Since(startTime).Round(time.Millisecond),
		"mime_type", img.MimeType,
		"bytes", len(img.Data))
	return img, nil
}

