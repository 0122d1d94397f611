package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/shouni/go-scene-kit/pkg/domain"
)

const (
	DefaultSceneAttempts  = 3
	DefaultCoverAttempts  = 5
	DefaultBaseDelay      = 500 * time.Millisecond
	DefaultMaxDelay       = 8 * time.Second
	DefaultAttemptTimeout = 60 * time.Second
)

// RetryPolicy は1つの生成段階での再試行の方針です。
// 場面生成と表紙生成は同じ方針オブジェクトを異なるパラメータで共有します。
type RetryPolicy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	AttemptTimeout time.Duration
	// NonRetryable が true を返すエラーは即座に終端として扱います。nil の場合は安全フィルタの拒否だけが終端です。
	NonRetryable func(error) bool
}

// ScenePolicy はゲーム内の場面生成に使う既定の方針です。
func ScenePolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    DefaultSceneAttempts,
		BaseDelay:      DefaultBaseDelay,
		MaxDelay:       DefaultMaxDelay,
		AttemptTimeout: DefaultAttemptTimeout,
	}
}

// CoverPolicy は表紙生成に使う既定の方針です。表紙の欠落は目立つため試行回数を多くしています。
func CoverPolicy() RetryPolicy {
	p := ScenePolicy()
	p.MaxAttempts = DefaultCoverAttempts
	return p
}

// Once は同じ方針で試行回数だけを1回にしたコピーを返します。
func (p RetryPolicy) Once() RetryPolicy {
	p.MaxAttempts = 1
	return p
}

// Delay は attempt 回目の失敗の後に待つ時間を返します。基準値から倍々に増え、MaxDelay で頭打ちになります。
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

func (p RetryPolicy) terminal(err error) bool {
	if p.NonRetryable != nil {
		return p.NonRetryable(err)
	}
	return !domain.IsRetryable(err)
}

// Do は fn を方針に従って再試行します。
// 各試行はキャンセルから切り離したコンテキストで AttemptTimeout まで実行されるため、
// 実行中の試行は最後まで完了します。試行間の待機は ctx のキャンセルで中断されます。
func (p RetryPolicy) Do(ctx context.Context, limiter *rate.Limiter, fn func(ctx context.Context) (*Image, error)) (*Image, error) {
	maxAttempts := max(p.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		img, err := p.run(ctx, fn)
		if err == nil {
			return img, nil
		}
		lastErr = err

		if p.terminal(err) {
			return nil, err
		}
		if attempt == maxAttempts {
			break
		}

		wait := p.Delay(attempt)
		slog.Warn("画像生成に失敗したため再試行します",
			"attempt", attempt, "max_attempts", maxAttempts, "wait", wait, "error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("%d回の試行後も失敗しました: %w", maxAttempts, lastErr)
}

func (p RetryPolicy) run(ctx context.Context, fn func(ctx context.Context) (*Image, error)) (*Image, error) {
	attemptCtx := context.WithoutCancel(ctx)
	if p.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(attemptCtx, p.AttemptTimeout)
		defer cancel()
	}

	img, err := fn(attemptCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: 試行がタイムアウトしました: %w", domain.ErrTransientBackend, err)
		}
		return nil, err
	}
	if img == nil || len(img.Data) == 0 {
		return nil, domain.ErrNoImageData
	}
	return img, nil
}
