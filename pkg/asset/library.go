package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/shouni/go-scene-kit/pkg/generator"
)

const (
	defaultCacheExpiration = 30 * time.Minute
	cacheCleanupInterval   = 1 * time.Hour
	placeholderSize        = 512
)

// placeholderGrey はプレースホルダー画像の塗りつぶし色です。
var placeholderGrey = color.RGBA{R: 0xC8, G: 0xC8, B: 0xC8, A: 0xFF}

// Library はキャラクター原型の既定画像とプレースホルダー画像を提供します。
// 既定画像は <dir>/<name>.png から読み込み、結果をキャッシュします。
type Library struct {
	dir                string
	archetypes         []string
	placeholderEnabled bool
	readFile           func(string) ([]byte, error)

	cache       *cache.Cache
	loadGroup   singleflight.Group
	placeholder func() ([]byte, error)
}

// Option は Library の設定を変更します。
type Option func(*Library)

// WithPlaceholder はプレースホルダー画像の提供を切り替えます。既定では有効です。
func WithPlaceholder(enabled bool) Option {
	return func(l *Library) { l.placeholderEnabled = enabled }
}

// WithReadFile はファイルの読み込み関数を差し替えます。
func WithReadFile(fn func(string) ([]byte, error)) Option {
	return func(l *Library) { l.readFile = fn }
}

// NewLibrary は Library を作成します。dir が空の場合、既定画像は提供されません。
func NewLibrary(dir string, archetypes []string, opts ...Option) *Library {
	l := &Library{
		dir:                dir,
		archetypes:         slices.Clone(archetypes),
		placeholderEnabled: true,
		readFile:           os.ReadFile,
		cache:              cache.New(defaultCacheExpiration, cacheCleanupInterval),
		placeholder:        sync.OnceValues(encodePlaceholder),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DefaultImage はキャラクター原型の既定画像を返します。
// 同じ原型への同時の要求は1回の読み込みにまとめられます。
func (l *Library) DefaultImage(ctx context.Context, name string) (*generator.Image, bool) {
	if l.dir == "" || !slices.Contains(l.archetypes, name) {
		return nil, false
	}

	data, err := l.load(name)
	if err != nil {
		slog.WarnContext(ctx, "既定画像の読み込みに失敗しました", "character", name, "error", err)
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}
	return &generator.Image{Data: data, MimeType: http.DetectContentType(data)}, true
}

// load はキャッシュを確認し、なければファイルを読み込みます。
// 存在しないファイルは空のデータとしてキャッシュし、再読み込みを避けます。
func (l *Library) load(name string) ([]byte, error) {
	if v, ok := l.cache.Get(name); ok {
		return v.([]byte), nil
	}

	v, err, _ := l.loadGroup.Do(name, func() (any, error) {
		if v, ok := l.cache.Get(name); ok {
			return v, nil
		}
		path := ArchetypePath(l.dir, name)
		data, err := l.readFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("既定画像が見つかりません", "path", path)
			data, err = []byte{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("既定画像 %s の読み込みに失敗しました: %w", path, err)
		}
		l.cache.Set(name, data, cache.DefaultExpiration)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Preload は全ての原型の既定画像を並列に読み込み、見つかった数を返します。
func (l *Library) Preload(ctx context.Context) (int, error) {
	if l.dir == "" {
		return 0, nil
	}

	var (
		mu    sync.Mutex
		found int
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for _, name := range l.archetypes {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			data, err := l.load(name)
			if err != nil {
				return err
			}
			if len(data) > 0 {
				mu.Lock()
				found++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return found, err
	}

	slog.InfoContext(ctx, "既定画像を読み込みました", "dir", l.dir, "found", found, "archetypes", len(l.archetypes))
	return found, nil
}

// Placeholder は中立的な灰色の PNG 画像を返します。
func (l *Library) Placeholder(ctx context.Context) (*generator.Image, bool) {
	if !l.placeholderEnabled {
		return nil, false
	}
	data, err := l.placeholder()
	if err != nil {
		slog.ErrorContext(ctx, "プレースホルダー画像の生成に失敗しました", "error", err)
		return nil, false
	}
	return &generator.Image{Data: data, MimeType: "image/png"}, true
}

func encodePlaceholder() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: placeholderGrey}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
