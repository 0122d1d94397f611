package asset

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
)

var testPNG = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 1, 2, 3}

func writeArchetype(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".png"), testPNG, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLibrary_DefaultImage(t *testing.T) {
	dir := t.TempDir()
	writeArchetype(t, dir, "farmer")
	l := NewLibrary(dir, []string{"farmer", "ninja"})
	ctx := context.Background()

	t.Run("ファイルがあれば既定画像を返すのだ", func(t *testing.T) {
		img, ok := l.DefaultImage(ctx, "farmer")
		if !ok {
			t.Fatal("既定画像が見つかりません")
		}
		if !bytes.Equal(img.Data, testPNG) || img.MimeType != "image/png" {
			t.Errorf("予期しない画像です: %s", img.MimeType)
		}
	})

	t.Run("ファイルがなければ false を返すこと", func(t *testing.T) {
		if _, ok := l.DefaultImage(ctx, "ninja"); ok {
			t.Error("存在しない既定画像が返されました")
		}
	})

	t.Run("未知の原型は読み込まないこと", func(t *testing.T) {
		writeArchetype(t, dir, "dragon")
		if _, ok := l.DefaultImage(ctx, "dragon"); ok {
			t.Error("未知の原型の画像が返されました")
		}
	})

	t.Run("ディレクトリ未設定なら常に false であること", func(t *testing.T) {
		if _, ok := NewLibrary("", []string{"farmer"}).DefaultImage(ctx, "farmer"); ok {
			t.Error("ディレクトリ未設定で画像が返されました")
		}
	})
}

func TestLibrary_LoadOnce(t *testing.T) {
	var reads atomic.Int32
	l := NewLibrary("assets", []string{"wizard"}, WithReadFile(func(string) ([]byte, error) {
		reads.Add(1)
		return testPNG, nil
	}))

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.DefaultImage(context.Background(), "wizard")
		}()
	}
	wg.Wait()

	if got := reads.Load(); got != 1 {
		t.Errorf("期待値 1, 実際の値 %d", got)
	}
}

func TestLibrary_ReadError(t *testing.T) {
	l := NewLibrary("assets", []string{"wizard"}, WithReadFile(func(string) ([]byte, error) {
		return nil, errors.New("permission denied")
	}))
	if _, ok := l.DefaultImage(context.Background(), "wizard"); ok {
		t.Error("読み込みエラーで画像が返されました")
	}
	if _, err := l.Preload(context.Background()); err == nil {
		t.Error("Preload がエラーを返しませんでした")
	}
}

func TestLibrary_Preload(t *testing.T) {
	dir := t.TempDir()
	writeArchetype(t, dir, "farmer")
	writeArchetype(t, dir, "girl")

	found, err := NewLibrary(dir, []string{"farmer", "girl", "alien"}).Preload(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if found != 2 {
		t.Errorf("期待値 2, 実際の値 %d", found)
	}
}

func TestLibrary_Placeholder(t *testing.T) {
	t.Run("灰色の PNG を返すのだ", func(t *testing.T) {
		img, ok := NewLibrary("", nil).Placeholder(context.Background())
		if !ok {
			t.Fatal("プレースホルダーが返されませんでした")
		}
		decoded, err := png.Decode(bytes.NewReader(img.Data))
		if err != nil {
			t.Fatalf("PNG として読み込めません: %v", err)
		}
		if decoded.Bounds().Dx() != placeholderSize {
			t.Errorf("期待値 %d, 実際の値 %d", placeholderSize, decoded.Bounds().Dx())
		}
		r, g, b, _ := decoded.At(10, 10).RGBA()
		if r != g || g != b {
			t.Error("灰色ではありません")
		}
	})

	t.Run("無効にできること", func(t *testing.T) {
		if _, ok := NewLibrary("", nil, WithPlaceholder(false)).Placeholder(context.Background()); ok {
			t.Error("無効なのにプレースホルダーが返されました")
		}
	})
}

func TestScenePath(t *testing.T) {
	got, err := ScenePath("out", 2)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != "scene_2.png" {
		t.Errorf("期待値 'scene_2.png', 実際の値 '%s'", filepath.Base(got))
	}
	if !SceneFileRegex.MatchString(filepath.Base(got)) {
		t.Errorf("正規表現に一致しません: %s", got)
	}
}
