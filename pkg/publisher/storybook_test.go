package publisher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shouni/go-scene-kit/pkg/domain"
)

func TestBuildMarkdown(t *testing.T) {
	book := Storybook{
		Title:     "농부의 하루",
		CoverPath: filepath.Join("out", "cover.png"),
		Pages: []Page{
			{Turn: 1, Text: "농부가 밭에서 일한다", ImagePath: filepath.Join("out", "scene_1.png"), Tier: domain.TierTextToImage, Characters: []string{"farmer"}},
			{Turn: 2, Text: "농부가 마을로 간다", ImagePath: filepath.Join("out", "scene_2.png"), Tier: domain.TierPlaceholder},
			{Turn: 3, Text: "농부가 성으로 간다"},
		},
	}

	got := BuildMarkdown(book, "out")

	wants := []string{
		"# 농부의 하루\n",
		"![cover](cover.png)",
		"## Turn 1",
		"![turn 1](scene_1.png)",
		"- characters: farmer",
		"농부가 밭에서 일한다",
		"![turn 2](scene_2.png)",
		"- tier: placeholder",
		"## Turn 3\n\n농부가 성으로 간다",
	}
	for _, want := range wants {
		if !strings.Contains(got, want) {
			t.Errorf("Markdown に '%s' が含まれていません:\n%s", want, got)
		}
	}
	if strings.Contains(got, "- tier: text_to_image") {
		t.Error("生成された画像の段階は出力しないはずです")
	}
	if strings.Contains(got, "![turn 3]") || strings.Contains(got, "placeholder.png") {
		t.Error("画像のないターンに存在しない画像へのリンクが出力されました")
	}
}

func TestBuildMarkdown_DefaultTitle(t *testing.T) {
	if got := BuildMarkdown(Storybook{}, "out"); !strings.HasPrefix(got, "# Untitled\n") {
		t.Errorf("期待値 '# Untitled', 実際の値 '%s'", got)
	}
}

func TestPublisher_Publish(t *testing.T) {
	dir := t.TempDir()
	p := NewPublisher(LocalWriter{})

	out, err := p.Publish(context.Background(), filepath.Join(dir, "game"), Storybook{Title: "t"})
	if err != nil {
		t.Fatalf("書き出しに失敗しました: %v", err)
	}
	if out != filepath.Join(dir, "game", DefaultStorybookName) {
		t.Errorf("期待値 '%s', 実際の値 '%s'", filepath.Join(dir, "game", DefaultStorybookName), out)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# t") {
		t.Errorf("書き出した内容が不正です: %s", data)
	}
}

func TestLocalWriter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (LocalWriter{}).Write(ctx, filepath.Join(t.TempDir(), "x"), nil); err == nil {
		t.Error("キャンセル済みのコンテキストでエラーになりませんでした")
	}
}
