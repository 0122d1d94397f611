package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/shouni/go-scene-kit/pkg/asset"
	"github.com/shouni/go-scene-kit/pkg/domain"
)

const (
	// DefaultStorybookName は物語の Markdown ファイル名です。
	DefaultStorybookName = "story.md"
)

// Page は確定した1ターン分の挿絵と文章です。
type Page struct {
	Turn       int
	Text       string
	ImagePath  string
	Tier       domain.Tier
	Characters []string
}

// Storybook は1ゲーム分の確定した物語です。
type Storybook struct {
	Title     string
	CoverPath string
	Pages     []Page
}

// Publisher は確定した物語を Markdown として書き出します。
type Publisher struct {
	writer OutputWriter
}

// NewPublisher は Publisher を作成します。
func NewPublisher(writer OutputWriter) *Publisher {
	return &Publisher{writer: writer}
}

// Publish は baseDir に story.md を書き出し、そのパスを返すのだ！
func (p *Publisher) Publish(ctx context.Context, baseDir string, book Storybook) (string, error) {
	out, err := asset.ResolveOutputPath(baseDir, DefaultStorybookName)
	if err != nil {
		return "", err
	}

	content := BuildMarkdown(book, baseDir)
	if err := p.writer.Write(ctx, out, []byte(content)); err != nil {
		return "", fmt.Errorf("markdownファイルの書き込みに失敗しました: %w", err)
	}

	slog.InfoContext(ctx, "物語を書き出しました", "path", out, "pages", len(book.Pages))
	return out, nil
}

// BuildMarkdown は物語の Markdown を組み立てます。
// 画像のパスは baseDir からの相対パスで出力されます。
func BuildMarkdown(book Storybook, baseDir string) string {
	var sb strings.Builder
	title := book.Title
	if title == "" {
		title = "Untitled"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)

	if book.CoverPath != "" {
		fmt.Fprintf(&sb, "![cover](%s)\n\n", relativePath(baseDir, book.CoverPath))
	}

	for _, page := range book.Pages {
		fmt.Fprintf(&sb, "## Turn %d\n\n", page.Turn)
		// 画像が得られなかったターンは文章だけを載せるのだ
		if page.ImagePath != "" {
			fmt.Fprintf(&sb, "![turn %d](%s)\n\n", page.Turn, relativePath(baseDir, page.ImagePath))
		}
		var meta []string
		if page.ImagePath != "" && !page.Tier.Generated() {
			meta = append(meta, fmt.Sprintf("- tier: %s\n", page.Tier))
		}
		if len(page.Characters) > 0 {
			meta = append(meta, fmt.Sprintf("- characters: %s\n", strings.Join(page.Characters, ", ")))
		}
		if len(meta) > 0 {
			sb.WriteString(strings.Join(meta, ""))
			sb.WriteString("\n")
		}
		sb.WriteString(strings.TrimSpace(page.Text))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func relativePath(baseDir, p string) string {
	rel, err := filepath.Rel(baseDir, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}
