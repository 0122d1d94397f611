package prompts

import (
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
)

const (
	ModeScene = "scene"
	ModeCover = "cover"

	// QualitySuffix は全てのプロンプトの末尾に付く品質と一貫性の指示です。
	QualitySuffix = "high quality, consistent character designs across scenes, no text, no speech bubbles, no watermark"
)

var (
	//go:embed scene.tmpl
	scenePrompt string
	//go:embed cover.tmpl
	coverPrompt string
)

var allTemplates = map[string]string{
	ModeScene: scenePrompt,
	ModeCover: coverPrompt,
}

// SceneData は場面プロンプトのテンプレートに渡すデータ構造です。
type SceneData struct {
	History  []string
	Scene    string
	Style    string
	Suffix   string
	IsEnding bool
}

// CoverData は表紙プロンプトのテンプレートに渡すデータ構造です。
type CoverData struct {
	Title      string
	Style      string
	Characters []string
	Suffix     string
}

// Assembler は、ゲームの文脈と画風から画像生成用のプロンプトを組み立てます。
type Assembler struct {
	templates map[string]*template.Template
	suffix    string
}

// NewAssembler は Assembler を初期化します。suffix は品質指示の後ろに追加されます。
func NewAssembler(suffix string) (*Assembler, error) {
	funcs := template.FuncMap{"join": strings.Join}

	parsed := make(map[string]*template.Template)
	for mode, content := range allTemplates {
		if content == "" {
			return nil, fmt.Errorf("プロンプトテンプレート '%s' (go:embed) の読み込みに失敗しました: 内容が空です", mode)
		}
		tmpl, err := template.New(mode).Funcs(funcs).Parse(content)
		if err != nil {
			return nil, fmt.Errorf("プロンプト '%s' の解析に失敗: %w", mode, err)
		}
		parsed[mode] = tmpl
	}

	full := QualitySuffix
	if s := strings.TrimSpace(suffix); s != "" {
		full += ", " + s
	}

	return &Assembler{templates: parsed, suffix: full}, nil
}

// Build は、要求されたモードに応じて適切なテンプレートを実行します。
func (a *Assembler) Build(mode string, data any) (string, error) {
	tmpl, ok := a.templates[mode]
	if !ok {
		return "", fmt.Errorf("不明なモードです: '%s'", mode)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("プロンプトテンプレートの実行に失敗しました: %w", err)
	}
	return strings.TrimSpace(sb.String()), nil
}

// Assemble は場面用のプロンプトを返します。
// isEnding の場合も通常の文脈を保ったまま、フィナーレの指示を先頭に加えます。
func (a *Assembler) Assemble(resolvedText string, history []string, styleIndex int, isEnding bool) string {
	data := SceneData{
		History:  history,
		Scene:    resolvedText,
		Style:    Style(styleIndex),
		Suffix:   a.suffix,
		IsEnding: isEnding,
	}
	out, err := a.Build(ModeScene, data)
	if err != nil {
		// テンプレートは組み込みなので通常は起きません。単純な連結で代替します。
		slog.Error("場面プロンプトの構築に失敗したため単純連結で代替します", "error", err)
		return strings.Join(append(append([]string{}, history...), resolvedText, data.Style, a.suffix), "\n")
	}
	return out
}

// AssembleCover は表紙用のプロンプトを返します。
func (a *Assembler) AssembleCover(title string, characters []string, styleIndex int) string {
	data := CoverData{
		Title:      title,
		Style:      Style(styleIndex),
		Characters: characters,
		Suffix:     a.suffix,
	}
	out, err := a.Build(ModeCover, data)
	if err != nil {
		slog.Error("表紙プロンプトの構築に失敗したため単純連結で代替します", "error", err)
		return fmt.Sprintf("Book cover titled '%s'. Style: %s. %s", title, data.Style, a.suffix)
	}
	return out
}
