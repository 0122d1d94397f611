package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"google.golang.org/genai"

	"github.com/shouni/go-scene-kit/pkg/domain"
	"github.com/shouni/go-scene-kit/pkg/generator"
)

const defaultTemperature = float32(0.4)

// blockedFinishReasons は安全フィルタによる停止を表す終了理由です。
var blockedFinishReasons = []string{
	"SAFETY",
	"PROHIBITED_CONTENT",
	"BLOCKLIST",
	"SPII",
	"IMAGE_SAFETY",
	"IMAGE_PROHIBITED_CONTENT",
}

// Config は Gemini バックエンドの設定です。
type Config struct {
	APIKey      string
	Model       string
	Temperature *float32
}

// Backend は Gemini の画像生成モデルを generator.Backend として使えるようにします。
type Backend struct {
	client      *genai.Client
	model       string
	temperature *float32
}

// NewBackend は API キーから genai クライアントを作成します。
func NewBackend(ctx context.Context, cfg Config) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY が設定されていません")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return NewBackendWithClient(client, cfg.Model, cfg.Temperature), nil
}

// NewBackendWithClient は既存の genai クライアントを使う Backend を作成します。
func NewBackendWithClient(client *genai.Client, model string, temperature *float32) *Backend {
	if temperature == nil {
		temperature = genai.Ptr(defaultTemperature)
	}
	return &Backend{client: client, model: model, temperature: temperature}
}

// GenerateImage は1回分の生成要求をモデルに送ります。
func (b *Backend) GenerateImage(ctx context.Context, req generator.Request) (*generator.Image, error) {
	resp, err := b.client.Models.GenerateContent(ctx, b.model, BuildContents(req), &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		Temperature:        b.temperature,
	})
	if err != nil {
		return nil, classify(err)
	}
	return ExtractImage(resp)
}

// BuildContents は参照画像とプロンプトを1つのユーザーメッセージにまとめます。
// 参照画像は指示文の番号と対応するように、指定された順に並べます。
func BuildContents(req generator.Request) []*genai.Content {
	parts := make([]*genai.Part, 0, len(req.References)+1)
	for _, ref := range req.References {
		mime := ref.MimeType
		if mime == "" {
			mime = http.DetectContentType(ref.Data)
		}
		parts = append(parts, genai.NewPartFromBytes(ref.Data, mime))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

// ExtractImage はレスポンスから最初の画像を取り出します。
// 安全フィルタで止められた場合は domain.ErrContentRejected を返します。
func ExtractImage(resp *genai.GenerateContentResponse) (*generator.Image, error) {
	if resp == nil {
		return nil, domain.ErrNoImageData
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return nil, fmt.Errorf("%w: prompt blocked (%s)", domain.ErrContentRejected, fb.BlockReason)
	}

	var blocked string
	for _, cand := range resp.Candidates {
		if cand == nil {
			continue
		}
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
					return &generator.Image{Data: part.InlineData.Data, MimeType: part.InlineData.MIMEType}, nil
				}
			}
		}
		if reason := string(cand.FinishReason); slices.Contains(blockedFinishReasons, reason) {
			blocked = reason
		}
	}

	if blocked != "" {
		return nil, fmt.Errorf("%w: finish reason %s", domain.ErrContentRejected, blocked)
	}
	return nil, domain.ErrNoImageData
}

// classify はクライアントのエラーを再試行の判断に使うエラーに変換します。
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: gemini api %d %s: %s", domain.ErrTransientBackend, apiErr.Code, apiErr.Status, apiErr.Message)
	}
	return fmt.Errorf("%w: %w", domain.ErrTransientBackend, err)
}
