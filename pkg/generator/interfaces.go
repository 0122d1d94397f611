package generator

import "context"

// Image は生成または読み込まれた画像データです。
type Image struct {
	Data     []byte
	MimeType string
}

// Reference は画像から画像への生成に添付する、キャラクターの参照画像です。
type Reference struct {
	Name     string
	Data     []byte
	MimeType string
}

// Request はバックエンドへの1回分の生成要求です。
// References が空の場合はプロンプトのみの生成になります。
type Request struct {
	Prompt     string
	References []Reference
}

// Backend は外部の画像生成バックエンドです。
// 安全フィルタによる拒否は domain.ErrContentRejected を、それ以外の一時的な失敗は
// domain.ErrTransientBackend をラップして返すことが期待されます。
type Backend interface {
	GenerateImage(ctx context.Context, req Request) (*Image, error)
}

// AssetSource は静的な画像アセットの提供元です。
type AssetSource interface {
	// DefaultImage はキャラクター原型の既定画像を返します。なければ ok は false です。
	DefaultImage(ctx context.Context, canonical string) (img *Image, ok bool)
	// Placeholder は中立のプレースホルダー画像を返します。無効な場合 ok は false です。
	Placeholder(ctx context.Context) (img *Image, ok bool)
}
