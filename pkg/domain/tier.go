package domain

// Tier は、どのフォールバック段階が画像を提供したかを表します。
type Tier int

const (
	TierNone Tier = iota
	// TierImageToImage は参照画像付きの生成です。
	TierImageToImage
	// TierTextToImage はプロンプトのみの通常生成です。
	TierTextToImage
	// TierTextOnlyFallback は画像から画像への生成に失敗した後の、参照なし再試行です。
	TierTextOnlyFallback
	// TierDefaultAsset はキャラクター既定画像です。
	TierDefaultAsset
	// TierPlaceholder は中立のプレースホルダー画像です。
	TierPlaceholder
)

func (t Tier) String() string {
	switch t {
	case TierImageToImage:
		return "image_to_image"
	case TierTextToImage:
		return "text_to_image"
	case TierTextOnlyFallback:
		return "text_only_fallback"
	case TierDefaultAsset:
		return "default_asset"
	case TierPlaceholder:
		return "placeholder"
	default:
		return "none"
	}
}

// Generated は、バックエンドが実際に生成した画像かどうかを返します。
// 参照画像として保存できるのはこの段階の画像だけです。
func (t Tier) Generated() bool {
	switch t {
	case TierImageToImage, TierTextToImage, TierTextOnlyFallback:
		return true
	}
	return false
}
