package domain

// SceneRequest は1ターン分の挿絵生成要求です。
type SceneRequest struct {
	GameID          string
	UserID          string
	TurnText        string
	TurnNumber      int
	AllowedKeywords []string // 呼び出し側が曖昧さを解消済みの場合のみ指定します
	StyleIndex      int
	IsEnding        bool
}

// SceneResult は生成された挿絵と、その生成に使われた解決済みテキストです。
type SceneResult struct {
	Image        []byte
	MimeType     string
	Tier         Tier
	ResolvedText string
	Entities     Entities
}

// ConfirmRequest は投票結果によるターン確定要求です。
type ConfirmRequest struct {
	GameID          string
	TurnText        string
	TurnNumber      int
	Accepted        bool
	AllowedKeywords []string
}

// ConfirmResult はターン確定の結果です。
type ConfirmResult struct {
	Committed         bool
	CreatedReferences []string // このターンで新たに参照画像が確立されたキャラクター
}

// CoverRequest は本の表紙生成要求です。
type CoverRequest struct {
	GameID     string
	Title      string
	StyleIndex int
}

// CoverResult は生成された表紙です。
type CoverResult struct {
	Image      []byte
	MimeType   string
	Tier       Tier
	Characters []string // 初登場順に並んだ表紙の登場キャラクター
}
