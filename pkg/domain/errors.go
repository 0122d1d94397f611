package domain

import "errors"

var (
	// ErrUnknownGame は、コンテキストが存在しない gameID を参照したことを示します。
	// 致命的ではなく、呼び出し側が作成するかどうかを判断します。
	ErrUnknownGame = errors.New("unknown game")

	// ErrContentRejected は、バックエンドの安全フィルタによって要求が拒否されたことを示します。
	// 同じ入力での再試行は行いません。
	ErrContentRejected = errors.New("content rejected by backend safety filter")

	// ErrTransientBackend は、通信エラーや一時的なバックエンド障害を示します。
	ErrTransientBackend = errors.New("transient backend error")

	// ErrNoImageData は、成功応答に画像データが含まれていなかったことを示します。
	ErrNoImageData = errors.New("no image data in backend response")

	// ErrAllTiersExhausted は、全てのフォールバック段階が失敗したことを示す終端エラーです。
	ErrAllTiersExhausted = errors.New("all generation fallback tiers exhausted")

	// ErrTurnOutOfOrder は、既に確定済みのターン番号以下のターンを確定しようとしたことを示します。
	ErrTurnOutOfOrder = errors.New("turn confirmed out of order")

	// ErrNoPendingTurn は、確認対象の保留ターンが存在しないことを示します。
	ErrNoPendingTurn = errors.New("no pending turn")

	// ErrInvalidRequest は、必須項目が欠けたリクエストを示します。
	ErrInvalidRequest = errors.New("invalid request")
)

// IsRetryable は、バックエンドのエラーが再試行に値するかどうかを判定します。
// 安全フィルタによる拒否とコンテキストのキャンセル以外は再試行対象です。
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrContentRejected)
}
