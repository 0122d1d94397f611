package domain

import (
	"fmt"
	"slices"
)

// CharacterReference は、キャラクターの見た目を確立した参照画像を保持します。
// ReferenceImage は一度設定されたら変更されず、AppearanceCount だけが増加します。
type CharacterReference struct {
	CanonicalName       string `json:"canonical_name"`
	FirstAppearanceTurn int    `json:"first_appearance_turn"`
	ReferenceImage      []byte `json:"-"`
	AppearanceCount     int    `json:"appearance_count"`
}

// NewCharacterReference は初登場時の参照を生成します。画像はコピーして保持します。
func NewCharacterReference(name string, image []byte, turn int) CharacterReference {
	return CharacterReference{
		CanonicalName:       name,
		FirstAppearanceTurn: turn,
		ReferenceImage:      slices.Clone(image),
		AppearanceCount:     1,
	}
}

// Clone は画像バイト列を共有しないコピーを返します。
func (r CharacterReference) Clone() CharacterReference {
	r.ReferenceImage = slices.Clone(r.ReferenceImage)
	return r
}

// String はキャラクター参照の情報を文字列で返します。
func (r CharacterReference) String() string {
	return fmt.Sprintf("%s (turn %d, seen %d, %d bytes)", r.CanonicalName, r.FirstAppearanceTurn, r.AppearanceCount, len(r.ReferenceImage))
}
