package domain

import "slices"

// Category はエンティティの分類です。
type Category string

const (
	CategoryCharacter Category = "character"
	CategoryLocation  Category = "location"
	CategoryObject    Category = "object"
)

// Categories は全カテゴリを固定順で返します。
func Categories() []Category {
	return []Category{CategoryCharacter, CategoryLocation, CategoryObject}
}

// Valid はカテゴリが既知のものかどうかを返します。
func (c Category) Valid() bool {
	switch c {
	case CategoryCharacter, CategoryLocation, CategoryObject:
		return true
	}
	return false
}

// Entities は抽出結果をカテゴリごとに保持します。値はすべて正規化済みの名前です。
type Entities struct {
	Characters []string `json:"characters" yaml:"characters"`
	Locations  []string `json:"locations" yaml:"locations"`
	Objects    []string `json:"objects" yaml:"objects"`
}

// Of は指定カテゴリの名前一覧を返します。
func (e Entities) Of(c Category) []string {
	switch c {
	case CategoryCharacter:
		return e.Characters
	case CategoryLocation:
		return e.Locations
	case CategoryObject:
		return e.Objects
	}
	return nil
}

// Add はカテゴリ内で重複しないように名前を追加します。
func (e *Entities) Add(c Category, name string) {
	var target *[]string
	switch c {
	case CategoryCharacter:
		target = &e.Characters
	case CategoryLocation:
		target = &e.Locations
	case CategoryObject:
		target = &e.Objects
	default:
		return
	}
	if slices.Contains(*target, name) {
		return
	}
	*target = append(*target, name)
}

// Last は指定カテゴリで最後に抽出された名前を返します。
func (e Entities) Last(c Category) (string, bool) {
	names := e.Of(c)
	if len(names) == 0 {
		return "", false
	}
	return names[len(names)-1], true
}

// IsEmpty は何も抽出されなかった場合に true を返します。
func (e Entities) IsEmpty() bool {
	return len(e.Characters) == 0 && len(e.Locations) == 0 && len(e.Objects) == 0
}

// Clone はスライスを共有しないコピーを返します。
func (e Entities) Clone() Entities {
	return Entities{
		Characters: slices.Clone(e.Characters),
		Locations:  slices.Clone(e.Locations),
		Objects:    slices.Clone(e.Objects),
	}
}
