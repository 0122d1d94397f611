package runner

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Script は再生するゲームの一覧です。
type Script struct {
	Games []GameScript `yaml:"games"`
}

// GameScript は1ゲーム分のターンと表紙の設定です。
type GameScript struct {
	ID    string       `yaml:"id"`
	Style int          `yaml:"style"`
	Title string       `yaml:"title"`
	Cover bool         `yaml:"cover"`
	Turns []TurnScript `yaml:"turns"`
}

// TurnScript は1ターン分のプレイヤーの入力と投票結果です。
type TurnScript struct {
	Text     string   `yaml:"text"`
	User     string   `yaml:"user"`
	Allowed  []string `yaml:"allowed"`
	Ending   bool     `yaml:"ending"`
	Accepted *bool    `yaml:"accepted"` // 省略時は承認として扱うのだ
}

// IsAccepted は投票で承認されたかどうかを返します。
func (t TurnScript) IsAccepted() bool {
	return t.Accepted == nil || *t.Accepted
}

// LoadScript はターンスクリプトの YAML ファイルを読み込みます。
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("スクリプトファイル %s の読み込みに失敗しました: %w", path, err)
	}
	return ParseScript(data)
}

// ParseScript はターンスクリプトを解析して検証します。
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("スクリプトの解析に失敗しました: %w", err)
	}
	if len(s.Games) == 0 {
		return nil, errors.New("スクリプトにゲームが含まれていません")
	}

	seen := make(map[string]bool)
	for i, g := range s.Games {
		if g.ID == "" {
			return nil, fmt.Errorf("%d 番目のゲームに id がありません", i+1)
		}
		if seen[g.ID] {
			return nil, fmt.Errorf("ゲーム id %q が重複しています", g.ID)
		}
		seen[g.ID] = true
		if len(g.Turns) == 0 {
			return nil, fmt.Errorf("ゲーム %q にターンがありません", g.ID)
		}
	}
	return &s, nil
}

// Select はスクリプトを指定した id のゲームだけに絞り込みます。
func (s *Script) Select(gameID string) error {
	for _, g := range s.Games {
		if g.ID == gameID {
			s.Games = []GameScript{g}
			return nil
		}
	}
	return fmt.Errorf("ゲーム %q がスクリプトに見つかりません", gameID)
}

// AcceptAll は全ターンを承認済みとして扱うように書き換えます。
func (s *Script) AcceptAll() {
	accepted := true
	for gi := range s.Games {
		for ti := range s.Games[gi].Turns {
			s.Games[gi].Turns[ti].Accepted = &accepted
		}
	}
}
