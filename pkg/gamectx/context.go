package gamectx

import (
	"maps"
	"slices"
	"sync"

	"github.com/shouni/go-scene-kit/pkg/domain"
)

// PendingTurn は生成済みだがまだ確定していないターンです。
// 確定されるまで共有コンテキストには一切反映されません。
type PendingTurn struct {
	TurnNumber   int
	TurnText     string
	ResolvedText string
	Entities     domain.Entities
	Image        []byte
	Tier         domain.Tier
}

// Snapshot はある時点の GameContext の読み取り専用コピーです。
type Snapshot struct {
	GameID            string
	StoryHistory      []string
	Characters        map[string]domain.CharacterReference
	LastCharacter     string
	LastObject        string
	TurnCount         int
	LastCommittedTurn int
}

// gameContext は1ゲーム分の可変状態です。全ての読み書きは mu で直列化されます。
type gameContext struct {
	mu sync.Mutex

	id                string
	history           []string
	characters        map[string]*domain.CharacterReference
	lastCharacter     string
	lastObject        string
	turnCount         int
	lastCommittedTurn int
	pending           map[int]PendingTurn
	evicted           bool
}

func newGameContext(id string) *gameContext {
	return &gameContext{
		id:         id,
		characters: make(map[string]*domain.CharacterReference),
		pending:    make(map[int]PendingTurn),
	}
}

// snapshotLocked は呼び出し側が mu を保持している前提でコピーを作ります。
func (g *gameContext) snapshotLocked() Snapshot {
	chars := make(map[string]domain.CharacterReference, len(g.characters))
	for name, ref := range g.characters {
		chars[name] = ref.Clone()
	}
	return Snapshot{
		GameID:            g.id,
		StoryHistory:      slices.Clone(g.history),
		Characters:        chars,
		LastCharacter:     g.lastCharacter,
		LastObject:        g.lastObject,
		TurnCount:         g.turnCount,
		LastCommittedTurn: g.lastCommittedTurn,
	}
}

func (g *gameContext) commitLocked(turnNumber int, resolvedText string, entities domain.Entities) error {
	if turnNumber <= g.lastCommittedTurn {
		return domain.ErrTurnOutOfOrder
	}
	g.history = append(g.history, resolvedText)
	if name, ok := entities.Last(domain.CategoryCharacter); ok {
		g.lastCharacter = name
	}
	if name, ok := entities.Last(domain.CategoryObject); ok {
		g.lastObject = name
	}
	g.turnCount++
	g.lastCommittedTurn = turnNumber

	// 確定したターン以前の保留は不要になります。
	maps.DeleteFunc(g.pending, func(n int, _ PendingTurn) bool { return n <= turnNumber })
	return nil
}

// recordLocked は未登録なら参照を作成し、登録済みなら出現回数を増やします。
// 作成した場合は true を返します。
func (g *gameContext) recordLocked(name string, image []byte, turnNumber int) bool {
	if ref, ok := g.characters[name]; ok {
		ref.AppearanceCount++
		return false
	}
	if len(image) == 0 {
		return false
	}
	ref := domain.NewCharacterReference(name, image, turnNumber)
	g.characters[name] = &ref
	return true
}
