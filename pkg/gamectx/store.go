package gamectx

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/patrickmn/go-cache"

	"github.com/shouni/go-scene-kit/pkg/domain"
)

// Commit は確定するターンの内容です。Image が空、または Tier が生成段階でない場合、
// 新しい参照画像は作成されません。
type Commit struct {
	TurnNumber   int
	ResolvedText string
	Entities     domain.Entities
	Image        []byte
	Tier         domain.Tier
}

// Store は全ゲームの GameContext を所有します。
// ゲームごとに独立したロックを持つため、異なるゲームへの操作は並行に進みます。
type Store struct {
	games *cache.Cache
}

// NewStore は空の Store を作成します。ゲームは明示的に Evict されるまで保持されます。
func NewStore() *Store {
	return &Store{games: cache.New(cache.NoExpiration, 0)}
}

func (s *Store) lookup(gameID string) (*gameContext, bool) {
	v, ok := s.games.Get(gameID)
	if !ok {
		return nil, false
	}
	return v.(*gameContext), true
}

// getOrCreate は go-cache の Add による不可分な挿入で、同時の初回アクセスでも
// 1つのコンテキストだけが作成されるようにします。
func (s *Store) getOrCreate(gameID string) *gameContext {
	for {
		if g, ok := s.lookup(gameID); ok {
			return g
		}
		g := newGameContext(gameID)
		if err := s.games.Add(gameID, g, cache.NoExpiration); err == nil {
			slog.Debug("ゲームコンテキストを作成しました", "game_id", gameID)
			return g
		}
		// 他のゴルーチンが先に作成したので、そちらを取得し直します。
	}
}

// withGame はロック済みのコンテキストで fn を実行します。
// 削除済みのコンテキストを掴んだ場合は ErrUnknownGame を返します。
func (s *Store) withGame(gameID string, create bool, fn func(g *gameContext) error) error {
	for {
		var g *gameContext
		if create {
			g = s.getOrCreate(gameID)
		} else {
			var ok bool
			if g, ok = s.lookup(gameID); !ok {
				return fmt.Errorf("%w: %s", domain.ErrUnknownGame, gameID)
			}
		}

		g.mu.Lock()
		if g.evicted {
			g.mu.Unlock()
			if create {
				continue
			}
			return fmt.Errorf("%w: %s", domain.ErrUnknownGame, gameID)
		}
		err := fn(g)
		g.mu.Unlock()
		return err
	}
}

// GetOrCreate はゲームのスナップショットを返します。存在しなければ空の状態で作成します。
func (s *Store) GetOrCreate(gameID string) Snapshot {
	var snap Snapshot
	_ = s.withGame(gameID, true, func(g *gameContext) error {
		snap = g.snapshotLocked()
		return nil
	})
	return snap
}

// Get は既存ゲームのスナップショットを返します。
func (s *Store) Get(gameID string) (Snapshot, error) {
	var snap Snapshot
	err := s.withGame(gameID, false, func(g *gameContext) error {
		snap = g.snapshotLocked()
		return nil
	})
	return snap, err
}

// CommitTurn は解決済みテキストを履歴に追加し、直前の言及対象とターン数を更新します。
// turnNumber が確定済みのターン以下の場合は ErrTurnOutOfOrder を返します。
func (s *Store) CommitTurn(gameID string, turnNumber int, resolvedText string, entities domain.Entities) error {
	return s.withGame(gameID, false, func(g *gameContext) error {
		return g.commitLocked(turnNumber, resolvedText, entities)
	})
}

// RecordCharacterReference は未登録のキャラクターなら参照画像を保存し、
// 登録済みなら出現回数だけを増やします。作成した場合は true を返します。
func (s *Store) RecordCharacterReference(gameID, name string, image []byte, turnNumber int) (bool, error) {
	var created bool
	err := s.withGame(gameID, false, func(g *gameContext) error {
		created = g.recordLocked(name, image, turnNumber)
		return nil
	})
	return created, err
}

// Apply はターンの確定と参照画像の記録を1つのロック区間で行います。
// 途中で失敗した場合は何も反映されません。新たに参照が作成されたキャラクター名を返します。
// 未知または削除済みのゲームには ErrUnknownGame を返します。
func (s *Store) Apply(gameID string, c Commit) ([]string, error) {
	var created []string
	err := s.withGame(gameID, false, func(g *gameContext) error {
		if err := g.commitLocked(c.TurnNumber, c.ResolvedText, c.Entities); err != nil {
			return err
		}
		image := c.Image
		if !c.Tier.Generated() {
			image = nil
		}
		for _, name := range c.Entities.Characters {
			if g.recordLocked(name, image, c.TurnNumber) {
				created = append(created, name)
			}
		}
		return nil
	})
	return created, err
}

// SetPending は未確定のターンを保存します。同じターン番号の保留は上書きされます。
func (s *Store) SetPending(gameID string, p PendingTurn) error {
	return s.withGame(gameID, true, func(g *gameContext) error {
		if p.TurnNumber <= g.lastCommittedTurn {
			return domain.ErrTurnOutOfOrder
		}
		p.Entities = p.Entities.Clone()
		p.Image = bytes.Clone(p.Image)
		g.pending[p.TurnNumber] = p
		return nil
	})
}

// Pending は保留中のターンを返します。
func (s *Store) Pending(gameID string, turnNumber int) (PendingTurn, bool) {
	var (
		p  PendingTurn
		ok bool
	)
	_ = s.withGame(gameID, false, func(g *gameContext) error {
		p, ok = g.pending[turnNumber]
		return nil
	})
	return p, ok
}

// DiscardPending は保留中のターンを破棄します。破棄した場合は true を返します。
func (s *Store) DiscardPending(gameID string, turnNumber int) (bool, error) {
	var removed bool
	err := s.withGame(gameID, false, func(g *gameContext) error {
		if _, ok := g.pending[turnNumber]; ok {
			delete(g.pending, turnNumber)
			removed = true
		}
		return nil
	})
	return removed, err
}

// Evict はゲームのコンテキストと全ての参照画像を削除します。削除した場合は true を返します。
func (s *Store) Evict(gameID string) bool {
	g, ok := s.lookup(gameID)
	if !ok {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.evicted {
		return false
	}
	g.evicted = true
	s.games.Delete(gameID)
	slog.Debug("ゲームコンテキストを削除しました", "game_id", gameID, "turns", g.turnCount)
	return true
}

// Count は保持しているゲーム数を返します。
func (s *Store) Count() int {
	return s.games.ItemCount()
}
