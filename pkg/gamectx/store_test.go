package gamectx

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/shouni/go-scene-kit/pkg/domain"
)

func TestStore_GetOrCreate(t *testing.T) {
	s := NewStore()

	t.Run("存在しないゲームは空の状態で作成されるのだ", func(t *testing.T) {
		snap := s.GetOrCreate("g1")
		if snap.GameID != "g1" || snap.TurnCount != 0 || len(snap.StoryHistory) != 0 {
			t.Errorf("予期しないスナップショットです: %+v", snap)
		}
	})

	t.Run("同時の初回アクセスでも1つだけ作成されること", func(t *testing.T) {
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.GetOrCreate("g2")
			}()
		}
		wg.Wait()
		if _, err := s.RecordCharacterReference("g2", "farmer", []byte{1}, 1); err != nil {
			t.Fatal(err)
		}
		snap, _ := s.Get("g2")
		if len(snap.Characters) != 1 {
			t.Errorf("期待値 1, 実際の値 %d", len(snap.Characters))
		}
		if s.Count() != 2 {
			t.Errorf("期待値 2, 実際の値 %d", s.Count())
		}
	})
}

func TestStore_UnknownGame(t *testing.T) {
	s := NewStore()

	if _, err := s.Get("nope"); !errors.Is(err, domain.ErrUnknownGame) {
		t.Errorf("ErrUnknownGame を期待しましたが %v でした", err)
	}
	if err := s.CommitTurn("nope", 1, "text", domain.Entities{}); !errors.Is(err, domain.ErrUnknownGame) {
		t.Errorf("ErrUnknownGame を期待しましたが %v でした", err)
	}
	if _, err := s.RecordCharacterReference("nope", "farmer", []byte{1}, 1); !errors.Is(err, domain.ErrUnknownGame) {
		t.Errorf("ErrUnknownGame を期待しましたが %v でした", err)
	}
	if s.Evict("nope") {
		t.Error("存在しないゲームの削除が true を返しました")
	}
}

func TestStore_CommitTurn(t *testing.T) {
	s := NewStore()
	s.GetOrCreate("g")

	turns := []struct {
		text     string
		entities domain.Entities
	}{
		{"T1", domain.Entities{Characters: []string{"farmer"}, Objects: []string{"map"}}},
		{"T2", domain.Entities{Locations: []string{"village"}}},
		{"T3", domain.Entities{Characters: []string{"ninja", "girl"}}},
	}
	for i, tt := range turns {
		if err := s.CommitTurn("g", i+1, tt.text, tt.entities); err != nil {
			t.Fatalf("turn %d: %v", i+1, err)
		}
	}

	snap, err := s.Get("g")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(snap.StoryHistory, []string{"T1", "T2", "T3"}) {
		t.Errorf("履歴の順序が不正です: %v", snap.StoryHistory)
	}
	if snap.LastCharacter != "girl" {
		t.Errorf("期待値 'girl', 実際の値 '%s'", snap.LastCharacter)
	}
	if snap.LastObject != "map" {
		t.Errorf("期待値 'map', 実際の値 '%s'", snap.LastObject)
	}
	if snap.TurnCount != 3 {
		t.Errorf("期待値 3, 実際の値 %d", snap.TurnCount)
	}

	t.Run("確定済みのターン番号は拒否されること", func(t *testing.T) {
		err := s.CommitTurn("g", 3, "again", domain.Entities{})
		if !errors.Is(err, domain.ErrTurnOutOfOrder) {
			t.Errorf("ErrTurnOutOfOrder を期待しましたが %v でした", err)
		}
		snap, _ := s.Get("g")
		if len(snap.StoryHistory) != 3 {
			t.Errorf("拒否されたターンが履歴に追加されました: %v", snap.StoryHistory)
		}
	})
}

func TestStore_RecordCharacterReference(t *testing.T) {
	s := NewStore()
	s.GetOrCreate("g")

	t.Run("2回目の呼び出しは最初の画像を保持して出現回数を増やすのだ", func(t *testing.T) {
		created, err := s.RecordCharacterReference("g", "farmer", []byte("first"), 1)
		if err != nil || !created {
			t.Fatalf("作成されませんでした: %v", err)
		}
		created, err = s.RecordCharacterReference("g", "farmer", []byte("second"), 2)
		if err != nil || created {
			t.Fatalf("2回目で作成されました: %v", err)
		}

		snap, _ := s.Get("g")
		ref := snap.Characters["farmer"]
		if string(ref.ReferenceImage) != "first" {
			t.Errorf("期待値 'first', 実際の値 '%s'", ref.ReferenceImage)
		}
		if ref.AppearanceCount != 2 || ref.FirstAppearanceTurn != 1 {
			t.Errorf("予期しない参照です: %s", ref)
		}
	})

	t.Run("同時に記録しても参照は1つだけ作成されること", func(t *testing.T) {
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			creates int
		)
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				created, err := s.RecordCharacterReference("g", "wizard", []byte(fmt.Sprint(i)), 3)
				if err != nil {
					t.Error(err)
					return
				}
				if created {
					mu.Lock()
					creates++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if creates != 1 {
			t.Errorf("期待値 1, 実際の値 %d", creates)
		}
		snap, _ := s.Get("g")
		if got := snap.Characters["wizard"].AppearanceCount; got != 20 {
			t.Errorf("期待値 20, 実際の値 %d", got)
		}
	})

	t.Run("画像がなければ参照は作成されないこと", func(t *testing.T) {
		created, _ := s.RecordCharacterReference("g", "idol", nil, 4)
		if created {
			t.Error("画像なしで参照が作成されました")
		}
	})

	t.Run("スナップショットの変更は保存内容に影響しないこと", func(t *testing.T) {
		snap, _ := s.Get("g")
		snap.Characters["farmer"].ReferenceImage[0] = 'X'
		again, _ := s.Get("g")
		if string(again.Characters["farmer"].ReferenceImage) != "first" {
			t.Error("スナップショットが内部状態を共有しています")
		}
	})
}

func TestStore_Apply(t *testing.T) {
	s := NewStore()

	t.Run("未知のゲームには反映されず作成もされないこと", func(t *testing.T) {
		_, err := s.Apply("g", Commit{TurnNumber: 1, ResolvedText: "x"})
		if !errors.Is(err, domain.ErrUnknownGame) {
			t.Errorf("ErrUnknownGame を期待しましたが %v でした", err)
		}
		if s.Count() != 0 {
			t.Errorf("期待値 0, 実際の値 %d", s.Count())
		}
	})

	s.GetOrCreate("g")

	t.Run("生成段階の画像だけが参照になるのだ", func(t *testing.T) {
		created, err := s.Apply("g", Commit{
			TurnNumber:   1,
			ResolvedText: "농부가 밭에서 일한다",
			Entities:     domain.Entities{Characters: []string{"farmer"}, Locations: []string{"field"}},
			Image:        []byte("generated"),
			Tier:         domain.TierTextToImage,
		})
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(created, []string{"farmer"}) {
			t.Errorf("期待値 [farmer], 実際の値 %v", created)
		}

		created, err = s.Apply("g", Commit{
			TurnNumber:   2,
			ResolvedText: "농부는 공주와 만났다",
			Entities:     domain.Entities{Characters: []string{"princess", "farmer"}},
			Image:        []byte("default"),
			Tier:         domain.TierDefaultAsset,
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(created) != 0 {
			t.Errorf("既定画像から参照が作成されました: %v", created)
		}

		snap, _ := s.Get("g")
		if _, ok := snap.Characters["princess"]; ok {
			t.Error("princess の参照は作成されないはずです")
		}
		if got := snap.Characters["farmer"].AppearanceCount; got != 2 {
			t.Errorf("期待値 2, 実際の値 %d", got)
		}
		if snap.LastCharacter != "farmer" {
			t.Errorf("期待値 'farmer', 実際の値 '%s'", snap.LastCharacter)
		}
	})

	t.Run("順序違反の場合は何も反映されないこと", func(t *testing.T) {
		_, err := s.Apply("g", Commit{
			TurnNumber:   2,
			ResolvedText: "late",
			Entities:     domain.Entities{Characters: []string{"ninja"}},
			Image:        []byte("x"),
			Tier:         domain.TierTextToImage,
		})
		if !errors.Is(err, domain.ErrTurnOutOfOrder) {
			t.Fatalf("ErrTurnOutOfOrder を期待しましたが %v でした", err)
		}
		snap, _ := s.Get("g")
		if _, ok := snap.Characters["ninja"]; ok {
			t.Error("拒否されたターンで参照が作成されました")
		}
		if len(snap.StoryHistory) != 2 {
			t.Errorf("期待値 2, 実際の値 %d", len(snap.StoryHistory))
		}
	})
}

func TestStore_Pending(t *testing.T) {
	s := NewStore()

	p := PendingTurn{TurnNumber: 1, TurnText: "raw", ResolvedText: "resolved"}
	if err := s.SetPending("g", p); err != nil {
		t.Fatal(err)
	}

	snap, _ := s.Get("g")
	if len(snap.StoryHistory) != 0 {
		t.Error("保留中のターンが履歴に追加されました")
	}

	got, ok := s.Pending("g", 1)
	if !ok || got.ResolvedText != "resolved" {
		t.Errorf("保留中のターンが取得できません: %+v", got)
	}

	if err := s.CommitTurn("g", 1, got.ResolvedText, got.Entities); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Pending("g", 1); ok {
		t.Error("確定後も保留が残っています")
	}

	if err := s.SetPending("g", PendingTurn{TurnNumber: 1}); !errors.Is(err, domain.ErrTurnOutOfOrder) {
		t.Errorf("ErrTurnOutOfOrder を期待しましたが %v でした", err)
	}

	img := []byte("scene")
	_ = s.SetPending("g", PendingTurn{TurnNumber: 2, Image: img, Entities: domain.Entities{Characters: []string{"farmer"}}})
	img[0] = 'X'
	if got, _ := s.Pending("g", 2); string(got.Image) != "scene" {
		t.Errorf("呼び出し側の変更が保留に反映されました: %s", got.Image)
	}
	if removed, _ := s.DiscardPending("g", 2); !removed {
		t.Error("保留が破棄されませんでした")
	}
	if removed, _ := s.DiscardPending("g", 2); removed {
		t.Error("2回目の破棄が true を返しました")
	}
}

func TestStore_Evict(t *testing.T) {
	s := NewStore()
	s.GetOrCreate("g")
	_, _ = s.RecordCharacterReference("g", "farmer", []byte{1}, 1)

	if !s.Evict("g") {
		t.Fatal("削除が false を返しました")
	}
	if s.Evict("g") {
		t.Error("2回目の削除が true を返しました")
	}
	if _, err := s.Get("g"); !errors.Is(err, domain.ErrUnknownGame) {
		t.Errorf("ErrUnknownGame を期待しましたが %v でした", err)
	}

	snap := s.GetOrCreate("g")
	if len(snap.Characters) != 0 {
		t.Error("削除後に参照が残っています")
	}
}
