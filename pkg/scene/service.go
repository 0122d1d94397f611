package scene

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/shouni/go-scene-kit/pkg/dictionary"
	"github.com/shouni/go-scene-kit/pkg/domain"
	"github.com/shouni/go-scene-kit/pkg/extractor"
	"github.com/shouni/go-scene-kit/pkg/gamectx"
	"github.com/shouni/go-scene-kit/pkg/generator"
	"github.com/shouni/go-scene-kit/pkg/prompts"
	"github.com/shouni/go-scene-kit/pkg/resolver"
)

// DefaultMaxCoverReferences は表紙生成に添付する参照画像の上限です。
const DefaultMaxCoverReferences = 4

// ImageGenerator はフォールバック付きの画像生成を行います。
type ImageGenerator interface {
	Generate(ctx context.Context, req generator.GenerateRequest) (*generator.Result, error)
}

// Service はターンの文章から挿絵を合成し、確定したターンをゲームの文脈に反映します。
type Service struct {
	dict      *dictionary.Dictionary
	extractor *extractor.Extractor
	resolver  *resolver.Resolver
	store     *gamectx.Store
	assembler *prompts.Assembler
	generator ImageGenerator

	scenePolicy        generator.RetryPolicy
	coverPolicy        generator.RetryPolicy
	maxCoverReferences int
}

// Option は Service の設定を変更します。
type Option func(*Service)

// WithScenePolicy は場面生成の再試行方針を設定します。
func WithScenePolicy(p generator.RetryPolicy) Option {
	return func(s *Service) { s.scenePolicy = p }
}

// WithCoverPolicy は表紙生成の再試行方針を設定します。
func WithCoverPolicy(p generator.RetryPolicy) Option {
	return func(s *Service) { s.coverPolicy = p }
}

// WithMaxCoverReferences は表紙に添付する参照画像の上限を設定します。
func WithMaxCoverReferences(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxCoverReferences = n
		}
	}
}

// NewService は Service を作成します。
func NewService(dict *dictionary.Dictionary, store *gamectx.Store, assembler *prompts.Assembler, gen ImageGenerator, opts ...Option) *Service {
	s := &Service{
		dict:               dict,
		extractor:          extractor.New(dict),
		resolver:           resolver.New(dict),
		store:              store,
		assembler:          assembler,
		generator:          gen,
		scenePolicy:        generator.ScenePolicy(),
		coverPolicy:        generator.CoverPolicy(),
		maxCoverReferences: DefaultMaxCoverReferences,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SynthesizeScene はターンの挿絵を生成し、結果を未確定のターンとして保存します。
// ゲームの履歴や参照画像は ConfirmTurn で承認されるまで変更されません。
func (s *Service) SynthesizeScene(ctx context.Context, req domain.SceneRequest) (*domain.SceneResult, error) {
	if req.GameID == "" {
		return nil, fmt.Errorf("%w: gameID が空です", domain.ErrInvalidRequest)
	}
	logger := slog.With("game_id", req.GameID, "user_id", req.UserID, "turn", req.TurnNumber)

	snap := s.store.GetOrCreate(req.GameID)
	if req.TurnNumber <= snap.LastCommittedTurn {
		return nil, fmt.Errorf("%w: turn %d (last committed %d)", domain.ErrTurnOutOfOrder, req.TurnNumber, snap.LastCommittedTurn)
	}

	resolved, entities := s.analyze(req.TurnText, req.AllowedKeywords, snap)
	prompt := s.assembler.Assemble(resolved, snap.StoryHistory, req.StyleIndex, req.IsEnding)

	refs := make([]generator.Reference, 0, len(entities.Characters))
	for _, name := range entities.Characters {
		if ref, ok := snap.Characters[name]; ok && len(ref.ReferenceImage) > 0 {
			refs = append(refs, generator.Reference{Name: name, Data: ref.ReferenceImage})
		}
	}

	logger.InfoContext(ctx, "場面の生成を開始します",
		"characters", entities.Characters,
		"locations", entities.Locations,
		"objects", entities.Objects,
		"references", len(refs),
		"ending", req.IsEnding)

	res, err := s.generator.Generate(ctx, generator.GenerateRequest{
		Prompt:     prompt,
		References: refs,
		Archetypes: entities.Characters,
		Policy:     s.scenePolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("場面の生成に失敗しました: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.store.SetPending(req.GameID, gamectx.PendingTurn{
		TurnNumber:   req.TurnNumber,
		TurnText:     req.TurnText,
		ResolvedText: resolved,
		Entities:     entities,
		Image:        res.Image.Data,
		Tier:         res.Tier,
	}); err != nil {
		return nil, fmt.Errorf("未確定ターンの保存に失敗しました: %w", err)
	}

	logger.InfoContext(ctx, "場面を生成しました", "tier", res.Tier.String(), "bytes", len(res.Image.Data))
	return &domain.SceneResult{
		Image:        res.Image.Data,
		MimeType:     res.Image.MimeType,
		Tier:         res.Tier,
		ResolvedText: resolved,
		Entities:     entities.Clone(),
	}, nil
}

// ConfirmTurn は投票結果に従ってターンを確定または破棄します。
// 承認された場合、履歴への追加と直前の言及対象の更新、参照画像の記録を不可分に行います。
func (s *Service) ConfirmTurn(ctx context.Context, req domain.ConfirmRequest) (*domain.ConfirmResult, error) {
	if req.GameID == "" {
		return nil, fmt.Errorf("%w: gameID が空です", domain.ErrInvalidRequest)
	}
	logger := slog.With("game_id", req.GameID, "turn", req.TurnNumber)

	if !req.Accepted {
		removed, err := s.store.DiscardPending(req.GameID, req.TurnNumber)
		if err != nil {
			return nil, err
		}
		if !removed {
			return nil, fmt.Errorf("%w: turn %d", domain.ErrNoPendingTurn, req.TurnNumber)
		}
		logger.InfoContext(ctx, "否決されたターンを破棄しました")
		return &domain.ConfirmResult{Committed: false}, nil
	}

	commit, ok := s.pendingCommit(req)
	if !ok {
		// 保留がない場合は文章から解析し直し、画像なしで確定します。
		snap, err := s.store.Get(req.GameID)
		if err != nil {
			return nil, err
		}
		resolved, entities := s.analyze(req.TurnText, req.AllowedKeywords, snap)
		commit = gamectx.Commit{TurnNumber: req.TurnNumber, ResolvedText: resolved, Entities: entities}
		logger.DebugContext(ctx, "未確定の場面がないため文章から確定します")
	}

	created, err := s.store.Apply(req.GameID, commit)
	if err != nil {
		return nil, fmt.Errorf("ターンの確定に失敗しました: %w", err)
	}

	logger.InfoContext(ctx, "ターンを確定しました",
		"tier", commit.Tier.String(),
		"created_references", created)
	return &domain.ConfirmResult{Committed: true, CreatedReferences: created}, nil
}

func (s *Service) pendingCommit(req domain.ConfirmRequest) (gamectx.Commit, bool) {
	p, ok := s.store.Pending(req.GameID, req.TurnNumber)
	if !ok {
		return gamectx.Commit{}, false
	}
	if req.TurnText != "" && req.TurnText != p.TurnText {
		slog.Warn("確定する文章が生成時と異なるため保留中の場面を使いません",
			"game_id", req.GameID, "turn", req.TurnNumber)
		return gamectx.Commit{}, false
	}
	return gamectx.Commit{
		TurnNumber:   p.TurnNumber,
		ResolvedText: p.ResolvedText,
		Entities:     p.Entities,
		Image:        p.Image,
		Tier:         p.Tier,
	}, true
}

// EvictGame はゲームの文脈と参照画像を全て破棄します。
func (s *Service) EvictGame(gameID string) bool {
	removed := s.store.Evict(gameID)
	if removed {
		slog.Info("ゲームを終了しました", "game_id", gameID)
	}
	return removed
}

// analyze は省略表現を解決してからエンティティを抽出します。
// 許可キーワードが指定されている場合、解決で書き戻した名前も探索対象に加えます。
func (s *Service) analyze(text string, allowed []string, snap gamectx.Snapshot) (string, domain.Entities) {
	resolved, done := s.resolver.ResolveTargets(text, resolver.Referents{
		Character: snap.LastCharacter,
		Object:    snap.LastObject,
	})
	if len(allowed) > 0 {
		allowed = slices.Clip(allowed)
		if done.Character {
			allowed = append(allowed, s.dict.Surface(snap.LastCharacter))
		}
		if done.Object {
			allowed = append(allowed, s.dict.Surface(snap.LastObject))
		}
	}
	return resolved, s.extractor.Extract(resolved, allowed)
}

