package scene

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-scene-kit/pkg/domain"
	"github.com/shouni/go-scene-kit/pkg/generator"
)

// DefaultCoverTitle はタイトル未指定の表紙に使われます。
const DefaultCoverTitle = "Once Upon a Time"

// GenerateCover は確定済みの物語から本の表紙を生成します。
// 物語に最初に登場した順でキャラクターを並べ、参照画像を持つものを上限まで添付します。
func (s *Service) GenerateCover(ctx context.Context, req domain.CoverRequest) (*domain.CoverResult, error) {
	snap, err := s.store.Get(req.GameID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = DefaultCoverTitle
	}

	var characters []string
	for _, m := range s.extractor.ExtractOrdered(strings.Join(snap.StoryHistory, "\n"), nil) {
		if m.Category == domain.CategoryCharacter {
			characters = append(characters, m.Canonical)
		}
	}

	var refs []generator.Reference
	for _, name := range characters {
		if len(refs) >= s.maxCoverReferences {
			break
		}
		if ref, ok := snap.Characters[name]; ok && len(ref.ReferenceImage) > 0 {
			refs = append(refs, generator.Reference{Name: name, Data: ref.ReferenceImage})
		}
	}

	slog.InfoContext(ctx, "表紙の生成を開始します",
		"game_id", req.GameID, "title", title, "characters", characters, "references", len(refs))

	res, err := s.generator.Generate(ctx, generator.GenerateRequest{
		Prompt:     s.assembler.AssembleCover(title, characters, req.StyleIndex),
		References: refs,
		Archetypes: characters,
		Policy:     s.coverPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("表紙の生成に失敗しました: %w", err)
	}

	return &domain.CoverResult{
		Image:      res.Image.Data,
		MimeType:   res.Image.MimeType,
		Tier:       res.Tier,
		Characters: characters,
	}, nil
}
