package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shouni/go-scene-kit/pkg/asset"
	"github.com/shouni/go-scene-kit/pkg/domain"
	"github.com/shouni/go-scene-kit/pkg/publisher"
)

// Engine は PlayRunner が使う場面合成エンジンの操作です。
type Engine interface {
	SynthesizeScene(ctx context.Context, req domain.SceneRequest) (*domain.SceneResult, error)
	ConfirmTurn(ctx context.Context, req domain.ConfirmRequest) (*domain.ConfirmResult, error)
	GenerateCover(ctx context.Context, req domain.CoverRequest) (*domain.CoverResult, error)
	EvictGame(gameID string) bool
}

// SceneReport は1ターン分の実行結果です。
type SceneReport struct {
	Turn         int
	Path         string
	Tier         domain.Tier
	ResolvedText string
	Characters   []string
	Committed    bool
	Skipped      bool
}

// GameReport は1ゲーム分の実行結果です。
type GameReport struct {
	GameID        string
	Scenes        []SceneReport
	CoverPath     string
	StorybookPath string
}

// PlayRunner はスクリプトのゲームを並列に、各ゲームのターンを順番に再生します。
type PlayRunner struct {
	engine    Engine
	outputDir string
	writer    publisher.OutputWriter
	publisher *publisher.Publisher
}

// NewPlayRunner は PlayRunner の新しいインスタンスを生成して返す。
func NewPlayRunner(engine Engine, outputDir string) *PlayRunner {
	return NewPlayRunnerWithWriter(engine, outputDir, publisher.LocalWriter{})
}

// NewPlayRunnerWithWriter は保存先を指定して PlayRunner を生成します。
func NewPlayRunnerWithWriter(engine Engine, outputDir string, writer publisher.OutputWriter) *PlayRunner {
	return &PlayRunner{
		engine:    engine,
		outputDir: outputDir,
		writer:    writer,
		publisher: publisher.NewPublisher(writer),
	}
}

// Run は全ゲームを並列に再生し、ゲームごとの結果を返すのだ。
func (r *PlayRunner) Run(ctx context.Context, script *Script) ([]GameReport, error) {
	reports := make([]GameReport, len(script.Games))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, game := range script.Games {
		eg.Go(func() error {
			report, err := r.playGame(egCtx, game)
			if err != nil {
				return fmt.Errorf("ゲーム %s の再生に失敗しました: %w", game.ID, err)
			}
			reports[i] = report
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *PlayRunner) playGame(ctx context.Context, game GameScript) (GameReport, error) {
	logger := slog.With("game_id", game.ID)
	report := GameReport{GameID: game.ID}
	gameDir := filepath.Join(r.outputDir, game.ID)
	defer r.engine.EvictGame(game.ID)

	turn := 1
	for i, ts := range game.Turns {
		startTime := time.Now()
		sc := SceneReport{Turn: turn}

		res, err := r.engine.SynthesizeScene(ctx, domain.SceneRequest{
			GameID:          game.ID,
			UserID:          ts.User,
			TurnText:        ts.Text,
			TurnNumber:      turn,
			AllowedKeywords: ts.Allowed,
			StyleIndex:      game.Style,
			IsEnding:        ts.Ending,
		})
		switch {
		case errors.Is(err, domain.ErrAllTiersExhausted):
			// 画像が得られなくても投票とゲームは続けるのだ
			logger.WarnContext(ctx, "場面画像を取得できませんでした", "turn", turn, "error", err)
			sc.Skipped = true
		case err != nil:
			return report, err
		default:
			path, err := asset.ScenePath(gameDir, i+1)
			if err != nil {
				return report, err
			}
			if err := r.writer.Write(ctx, path, res.Image); err != nil {
				return report, fmt.Errorf("場面画像の保存に失敗しました: %w", err)
			}
			sc.Path = path
			sc.Tier = res.Tier
			sc.ResolvedText = res.ResolvedText
			sc.Characters = res.Entities.Characters
		}

		conf, err := r.vote(ctx, game.ID, ts, turn, sc.Skipped)
		if err != nil {
			return report, err
		}
		sc.Committed = conf.Committed
		if sc.ResolvedText == "" {
			sc.ResolvedText = ts.Text
		}

		logger.InfoContext(ctx, "ターンを再生しました",
			"turn", turn,
			"tier", sc.Tier.String(),
			"committed", conf.Committed,
			"new_references", conf.CreatedReferences,
			"path", sc.Path,
			"duration", time.Since(startTime).Round(time.Millisecond))

		report.Scenes = append(report.Scenes, sc)
		if conf.Committed {
			turn++
		}
	}

	if game.Cover {
		path, err := r.writeCover(ctx, game, gameDir)
		if err != nil {
			return report, err
		}
		report.CoverPath = path
	}

	book := publisher.Storybook{Title: game.Title, CoverPath: report.CoverPath}
	for _, sc := range report.Scenes {
		if sc.Committed {
			book.Pages = append(book.Pages, publisher.Page{
				Turn:       sc.Turn,
				Text:       sc.ResolvedText,
				ImagePath:  sc.Path,
				Tier:       sc.Tier,
				Characters: sc.Characters,
			})
		}
	}
	storyPath, err := r.publisher.Publish(ctx, gameDir, book)
	if err != nil {
		return report, err
	}
	report.StorybookPath = storyPath

	return report, nil
}

// vote はスクリプトの投票結果をエンジンに伝えます。
// 画像が得られなかったターンには破棄すべき保留がないため、否決は何もせずに終わるのだ。
func (r *PlayRunner) vote(ctx context.Context, gameID string, ts TurnScript, turn int, skipped bool) (*domain.ConfirmResult, error) {
	if skipped && !ts.IsAccepted() {
		return &domain.ConfirmResult{Committed: false}, nil
	}
	return r.engine.ConfirmTurn(ctx, domain.ConfirmRequest{
		GameID:          gameID,
		TurnText:        ts.Text,
		TurnNumber:      turn,
		Accepted:        ts.IsAccepted(),
		AllowedKeywords: ts.Allowed,
	})
}

func (r *PlayRunner) writeCover(ctx context.Context, game GameScript, gameDir string) (string, error) {
	cover, err := r.engine.GenerateCover(ctx, domain.CoverRequest{GameID: game.ID, Title: game.Title, StyleIndex: game.Style})
	if err != nil {
		return "", err
	}
	path, err := asset.ResolveOutputPath(gameDir, asset.DefaultCoverFileName)
	if err != nil {
		return "", err
	}
	if err := r.writer.Write(ctx, path, cover.Image); err != nil {
		return "", fmt.Errorf("表紙の保存に失敗しました: %w", err)
	}
	slog.InfoContext(ctx, "表紙を保存しました", "game_id", game.ID, "path", path, "tier", cover.Tier.String(), "characters", cover.Characters)
	return path, nil
}
