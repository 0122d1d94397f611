package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shouni/go-scene-kit/internal/builder"
	"github.com/shouni/go-scene-kit/internal/config"
	"github.com/shouni/go-scene-kit/internal/runner"
)

// playCmd は、ターンスクリプトを再生して各ターンの挿絵を生成するのだ。
var playCmd = &cobra.Command{
	Use:   "play",
	Short: "ターンスクリプトを再生して場面画像を生成するのだ。",
	Long: `YAML のターンスクリプトを読み込み、ターンごとに挿絵の生成と投票結果の反映を行うのだ。
否決されたターンは物語に残らず、次のターンが同じ番号で再生されるのだよ。`,
	RunE: playCommand,
}

func init() {
	playCmd.Flags().BoolVar(&opts.AutoAccept, "auto-accept", false, "スクリプトの投票結果を無視して全ターンを承認するのだ。")
}

func playCommand(cmd *cobra.Command, args []string) error {
	script, err := loadScript(cmd)
	if err != nil {
		return err
	}
	if opts.AutoAccept {
		script.AcceptAll()
	}

	reports, err := execute(cmd.Context(), script)
	if err != nil {
		return err
	}

	for _, r := range reports {
		committed := 0
		for _, s := range r.Scenes {
			if s.Committed {
				committed++
			}
		}
		slog.Info("ゲームの再生が完了したのだ！", "game_id", r.GameID, "scenes", len(r.Scenes), "committed", committed, "cover", r.CoverPath)
	}
	return nil
}

// loadScript はスクリプトを読み込み、フラグによる上書きを反映するのだ。
func loadScript(cmd *cobra.Command) (*runner.Script, error) {
	if opts.ScriptFile == "" {
		return nil, fmt.Errorf("読み込むスクリプト（--script-file）を指定してほしいのだ")
	}
	script, err := runner.LoadScript(opts.ScriptFile)
	if err != nil {
		return nil, err
	}
	if opts.GameID != "" {
		if err := script.Select(opts.GameID); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("style") {
		for i := range script.Games {
			script.Games[i].Style = opts.StyleIndex
		}
	}
	return script, nil
}

// execute は設定を読み込んでエンジンを組み立て、スクリプトを再生するのだ。
func execute(ctx context.Context, script *runner.Script) ([]runner.GameReport, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	setupLogger(level)
	cfg.Options = opts

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	app, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := app.Close(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("トレースの送信に失敗したのだ", "error", err)
		}
	}()

	slog.Info("スクリプトの再生を開始するのだ！",
		"script", opts.ScriptFile,
		"games", len(script.Games),
		"output", opts.OutputDir,
		"image_model", cfg.Kit.ImageModel)

	return runner.NewPlayRunner(app.Engine.Service, opts.OutputDir).Run(ctx, script)
}
