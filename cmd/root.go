package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shouni/go-scene-kit/internal/config"
)

// opts はコマンドラインフラグの値を保持するのだ。
var opts config.PlayOptions

var rootCmd = &cobra.Command{
	Use:   "scenekit",
	Short: "物語ゲームのターンから挿絵を合成するのだ。",
	Long: `プレイヤーが書いたターンの文章からキャラクターや場所を抽出し、
これまでの物語と参照画像を踏まえて場面の挿絵を生成するのだ。`,
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- 入出力 ---
	rootCmd.PersistentFlags().StringVarP(&opts.ScriptFile, "script-file", "f", config.DefaultScriptFile, "ターンスクリプト (YAML) のパスなのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "生成された画像を保存するディレクトリなのだ。")

	// --- ゲーム設定の上書き ---
	rootCmd.PersistentFlags().StringVarP(&opts.GameID, "game-id", "g", "", "指定したゲームだけを再生するのだ。")
	rootCmd.PersistentFlags().IntVarP(&opts.StyleIndex, "style", "s", 0, "画風の番号でスクリプトの指定を上書きするのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", config.DefaultTimeout, "コマンド全体のタイムアウトなのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// Gemini APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}
	return nil
}

func setupLogger(level slog.Level) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(playCmd, coverCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
