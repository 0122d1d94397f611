package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// coverCmd は、承認済みのターンだけで物語を組み立て直し、表紙を生成するのだ。
var coverCmd = &cobra.Command{
	Use:   "cover",
	Short: "スクリプトの物語から表紙画像を生成するのだ。",
	Long: `スクリプトの全ゲームを再生したあと、登場順に並べたキャラクターの参照画像を添えて表紙を生成するのだ。
--title を指定するとスクリプトのタイトルを上書きするのだよ。`,
	RunE: coverCommand,
}

func init() {
	coverCmd.Flags().StringVarP(&opts.CoverTitle, "title", "t", "", "表紙のタイトルなのだ。")
}

func coverCommand(cmd *cobra.Command, args []string) error {
	script, err := loadScript(cmd)
	if err != nil {
		return err
	}
	for i := range script.Games {
		script.Games[i].Cover = true
		if opts.CoverTitle != "" {
			script.Games[i].Title = opts.CoverTitle
		}
	}

	reports, err := execute(cmd.Context(), script)
	if err != nil {
		return err
	}
	for _, r := range reports {
		slog.Info("表紙を生成したのだ！", "game_id", r.GameID, "path", r.CoverPath)
	}
	return nil
}
