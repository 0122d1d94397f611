package asset

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultSceneFileName は場面画像の共通のベースファイル名です。
	DefaultSceneFileName = "scene.png"
	// DefaultCoverFileName は表紙画像のファイル名です。
	DefaultCoverFileName = "cover.png"
	// DefaultArchetypeExt はキャラクター既定画像の拡張子です。
	DefaultArchetypeExt = ".png"
)

// SceneFileRegex は場面画像 (scene_1.png 等) に一致します。
var SceneFileRegex = createIndexedRegex(DefaultSceneFileName)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// GCS/ローカルを考慮した最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolveOutputPath(baseDir, fileName)
}

// ScenePath はターン番号に対応する場面画像の出力パスを返します。
// 例: "out", 2 -> "out/scene_2.png"
func ScenePath(baseDir string, turn int) (string, error) {
	base, err := ResolveOutputPath(baseDir, DefaultSceneFileName)
	if err != nil {
		return "", err
	}
	return urlpath.GenerateIndexedPath(base, turn)
}

// ArchetypePath はキャラクター原型の既定画像のパスを返します。
func ArchetypePath(dir, name string) string {
	return filepath.Join(dir, name+DefaultArchetypeExt)
}

// createIndexedRegex は、ファイル名に基づきインデックス付きファイル用の正規表現を生成します。
// 例: "scene.png" -> ^scene_\d+\.png$
func createIndexedRegex(fileName string) *regexp.Regexp {
	ext := filepath.Ext(fileName)
	baseName := strings.TrimSuffix(fileName, ext)
	pattern := fmt.Sprintf(`^%s_\d+%s$`, regexp.QuoteMeta(baseName), regexp.QuoteMeta(ext))
	return regexp.MustCompile(pattern)
}
