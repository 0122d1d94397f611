package prompts

import (
	"fmt"
	"strings"
)

// ReferenceInstruction は参照画像付き生成でプロンプトの前に置く指示です。
// 各キャラクターの顔・髪・服装は保ちつつ、ポーズや表情、構図の変化は許可します。
func ReferenceInstruction(names []string) string {
	if len(names) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("### CHARACTER REFERENCES (STRICT IDENTITY) ###\n")
	for i, n := range names {
		fmt.Fprintf(&sb, "- SUBJECT [%s]: Match reference image %d.\n", n, i+1)
	}
	sb.WriteString("Keep each referenced character's face, hair and clothing exactly as in the reference images. ")
	sb.WriteString("Pose, expression and camera framing may change to fit the new scene.")
	return sb.String()
}
