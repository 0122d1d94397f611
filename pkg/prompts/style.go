package prompts

// styles は選択可能な画風の一覧です。並び順はクライアントの styleIndex と対応します。
var styles = []string{
	"anime style, vibrant colors, detailed illustration",
	"cute 3d cartoon style, soft colors, rounded features",
	"comic strip style, bold outlines, dramatic expressions",
	"claymation style, 3D rendered, soft clay texture",
	"crayon drawing style, childlike, soft pastels",
	"pixel art style, retro gaming aesthetic, sharp pixels",
	"minimalist illustration, clean lines, simple colors",
	"watercolor painting style, soft blending, artistic",
	"storybook illustration, whimsical, detailed",
}

// DefaultStyleIndex は範囲外の styleIndex の代わりに使われます。
const DefaultStyleIndex = 0

// Style は styleIndex に対応する画風を返します。範囲外の場合は既定の画風になります。
func Style(index int) string {
	if index < 0 || index >= len(styles) {
		index = DefaultStyleIndex
	}
	return styles[index]
}

// StyleCount は画風の数を返します。
func StyleCount() int {
	return len(styles)
}
