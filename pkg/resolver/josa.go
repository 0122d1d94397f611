package resolver

import "unicode/utf8"

const (
	hangulBase = 0xAC00
	hangulLast = 0xD7A3
	jongseongN = 28
	jongseongL = 8 // ㄹ
)

// Marker は名詞の後ろに付く助詞の種類です。
type Marker int

const (
	MarkerTopic       Marker = iota // 은/는
	MarkerSubject                   // 이/가
	MarkerObject                    // 을/를
	MarkerGenitive                  // 의
	MarkerComitative                // 과/와
	MarkerDative                    // 에게
	MarkerDirectional               // 으로/로
)

// finalConsonant は最後の音節の終声の番号を返します。ハングル音節でなければ ok は false です。
func finalConsonant(noun string) (index int, ok bool) {
	r, _ := utf8.DecodeLastRuneInString(noun)
	if r < hangulBase || r > hangulLast {
		return 0, false
	}
	return int(r-hangulBase) % jongseongN, true
}

// HasFinalConsonant は名詞の最後の音節にパッチムがあるかどうかを返します。
// ハングル以外で終わる名詞はパッチムなしとして扱います。
func HasFinalConsonant(noun string) bool {
	idx, ok := finalConsonant(noun)
	return ok && idx != 0
}

// Particle は名詞に合わせて助詞の形を選びます。
func Particle(noun string, m Marker) string {
	batchim := HasFinalConsonant(noun)
	switch m {
	case MarkerTopic:
		return pick(batchim, "은", "는")
	case MarkerSubject:
		return pick(batchim, "이", "가")
	case MarkerObject:
		return pick(batchim, "을", "를")
	case MarkerComitative:
		return pick(batchim, "과", "와")
	case MarkerGenitive:
		return "의"
	case MarkerDative:
		return "에게"
	case MarkerDirectional:
		// ㄹ で終わる名詞は母音終わりと同じく「로」を取ります。
		idx, _ := finalConsonant(noun)
		return pick(batchim && idx != jongseongL, "으로", "로")
	}
	return ""
}

// Attach は名詞に正しい形の助詞を付けた文字列を返します。
func Attach(noun string, m Marker) string {
	return noun + Particle(noun, m)
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}
