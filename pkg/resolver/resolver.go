package resolver

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shouni/go-scene-kit/pkg/dictionary"
)

// Target は省略表現が指し示す対象の種類です。
type Target int

const (
	TargetCharacter Target = iota
	TargetObject
)

// Form は1つの省略表現と、置き換え時に付ける助詞の組です。
type Form struct {
	Surface string
	Target  Target
	Marker  Marker
}

// DefaultForms は三人称、一人称単数・複数、指示代名詞の置換表です。
var DefaultForms = []Form{
	// 三人称
	{"그는", TargetCharacter, MarkerTopic},
	{"그가", TargetCharacter, MarkerSubject},
	{"그를", TargetCharacter, MarkerObject},
	{"그의", TargetCharacter, MarkerGenitive},
	{"그와", TargetCharacter, MarkerComitative},
	{"그에게", TargetCharacter, MarkerDative},
	{"그녀는", TargetCharacter, MarkerTopic},
	{"그녀가", TargetCharacter, MarkerSubject},
	{"그녀를", TargetCharacter, MarkerObject},
	{"그녀의", TargetCharacter, MarkerGenitive},
	{"그녀와", TargetCharacter, MarkerComitative},
	{"그녀에게", TargetCharacter, MarkerDative},
	// 一人称単数
	{"나는", TargetCharacter, MarkerTopic},
	{"내가", TargetCharacter, MarkerSubject},
	{"나를", TargetCharacter, MarkerObject},
	{"나의", TargetCharacter, MarkerGenitive},
	{"나와", TargetCharacter, MarkerComitative},
	{"나에게", TargetCharacter, MarkerDative},
	{"저는", TargetCharacter, MarkerTopic},
	{"제가", TargetCharacter, MarkerSubject},
	{"저를", TargetCharacter, MarkerObject},
	// 一人称複数
	{"우리는", TargetCharacter, MarkerTopic},
	{"우리가", TargetCharacter, MarkerSubject},
	{"우리를", TargetCharacter, MarkerObject},
	{"우리의", TargetCharacter, MarkerGenitive},
	// 指示代名詞
	{"그것은", TargetObject, MarkerTopic},
	{"그것이", TargetObject, MarkerSubject},
	{"그것을", TargetObject, MarkerObject},
	{"그것의", TargetObject, MarkerGenitive},
	{"그것과", TargetObject, MarkerComitative},
	{"그것으로", TargetObject, MarkerDirectional},
	{"이것은", TargetObject, MarkerTopic},
	{"이것이", TargetObject, MarkerSubject},
	{"이것을", TargetObject, MarkerObject},
	{"이것의", TargetObject, MarkerGenitive},
	{"이것과", TargetObject, MarkerComitative},
	{"저것은", TargetObject, MarkerTopic},
	{"저것이", TargetObject, MarkerSubject},
	{"저것을", TargetObject, MarkerObject},
	{"저것의", TargetObject, MarkerGenitive},
	{"저것과", TargetObject, MarkerComitative},
}

// Referents は直前に言及されたエンティティの正規名です。空文字は未設定を表します。
type Referents struct {
	Character string
	Object    string
}

// Resolver は省略表現を直前のエンティティ名に書き換えます。
// エンティティの抽出は行わず、本文の表記だけを変更します。
type Resolver struct {
	dict  *dictionary.Dictionary
	forms []Form
}

// New は既定の置換表を使う Resolver を作成します。
func New(dict *dictionary.Dictionary) *Resolver {
	return NewWithForms(dict, DefaultForms)
}

// NewWithForms は任意の置換表を使う Resolver を作成します。
func NewWithForms(dict *dictionary.Dictionary, forms []Form) *Resolver {
	sorted := slices.Clone(forms)
	slices.SortStableFunc(sorted, func(a, b Form) int {
		return cmp.Compare(len(b.Surface), len(a.Surface))
	})
	return &Resolver{dict: dict, forms: sorted}
}

// Substitution は置き換えが行われた対象の種類です。
type Substitution struct {
	Character bool
	Object    bool
}

// Resolve は本文中の省略表現を置き換えた文字列を返します。
// 単純な部分文字列の置換ではなく、文頭か空白・句読点の直後にある省略表現だけを置き換えます。
// 語中の一致 (떠나는 の 나는 など) は書き換えません。
func (r *Resolver) Resolve(text string, ref Referents) string {
	out, _ := r.ResolveTargets(text, ref)
	return out
}

// ResolveTargets は Resolve と同じ置き換えを行い、実際に置き換えた対象も返します。
func (r *Resolver) ResolveTargets(text string, ref Referents) (string, Substitution) {
	var done Substitution
	if ref.Character == "" && ref.Object == "" {
		return text, done
	}

	nouns := map[Target]string{}
	if ref.Character != "" {
		nouns[TargetCharacter] = r.dict.Surface(ref.Character)
	}
	if ref.Object != "" {
		nouns[TargetObject] = r.dict.Surface(ref.Object)
	}

	var b strings.Builder
	b.Grow(len(text))

	prev := rune(-1)
	for i := 0; i < len(text); {
		if atBoundary(prev) {
			if f, noun, ok := r.match(text[i:], nouns); ok {
				b.WriteString(Attach(noun, f.Marker))
				switch f.Target {
				case TargetCharacter:
					done.Character = true
				case TargetObject:
					done.Object = true
				}
				i += len(f.Surface)
				prev, _ = utf8.DecodeLastRuneInString(f.Surface)
				continue
			}
		}
		c, size := utf8.DecodeRuneInString(text[i:])
		b.WriteString(text[i : i+size])
		prev = c
		i += size
	}
	return b.String(), done
}

func (r *Resolver) match(s string, nouns map[Target]string) (Form, string, bool) {
	for _, f := range r.forms {
		noun, ok := nouns[f.Target]
		if !ok {
			continue
		}
		if strings.HasPrefix(s, f.Surface) {
			return f, noun, true
		}
	}
	return Form{}, "", false
}

func atBoundary(prev rune) bool {
	return prev < 0 || unicode.IsSpace(prev) || unicode.IsPunct(prev) || unicode.IsSymbol(prev)
}
