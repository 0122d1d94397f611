package extractor

import (
	"cmp"
	"slices"
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	"github.com/shouni/go-scene-kit/pkg/dictionary"
	"github.com/shouni/go-scene-kit/pkg/domain"
)

// Mention は本文中で最初に現れたエンティティとその位置です。
type Mention struct {
	Category  domain.Category
	Canonical string
	Offset    int
}

// Extractor は辞書に基づいて本文からエンティティを抽出します。
// 状態を持たないため、並行に呼び出せます。
type Extractor struct {
	dict     *dictionary.Dictionary
	keywords []dictionary.Keyword
	ac       ahocorasick.AhoCorasick
}

// New は辞書から Extractor を構築します。
func New(dict *dictionary.Dictionary) *Extractor {
	keywords := dict.Keywords()
	patterns := make([]string, len(keywords))
	for i, kw := range keywords {
		patterns[i] = kw.Text
	}

	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  false,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})

	return &Extractor{
		dict:     dict,
		keywords: keywords,
		ac:       builder.Build(patterns),
	}
}

// Extract は本文に含まれるエンティティをカテゴリごとに返します。
// allowed が空でない場合は、そのキーワードだけを探索対象にします。
// 結果の並びは本文中の出現順ではなく辞書順です。
func (x *Extractor) Extract(text string, allowed []string) domain.Entities {
	filter := allowSet(allowed)
	work := dictionary.Normalize(text)

	hits := make(map[string]dictionary.Keyword)
	for _, kw := range x.keywords {
		if filter != nil && !filter[kw.Text] {
			continue
		}
		if !strings.Contains(work, kw.Text) {
			continue
		}
		if _, seen := hits[kw.Canonical]; !seen {
			hits[kw.Canonical] = kw
		}
		// 確定した範囲を同じ長さの空白で塗りつぶし、短いキーワードが内側で再照合されないようにします。
		work = strings.ReplaceAll(work, kw.Text, strings.Repeat(" ", len(kw.Text)))
	}

	found := make([]dictionary.Keyword, 0, len(hits))
	for _, kw := range hits {
		found = append(found, kw)
	}
	slices.SortFunc(found, func(a, b dictionary.Keyword) int {
		return cmp.Compare(a.Order, b.Order)
	})

	var out domain.Entities
	for _, kw := range found {
		out.Add(kw.Category, kw.Canonical)
	}
	return out
}

// ExtractOrdered は本文中の最初の出現位置の順にエンティティを返します。
// 表紙に載せるキャラクターの優先順位付けなど、出現順が必要な場合に使います。
func (x *Extractor) ExtractOrdered(text string, allowed []string) []Mention {
	filter := allowSet(allowed)
	normalized := dictionary.Normalize(text)

	seen := make(map[string]bool)
	var out []Mention
	for _, m := range x.ac.FindAll(normalized) {
		kw := x.keywords[m.Pattern()]
		if filter != nil && !filter[kw.Text] {
			continue
		}
		if seen[kw.Canonical] {
			continue
		}
		seen[kw.Canonical] = true
		out = append(out, Mention{Category: kw.Category, Canonical: kw.Canonical, Offset: m.Start()})
	}

	slices.SortStableFunc(out, func(a, b Mention) int {
		return cmp.Compare(a.Offset, b.Offset)
	})
	return out
}

// Dictionary は抽出に使う辞書を返します。
func (x *Extractor) Dictionary() *dictionary.Dictionary {
	return x.dict
}

func allowSet(allowed []string) map[string]bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		if n := dictionary.Normalize(a); n != "" {
			set[n] = true
		}
	}
	return set
}
