package dictionary

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/shouni/go-scene-kit/pkg/domain"
)

//go:embed dictionary.yaml
var defaultTable []byte

// Entry は1つの正規化エンティティと、それを表す表層キーワードの組です。
type Entry struct {
	Canonical string   `yaml:"canonical"`
	Keywords  []string `yaml:"keywords"`
}

// Keyword は抽出で照合される1つの表層キーワードです。
type Keyword struct {
	Text      string
	Category  domain.Category
	Canonical string
	// Order はカテゴリ内でのエントリの並び順です。抽出結果の並べ替えに使います。
	Order int
}

// Dictionary は不変のキーワード辞書です。構築後は読み取り専用なので、
// ロックなしで並行に参照できます。
type Dictionary struct {
	entries  map[domain.Category][]Entry
	lookup   map[domain.Category]map[string]string
	surface  map[string]string
	category map[string]domain.Category
	sorted   []Keyword
}

// Normalize はキーワード照合用に表記を正規化します。
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Parse は YAML 形式のキーワード表から辞書を構築します。
func Parse(data []byte) (*Dictionary, error) {
	var raw map[domain.Category][]Entry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("キーワード辞書の解析に失敗しました: %w", err)
	}
	return New(raw)
}

// New はカテゴリごとのエントリ一覧から辞書を構築します。
// 同一カテゴリ内でキーワードや正規名が重複している場合はエラーを返します。
func New(entries map[domain.Category][]Entry) (*Dictionary, error) {
	d := &Dictionary{
		entries:  make(map[domain.Category][]Entry),
		lookup:   make(map[domain.Category]map[string]string),
		surface:  make(map[string]string),
		category: make(map[string]domain.Category),
	}

	for c := range entries {
		if !c.Valid() {
			return nil, fmt.Errorf("未知のカテゴリです: %q", c)
		}
	}

	for _, c := range domain.Categories() {
		list := entries[c]
		kw := make(map[string]string)
		for i, e := range list {
			if e.Canonical == "" || len(e.Keywords) == 0 {
				return nil, fmt.Errorf("%s の %d 番目のエントリが不完全です", c, i)
			}
			if _, dup := d.category[e.Canonical]; dup {
				return nil, fmt.Errorf("正規名 %q が重複しています", e.Canonical)
			}
			d.category[e.Canonical] = c
			d.surface[e.Canonical] = strings.TrimSpace(e.Keywords[0])

			for _, k := range e.Keywords {
				n := Normalize(k)
				if n == "" {
					continue
				}
				if prev, dup := kw[n]; dup {
					return nil, fmt.Errorf("%s のキーワード %q が %s と %s で衝突しています", c, n, prev, e.Canonical)
				}
				kw[n] = e.Canonical
				d.sorted = append(d.sorted, Keyword{Text: n, Category: c, Canonical: e.Canonical, Order: i})
			}
		}
		d.entries[c] = slices.Clone(list)
		d.lookup[c] = kw
	}

	// 長いキーワードを先に照合するため、文字数の降順に並べます。
	slices.SortStableFunc(d.sorted, func(a, b Keyword) int {
		return utf8.RuneCountInString(b.Text) - utf8.RuneCountInString(a.Text)
	})

	return d, nil
}

var loadDefault = sync.OnceValues(func() (*Dictionary, error) {
	return Parse(defaultTable)
})

// Default は組み込みのキーワード表から構築した辞書を返します。
// 構築は一度だけ行われ、以降は同じインスタンスを共有します。
func Default() (*Dictionary, error) {
	return loadDefault()
}

// Lookup は指定カテゴリの全キーワードを辞書順で返します。
func (d *Dictionary) Lookup(c domain.Category) []string {
	var out []string
	for _, e := range d.entries[c] {
		for _, k := range e.Keywords {
			out = append(out, Normalize(k))
		}
	}
	return out
}

// CategoryOf はキーワードが属するカテゴリを返します。
// 複数カテゴリに属する場合はカテゴリの固定順で最初のものを返します。
func (d *Dictionary) CategoryOf(keyword string) (domain.Category, bool) {
	n := Normalize(keyword)
	for _, c := range domain.Categories() {
		if _, ok := d.lookup[c][n]; ok {
			return c, true
		}
	}
	return "", false
}

// Canonical はキーワードの正規名を返します。
func (d *Dictionary) Canonical(c domain.Category, keyword string) (string, bool) {
	name, ok := d.lookup[c][Normalize(keyword)]
	return name, ok
}

// Surface は正規名を本文に書き戻すときの表記を返します。未登録の場合は正規名をそのまま返します。
func (d *Dictionary) Surface(canonical string) string {
	if s, ok := d.surface[canonical]; ok {
		return s
	}
	return canonical
}

// Canonicals は指定カテゴリの正規名を辞書順で返します。
func (d *Dictionary) Canonicals(c domain.Category) []string {
	out := make([]string, 0, len(d.entries[c]))
	for _, e := range d.entries[c] {
		out = append(out, e.Canonical)
	}
	return out
}

// Keywords は全キーワードを長い順に返します。
func (d *Dictionary) Keywords() []Keyword {
	return slices.Clone(d.sorted)
}
