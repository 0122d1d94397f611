package resolver

import (
	"testing"

	"github.com/shouni/go-scene-kit/pkg/dictionary"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	d, err := dictionary.Default()
	if err != nil {
		t.Fatalf("辞書の構築に失敗しました: %v", err)
	}
	return New(d)
}

func TestParticle(t *testing.T) {
	tests := []struct {
		noun   string
		marker Marker
		want   string
	}{
		{"농부", MarkerTopic, "농부는"},
		{"노인", MarkerTopic, "노인은"},
		{"공주", MarkerSubject, "공주가"},
		{"노인", MarkerSubject, "노인이"},
		{"지도", MarkerObject, "지도를"},
		{"칼", MarkerObject, "칼을"},
		{"노인", MarkerComitative, "노인과"},
		{"마법사", MarkerComitative, "마법사와"},
		{"노인", MarkerGenitive, "노인의"},
		{"농부", MarkerDative, "농부에게"},
		{"책", MarkerDirectional, "책으로"},
		{"칼", MarkerDirectional, "칼로"},
		{"지도", MarkerDirectional, "지도로"},
		{"Tom", MarkerTopic, "Tom는"},
	}

	for _, tt := range tests {
		if got := Attach(tt.noun, tt.marker); got != tt.want {
			t.Errorf("期待値 '%s', 実際の値 '%s'", tt.want, got)
		}
	}
}

func TestResolve(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name string
		text string
		ref  Referents
		want string
	}{
		{
			name: "直前のキャラクターがなければそのまま返すのだ",
			text: "그는 마을로 간다",
			ref:  Referents{},
			want: "그는 마을로 간다",
		},
		{
			name: "三人称を直前のキャラクターに置き換えること",
			text: "그는 마을로 간다",
			ref:  Referents{Character: "farmer"},
			want: "농부는 마을로 간다",
		},
		{
			name: "パッチムに合わせて助詞を選ぶこと",
			text: "그는 그녀와 함께 걸었다",
			ref:  Referents{Character: "oldman"},
			want: "노인은 노인과 함께 걸었다",
		},
		{
			name: "キャラクターと物を同時に置き換えること",
			text: "그녀가 그것을 들었다",
			ref:  Referents{Character: "princess", Object: "map"},
			want: "공주가 지도를 들었다",
		},
		{
			name: "物が未設定なら指示代名詞は残すこと",
			text: "그는 그것을 보았다",
			ref:  Referents{Character: "oldman"},
			want: "노인은 그것을 보았다",
		},
		{
			name: "ㄹ 終わりの名詞には 로 を付けること",
			text: "이것을 들고 그것으로 문을 열었다",
			ref:  Referents{Object: "sword"},
			want: "칼을 들고 칼로 문을 열었다",
		},
		{
			name: "語中の一致は置き換えないこと",
			text: "떠나는 사람, 하나를 골랐다",
			ref:  Referents{Character: "farmer"},
			want: "떠나는 사람, 하나를 골랐다",
		},
		{
			name: "句読点の直後は置き換えること",
			text: "\"그에게 말했다.\"우리는 웃었다",
			ref:  Referents{Character: "farmer"},
			want: "\"농부에게 말했다.\"농부는 웃었다",
		},
		{
			name: "一人称を置き換えること",
			text: "내가 나의 길을 간다",
			ref:  Referents{Character: "detective"},
			want: "탐정이 탐정의 길을 간다",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(tt.text, tt.ref); got != tt.want {
				t.Errorf("期待値 '%s', 実際の値 '%s'", tt.want, got)
			}
		})
	}
}

func TestResolve_CustomForms(t *testing.T) {
	d, err := dictionary.Default()
	if err != nil {
		t.Fatal(err)
	}
	r := NewWithForms(d, []Form{{Surface: "걔는", Target: TargetCharacter, Marker: MarkerTopic}})

	got := r.Resolve("걔는 그는", Referents{Character: "boy"})
	if got != "소년은 그는" {
		t.Errorf("期待値 '소년은 그는', 実際の値 '%s'", got)
	}
}

func TestResolveTargets(t *testing.T) {
	r := newTestResolver(t)
	ref := Referents{Character: "farmer", Object: "sword"}

	tests := []struct {
		name string
		text string
		want Substitution
	}{
		{"キャラクターだけ置き換えた場合", "그는 마을로 간다", Substitution{Character: true}},
		{"物だけ置き換えた場合", "그것을 들었다", Substitution{Object: true}},
		{"両方を置き換えた場合", "그는 그것을 들었다", Substitution{Character: true, Object: true}},
		{"語中の一致は置き換えないこと", "떠나는 길", Substitution{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, got := r.ResolveTargets(tt.text, ref); got != tt.want {
				t.Errorf("期待値 %+v, 実際の値 %+v", tt.want, got)
			}
		})
	}
}
