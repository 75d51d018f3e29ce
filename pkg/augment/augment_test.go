package augment

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dict is a fake translator backed by a map of source text to translation.
// Unknown words come back unchanged, which the composer treats as unusable.
type dict struct {
	words map[string]string
	fail  map[string]bool
	calls atomic.Int32
}

func (d *dict) Translate(ctx context.Context, text, source, target string) (string, error) {
	d.calls.Add(1)
	if d.fail[text] {
		return "", errors.New("provider down")
	}
	if tr, ok := d.words[text]; ok {
		return tr, nil
	}
	return text, nil
}

func seeded() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) }

func TestComposeGenerousScenario(t *testing.T) {
	tr := &dict{words: map[string]string{"東京": "Tokyo", "美しい": "beautiful", "都市": "city"}}
	c := NewComposer(tr, Generous, seeded())
	c.Probability = 1.0

	in := "東京は美しい都市です。"
	out := c.Compose(context.Background(), in, []string{"東京", "美しい", "都市"})

	assert.Greater(t, len(out), len(in))
	assert.Equal(t, "東京 Tokyoは美しい beautiful都市 cityです。", out)
	for _, w := range []string{"東京", "美しい", "都市", "Tokyo", "beautiful", "city"} {
		assert.Equal(t, 1, strings.Count(out, w), w)
	}
}

func TestComposeNoDoubleAugmentation(t *testing.T) {
	tr := &dict{words: map[string]string{"東京": "Tokyo", "美しい": "beautiful", "都市": "city"}}
	for _, mode := range []Mode{Generous, Sparse} {
		t.Run(mode.String(), func(t *testing.T) {
			c := NewComposer(tr, mode, seeded())
			c.Probability = 1.0
			cands := []string{"東京", "美しい", "都市"}

			once := c.Compose(context.Background(), "東京は美しい都市です。", cands)
			twice := c.Compose(context.Background(), once, cands)
			assert.Equal(t, once, twice)
		})
	}
}

func TestComposeSparseGlossFormat(t *testing.T) {
	tr := &dict{words: map[string]string{"文化": "culture", "伝統": "tradition"}}
	c := NewComposer(tr, Sparse, seeded())
	c.Probability = 1.0

	out := c.Compose(context.Background(), "伝統と文化", []string{"伝統", "文化"})
	assert.Equal(t, "伝統 (tradition)と文化 (culture)", out)
}

func TestComposeSparseGuaranteesOneGloss(t *testing.T) {
	tr := &dict{words: map[string]string{"文化": "culture", "伝統": "tradition", "地元": "local"}}
	c := NewComposer(tr, Sparse, seeded())
	c.Probability = 0

	for i := 0; i < 10; i++ {
		out := c.Compose(context.Background(), "伝統と文化と地元", []string{"伝統", "文化", "地元"})
		assert.Equal(t, 1, strings.Count(out, " ("), out)
	}
}

func TestComposeSparseIsReproducible(t *testing.T) {
	words := map[string]string{}
	var cands []string
	text := ""
	for i, w := range []string{"一二", "三四", "五六", "七八", "九十", "百千"} {
		words[w] = "w" + string(rune('a'+i)) + "x"
		cands = append(cands, w)
		text += w + "の"
	}
	run := func() string {
		c := NewComposer(&dict{words: words}, Sparse, seeded())
		c.Probability = 0.5
		return c.Compose(context.Background(), text, cands)
	}
	assert.Equal(t, run(), run())
}

func TestComposeGenerousFloor(t *testing.T) {
	words := map[string]string{}
	var cands []string
	var text strings.Builder
	for i, w := range []string{"一二", "三四", "五六", "七八", "九十", "百千", "万億"} {
		words[w] = "gloss" + string(rune('a'+i))
		cands = append(cands, w)
		text.WriteString(w + "の")
	}
	c := NewComposer(&dict{words: words}, Generous, seeded())
	c.Probability = 0

	out := c.Compose(context.Background(), text.String(), cands)
	assert.Equal(t, DefaultMinSubstitutions, strings.Count(out, " gloss"))

	c.Probability = 1
	out = c.Compose(context.Background(), text.String(), cands)
	assert.Equal(t, len(cands), strings.Count(out, " gloss"))
}

func TestComposeGenerousCountsOnlyInsertedGlosses(t *testing.T) {
	words := map[string]string{"一二三四": "numbers"}
	cands := []string{"一二三四"}
	for i, w := range []string{"甲乙", "丙丁", "戊己", "庚辛", "壬癸"} {
		words[w] = "g" + string(rune('a'+i)) + "x"
		cands = append(cands, w)
	}
	c := NewComposer(&dict{words: words}, Generous, seeded())
	c.Probability = 0

	// 一二三四 only occurs inside a longer kanji run, so it must not use up
	// one of the five slots.
	out := c.Compose(context.Background(), "零一二三四の甲乙の丙丁の戊己の庚辛の壬癸の", cands)
	assert.Equal(t, "零一二三四の甲乙 gaxの丙丁 gbxの戊己 gcxの庚辛 gdxの壬癸 gexの", out)
}

func TestComposeSkipsFailedAndInvalid(t *testing.T) {
	tr := &dict{
		words: map[string]string{
			"東京": "Tokyo",
			"文化": "。",
			"地元": strings.Repeat("long ", 20),
		},
		fail: map[string]bool{"伝統": true},
	}
	c := NewComposer(tr, Generous, seeded())
	out := c.Compose(context.Background(), "東京の伝統と文化と地元と料理", []string{"東京", "伝統", "文化", "地元", "料理"})
	assert.Equal(t, "東京 Tokyoの伝統と文化と地元と料理", out)
}

func TestComposeLongerTokenFirst(t *testing.T) {
	tr := &dict{words: map[string]string{"東京都": "Tokyo Metropolis", "東京": "Tokyo"}}
	c := NewComposer(tr, Generous, seeded())
	out := c.Compose(context.Background(), "東京都と東京", []string{"東京", "東京都"})
	assert.Equal(t, "東京都 Tokyo Metropolisと東京 Tokyo", out)
}

func TestComposeAdjacency(t *testing.T) {
	tr := &dict{words: map[string]string{"東京": "Tokyo", "ラーメン": "ramen"}}
	c := NewComposer(tr, Generous, seeded())
	tests := []struct {
		in, want string
	}{
		{"（東京）", "（東京）"},
		{"(東京)に", "(東京)に"},
		{"東京都に", "東京都に"},
		{"大東京", "大東京"},
		{"ラーメンショップ", "ラーメンショップ"},
		{"ラーメン店", "ラーメン ramen店"},
		{"東京!", "東京 Tokyo!"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Compose(context.Background(), tt.in, []string{"東京", "ラーメン"}), tt.in)
	}
}

func TestComposeNoOps(t *testing.T) {
	tr := &dict{words: map[string]string{"東京": "Tokyo"}}
	c := NewComposer(tr, Generous, seeded())
	ctx := context.Background()

	assert.Equal(t, "", c.Compose(ctx, "", []string{"東京"}))
	assert.Equal(t, "東京", c.Compose(ctx, "東京", nil))
	assert.Zero(t, tr.calls.Load())

	c.Translator = nil
	assert.Equal(t, "東京", c.Compose(ctx, "東京", []string{"東京"}))
}

func TestAugmentUsesCandidates(t *testing.T) {
	tr := &dict{words: map[string]string{"東京": "Tokyo", "ラーメン": "ramen"}}
	c := NewComposer(tr, Generous, seeded())
	out := c.Augment(context.Background(), "東京のラーメン")
	assert.Equal(t, "東京 Tokyoのラーメン ramen", out)
}

func TestProcess(t *testing.T) {
	tr := &dict{words: map[string]string{
		"I love ramen": "ラーメンが好き",
		"ラーメン":         "ramen",
	}}
	c := NewComposer(tr, Generous, seeded())
	ctx := context.Background()

	assert.Equal(t, "ラーメン ramenが好き", c.Process(ctx, "I love ramen"))
	assert.Equal(t, "ラーメン ramen", c.Process(ctx, "ラーメン"))
	assert.Equal(t, "nothing known", c.Process(ctx, "nothing known"))
	assert.Equal(t, "。。", c.Process(ctx, "。。"))
	assert.Equal(t, "  ", c.Process(ctx, "  "))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Sparse")
	require.NoError(t, err)
	assert.Equal(t, Sparse, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, Generous, m)

	_, err = ParseMode("chatty")
	assert.Error(t, err)
}
