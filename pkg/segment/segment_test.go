package segment

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/livepeek/pkg/script"
)

func texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Text
	}
	return out
}

func TestSegmentMixedText(t *testing.T) {
	s := NewSegmenter("ラーメン", "東京", "です")
	got := s.Segment("東京の hidden ラーメン店です。")

	want := []string{"東京", "の", " hidden ", "ラーメン", "店", "です", "。"}
	if diff := cmp.Diff(want, texts(got)); diff != "" {
		t.Fatalf("segments mismatch (-want +got):\n%s", diff)
	}

	assert.True(t, got[0].IsWord)
	assert.Equal(t, script.Kanji, got[0].Script)
	assert.False(t, got[1].IsWord)
	assert.Equal(t, script.Hiragana, got[1].Script)
	assert.Equal(t, script.Latin, got[2].Script)
	assert.True(t, got[2].IsWord)
	assert.Equal(t, script.Katakana, got[3].Script)
	assert.False(t, got[4].IsWord)
	assert.Equal(t, script.Punct, got[6].Script)
}

func TestSegmentLongestPhraseWins(t *testing.T) {
	s := NewSegmenter("伝統", "伝統的")
	got := s.Segment("伝統的な")
	require.Len(t, got, 2)
	assert.Equal(t, "伝統的", got[0].Text)
	assert.Equal(t, []string{"伝統的", "伝統"}, s.Phrases())
}

func TestSegmentOffsets(t *testing.T) {
	text := "今日はramenを食べた"
	for tok := range Default().All(text) {
		assert.Equal(t, tok.Text, text[tok.Start:tok.End])
	}
}

func TestSegmentReconstructsInput(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"。、！？",
		"東京の最も busy な地区で地下の food culture を探索。",
		"Pandemic 以降、Japanese companies の work style が大きく変わりました。",
		"émoji 🍜 and 한국어 mixed with カタカナ",
		"[link](https://example.com/a?b=c) ですね",
	}
	for _, in := range inputs {
		var b strings.Builder
		for tok := range Default().All(in) {
			b.WriteString(tok.Text)
		}
		assert.Equal(t, in, b.String())
	}
}

func TestSegmentWhitespaceOnly(t *testing.T) {
	got := Default().Segment("  ")
	require.Len(t, got, 1)
	assert.Equal(t, script.Punct, got[0].Script)
	assert.False(t, got[0].IsWord)

	got = Default().Segment("。　")
	require.Len(t, got, 2)
	for _, tok := range got {
		assert.Equal(t, script.Punct, tok.Script)
		assert.False(t, tok.IsWord)
	}
}

func TestSegmentEmpty(t *testing.T) {
	assert.Empty(t, Default().Segment(""))
}

func TestAllIsRestartable(t *testing.T) {
	seq := Default().All("日本の文化はとても興味深いです")
	var first, second []Token
	for tok := range seq {
		first = append(first, tok)
	}
	for tok := range seq {
		second = append(second, tok)
	}
	assert.Equal(t, first, second)
}

func TestAllStopsEarly(t *testing.T) {
	n := 0
	for range Default().All("あいうえお") {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestCandidates(t *testing.T) {
	text := "東京の最先端技術とラーメン文化。東京にまたラーメン"
	got := Candidates(text, CandidateOptions{})
	want := []string{"東京", "最先端技術", "文化", "ラーメン"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestCandidatesChunksLongKanjiRuns(t *testing.T) {
	// eight kanji: a five-rune chunk followed by a three-rune chunk
	got := Candidates("国際連合安全保障", CandidateOptions{})
	assert.Equal(t, []string{"国際連合安", "全保障"}, got)

	// six kanji: the trailing single rune is dropped
	got = Candidates("東京都庁舎前", CandidateOptions{})
	assert.Equal(t, []string{"東京都庁舎"}, got)
}

func TestCandidatesSkipsSingleRunesAndLatin(t *testing.T) {
	assert.Empty(t, Candidates("店 は hidden gem", CandidateOptions{}))
	assert.Empty(t, Candidates("", CandidateOptions{}))
}

func TestCandidatesCapAndStopWords(t *testing.T) {
	text := "アイ、カキ、サシ、タチ、ナニ"
	got := Candidates(text, CandidateOptions{Max: 3})
	assert.Equal(t, []string{"アイ", "カキ", "サシ"}, got)

	got = Candidates(text, CandidateOptions{StopWords: []string{"カキ"}})
	assert.NotContains(t, got, "カキ")
	assert.Len(t, got, 4)
}

func TestCandidatesLengthFilter(t *testing.T) {
	got := Candidates("インターナショナルスクール", CandidateOptions{})
	assert.Empty(t, got, "katakana words longer than eight runes are not candidates")
}
