package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		r    rune
		want Script
	}{
		{'あ', Hiragana},
		{'ゟ', Hiragana},
		{'ア', Katakana},
		{'ー', Katakana},
		{'東', Kanji},
		{'龯', Kanji},
		{'a', Latin},
		{'Z', Latin},
		{'7', Latin},
		{' ', Punct},
		{'。', Punct},
		{'!', Punct},
		{'é', Other},
		{'한', Other},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.r), "Classify(%q)", tt.r)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	for r := rune(0); r < 0x10000; r += 7 {
		if Classify(r) != Classify(r) {
			t.Fatalf("Classify(%U) not stable", r)
		}
	}
}

func TestOf(t *testing.T) {
	assert.Equal(t, Kanji, Of("東京"))
	assert.Equal(t, Katakana, Of("ラーメン"))
	assert.Equal(t, Latin, Of("ramen!"))
	assert.Equal(t, Mixed, Of("美しい"))
	assert.Equal(t, Punct, Of(" 。"))
	assert.Equal(t, Other, Of(""))
}

func TestHasJapaneseAndLatin(t *testing.T) {
	assert.True(t, HasJapanese("hidden ラーメン店"))
	assert.False(t, HasJapanese("hidden gem"))
	assert.True(t, HasLatin("東京 Tokyo"))
	assert.False(t, HasLatin("東京 123"))
}

func TestIsPunctOnly(t *testing.T) {
	assert.True(t, IsPunctOnly("。"))
	assert.True(t, IsPunctOnly(".,!?"))
	assert.False(t, IsPunctOnly(""))
	assert.False(t, IsPunctOnly("a."))
}

func TestEstimateDifficulty(t *testing.T) {
	assert.Equal(t, 3, EstimateDifficulty("Hidden gems", "of Kyushu"))
	assert.Equal(t, 8, EstimateDifficulty("東京都庁舎", "最先端技術"))
	assert.Equal(t, 4, EstimateDifficulty("Best ramen in town, try 店", "long english body text here"))
}
