package dictionary

import "strings"

// curatedEntries is the built-in vocabulary. Japanese headwords come first;
// English headwords carry their Japanese rendering as the meaning.
var curatedEntries = []Entry{
	{"ラーメン", "らーめん", "ramen", 3, "今日はラーメンを食べました。", "I ate ramen today.", "Hidden Ramen Shops post"},
	{"文化", "ぶんか", "culture", 5, "日本の文化は興味深いです。", "Japanese culture is interesting.", "Digital Art Museum post"},
	{"地元", "じもと", "local", 4, "地元の人におすすめを聞きました。", "I asked local people for recommendations.", "Hidden Ramen Shops post"},
	{"美味しい", "おいしい", "delicious", 2, "このラーメンはとても美味しいです。", "This ramen is very delicious.", "Street Food Revolution post"},
	{"素晴らしい", "すばらしい", "wonderful", 6, "素晴らしい経験でした。", "It was a wonderful experience.", "Tea Ceremony post"},
	{"興味深い", "きょうみぶかい", "interesting", 7, "とても興味深い話でした。", "It was a very interesting story.", "Digital Art Museum post"},
	{"伝統", "でんとう", "tradition", 8, "日本の伝統を学んでいます。", "I am learning Japanese traditions.", "Tea Ceremony post"},
	{"新しい", "あたらしい", "new", 1, "新しいレストランに行きました。", "I went to a new restaurant.", "Digital Art Museum post"},

	{"本格的", "ほんかくてき", "authentic", 6, "本格的な料理を楽しみました。", "I enjoyed authentic cooking.", ""},
	{"伝統的", "でんとうてき", "traditional", 6, "伝統的な祭りを見ました。", "I saw a traditional festival.", ""},
	{"現代的", "げんだいてき", "modern", 5, "現代的なデザインが好きです。", "I like modern design.", ""},

	{"店", "みせ", "shop/store", 2, "", "", ""},
	{"東京", "とうきょう", "Tokyo", 1, "", "", ""},
	{"日本", "にほん", "Japan", 1, "", "", ""},
	{"地区", "ちく", "district", 5, "", "", ""},
	{"探索", "たんさく", "explore", 7, "", "", ""},
	{"提供", "ていきょう", "provide", 6, "", "", ""},
	{"一般公開", "いっぱんこうかい", "public opening", 8, "", "", ""},
	{"美学", "びがく", "aesthetics", 8, "", "", ""},
	{"最先端", "さいせんたん", "cutting-edge", 7, "", "", ""},
	{"創造", "そうぞう", "create", 7, "", "", ""},
	{"若い", "わかい", "young", 2, "", "", ""},
	{"変化", "へんか", "change", 5, "", "", ""},
	{"季節", "きせつ", "season", 3, "", "", ""},
	{"観光", "かんこう", "tourism", 4, "", "", ""},
	{"本", "ほん", "book", 1, "", "", ""},
	{"桜", "さくら", "sakura", 2, "", "", ""},
	{"美しい", "うつくしい", "beautiful", 3, "", "", ""},
	{"古い", "ふるい", "old", 1, "", "", ""},
	{"大きい", "おおきい", "big", 1, "", "", ""},
	{"小さい", "ちいさい", "small", 1, "", "", ""},
	{"良い", "よい", "good", 1, "", "", ""},
	{"悪い", "わるい", "bad", 1, "", "", ""},
	{"人", "ひと", "person", 1, "", "", ""},
	{"家", "いえ", "house", 1, "", "", ""},
	{"学校", "がっこう", "school", 1, "", "", ""},
	{"仕事", "しごと", "work", 2, "", "", ""},
	{"食べ物", "たべもの", "food", 2, "", "", ""},
	{"水", "みず", "water", 1, "", "", ""},
	{"お金", "おかね", "money", 1, "", "", ""},
	{"時間", "じかん", "time", 1, "", "", ""},

	{"hidden", "", "隠れた", 4, "", "", ""},
	{"busy", "", "忙しい", 3, "", "", ""},
	{"family-run", "", "家族経営", 6, "", "", ""},
	{"business", "", "ビジネス", 3, "", "", ""},
	{"digital", "", "デジタル", 3, "", "", ""},
	{"museum", "", "美術館", 4, "", "", ""},
	{"interactive", "", "インタラクティブ", 5, "", "", ""},
	{"technology", "", "技術", 5, "", "", ""},
	{"experience", "", "体験", 4, "", "", ""},
	{"evolution", "", "進化", 6, "", "", ""},
	{"creativity", "", "創造性", 7, "", "", ""},
	{"expression", "", "表現", 6, "", "", ""},
	{"constantly", "", "絶えず", 8, "", "", ""},
	{"elements", "", "要素", 6, "", "", ""},
	{"trends", "", "トレンド", 4, "", "", ""},
	{"fusion", "", "融合", 7, "", "", ""},
	{"economic", "", "経済的な", 6, "", "", ""},
	{"impact", "", "影響", 5, "", "", ""},
	{"massive", "", "大規模な", 6, "", "", ""},
	{"boost", "", "押し上げ", 6, "", "", ""},
	{"special", "", "特別な", 3, "", "", ""},
	{"events", "", "イベント", 2, "", "", ""},
	{"products", "", "製品", 4, "", "", ""},
	{"visitors", "", "訪問者", 5, "", "", ""},
	{"attract", "", "引きつける", 6, "", "", ""},
}

// Curated is an in-memory dictionary matched by headword, reading or
// meaning. Headword matches win over reading matches, which win over
// meaning matches; English text is compared case-insensitively.
type Curated struct {
	entries   []Entry
	headwords map[string]int
	readings  map[string]int
	meanings  map[string]int
}

// NewCurated indexes entries. Later duplicates of a key are ignored.
func NewCurated(entries []Entry) *Curated {
	c := &Curated{
		entries:   append([]Entry(nil), entries...),
		headwords: make(map[string]int, len(entries)),
		readings:  make(map[string]int, len(entries)),
		meanings:  make(map[string]int, len(entries)),
	}
	for i, e := range c.entries {
		addKey(c.headwords, strings.ToLower(e.Headword), i)
		addKey(c.readings, e.Reading, i)
		addKey(c.meanings, strings.ToLower(e.Meaning), i)
	}
	return c
}

func addKey(m map[string]int, k string, i int) {
	if k == "" {
		return
	}
	if _, ok := m[k]; !ok {
		m[k] = i
	}
}

var builtin = NewCurated(curatedEntries)

// Builtin returns the built-in curated vocabulary.
func Builtin() *Curated { return builtin }

// Lookup finds word by exact headword, reading or meaning.
func (c *Curated) Lookup(word string) (Entry, bool) {
	w := strings.TrimSpace(word)
	if w == "" {
		return Entry{}, false
	}
	lw := strings.ToLower(w)
	if i, ok := c.headwords[lw]; ok {
		return c.entries[i], true
	}
	if i, ok := c.readings[w]; ok {
		return c.entries[i], true
	}
	if i, ok := c.meanings[lw]; ok {
		return c.entries[i], true
	}
	return Entry{}, false
}

// Entries returns a copy of every entry, in table order.
func (c *Curated) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Len returns the number of entries.
func (c *Curated) Len() int { return len(c.entries) }
