package translate

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

type pair struct{ from, to string }

// englishJapanese is the en→ja word table. Order matters for the inverse
// table: the first English word listed for a Japanese term wins.
var englishJapanese = []pair{
	// greetings
	{"thank", "ありがとう"}, {"thanks", "ありがとう"}, {"hello", "こんにちは"},
	{"goodbye", "さようなら"}, {"yes", "はい"}, {"no", "いいえ"},
	{"please", "お願いします"}, {"sorry", "すみません"}, {"excuse me", "すみません"},

	// verbs
	{"is", "です"}, {"are", "です"}, {"was", "でした"}, {"were", "でした"},
	{"have", "持っています"}, {"has", "持っています"}, {"do", "します"},
	{"does", "します"}, {"did", "しました"}, {"will", "でしょう"}, {"would", "でしょう"},
	{"can", "できます"}, {"could", "できました"}, {"should", "すべきです"},
	{"must", "しなければなりません"},

	// adjectives
	{"good", "良い"}, {"bad", "悪い"}, {"big", "大きい"}, {"small", "小さい"},
	{"beautiful", "美しい"}, {"ugly", "醜い"}, {"hot", "熱い"}, {"cold", "冷たい"},
	{"new", "新しい"}, {"old", "古い"}, {"young", "若い"}, {"fast", "速い"},
	{"slow", "遅い"}, {"easy", "簡単"}, {"difficult", "難しい"}, {"hard", "難しい"},
	{"soft", "柔らかい"}, {"happy", "幸せ"}, {"sad", "悲しい"}, {"angry", "怒っている"},
	{"tired", "疲れている"}, {"hungry", "お腹が空いている"}, {"thirsty", "喉が渇いている"},

	// nouns
	{"person", "人"}, {"people", "人々"}, {"man", "男性"}, {"woman", "女性"},
	{"child", "子供"}, {"family", "家族"}, {"friend", "友達"}, {"house", "家"},
	{"home", "家"}, {"school", "学校"}, {"work", "仕事"}, {"job", "仕事"},
	{"car", "車"}, {"train", "電車"}, {"bus", "バス"}, {"food", "食べ物"},
	{"water", "水"}, {"money", "お金"}, {"time", "時間"}, {"day", "日"},
	{"night", "夜"}, {"morning", "朝"}, {"afternoon", "午後"}, {"evening", "夕方"},
	{"week", "週"}, {"month", "月"}, {"year", "年"}, {"country", "国"},
	{"city", "都市"}, {"town", "町"}, {"place", "場所"}, {"world", "世界"},
	{"earth", "地球"}, {"sky", "空"}, {"sun", "太陽"}, {"moon", "月"},
	{"star", "星"}, {"book", "本"}, {"phone", "電話"}, {"computer", "コンピューター"},
	{"internet", "インターネット"}, {"music", "音楽"}, {"movie", "映画"},
	{"game", "ゲーム"}, {"sport", "スポーツ"}, {"love", "愛"}, {"life", "人生"},
	{"death", "死"}, {"health", "健康"}, {"peace", "平和"}, {"war", "戦争"},
	{"nature", "自然"}, {"animal", "動物"}, {"plant", "植物"}, {"tree", "木"},
	{"flower", "花"}, {"color", "色"}, {"red", "赤"}, {"blue", "青"},
	{"green", "緑"}, {"yellow", "黄色"}, {"black", "黒"}, {"white", "白"},

	// japan and culture
	{"sakura", "桜"}, {"season", "季節"}, {"japan", "日本"}, {"japanese", "日本の"},
	{"tokyo", "東京"}, {"osaka", "大阪"}, {"kyoto", "京都"}, {"culture", "文化"},
	{"tradition", "伝統"}, {"modern", "現代の"}, {"ancient", "古代の"},
	{"festival", "祭り"}, {"temple", "寺"}, {"shrine", "神社"}, {"ramen", "ラーメン"},
	{"sushi", "寿司"}, {"tempura", "天ぷら"}, {"rice", "ご飯"}, {"tea", "お茶"},
	{"coffee", "コーヒー"}, {"restaurant", "レストラン"}, {"hotel", "ホテル"},
	{"station", "駅"}, {"airport", "空港"}, {"tourist", "観光客"}, {"travel", "旅行"},
	{"vacation", "休暇"}, {"business", "ビジネス"}, {"company", "会社"},
	{"office", "オフィス"}, {"meeting", "会議"}, {"project", "プロジェクト"},
	{"technology", "技術"}, {"innovation", "革新"}, {"future", "未来"},
	{"past", "過去"}, {"present", "現在"}, {"history", "歴史"}, {"art", "芸術"},
	{"dance", "踊り"}, {"painting", "絵画"}, {"sculpture", "彫刻"},
	{"photography", "写真"}, {"fashion", "ファッション"}, {"style", "スタイル"},
	{"design", "デザイン"}, {"architecture", "建築"}, {"building", "建物"},
	{"bridge", "橋"}, {"road", "道路"}, {"street", "通り"}, {"park", "公園"},
	{"garden", "庭"}, {"mountain", "山"}, {"river", "川"}, {"sea", "海"},
	{"ocean", "海洋"}, {"beach", "ビーチ"}, {"island", "島"}, {"forest", "森"},
	{"desert", "砂漠"}, {"weather", "天気"}, {"rain", "雨"}, {"snow", "雪"},
	{"wind", "風"}, {"storm", "嵐"}, {"earthquake", "地震"}, {"fire", "火"},
	{"air", "空気"}, {"metal", "金属"}, {"wood", "木"}, {"stone", "石"},
	{"glass", "ガラス"}, {"plastic", "プラスチック"}, {"paper", "紙"}, {"cloth", "布"},
	{"leather", "革"}, {"silk", "絹"}, {"cotton", "綿"}, {"wool", "羊毛"},
}

// japaneseEnglish holds ja→en entries that read better than the inverse of
// englishJapanese, plus words only ever seen in Japanese posts.
var japaneseEnglish = []pair{
	{"ありがとう", "thank you"}, {"すみません", "excuse me"}, {"お願いします", "please"},
	{"です", "is"}, {"でした", "was"}, {"人", "person"}, {"家", "house"},
	{"日本", "Japan"}, {"東京", "Tokyo"}, {"大阪", "Osaka"}, {"京都", "Kyoto"},
	{"日本の", "Japanese"}, {"桜", "sakura"}, {"ラーメン", "ramen"},
	{"地元", "local"}, {"美味しい", "delicious"}, {"素晴らしい", "wonderful"},
	{"興味深い", "interesting"}, {"店", "shop"}, {"地区", "district"},
	{"地下", "underground"}, {"最先端", "cutting-edge"}, {"探索", "exploration"},
}

// StaticTable is the last-resort bilingual word table. It covers en→ja and
// ja→en only; every other direction returns the input unchanged.
type StaticTable struct {
	enJa     map[string]string
	enJaExpr *regexp.Regexp
	jaEn     *strings.Replacer
}

// NewStaticTable builds the built-in en↔ja table.
func NewStaticTable() *StaticTable {
	t := &StaticTable{enJa: make(map[string]string, len(englishJapanese))}

	keys := make([]string, 0, len(englishJapanese))
	for _, p := range englishJapanese {
		if _, dup := t.enJa[p.from]; dup {
			continue
		}
		t.enJa[p.from] = p.to
		keys = append(keys, p.from)
	}
	sortLongestFirst(keys)
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	t.enJaExpr = regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)

	jaEn := make(map[string]string)
	var jaKeys []string
	for _, p := range japaneseEnglish {
		if _, dup := jaEn[p.from]; !dup {
			jaEn[p.from] = p.to
			jaKeys = append(jaKeys, p.from)
		}
	}
	for _, p := range englishJapanese {
		if _, dup := jaEn[p.to]; !dup {
			jaEn[p.to] = p.from
			jaKeys = append(jaKeys, p.to)
		}
	}
	sortLongestFirst(jaKeys)
	oldnew := make([]string, 0, 2*len(jaKeys))
	for _, k := range jaKeys {
		oldnew = append(oldnew, k, jaEn[k])
	}
	t.jaEn = strings.NewReplacer(oldnew...)
	return t
}

// Translate replaces every known word of text. Text the table has no entry
// for passes through untouched.
func (t *StaticTable) Translate(text, source, target string) string {
	switch {
	case source == "en" && target == "ja":
		return t.enJaExpr.ReplaceAllStringFunc(text, func(m string) string {
			return t.enJa[strings.ToLower(m)]
		})
	case source == "ja" && target == "en":
		return t.jaEn.Replace(text)
	}
	return text
}

// Word returns the table entry for a single word, if any.
func (t *StaticTable) Word(word, source, target string) (string, bool) {
	w := strings.TrimSpace(word)
	if w == "" {
		return "", false
	}
	out := t.Translate(w, source, target)
	return out, out != w
}

func sortLongestFirst(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		return utf8.RuneCountInString(keys[i]) > utf8.RuneCountInString(keys[j])
	})
}
