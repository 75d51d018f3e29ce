package segment

// DefaultPhrases are multi-character strings the click path keeps whole:
// vocabulary from the curated dictionary, place names, common set phrases
// and the grammatical endings learners tap most.
var DefaultPhrases = []string{
	// vocabulary
	"ラーメン", "文化", "地元", "美味しい", "素晴らしい", "興味深い", "伝統", "伝統的",
	"新しい", "古い", "大きい", "小さい", "美しい", "良い", "悪い", "若い",
	"本格的", "現代的", "学校", "仕事", "食べ物", "お金", "時間", "季節",
	"地区", "探索", "提供", "一般公開", "美学", "最先端", "創造", "変化", "観光",
	"世代", "店舗", "料理", "旅行", "生活", "技術", "日本語", "学習", "報道",
	"ニュース", "ファッション", "コーヒー", "レストラン", "ホテル", "インターネット",
	"コンピューター", "ゲーム", "スポーツ", "ビジネス", "デザイン", "スタイル",

	// places
	"日本", "東京", "大阪", "京都", "横浜", "福岡", "九州", "渋谷", "新宿", "原宿",

	// set phrases
	"ありがとう", "ありがとうございます", "こんにちは", "こんばんは", "さようなら",
	"すみません", "お願いします", "いただきます", "ごちそうさま", "よろしく",

	// grammar
	"です", "でした", "ます", "ました", "ません", "ましょう", "でしょう",
	"から", "まで", "ので", "けど", "けれど", "という", "について", "として",
	"による", "によって", "ている", "ています", "ていた", "たい", "ない",
	"これ", "それ", "あれ", "この", "その", "あの", "とても",
}
