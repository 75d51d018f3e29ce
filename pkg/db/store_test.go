package db

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// Ensure single connection to avoid separate in-memory DBs per connection.
	db.SetMaxOpenConns(1)
	if err := InitDB(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestCreateOrGetWord(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	id1, err := CreateOrGetWord(db, "犬", "いぬ", "", "ja")
	if err != nil {
		t.Fatalf("create word: %v", err)
	}
	id2, err := CreateOrGetWord(db, " 犬 ", "", "dog", "ja")
	if err != nil {
		t.Fatalf("get word: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected same id, got %d and %d", id1, id2)
	}
	w, err := GetEntry(db, "犬", "ja")
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if w.Reading != "いぬ" || w.Meaning != "dog" {
		t.Fatalf("expected reading and meaning to merge, got %+v", w)
	}
	if w.Saved {
		t.Fatalf("words seen in a source are not saved")
	}
	if _, err := CreateOrGetWord(db, "  ", "", "", "ja"); err == nil {
		t.Fatalf("expected error for blank word")
	}
}

func TestSaveEntryDedupesByHeadword(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	id1, err := SaveEntry(db, Word{Word: "文化", Reading: "ぶんか", Meaning: "culture", Level: 5})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	id2, err := SaveEntry(db, Word{Word: "文化", Meaning: "civilization", Example: "日本の文化は興味深いです。"})
	if err != nil {
		t.Fatalf("save again: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected same id, got %d and %d", id1, id2)
	}

	w, err := GetEntry(db, "文化", "")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if w.Meaning != "culture" {
		t.Errorf("stored meaning should be kept, got %q", w.Meaning)
	}
	if w.Example != "日本の文化は興味深いです。" {
		t.Errorf("missing example should be filled, got %q", w.Example)
	}
	if w.Level != 5 || !w.Saved || w.Language != "ja" {
		t.Errorf("unexpected entry %+v", w)
	}
	if w.AddedAt.IsZero() {
		t.Errorf("expected added_at to be set")
	}
}

func TestListAndDeleteEntries(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	for _, w := range []Word{
		{Word: "伝統", Meaning: "tradition", Level: 8},
		{Word: "新しい", Meaning: "new", Level: 1},
		{Word: "地元", Meaning: "local", Level: 4},
	} {
		if _, err := SaveEntry(db, w); err != nil {
			t.Fatalf("save %s: %v", w.Word, err)
		}
	}
	if _, err := CreateOrGetWord(db, "猫", "", "", "ja"); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := ListEntries(db)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 saved words, got %d", len(list))
	}
	if list[0].Word != "新しい" || list[2].Word != "伝統" {
		t.Fatalf("expected level order, got %s..%s", list[0].Word, list[2].Word)
	}

	if err := DeleteEntry(db, list[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := DeleteEntry(db, list[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	list, _ = ListEntries(db)
	if len(list) != 2 {
		t.Fatalf("expected 2 saved words after delete, got %d", len(list))
	}
	if _, err := GetEntry(db, "新しい", "ja"); err != nil {
		t.Fatalf("deleted entries stay as seen words: %v", err)
	}
}

func TestGetEntryNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	if _, err := GetEntry(db, "xyzzy123", "ja"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateOrGetSource(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	id1, err := CreateOrGetSource(db, "reddit_post", "", "", "reddit.com", "https://reddit.com/r/japan/a", "")
	if err != nil {
		t.Fatalf("create source: %v", err)
	}
	id2, err := CreateOrGetSource(db, "reddit_post", "", "", "reddit.com", "https://reddit.com/r/japan/a", "")
	if err != nil {
		t.Fatalf("get source: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected same source id, got %d and %d", id1, id2)
	}
}

func TestLinkAndQuery(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	wID, err := CreateOrGetWord(db, "猫", "ねこ", "", "ja")
	if err != nil {
		t.Fatalf("create word: %v", err)
	}
	sID, err := CreateOrGetSource(db, "reddit_post", "", "", "reddit.com", "https://reddit.com/r/japan/b", "")
	if err != nil {
		t.Fatalf("create source: %v", err)
	}
	if err := LinkWordToSource(db, wID, sID, "この猫は可愛い。", "この猫は可愛い。", 1); err != nil {
		t.Fatalf("link: %v", err)
	}
	// Link again to test occurrence_count increment via upsert
	if err := LinkWordToSource(db, wID, sID, "猫が好きです。", "", 2); err != nil {
		t.Fatalf("link 2: %v", err)
	}
	var cnt int
	err = db.QueryRow(`SELECT occurrence_count FROM word_sources WHERE word_id = ? AND source_id = ?`, wID, sID).Scan(&cnt)
	if err != nil {
		t.Fatalf("query count: %v", err)
	}
	if cnt != 3 {
		t.Fatalf("expected occurrence_count=3, got %d", cnt)
	}

	ctxs, err := ContextSentences(db, wID, sID)
	if err != nil {
		t.Fatalf("contexts: %v", err)
	}
	if len(ctxs) != 2 || ctxs[0] != "この猫は可愛い。" {
		t.Fatalf("unexpected contexts %v", ctxs)
	}

	words, err := GetWordsBySource(db, sID)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(words) != 1 {
		t.Fatalf("expected 1 word, got %d", len(words))
	}
	if words[0].Word != "猫" {
		t.Fatalf("expected 猫, got %s", words[0].Word)
	}

	if err := LinkWordToSource(db, wID, sID, "", "", 0); err == nil {
		t.Fatalf("expected error for zero increment")
	}
}

func TestLinkKeepsAtMostFiveContexts(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	wID, _ := CreateOrGetWord(db, "東京", "", "", "ja")
	sID, _ := CreateOrGetSource(db, "reddit_post", "t", "", "", "u", "")
	for _, s := range []string{"一。", "二。", "三。", "四。", "五。", "六。", "七。"} {
		if err := LinkWordToSource(db, wID, sID, "東京"+s, "", 1); err != nil {
			t.Fatalf("link: %v", err)
		}
	}
	ctxs, err := ContextSentences(db, wID, sID)
	if err != nil {
		t.Fatalf("contexts: %v", err)
	}
	if len(ctxs) != 5 {
		t.Fatalf("expected 5 contexts, got %d", len(ctxs))
	}
}

func TestWordsMissingMeaning(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	idDog, _ := CreateOrGetWord(db, "犬", "", "", "ja")
	if _, err := CreateOrGetWord(db, "猫", "", "cat", "ja"); err != nil {
		t.Fatalf("create: %v", err)
	}

	missing, err := WordsMissingMeaning(db)
	if err != nil {
		t.Fatalf("missing: %v", err)
	}
	if len(missing) != 1 || missing[0].ID != idDog {
		t.Fatalf("expected only 犬, got %+v", missing)
	}

	if err := UpdateWordMeaning(db, idDog, "dog"); err != nil {
		t.Fatalf("update: %v", err)
	}
	missing, _ = WordsMissingMeaning(db)
	if len(missing) != 0 {
		t.Fatalf("expected none missing, got %d", len(missing))
	}
}

func TestCreateOrGetWordConcurrency(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	const n = 8
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		go func() {
			id, err := CreateOrGetWord(db, "犬", "いぬ", "", "ja")
			if err != nil {
				t.Errorf("create or get word: %v", err)
				ids <- 0
				return
			}
			ids <- id
		}()
	}
	var first int64
	for i := 0; i < n; i++ {
		id := <-ids
		if id == 0 {
			t.Fatalf("error in goroutine")
		}
		if i == 0 {
			first = id
		}
		if id != first {
			t.Fatalf("expected same id, got %d and %d", first, id)
		}
	}
	var cnt int
	err := db.QueryRow(`SELECT COUNT(*) FROM words WHERE word = ?`, "犬").Scan(&cnt)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if cnt != 1 {
		t.Fatalf("expected 1 word row, got %d", cnt)
	}
}

func TestCreateOrGetSourceConcurrency(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	const n = 8
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		go func() {
			id, err := CreateOrGetSource(db, "reddit_post", "Title", "Author", "reddit.com", "https://reddit.com/r/japan/c", "")
			if err != nil {
				t.Errorf("create or get source: %v", err)
				ids <- 0
				return
			}
			ids <- id
		}()
	}
	var first int64
	for i := 0; i < n; i++ {
		id := <-ids
		if id == 0 {
			t.Fatalf("error in goroutine")
		}
		if i == 0 {
			first = id
		}
		if id != first {
			t.Fatalf("expected same id, got %d and %d", first, id)
		}
	}
	var cnt int
	err := db.QueryRow(`SELECT COUNT(*) FROM sources WHERE url = ?`, "https://reddit.com/r/japan/c").Scan(&cnt)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if cnt != 1 {
		t.Fatalf("expected 1 source row, got %d", cnt)
	}
}
