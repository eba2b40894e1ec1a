package model

import "time"

// Mood は気分ラベルを表す。固定の小さな列挙のみ許可する。
type Mood string

const (
	// MoodMutlu は「うれしい」気分。
	MoodMutlu Mood = "mutlu"
	// MoodUzgun は「かなしい」気分。
	MoodUzgun Mood = "uzgun"
	// MoodSaskin は「おどろき」の気分。
	MoodSaskin Mood = "saskin"
	// MoodHuzurlu は「おだやか」な気分。
	MoodHuzurlu Mood = "huzurlu"
	// MoodKizgin は「いかり」の気分。
	MoodKizgin Mood = "kizgin"
)

// AllowedMoods は登録可能な気分ラベルの一覧。
var AllowedMoods = []Mood{MoodMutlu, MoodUzgun, MoodSaskin, MoodHuzurlu, MoodKizgin}

// IsValidMood は気分ラベルが許可リストに含まれるかを判定する。
func IsValidMood(mood Mood) bool {
	for _, m := range AllowedMoods {
		if mood == m {
			return true
		}
	}
	return false
}

// MoodEntry は1日1件の気分記録を表す。
// 同一暦日（UTC）への2件目の登録はリポジトリ層で拒否される。
type MoodEntry struct {
	ID        string
	Mood      Mood
	Date      time.Time
	CreatedAt time.Time
}
