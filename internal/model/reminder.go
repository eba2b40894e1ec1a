package model

import (
	"strings"
	"time"
)

// Weekday はリマインダーの曜日ラベル（正規化済みのトルコ語曜日名）を表す。
type Weekday string

const (
	WeekdayPazar     Weekday = "Pazar"     // 日曜
	WeekdayPazartesi Weekday = "Pazartesi" // 月曜
	WeekdaySali      Weekday = "Sali"      // 火曜
	WeekdayCarsamba  Weekday = "Carsamba"  // 水曜
	WeekdayPersembe  Weekday = "Persembe"  // 木曜
	WeekdayCuma      Weekday = "Cuma"      // 金曜
	WeekdayCumartesi Weekday = "Cumartesi" // 土曜
)

// weekdayAliases は入力として受け付ける曜日表記の対応表。
// アクセント付き表記（クライアントの表示名）と正規化済み表記の両方を許可する。
var weekdayAliases = map[string]Weekday{
	"pazar":     WeekdayPazar,
	"pazartesi": WeekdayPazartesi,
	"sali":      WeekdaySali,
	"salı":      WeekdaySali,
	"carsamba":  WeekdayCarsamba,
	"çarşamba":  WeekdayCarsamba,
	"persembe":  WeekdayPersembe,
	"perşembe":  WeekdayPersembe,
	"cuma":      WeekdayCuma,
	"cumartesi": WeekdayCumartesi,
}

// NormalizeWeekday は曜日ラベルを正規化する。
// 未知のラベルの場合はfalseを返す。
func NormalizeWeekday(label string) (Weekday, bool) {
	w, ok := weekdayAliases[strings.ToLower(strings.TrimSpace(label))]
	return w, ok
}

// Reminder は繰り返し通知のリマインダー設定を表す。
// Daysは集合として扱い、重複と順序は意味を持たない。
type Reminder struct {
	ID        string
	Title     string
	Days      []Weekday
	Hour      int // 0-23
	Minute    int // 0-59
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasDay は指定曜日がDaysに含まれるかを判定する。
func (r *Reminder) HasDay(day Weekday) bool {
	for _, d := range r.Days {
		if d == day {
			return true
		}
	}
	return false
}

// ReminderRegistration は外部通知サービスへのトリガー登録1件を表す。
// リマインダー1件につき曜日ごとに最大1行。解除にはハンドルが必須のため、
// 曜日→NotificationIDの対応を失わないことが不変条件。
type ReminderRegistration struct {
	ReminderID     string
	Weekday        Weekday
	NotificationID string
	RegisteredAt   time.Time
}
