// Package reminder はリマインダーのドメインロジックを提供する。
// 曜日・時刻の設定から外部通知サービスへの繰り返しトリガー登録を導出し、
// 登録ハンドルを永続化状態と整合させる。
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aylin/gunluk/internal/model"
	"github.com/aylin/gunluk/internal/notifier"
	"github.com/aylin/gunluk/internal/repository"
)

// WeekdayNumbers は曜日ラベルから通知サービスの曜日番号への固定対応表。
// 番号体系は通知サービスの規約（Pazar=1 … Cumartesi=7、日曜始まり）に
// 正確に一致させる必要がある。導出せず定数表として持つ。
var WeekdayNumbers = map[model.Weekday]int{
	model.WeekdayPazar:     1,
	model.WeekdayPazartesi: 2,
	model.WeekdaySali:      3,
	model.WeekdayCarsamba:  4,
	model.WeekdayPersembe:  5,
	model.WeekdayCuma:      6,
	model.WeekdayCumartesi: 7,
}

// triggerBody は通知本文の固定メッセージ。
const triggerBody = "Şimdi uygulamanızı açarak bugün yaşadığınız anıları günlüğünüze yazın."

// TriggerMetrics はトリガー操作のメトリクス記録インターフェース。
type TriggerMetrics interface {
	RecordTriggerScheduled()
	RecordTriggerScheduleFailed()
	RecordTriggerCanceled()
	RecordTriggerCancelFailed()
}

// Scheduler はリマインダーの(days, time, active)を外部通知サービスへの
// 呼び出しに変換し、登録ハンドルを登録テーブルと整合させる。
type Scheduler struct {
	reminders repository.ReminderRepository
	regs      repository.RegistrationRepository
	notifier  notifier.Service
	logger    *slog.Logger
	metrics   TriggerMetrics
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// metricsはnilを許容する（テスト用）。
func NewScheduler(
	reminders repository.ReminderRepository,
	regs repository.RegistrationRepository,
	notifierService notifier.Service,
	logger *slog.Logger,
	metrics TriggerMetrics,
) *Scheduler {
	return &Scheduler{
		reminders: reminders,
		regs:      regs,
		notifier:  notifierService,
		logger:    logger,
		metrics:   metrics,
	}
}

// Status はリマインダーと現在のトリガー登録をまとめたビュー。
type Status struct {
	Reminder      *model.Reminder
	Registrations []*model.ReminderRegistration
}

// Create はリマインダーを新規作成する。作成時点ではactive=falseで、
// トリガー登録は行わない（Toggleで有効化した時点で登録する）。
func (s *Scheduler) Create(ctx context.Context, title string, dayLabels []string, hour, minute int) (*model.Reminder, error) {
	if title == "" {
		return nil, model.NewValidationError("タイトルは必須です")
	}
	if len(dayLabels) == 0 {
		return nil, model.NewValidationError("曜日を1つ以上指定してください")
	}
	if hour < 0 || hour > 23 {
		return nil, model.NewValidationError(fmt.Sprintf("時は0〜23で指定してください: %d", hour))
	}
	if minute < 0 || minute > 59 {
		return nil, model.NewValidationError(fmt.Sprintf("分は0〜59で指定してください: %d", minute))
	}

	// 曜日ラベルを正規化し、集合として重複を除去する
	seen := make(map[model.Weekday]bool)
	var days []model.Weekday
	for _, label := range dayLabels {
		day, ok := model.NormalizeWeekday(label)
		if !ok {
			return nil, model.NewInvalidWeekdayError(label)
		}
		if seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}

	now := time.Now().UTC()
	reminder := &model.Reminder{
		ID:        uuid.NewString(),
		Title:     title,
		Days:      days,
		Hour:      hour,
		Minute:    minute,
		Active:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.reminders.Create(ctx, reminder); err != nil {
		return nil, err
	}
	return reminder, nil
}

// List は全リマインダーをトリガー登録付きで返す。
func (s *Scheduler) List(ctx context.Context) ([]*Status, error) {
	reminders, err := s.reminders.List(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]*Status, 0, len(reminders))
	for _, r := range reminders {
		regs, err := s.regs.ListByReminder(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, &Status{Reminder: r, Registrations: regs})
	}
	return statuses, nil
}

// Activate はリマインダーの各曜日について繰り返しトリガーを登録し、
// 返されたハンドルを曜日ごとの登録行として永続化する。
//
// 部分成功ポリシー: ある曜日の登録が失敗しても、同一呼び出し内で成功済みの
// 他の曜日の登録はロールバックしない。失敗は曜日単位の警告として返す。
// 空のDaysはエラーにせず、登録0件の成功として扱う。
func (s *Scheduler) Activate(ctx context.Context, reminder *model.Reminder) []*model.APIError {
	var warnings []*model.APIError

	for _, day := range reminder.Days {
		weekday, ok := WeekdayNumbers[day]
		if !ok {
			// 保存済みデータは正規化済みのはずだが、未知の曜日は登録せず警告する
			warnings = append(warnings, model.NewInvalidWeekdayError(string(day)))
			continue
		}

		handle, err := s.notifier.Schedule(ctx, notifier.Trigger{
			Title:      reminder.Title,
			Body:       triggerBody,
			Hour:       reminder.Hour,
			Minute:     reminder.Minute,
			Weekday:    weekday,
			Repeats:    true,
			Identifier: reminder.ID,
		})
		if err != nil {
			s.recordScheduleFailed()
			s.logger.Warn("トリガー登録に失敗しました",
				slog.String("reminder_id", reminder.ID),
				slog.String("weekday", string(day)),
				slog.String("error", err.Error()),
			)
			warnings = append(warnings, model.NewNotifierFailedError(string(day), err.Error()))
			continue
		}
		s.recordScheduled()

		reg := &model.ReminderRegistration{
			ReminderID:     reminder.ID,
			Weekday:        day,
			NotificationID: handle,
			RegisteredAt:   time.Now().UTC(),
		}
		if err := s.regs.Upsert(ctx, reg); err != nil {
			// ハンドルを失うと解除できなくなるため、保存失敗時は即座に解除を試みる
			if cancelErr := s.notifier.Cancel(ctx, handle); cancelErr != nil {
				s.logger.Error("登録ハンドルの保存と解除の両方に失敗しました",
					slog.String("reminder_id", reminder.ID),
					slog.String("weekday", string(day)),
					slog.String("notification_id", handle),
				)
			}
			warnings = append(warnings, model.NewNotifierFailedError(string(day), err.Error()))
		}
	}

	return warnings
}

// Deactivate は保存済みの全トリガー登録を解除する。
// 登録が1件もない場合は何もせず成功を返す。
// 解除に失敗した曜日の登録行は残し、後続の再試行に委ねる。
func (s *Scheduler) Deactivate(ctx context.Context, reminderID string) ([]*model.APIError, error) {
	regs, err := s.regs.ListByReminder(ctx, reminderID)
	if err != nil {
		return nil, err
	}

	var warnings []*model.APIError
	for _, reg := range regs {
		if err := s.notifier.Cancel(ctx, reg.NotificationID); err != nil {
			s.recordCancelFailed()
			s.logger.Warn("トリガー解除に失敗しました",
				slog.String("reminder_id", reminderID),
				slog.String("weekday", string(reg.Weekday)),
				slog.String("error", err.Error()),
			)
			warnings = append(warnings, model.NewNotifierFailedError(string(reg.Weekday), err.Error()))
			continue
		}
		s.recordCanceled()

		if err := s.regs.Delete(ctx, reminderID, reg.Weekday); err != nil {
			warnings = append(warnings, model.NewNotifierFailedError(string(reg.Weekday), err.Error()))
		}
	}

	return warnings, nil
}

// Toggle はactiveフラグを更新し、新しい状態に応じてトリガーを登録/解除する。
//
// フラグの永続化を先に行い、通知サービスの失敗があってもフラグは巻き戻さない。
// 失敗は警告として返し、ハードエラーとは区別する（呼び出し側は200+警告で応答する）。
// 既に要求どおりの状態なら何もしない: 再登録はUpsertで保存済みハンドルを
// 上書きし、解除できない外部トリガーを残してしまう。
func (s *Scheduler) Toggle(ctx context.Context, reminderID string, active bool) (*model.Reminder, []*model.APIError, error) {
	reminder, err := s.reminders.FindByID(ctx, reminderID)
	if err != nil {
		return nil, nil, err
	}
	if reminder == nil {
		return nil, nil, model.NewReminderNotFoundError(reminderID)
	}

	if reminder.Active == active {
		return reminder, nil, nil
	}

	if _, err := s.reminders.UpdateActive(ctx, reminderID, active); err != nil {
		return nil, nil, err
	}
	reminder.Active = active

	var warnings []*model.APIError
	if active {
		warnings = s.Activate(ctx, reminder)
	} else {
		warnings, err = s.Deactivate(ctx, reminderID)
		if err != nil {
			return nil, nil, err
		}
	}

	return reminder, warnings, nil
}

// RecordRegistration はクライアント側で登録されたトリガーのハンドルを記録する。
// 旧クライアントのPATCH {notificationId} 互換のための操作。
func (s *Scheduler) RecordRegistration(ctx context.Context, reminderID, dayLabel, notificationID string) error {
	reminder, err := s.reminders.FindByID(ctx, reminderID)
	if err != nil {
		return err
	}
	if reminder == nil {
		return model.NewReminderNotFoundError(reminderID)
	}

	day, ok := model.NormalizeWeekday(dayLabel)
	if !ok {
		return model.NewInvalidWeekdayError(dayLabel)
	}

	return s.regs.Upsert(ctx, &model.ReminderRegistration{
		ReminderID:     reminderID,
		Weekday:        day,
		NotificationID: notificationID,
		RegisteredAt:   time.Now().UTC(),
	})
}

// Delete はリマインダーを削除する。
// active=trueの場合は先にDeactivateを呼び、外部トリガー登録の孤立を防ぐ。
// 非activeの場合は解除呼び出しを行わない。
// 解除に失敗した曜日の登録行はリマインダー削除後も残り、ReapDanglingが回収する。
func (s *Scheduler) Delete(ctx context.Context, reminderID string) ([]*model.APIError, error) {
	reminder, err := s.reminders.FindByID(ctx, reminderID)
	if err != nil {
		return nil, err
	}
	if reminder == nil {
		return nil, model.NewReminderNotFoundError(reminderID)
	}

	var warnings []*model.APIError
	if reminder.Active {
		warnings, err = s.Deactivate(ctx, reminderID)
		if err != nil {
			return nil, err
		}
	}

	if _, err := s.reminders.Delete(ctx, reminderID); err != nil {
		return warnings, err
	}
	return warnings, nil
}

// Resync はactiveなリマインダーのうち、曜日の登録が欠けているものを再登録する。
// Activateの部分失敗で警告として報告された曜日を後から自動回復するためのワーカー用操作。
// 再登録に成功した曜日の件数を返す。
func (s *Scheduler) Resync(ctx context.Context, reminder *model.Reminder) (int, error) {
	regs, err := s.regs.ListByReminder(ctx, reminder.ID)
	if err != nil {
		return 0, err
	}

	registered := make(map[model.Weekday]bool, len(regs))
	for _, reg := range regs {
		registered[reg.Weekday] = true
	}

	missing := &model.Reminder{
		ID:     reminder.ID,
		Title:  reminder.Title,
		Hour:   reminder.Hour,
		Minute: reminder.Minute,
		Active: reminder.Active,
	}
	for _, day := range reminder.Days {
		if !registered[day] {
			missing.Days = append(missing.Days, day)
		}
	}

	if len(missing.Days) == 0 {
		return 0, nil
	}

	warnings := s.Activate(ctx, missing)
	return len(missing.Days) - len(warnings), nil
}

// ReapDangling は解除待ちのまま残った登録ハンドルを回収するワーカー用操作。
// 対象はリマインダーが削除済みまたは非activeの登録行で、解除失敗時に
// DeactivateやDeleteが残した行がここに現れる。解除に成功した行だけを消し、
// 失敗した行は次回の実行に残す。回収した件数を返す。
func (s *Scheduler) ReapDangling(ctx context.Context) (int, error) {
	regs, err := s.regs.ListDangling(ctx)
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, reg := range regs {
		if err := s.notifier.Cancel(ctx, reg.NotificationID); err != nil {
			s.recordCancelFailed()
			s.logger.Warn("解除待ちトリガーの回収に失敗しました",
				slog.String("reminder_id", reg.ReminderID),
				slog.String("weekday", string(reg.Weekday)),
				slog.String("error", err.Error()),
			)
			continue
		}
		s.recordCanceled()

		if err := s.regs.Delete(ctx, reg.ReminderID, reg.Weekday); err != nil {
			s.logger.Warn("解除済み登録行の削除に失敗しました",
				slog.String("reminder_id", reg.ReminderID),
				slog.String("weekday", string(reg.Weekday)),
				slog.String("error", err.Error()),
			)
			continue
		}
		reaped++
	}

	return reaped, nil
}

func (s *Scheduler) recordScheduled() {
	if s.metrics != nil {
		s.metrics.RecordTriggerScheduled()
	}
}

func (s *Scheduler) recordScheduleFailed() {
	if s.metrics != nil {
		s.metrics.RecordTriggerScheduleFailed()
	}
}

func (s *Scheduler) recordCanceled() {
	if s.metrics != nil {
		s.metrics.RecordTriggerCanceled()
	}
}

func (s *Scheduler) recordCancelFailed() {
	if s.metrics != nil {
		s.metrics.RecordTriggerCancelFailed()
	}
}
