package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// TaskKind описывает способ подтверждения выполнения задачи.
type TaskKind string

const (
	// TaskKindAd — задача подтверждается просмотром рекламного блока.
	TaskKindAd TaskKind = "ad"
	// TaskKindSocial — задача подтверждается социальным действием.
	TaskKindSocial TaskKind = "social"
)

// Task описывает одноразовую задачу из каталога оператора.
type Task struct {
	ID     string   `json:"id" toml:"id"`
	Title  string   `json:"title" toml:"title"`
	Reward float64  `json:"reward" toml:"reward"`
	Kind   TaskKind `json:"kind" toml:"kind"`
}

// Settings содержит настраиваемые оператором экономические параметры.
// Настройки читаются всеми компонентами и перезаписываются целиком
// административным действием сохранения.
type Settings struct {
	MiningRatePerSession float64 `json:"miningRatePerSession" toml:"mining_rate_per_session"`
	SessionDurationMs    int64   `json:"sessionDurationMs" toml:"session_duration_ms"`
	MinWithdrawal        float64 `json:"minWithdrawal" toml:"min_withdrawal"`
	NetworkFee           float64 `json:"networkFee" toml:"network_fee"`
	ReferralCommission   float64 `json:"referralCommission" toml:"referral_commission"`
	DailyGiftAmount      float64 `json:"dailyGiftAmount" toml:"daily_gift_amount"`
	AdsgramBlockID       string  `json:"adsgramBlockId" toml:"adsgram_block_id"`
	AdminSecret          string  `json:"adminSecret" toml:"admin_secret"`
	Tasks                []Task  `json:"tasks" toml:"tasks"`
}

// DefaultSettings возвращает настройки по умолчанию.
func DefaultSettings() Settings {
	return Settings{
		MiningRatePerSession: 5.0,
		SessionDurationMs:    4 * 60 * 60 * 1000,
		MinWithdrawal:        100.0,
		NetworkFee:           2.0,
		ReferralCommission:   10,
		DailyGiftAmount:      1.0,
		AdsgramBlockID:       "3946",
		AdminSecret:          "123",
		Tasks: []Task{
			{ID: "t1", Title: "Follow Doge on X", Reward: 2.0, Kind: TaskKindSocial},
			{ID: "t2", Title: "Watch Reward Video", Reward: 1.5, Kind: TaskKindAd},
		},
	}
}

// SessionDuration возвращает длительность сессии как time.Duration.
func (s Settings) SessionDuration() time.Duration {
	return time.Duration(s.SessionDurationMs) * time.Millisecond
}

// FindTask возвращает задачу каталога по идентификатору.
func (s Settings) FindTask(taskID string) (Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == taskID {
			return t, true
		}
	}
	return Task{}, false
}

// ErrInvalidSettings возвращается при попытке сохранить настройки,
// нарушающие инварианты каталога.
var ErrInvalidSettings = errors.New("invalid settings")

// Validate проверяет инварианты настроек: неотрицательные суммы и
// длительности, уникальные идентификаторы задач.
func (s Settings) Validate() error {
	if s.MiningRatePerSession < 0 || s.MinWithdrawal < 0 || s.NetworkFee < 0 || s.DailyGiftAmount < 0 {
		return fmt.Errorf("%w: negative amount", ErrInvalidSettings)
	}
	if s.SessionDurationMs <= 0 {
		return fmt.Errorf("%w: non-positive session duration", ErrInvalidSettings)
	}
	seen := make(map[string]struct{}, len(s.Tasks))
	for _, t := range s.Tasks {
		if t.ID == "" {
			return fmt.Errorf("%w: empty task id", ErrInvalidSettings)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: duplicate task id %q", ErrInvalidSettings, t.ID)
		}
		seen[t.ID] = struct{}{}
		if t.Reward < 0 {
			return fmt.Errorf("%w: negative reward for task %q", ErrInvalidSettings, t.ID)
		}
		if t.Kind != TaskKindAd && t.Kind != TaskKindSocial {
			return fmt.Errorf("%w: unknown kind %q for task %q", ErrInvalidSettings, t.Kind, t.ID)
		}
	}
	return nil
}

// LoadSettingsFile читает первоначальные настройки из TOML-файла оператора.
// Отсутствующие поля сохраняют значения по умолчанию.
func LoadSettingsFile(path string) (Settings, error) {
	s := DefaultSettings()
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return Settings{}, fmt.Errorf("decode settings file: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}
