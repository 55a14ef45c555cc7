package model

import "time"

// StateView — снимок состояния аккаунта для пользовательского интерфейса.
// Прогресс и заработок активной сессии справочные: в хранилище они не
// фиксируются и начислением не являются.
type StateView struct {
	ID                 string     `json:"id"`
	DisplayName        string     `json:"displayName"`
	Balance            float64    `json:"balance"`
	Mining             bool       `json:"mining"`
	StartedAt          *time.Time `json:"startedAt,omitempty"`
	SessionRemainingMs int64      `json:"sessionRemainingMs"`
	SessionProgress    float64    `json:"sessionProgress"`
	SessionEarnings    float64    `json:"sessionEarnings"`
	GiftRemainingMs    int64      `json:"giftRemainingMs"`
	ReferralsCount     int        `json:"referralsCount"`
	ReferralEarnings   float64    `json:"referralEarnings"`
}

// TaskView — задача каталога вместе с признаком её выполнения.
type TaskView struct {
	Task
	Completed bool `json:"completed"`
}
