// Package model содержит доменные сущности майнинг-приложения.
package model

import (
	"time"

	"github.com/google/uuid"
)

// WithdrawalStatus описывает статус заявки на вывод средств.
type WithdrawalStatus string

const (
	WithdrawalStatusProcessing WithdrawalStatus = "Processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "Completed"
	WithdrawalStatusRejected   WithdrawalStatus = "Rejected"
)

// Terminal сообщает, является ли статус конечным.
// Заявка, покинувшая статус Processing, больше не меняется.
func (s WithdrawalStatus) Terminal() bool {
	return s == WithdrawalStatusCompleted || s == WithdrawalStatusRejected
}

// Withdrawal описывает заявку на вывод средств.
// Сумма фиксируется при создании и не изменяется.
type Withdrawal struct {
	ID          string           `json:"id"`
	Amount      float64          `json:"amount"`
	Address     string           `json:"address"`
	Status      WithdrawalStatus `json:"status"`
	RequestedAt time.Time        `json:"requestedAt"`
}

// Session описывает состояние майнинг-сессии.
// Инвариант: Active=false влечёт StartedAt=nil.
type Session struct {
	Active    bool       `json:"active"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
}

// Identity содержит идентификационные поля аккаунта.
// ID генерируется один раз при создании и стабилен на всё время жизни.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Account — агрегат состояния единственного пользователя клиента.
// Все переходы состояния производят новую копию агрегата; частичных
// обновлений не бывает.
type Account struct {
	Balance           float64      `json:"balance"`
	Session           Session      `json:"session"`
	CompletedTaskIDs  []string     `json:"completedTaskIds"`
	LastGiftClaimedAt *time.Time   `json:"lastGiftClaimedAt,omitempty"`
	Withdrawals       []Withdrawal `json:"withdrawals"`
	Identity          Identity     `json:"identity"`

	// Реферальные поля отображаются в интерфейсе, но начисления по ним
	// клиент не производит.
	WithdrawalAddress string  `json:"withdrawalAddress"`
	ReferralsCount    int     `json:"referralsCount"`
	ReferralEarnings  float64 `json:"referralEarnings"`
	ReferredBy        *string `json:"referredBy,omitempty"`
}

// DefaultAccount возвращает аккаунт в состоянии по умолчанию
// со свежесгенерированным идентификатором.
func DefaultAccount() Account {
	return Account{
		Balance:          0,
		Session:          Session{},
		CompletedTaskIDs: []string{},
		Withdrawals:      []Withdrawal{},
		Identity: Identity{
			ID:          uuid.NewString(),
			DisplayName: "miner",
		},
	}
}

// HasCompletedTask сообщает, выполнена ли задача с указанным идентификатором.
func (a Account) HasCompletedTask(taskID string) bool {
	for _, id := range a.CompletedTaskIDs {
		if id == taskID {
			return true
		}
	}
	return false
}

// FindWithdrawal возвращает индекс заявки с указанным идентификатором
// или -1, если заявка не найдена.
func (a Account) FindWithdrawal(id string) int {
	for i, w := range a.Withdrawals {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// Clone возвращает глубокую копию агрегата. Срезы копируются, чтобы
// переход состояния не разделял память с предыдущей версией.
func (a Account) Clone() Account {
	out := a
	out.CompletedTaskIDs = append(make([]string, 0, len(a.CompletedTaskIDs)), a.CompletedTaskIDs...)
	out.Withdrawals = append(make([]Withdrawal, 0, len(a.Withdrawals)), a.Withdrawals...)
	return out
}
