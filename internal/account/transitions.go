// Package account реализует переходы состояния агрегата аккаунта.
//
// Каждый переход — чистая функция: принимает текущий агрегат и настройки,
// возвращает новый агрегат либо ошибку без каких-либо изменений. Владелец
// агрегата (сервис) применяет переходы строго последовательно.
package account

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/miner-system/internal/model"
	"github.com/mmeshcher/miner-system/internal/reward"
	"github.com/mmeshcher/miner-system/internal/validation"
)

// ErrGiftCooldown возвращается при попытке получить подарок до истечения кулдауна.
var (
	ErrGiftCooldown = errors.New("gift cooldown active")
	// ErrUnknownTask возвращается, если задачи нет в каталоге настроек.
	ErrUnknownTask = errors.New("unknown task")
	// ErrTaskAlreadyCompleted возвращается при повторном выполнении задачи.
	// Для вызывающего это не ошибка, а идемпотентный no-op.
	ErrTaskAlreadyCompleted = errors.New("task already completed")
	// ErrVerificationFailed возвращается, если внешний сигнал подтверждения
	// не получен; задача остаётся доступной для повторной попытки.
	ErrVerificationFailed = errors.New("task verification failed")
	// ErrInvalidAddress возвращается для адреса, не прошедшего минимальную проверку.
	ErrInvalidAddress = errors.New("invalid withdrawal address")
	// ErrBelowMinimum возвращается для суммы меньше минимальной суммы вывода.
	ErrBelowMinimum = errors.New("amount below minimum withdrawal")
	// ErrInsufficientBalance возвращается, если сумма с комиссией превышает баланс.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrWithdrawalNotFound возвращается, если заявка с указанным id не найдена.
	ErrWithdrawalNotFound = errors.New("withdrawal not found")
	// ErrAlreadyResolved возвращается при попытке изменить заявку в конечном статусе.
	ErrAlreadyResolved = errors.New("withdrawal already resolved")
	// ErrInvalidStatus возвращается для целевого статуса, отличного от
	// Completed и Rejected.
	ErrInvalidStatus = errors.New("invalid resolution status")
)

// StartSession переводит сессию из Idle в Active.
// Повторный вызов при активной сессии — no-op: агрегат возвращается без изменений.
func StartSession(acc model.Account, now time.Time) model.Account {
	if acc.Session.Active {
		return acc
	}
	out := acc.Clone()
	startedAt := now
	out.Session = model.Session{Active: true, StartedAt: &startedAt}
	return out
}

// EndSession принудительно завершает активную сессию и начисляет полную
// номинальную награду. Награда единовременная и не пропорциональна
// фактически прошедшему времени. При неактивной сессии — no-op.
func EndSession(acc model.Account, st model.Settings) model.Account {
	if !acc.Session.Active {
		return acc
	}
	out := acc.Clone()
	out.Balance += st.MiningRatePerSession
	out.Session = model.Session{}
	return out
}

// Tick проверяет естественное истечение сессии. Если номинальная
// длительность исчерпана, действует как EndSession; иначе агрегат
// возвращается без изменений.
func Tick(acc model.Account, st model.Settings, now time.Time) model.Account {
	if !acc.Session.Active || acc.Session.StartedAt == nil {
		return acc
	}
	if reward.Remaining(*acc.Session.StartedAt, now, st.SessionDuration()) > 0 {
		return acc
	}
	return EndSession(acc, st)
}

// ClaimGift начисляет ежедневный подарок, если кулдаун истёк.
func ClaimGift(acc model.Account, st model.Settings, now time.Time) (model.Account, error) {
	if !reward.CanClaimGift(acc.LastGiftClaimedAt, now, reward.GiftCooldown) {
		return acc, ErrGiftCooldown
	}
	out := acc.Clone()
	out.Balance += st.DailyGiftAmount
	claimedAt := now
	out.LastGiftClaimedAt = &claimedAt
	return out, nil
}

// CompleteTask отмечает задачу выполненной и начисляет награду.
// Переход идемпотентен по идентификатору задачи: повторное выполнение
// возвращает ErrTaskAlreadyCompleted и неизменённый агрегат. Внешний
// сигнал подтверждения (просмотр рекламы или социальное действие) обязан
// быть истинным.
func CompleteTask(acc model.Account, st model.Settings, taskID string, verified bool) (model.Account, error) {
	task, ok := st.FindTask(taskID)
	if !ok {
		return acc, ErrUnknownTask
	}
	if acc.HasCompletedTask(taskID) {
		return acc, ErrTaskAlreadyCompleted
	}
	if !verified {
		return acc, ErrVerificationFailed
	}
	out := acc.Clone()
	out.Balance += task.Reward
	out.CompletedTaskIDs = append(out.CompletedTaskIDs, taskID)
	return out, nil
}

// RequestWithdrawal создаёт заявку на вывод средств.
// Сумма вместе с сетевой комиссией списывается с баланса сразу при
// создании заявки, чтобы зарезервированные средства не были доступны
// для повторного вывода.
func RequestWithdrawal(acc model.Account, st model.Settings, amount float64, address string, now time.Time) (model.Account, error) {
	if !validation.IsValidWalletAddress(address) {
		return acc, ErrInvalidAddress
	}
	// Нулевая и отрицательная сумма отклоняются независимо от
	// настроенного минимума: оператор может установить minWithdrawal = 0.
	if amount <= 0 {
		return acc, ErrBelowMinimum
	}
	if amount < st.MinWithdrawal {
		return acc, ErrBelowMinimum
	}
	if amount+st.NetworkFee > acc.Balance {
		return acc, ErrInsufficientBalance
	}

	out := acc.Clone()
	out.Balance -= amount + st.NetworkFee
	out.WithdrawalAddress = address

	w := model.Withdrawal{
		ID:          uuid.NewString(),
		Amount:      amount,
		Address:     address,
		Status:      model.WithdrawalStatusProcessing,
		RequestedAt: now,
	}
	// История хранится от новых к старым.
	out.Withdrawals = append([]model.Withdrawal{w}, out.Withdrawals...)
	return out, nil
}

// ResolveWithdrawal переводит заявку из Processing в конечный статус.
// Отклонение заявки не возвращает списанные средства.
func ResolveWithdrawal(acc model.Account, withdrawalID string, status model.WithdrawalStatus) (model.Account, error) {
	if !status.Terminal() {
		return acc, ErrInvalidStatus
	}
	i := acc.FindWithdrawal(withdrawalID)
	if i < 0 {
		return acc, ErrWithdrawalNotFound
	}
	if acc.Withdrawals[i].Status != model.WithdrawalStatusProcessing {
		return acc, ErrAlreadyResolved
	}
	out := acc.Clone()
	out.Withdrawals[i].Status = status
	return out, nil
}

// SetDisplayName устанавливает отображаемое имя, полученное от платформы.
// Пустое имя оставляет текущее значение без изменений.
func SetDisplayName(acc model.Account, name string) model.Account {
	if name == "" {
		return acc
	}
	out := acc.Clone()
	out.Identity.DisplayName = name
	return out
}
