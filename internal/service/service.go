// Package service реализует бизнес-логику майнинг-приложения.
//
// Сервис — единственный владелец агрегата аккаунта: переходы состояния
// применяются строго последовательно под мьютексом, после каждого
// успешного перехода агрегат сохраняется в хранилище по принципу
// best-effort.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/miner-system/internal/account"
	"github.com/mmeshcher/miner-system/internal/metrics"
	"github.com/mmeshcher/miner-system/internal/model"
	"github.com/mmeshcher/miner-system/internal/repository"
	"github.com/mmeshcher/miner-system/internal/reward"
)

const persistTimeout = 3 * time.Second

// Repository описывает контракт доступа к хранилищу состояния.
type Repository interface {
	Close() error
	LoadSettings(ctx context.Context) (model.Settings, error)
	SaveSettings(ctx context.Context, s model.Settings) error
	LoadAccount(ctx context.Context) (model.Account, error)
	SaveAccount(ctx context.Context, a model.Account) error
}

// AdVerifier описывает контракт рекламной площадки.
type AdVerifier interface {
	Show(ctx context.Context, blockID string) (bool, error)
}

// Service содержит бизнес-логику майнинг-приложения.
type Service struct {
	repo   Repository
	ads    AdVerifier
	logger *zap.Logger

	now func() time.Time

	mu       sync.Mutex
	settings model.Settings
	acc      model.Account

	// taskMu сериализует попытки выполнения задач: не больше одной
	// проверки внешнего сигнала одновременно.
	taskMu sync.Mutex

	wake chan struct{}
}

// NewService восстанавливает состояние из хранилища и создаёт сервис.
// Если настройки ещё не сохранялись, используется bootstrap; отсутствующий
// аккаунт создаётся в состоянии по умолчанию. Повреждённое состояние
// заменяется значениями по умолчанию и логируется.
func NewService(ctx context.Context, repo Repository, ads AdVerifier, bootstrap model.Settings, logger *zap.Logger) (*Service, error) {
	s := &Service{
		repo:   repo,
		ads:    ads,
		logger: logger,
		now:    time.Now,
		wake:   make(chan struct{}, 1),
	}

	settings, err := repo.LoadSettings(ctx)
	switch {
	case err == nil:
		s.settings = settings
	case errors.Is(err, repository.ErrNotFound):
		s.settings = bootstrap
		if err := repo.SaveSettings(ctx, bootstrap); err != nil {
			logger.Warn("save bootstrap settings failed", zap.Error(err))
		}
	default:
		logger.Warn("load settings failed, falling back to bootstrap", zap.Error(err))
		s.settings = bootstrap
	}

	acc, err := repo.LoadAccount(ctx)
	switch {
	case err == nil:
		s.acc = acc
	case errors.Is(err, repository.ErrNotFound):
		s.acc = model.DefaultAccount()
		if err := repo.SaveAccount(ctx, s.acc); err != nil {
			logger.Warn("save initial account failed", zap.Error(err))
		}
	default:
		logger.Warn("load account failed, falling back to default", zap.Error(err))
		s.acc = model.DefaultAccount()
	}

	return s, nil
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// persistLocked сохраняет текущий агрегат. Сбой записи не прерывает
// переход: состояние в памяти остаётся авторитетным до конца процесса.
func (s *Service) persistLocked(op string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.repo.SaveAccount(ctx, s.acc); err != nil {
		metrics.PersistFailuresTotal.Inc()
		s.logger.Warn("save account failed", zap.String("op", op), zap.Error(err))
	}
}

func (s *Service) snapshotLocked(now time.Time) model.StateView {
	v := model.StateView{
		ID:               s.acc.Identity.ID,
		DisplayName:      s.acc.Identity.DisplayName,
		Balance:          s.acc.Balance,
		Mining:           s.acc.Session.Active,
		StartedAt:        s.acc.Session.StartedAt,
		GiftRemainingMs:  reward.GiftCooldownRemaining(s.acc.LastGiftClaimedAt, now, reward.GiftCooldown).Milliseconds(),
		ReferralsCount:   s.acc.ReferralsCount,
		ReferralEarnings: s.acc.ReferralEarnings,
	}

	if s.acc.Session.Active && s.acc.Session.StartedAt != nil {
		start := *s.acc.Session.StartedAt
		duration := s.settings.SessionDuration()
		rem := reward.Remaining(start, now, duration)
		if rem < 0 {
			rem = 0
		}
		v.SessionRemainingMs = rem.Milliseconds()
		v.SessionProgress = reward.ProgressFraction(start, now, duration)
		v.SessionEarnings = reward.PartialEarnings(start, now, duration, s.settings.MiningRatePerSession)
	} else {
		v.SessionRemainingMs = s.settings.SessionDurationMs
	}

	return v
}

// Snapshot возвращает текущий снимок состояния для интерфейса.
func (s *Service) Snapshot() model.StateView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(s.now())
}

// StartSession запускает майнинг-сессию. Вызов при уже активной сессии —
// no-op.
func (s *Service) StartSession() (model.StateView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	wasActive := s.acc.Session.Active
	s.acc = account.StartSession(s.acc, now)
	if !wasActive {
		s.persistLocked("session_start")
		s.wakeWatcher()
		s.logger.Info("mining session started", zap.Time("startedAt", now))
		metrics.Observe("session_start", nil)
	} else {
		metrics.TransitionsTotal.WithLabelValues("session_start", metrics.ResultNoop).Inc()
	}

	return s.snapshotLocked(now), nil
}

// StopSession принудительно завершает сессию с начислением полной награды.
func (s *Service) StopSession() (model.StateView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	wasActive := s.acc.Session.Active
	s.acc = account.EndSession(s.acc, s.settings)
	if wasActive {
		s.persistLocked("session_stop")
		s.logger.Info("mining session ended", zap.Float64("balance", s.acc.Balance))
		metrics.Observe("session_stop", nil)
	} else {
		metrics.TransitionsTotal.WithLabelValues("session_stop", metrics.ResultNoop).Inc()
	}

	return s.snapshotLocked(now), nil
}

// tick проверяет естественное истечение сессии.
func (s *Service) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasActive := s.acc.Session.Active
	s.acc = account.Tick(s.acc, s.settings, s.now())
	if wasActive && !s.acc.Session.Active {
		s.persistLocked("session_tick")
		s.logger.Info("mining session completed", zap.Float64("balance", s.acc.Balance))
		metrics.Observe("session_tick", nil)
	}
}

// ClaimGift начисляет ежедневный подарок.
func (s *Service) ClaimGift() (model.StateView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	next, err := account.ClaimGift(s.acc, s.settings, now)
	metrics.Observe("gift_claim", err)
	if err != nil {
		return s.snapshotLocked(now), err
	}

	s.acc = next
	s.persistLocked("gift_claim")
	return s.snapshotLocked(now), nil
}

// CompleteTask выполняет задачу: дожидается внешнего сигнала подтверждения
// и начисляет награду. Попытки выполнения сериализуются: не больше одной
// на аккаунт одновременно. Повторное выполнение той же задачи — no-op
// для вызывающего.
func (s *Service) CompleteTask(ctx context.Context, taskID string) (model.StateView, error) {
	s.taskMu.Lock()
	defer s.taskMu.Unlock()

	s.mu.Lock()
	settings := s.settings
	alreadyDone := s.acc.HasCompletedTask(taskID)
	s.mu.Unlock()

	task, ok := settings.FindTask(taskID)
	if !ok {
		metrics.Observe("task_complete", account.ErrUnknownTask)
		return s.Snapshot(), account.ErrUnknownTask
	}
	if alreadyDone {
		metrics.TransitionsTotal.WithLabelValues("task_complete", metrics.ResultNoop).Inc()
		return s.Snapshot(), account.ErrTaskAlreadyCompleted
	}

	// Ожидание внешнего сигнала — вне мьютекса состояния: проверка может
	// длиться долго и не должна блокировать остальные переходы.
	verified := s.verify(ctx, task, settings)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	next, err := account.CompleteTask(s.acc, s.settings, taskID, verified)
	metrics.Observe("task_complete", err)
	if err != nil {
		return s.snapshotLocked(now), err
	}

	s.acc = next
	s.persistLocked("task_complete")
	s.logger.Info("task completed", zap.String("task", taskID), zap.Float64("reward", task.Reward))
	return s.snapshotLocked(now), nil
}

// verify получает внешний сигнал подтверждения выполнения задачи.
// Сбой рекламной площадки трактуется как неподтверждённый просмотр.
// Социальное действие клиент проверить не может и засчитывает попытку.
func (s *Service) verify(ctx context.Context, task model.Task, settings model.Settings) bool {
	switch task.Kind {
	case model.TaskKindAd:
		if s.ads == nil {
			return false
		}
		done, err := s.ads.Show(ctx, settings.AdsgramBlockID)
		if err != nil {
			s.logger.Warn("ad verification failed", zap.String("task", task.ID), zap.Error(err))
			return false
		}
		return done
	case model.TaskKindSocial:
		return true
	default:
		return false
	}
}

// RequestWithdrawal создаёт заявку на вывод средств с немедленным
// списанием суммы и комиссии.
func (s *Service) RequestWithdrawal(amount float64, address string) (model.StateView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	next, err := account.RequestWithdrawal(s.acc, s.settings, amount, address, now)
	metrics.Observe("withdrawal_request", err)
	if err != nil {
		return s.snapshotLocked(now), err
	}

	s.acc = next
	s.persistLocked("withdrawal_request")
	s.logger.Info("withdrawal requested",
		zap.String("withdrawal", s.acc.Withdrawals[0].ID),
		zap.Float64("amount", amount))
	return s.snapshotLocked(now), nil
}

// Withdrawals возвращает историю заявок, от новых к старым.
func (s *Service) Withdrawals() []model.Withdrawal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Withdrawal(nil), s.acc.Withdrawals...)
}

// ResolveWithdrawal переводит заявку в конечный статус решением
// администратора. Отклонение не возвращает списанные средства.
func (s *Service) ResolveWithdrawal(withdrawalID string, status model.WithdrawalStatus) (model.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := account.ResolveWithdrawal(s.acc, withdrawalID, status)
	metrics.Observe("withdrawal_resolve", err)
	if err != nil {
		return model.Withdrawal{}, err
	}

	s.acc = next
	s.persistLocked("withdrawal_resolve")
	s.logger.Info("withdrawal resolved",
		zap.String("withdrawal", withdrawalID),
		zap.String("status", string(status)))
	return s.acc.Withdrawals[s.acc.FindWithdrawal(withdrawalID)], nil
}

// TaskStates возвращает каталог задач с признаками выполнения.
func (s *Service) TaskStates() []model.TaskView {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.TaskView, 0, len(s.settings.Tasks))
	for _, t := range s.settings.Tasks {
		out = append(out, model.TaskView{
			Task:      t,
			Completed: s.acc.HasCompletedTask(t.ID),
		})
	}
	return out
}

// Settings возвращает текущие настройки.
func (s *Service) Settings() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.settings
	out.Tasks = append([]model.Task(nil), s.settings.Tasks...)
	return out
}

// UpdateSettings целиком заменяет настройки решением администратора.
// Перевзводит наблюдатель сессии: укороченная длительность может сделать
// активную сессию уже истёкшей.
func (s *Service) UpdateSettings(settings model.Settings) error {
	if err := settings.Validate(); err != nil {
		metrics.Observe("settings_update", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = settings

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		metrics.PersistFailuresTotal.Inc()
		s.logger.Warn("save settings failed", zap.Error(err))
	}

	s.wakeWatcher()
	metrics.Observe("settings_update", nil)
	s.logger.Info("settings updated")
	return nil
}

// CheckAdminSecret сравнивает пароль с административным секретом
// за константное время.
func (s *Service) CheckAdminSecret(secret string) bool {
	s.mu.Lock()
	expected := s.settings.AdminSecret
	s.mu.Unlock()

	return subtle.ConstantTimeCompare([]byte(secret), []byte(expected)) == 1
}

// SetDisplayName применяет отображаемое имя, полученное от платформы
// при старте. Пустое имя игнорируется.
func (s *Service) SetDisplayName(name string) {
	if name == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.acc = account.SetDisplayName(s.acc, name)
	s.persistLocked("set_display_name")
}

func (s *Service) wakeWatcher() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// nextExpiry возвращает время до естественного истечения активной сессии.
func (s *Service) nextExpiry() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.acc.Session.Active || s.acc.Session.StartedAt == nil {
		return 0, false
	}

	rem := reward.Remaining(*s.acc.Session.StartedAt, s.now(), s.settings.SessionDuration())
	if rem < 0 {
		rem = 0
	}
	return rem, true
}

// RunSessionWatcher следит за естественным истечением сессии до отмены
// контекста. Вместо периодического опроса планируется одно пробуждение
// на момент startedAt+duration; запуск сессии и смена настроек
// перевзводят таймер через канал wake.
func (s *Service) RunSessionWatcher(ctx context.Context) {
	for {
		var timer *time.Timer
		var timerC <-chan time.Time
		if d, active := s.nextExpiry(); active {
			timer = time.NewTimer(d)
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-timerC:
			s.tick()
		case <-s.wake:
			// Перевзвод таймера на следующей итерации.
		}

		if timer != nil {
			timer.Stop()
		}
	}
}
