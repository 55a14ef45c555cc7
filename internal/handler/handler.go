// Package handler содержит HTTP-обработчики API майнинг-приложения.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/miner-system/internal/account"
	"github.com/mmeshcher/miner-system/internal/middleware"
	"github.com/mmeshcher/miner-system/internal/model"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Snapshot() model.StateView
	StartSession() (model.StateView, error)
	StopSession() (model.StateView, error)
	ClaimGift() (model.StateView, error)
	CompleteTask(ctx context.Context, taskID string) (model.StateView, error)
	RequestWithdrawal(amount float64, address string) (model.StateView, error)
	Withdrawals() []model.Withdrawal
	ResolveWithdrawal(withdrawalID string, status model.WithdrawalStatus) (model.Withdrawal, error)
	TaskStates() []model.TaskView
	Settings() model.Settings
	UpdateSettings(settings model.Settings) error
	CheckAdminSecret(secret string) bool
}

// Handler реализует HTTP-обработчики API майнинг-приложения.
type Handler struct {
	service   Service
	logger    *zap.Logger
	adminAuth *middleware.AdminAuth
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AdminAuth) *Handler {
	return &Handler{
		service:   s,
		logger:    logger,
		adminAuth: auth,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

// GetState возвращает снимок состояния аккаунта.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Snapshot())
}

// StartSession запускает майнинг-сессию. Повторный запуск при активной
// сессии возвращает текущее состояние без изменений.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.StartSession()
	if err != nil {
		h.logger.Error("start session error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// StopSession завершает майнинг-сессию и начисляет награду.
func (h *Handler) StopSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.StopSession()
	if err != nil {
		h.logger.Error("stop session error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// ClaimGift начисляет ежедневный подарок.
func (h *Handler) ClaimGift(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.ClaimGift()
	if err != nil {
		if errors.Is(err, account.ErrGiftCooldown) {
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
			return
		}
		h.logger.Error("claim gift error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// GetTasks возвращает каталог задач с признаком выполнения.
func (h *Handler) GetTasks(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.TaskStates())
}

// CompleteTask выполняет задачу с указанным идентификатором.
func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")

	view, err := h.service.CompleteTask(r.Context(), taskID)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrUnknownTask):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, account.ErrTaskAlreadyCompleted):
			// Повторное выполнение — идемпотентный no-op.
			h.writeJSON(w, http.StatusOK, view)
		case errors.Is(err, account.ErrVerificationFailed):
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
		default:
			h.logger.Error("complete task error", zap.Error(err), zap.String("task", taskID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

type withdrawRequest struct {
	Amount  float64 `json:"amount"`
	Address string  `json:"address"`
}

// Withdraw создаёт заявку на вывод средств.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	view, err := h.service.RequestWithdrawal(req.Amount, req.Address)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrInvalidAddress), errors.Is(err, account.ErrBelowMinimum):
			http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		case errors.Is(err, account.ErrInsufficientBalance):
			http.Error(w, http.StatusText(http.StatusPaymentRequired), http.StatusPaymentRequired)
		default:
			h.logger.Error("withdraw error", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// GetWithdrawals возвращает историю заявок на вывод, новые первыми.
func (h *Handler) GetWithdrawals(w http.ResponseWriter, r *http.Request) {
	withdrawals := h.service.Withdrawals()
	if len(withdrawals) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, http.StatusOK, withdrawals)
}

type adminLoginRequest struct {
	Secret string `json:"secret"`
}

// AdminLogin проверяет секрет администратора и устанавливает cookie доступа.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if !h.service.CheckAdminSecret(req.Secret) {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	h.adminAuth.SetAuthCookie(w)
	w.WriteHeader(http.StatusOK)
}

// GetSettings возвращает текущие настройки приложения.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Settings())
}

// UpdateSettings сохраняет новые настройки приложения.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings model.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateSettings(settings); err != nil {
		if errors.Is(err, model.ErrInvalidSettings) {
			http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("update settings error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, h.service.Settings())
}

type resolveRequest struct {
	Status model.WithdrawalStatus `json:"status"`
}

// ResolveWithdrawal переводит заявку в конечный статус по решению
// администратора.
func (h *Handler) ResolveWithdrawal(w http.ResponseWriter, r *http.Request) {
	withdrawalID := chi.URLParam(r, "id")

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	resolved, err := h.service.ResolveWithdrawal(withdrawalID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrInvalidStatus):
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		case errors.Is(err, account.ErrWithdrawalNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, account.ErrAlreadyResolved):
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
		default:
			h.logger.Error("resolve withdrawal error", zap.Error(err), zap.String("withdrawal", withdrawalID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, resolved)
}
