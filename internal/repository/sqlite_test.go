package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmeshcher/miner-system/internal/model"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	path := filepath.Join(t.TempDir(), "miner.db")
	r, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })

	return r
}

func TestLoadBeforeSaveReturnsNotFound(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	if _, err := r.LoadSettings(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadSettings error = %v, want ErrNotFound", err)
	}
	if _, err := r.LoadAccount(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadAccount error = %v, want ErrNotFound", err)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	s := model.DefaultSettings()
	s.MiningRatePerSession = 7.25
	s.AdminSecret = "swordfish"

	if err := r.SaveSettings(ctx, s); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	got, err := r.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if got.MiningRatePerSession != 7.25 {
		t.Errorf("MiningRatePerSession = %v, want 7.25", got.MiningRatePerSession)
	}
	if got.AdminSecret != "swordfish" {
		t.Errorf("AdminSecret = %q, want %q", got.AdminSecret, "swordfish")
	}
	if len(got.Tasks) != len(s.Tasks) {
		t.Errorf("Tasks len = %d, want %d", len(got.Tasks), len(s.Tasks))
	}
}

func TestAccountRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	a := model.DefaultAccount()
	a.Balance = 53
	started := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	a.Session = model.Session{Active: true, StartedAt: &started}
	a.CompletedTaskIDs = []string{"t1"}
	a.Withdrawals = []model.Withdrawal{{
		ID:          "w1",
		Amount:      100,
		Address:     "D7Y55r6Yoc1G8EECtkc",
		Status:      model.WithdrawalStatusProcessing,
		RequestedAt: started,
	}}

	if err := r.SaveAccount(ctx, a); err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}

	got, err := r.LoadAccount(ctx)
	if err != nil {
		t.Fatalf("LoadAccount: %v", err)
	}
	if got.Balance != 53 {
		t.Errorf("Balance = %v, want 53", got.Balance)
	}
	if !got.Session.Active || got.Session.StartedAt == nil || !got.Session.StartedAt.Equal(started) {
		t.Errorf("Session = %+v, want active from %v", got.Session, started)
	}
	if got.Identity.ID != a.Identity.ID {
		t.Errorf("Identity.ID = %q, want %q", got.Identity.ID, a.Identity.ID)
	}
	if len(got.Withdrawals) != 1 || got.Withdrawals[0].Status != model.WithdrawalStatusProcessing {
		t.Errorf("Withdrawals = %+v", got.Withdrawals)
	}
}

func TestLoadAccountMergesPartialBlobWithDefaults(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	// Блоб от старой версии приложения содержит только часть полей.
	if err := r.saveBlob(ctx, accountKey, []byte(`{"balance": 12.5}`)); err != nil {
		t.Fatalf("saveBlob: %v", err)
	}

	got, err := r.LoadAccount(ctx)
	if err != nil {
		t.Fatalf("LoadAccount: %v", err)
	}
	if got.Balance != 12.5 {
		t.Errorf("Balance = %v, want 12.5", got.Balance)
	}
	if got.Identity.ID == "" {
		t.Errorf("missing identity must be filled from defaults")
	}
	if got.Session.Active {
		t.Errorf("missing session must default to idle")
	}
}

func TestSaveOverwritesPreviousBlob(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	a := model.DefaultAccount()
	a.Balance = 1
	if err := r.SaveAccount(ctx, a); err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}
	a.Balance = 2
	if err := r.SaveAccount(ctx, a); err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}

	got, err := r.LoadAccount(ctx)
	if err != nil {
		t.Fatalf("LoadAccount: %v", err)
	}
	if got.Balance != 2 {
		t.Errorf("Balance = %v, want 2", got.Balance)
	}
}
