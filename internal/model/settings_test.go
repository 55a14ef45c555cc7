package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettingsValid(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())
	assert.Equal(t, 5.0, s.MiningRatePerSession)
	assert.Equal(t, int64(4*60*60*1000), s.SessionDurationMs)
	assert.Equal(t, 2.0, s.NetworkFee)
	assert.Len(t, s.Tasks, 2)
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		ok     bool
	}{
		{name: "default", mutate: func(s *Settings) {}, ok: true},
		{name: "negative rate", mutate: func(s *Settings) { s.MiningRatePerSession = -1 }, ok: false},
		{name: "zero duration", mutate: func(s *Settings) { s.SessionDurationMs = 0 }, ok: false},
		{name: "duplicate task id", mutate: func(s *Settings) {
			s.Tasks = append(s.Tasks, Task{ID: "t1", Title: "dup", Kind: TaskKindAd})
		}, ok: false},
		{name: "empty task id", mutate: func(s *Settings) {
			s.Tasks = append(s.Tasks, Task{Title: "no id", Kind: TaskKindAd})
		}, ok: false},
		{name: "negative reward", mutate: func(s *Settings) { s.Tasks[0].Reward = -0.5 }, ok: false},
		{name: "unknown kind", mutate: func(s *Settings) { s.Tasks[0].Kind = "video" }, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			err := s.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidSettings)
			}
		})
	}
}

func TestLoadSettingsFile_MergesWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	data := `
mining_rate_per_session = 7.5
admin_secret = "swordfish"

[[tasks]]
id = "join"
title = "Join the channel"
reward = 3.0
kind = "social"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	s, err := LoadSettingsFile(path)
	require.NoError(t, err)

	assert.Equal(t, 7.5, s.MiningRatePerSession)
	assert.Equal(t, "swordfish", s.AdminSecret)
	// Поля, отсутствующие в файле, берутся из значений по умолчанию.
	assert.Equal(t, 100.0, s.MinWithdrawal)
	require.Len(t, s.Tasks, 1)
	assert.Equal(t, "join", s.Tasks[0].ID)
}

func TestAccountCloneIsIndependent(t *testing.T) {
	a := DefaultAccount()
	a.CompletedTaskIDs = []string{"t1"}
	a.Withdrawals = []Withdrawal{{ID: "w1", Status: WithdrawalStatusProcessing}}

	b := a.Clone()
	b.CompletedTaskIDs[0] = "t2"
	b.Withdrawals[0].Status = WithdrawalStatusRejected

	assert.Equal(t, "t1", a.CompletedTaskIDs[0])
	assert.Equal(t, WithdrawalStatusProcessing, a.Withdrawals[0].Status)
}
