// Package reward содержит чистые вычисления наградных часов:
// прогресс майнинг-сессии и кулдаун ежедневного подарка.
package reward

import "time"

// GiftCooldown — минимальный интервал между получениями ежедневного подарка.
const GiftCooldown = 24 * time.Hour

// Elapsed возвращает время, прошедшее с начала сессии, но не меньше нуля.
func Elapsed(start, now time.Time) time.Duration {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return d
}

// Remaining возвращает остаток сессии. Отрицательное значение означает,
// что номинальная длительность уже превышена.
func Remaining(start, now time.Time, duration time.Duration) time.Duration {
	return duration - Elapsed(start, now)
}

// ProgressFraction возвращает долю пройденной сессии в диапазоне [0, 1].
func ProgressFraction(start, now time.Time, duration time.Duration) float64 {
	if duration <= 0 {
		return 1
	}
	f := float64(Elapsed(start, now)) / float64(duration)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// PartialEarnings возвращает справочный заработок текущей сессии.
// Значение только для отображения: начисление происходит единовременно
// при завершении сессии.
func PartialEarnings(start, now time.Time, duration time.Duration, rate float64) float64 {
	return ProgressFraction(start, now, duration) * rate
}

// CanClaimGift сообщает, доступен ли ежедневный подарок.
// Подарок доступен, если он ещё не получался либо кулдаун истёк,
// включая точную границу.
func CanClaimGift(lastClaimedAt *time.Time, now time.Time, cooldown time.Duration) bool {
	if lastClaimedAt == nil {
		return true
	}
	return now.Sub(*lastClaimedAt) >= cooldown
}

// GiftCooldownRemaining возвращает остаток кулдауна подарка,
// но не меньше нуля.
func GiftCooldownRemaining(lastClaimedAt *time.Time, now time.Time, cooldown time.Duration) time.Duration {
	if lastClaimedAt == nil {
		return 0
	}
	rem := cooldown - now.Sub(*lastClaimedAt)
	if rem < 0 {
		return 0
	}
	return rem
}
