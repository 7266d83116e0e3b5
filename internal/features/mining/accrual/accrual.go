package accrual

import (
	"time"

	"hashminer-backend/internal/features/user/models"
)

// TickDuration is the quantum of mining time. Accrual is credited in whole
// ticks only; sub-tick elapsed time stays encoded in the miner's watermark.
const TickDuration = time.Minute

// Strategy computes a miner's production and mutates it in place. Strategies
// are pure with respect to everything but the passed miner: no I/O, and
// calling them again with the same inputs converges to the same state.
type Strategy interface {
	// Apply updates the miner against the reference time and reports whether
	// anything changed.
	Apply(m *models.Miner, now time.Time) bool
}

// TickStrategy is the elapsed-time accrual model used on the request path.
// Production is hashRate per whole tick elapsed since the watermark, capped
// at capacity.
type TickStrategy struct{}

func (TickStrategy) Apply(m *models.Miner, now time.Time) bool {
	if m.Status != models.MinerStatusRunning {
		return false
	}

	elapsed := now.Sub(m.LastCollected)
	ticks := int64(elapsed / TickDuration)
	if ticks < 1 {
		// Under one tick, or a watermark ahead of now. Either way the
		// watermark must not move.
		return false
	}

	potential := m.HashRate * float64(ticks)
	if m.CoinsMined+potential >= m.Capacity {
		// Saturated: clamp and halt. The watermark stays put; a stopped
		// miner accrues nothing, so advancing it would be meaningless.
		m.CoinsMined = m.Capacity
		m.Status = models.MinerStatusStopped
		return true
	}

	m.CoinsMined += potential
	// Advance by the consumed ticks only, not to now: the fractional
	// remainder keeps counting toward the next tick.
	m.LastCollected = m.LastCollected.Add(time.Duration(ticks) * TickDuration)

	if m.CoinsMined >= m.Capacity {
		m.Status = models.MinerStatusStopped
	}
	return true
}

// FlatStrategy is the coarse model used by the background sweep: one hashRate
// increment per invocation, regardless of elapsed time, clamped to capacity.
type FlatStrategy struct{}

func (FlatStrategy) Apply(m *models.Miner, now time.Time) bool {
	if m.Status != models.MinerStatusRunning {
		return false
	}
	if m.HashRate <= 0 {
		return false
	}

	m.CoinsMined += m.HashRate
	if m.CoinsMined >= m.Capacity {
		m.CoinsMined = m.Capacity
		m.Status = models.MinerStatusStopped
	}
	return true
}

// ApplyAll runs the strategy over every miner independently and reports
// whether any of them changed.
func ApplyAll(s Strategy, miners []models.Miner, now time.Time) bool {
	changed := false
	for i := range miners {
		if s.Apply(&miners[i], now) {
			changed = true
		}
	}
	return changed
}
