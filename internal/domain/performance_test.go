package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettle_YesPosition(t *testing.T) {
	rec := PerformanceRecord{Action: ActionYes, EntryPrice: 50}

	result, pnl := rec.Settle(62)
	assert.Equal(t, ResultWin, result)
	assert.Equal(t, 12.0, pnl)

	result, pnl = rec.Settle(45)
	assert.Equal(t, ResultLoss, result)
	assert.Equal(t, -5.0, pnl)

	// Exit al precio de entrada no es win.
	result, _ = rec.Settle(50)
	assert.Equal(t, ResultLoss, result)
}

func TestSettle_NoPosition(t *testing.T) {
	rec := PerformanceRecord{Action: ActionNo, EntryPrice: 70}

	result, pnl := rec.Settle(55)
	assert.Equal(t, ResultWin, result)
	assert.Equal(t, 15.0, pnl)

	result, pnl = rec.Settle(80)
	assert.Equal(t, ResultLoss, result)
	assert.Equal(t, -10.0, pnl)
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusOpen.Valid())
	assert.True(t, StatusClosed.Valid())
	assert.True(t, StatusExpired.Valid())
	assert.False(t, Status("pending").Valid())
}

func TestRiskLevelAdmits(t *testing.T) {
	assert.True(t, RiskLow.Admits(ConfidenceHigh))
	assert.False(t, RiskLow.Admits(ConfidenceMedium))
	assert.False(t, RiskLow.Admits(ConfidenceLow))

	assert.True(t, RiskMedium.Admits(ConfidenceHigh))
	assert.True(t, RiskMedium.Admits(ConfidenceMedium))
	assert.False(t, RiskMedium.Admits(ConfidenceLow))

	assert.True(t, RiskHigh.Admits(ConfidenceLow))
}

func TestConfidenceRank(t *testing.T) {
	assert.Greater(t, ConfidenceHigh.Rank(), ConfidenceMedium.Rank())
	assert.Greater(t, ConfidenceMedium.Rank(), ConfidenceLow.Rank())
}

func TestParseStrategy(t *testing.T) {
	for _, s := range Strategies {
		got, err := ParseStrategy(string(s))
		assert.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseStrategy("martingale")
	assert.ErrorIs(t, err, ErrInvalidStrategy)
}

func TestParseRiskLevel(t *testing.T) {
	got, err := ParseRiskLevel("medium")
	assert.NoError(t, err)
	assert.Equal(t, RiskMedium, got)

	_, err = ParseRiskLevel("yolo")
	assert.ErrorIs(t, err, ErrInvalidRiskLevel)
}
