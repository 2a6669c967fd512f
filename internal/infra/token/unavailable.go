package token

import (
	"context"
	"errors"

	"solsign/internal/usecase"
)

// Unavailable stands in when no treasury key or mint is configured. Every
// transfer fails, leaving verified records waiting for the reward.
type Unavailable struct{}

func (Unavailable) Transfer(context.Context, string, float64) (*usecase.RewardReceipt, error) {
	return nil, errors.New("reward dispatcher not configured")
}
