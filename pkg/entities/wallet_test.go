package entities

import (
	"testing"
	"time"

	"github.com/k1llbot/k1ll/pkg/custom"
	"github.com/stretchr/testify/require"
)

func TestWallet_CanCollectDaily(t *testing.T) {
	today := custom.Datetime(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))

	t.Run("never collected", func(t *testing.T) {
		w := &Wallet{}
		require.True(t, w.CanCollectDaily(today))
	})

	t.Run("collected earlier today", func(t *testing.T) {
		w := &Wallet{LastDaily: custom.Datetime(time.Date(2024, 3, 10, 0, 30, 0, 0, time.UTC))}
		require.False(t, w.CanCollectDaily(today))
	})

	t.Run("collected yesterday", func(t *testing.T) {
		w := &Wallet{LastDaily: custom.Datetime(time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC))}
		require.True(t, w.CanCollectDaily(today))
	})

	t.Run("date compared in UTC", func(t *testing.T) {
		// 23:00-05:00 on the 9th is 04:00 UTC on the 10th.
		offset := time.FixedZone("UTC-5", -5*60*60)
		w := &Wallet{LastDaily: custom.Datetime(time.Date(2024, 3, 9, 23, 0, 0, 0, offset))}
		require.False(t, w.CanCollectDaily(today))
	})
}

func TestWallet_AddItem(t *testing.T) {
	w := &Wallet{}

	w.AddItem("crate")
	w.AddItem("crate")
	w.AddItem("vip")

	require.Equal(t, 2, w.Inventory["crate"])
	require.Equal(t, 1, w.Inventory["vip"])
}
