package token

import "testing"

func TestExplorerURL(t *testing.T) {
	cases := []struct {
		network string
		want    string
	}{
		{"devnet", "https://explorer.solana.com/tx/5Kt?cluster=devnet"},
		{"testnet", "https://explorer.solana.com/tx/5Kt?cluster=testnet"},
		{"mainnet", "https://explorer.solana.com/tx/5Kt"},
		{"mainnet-beta", "https://explorer.solana.com/tx/5Kt"},
		{"", "https://explorer.solana.com/tx/5Kt"},
	}
	for _, tc := range cases {
		if got := ExplorerURL("5Kt", tc.network); got != tc.want {
			t.Errorf("network %q: got %q, want %q", tc.network, got, tc.want)
		}
	}
}
