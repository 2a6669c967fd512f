package token

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	ata "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"solsign/internal/config"
	"solsign/internal/usecase"
)

// Dispatcher sends SOLSIGN reward tokens from the treasury to a verified
// wallet as a single SPL transfer.
type Dispatcher struct {
	client   *rpc.Client
	treasury solana.PrivateKey
	mint     solana.PublicKey
	decimals uint8
	network  string
	log      *zap.Logger
}

func NewDispatcher(cfg config.Config, log *zap.Logger) (*Dispatcher, error) {
	if cfg.MintAddress == "" {
		return nil, errors.New("mint address is required")
	}
	mint, err := solana.PublicKeyFromBase58(cfg.MintAddress)
	if err != nil {
		return nil, fmt.Errorf("mint address: %w", err)
	}
	treasury, err := solana.PrivateKeyFromSolanaKeygenFile(cfg.TreasuryKeyPath)
	if err != nil {
		return nil, fmt.Errorf("treasury key: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		client:   rpc.New(cfg.SolanaRPCURL),
		treasury: treasury,
		mint:     mint,
		decimals: uint8(cfg.TokenDecimals),
		network:  cfg.SolanaNetwork,
		log:      log,
	}, nil
}

func (d *Dispatcher) Transfer(ctx context.Context, recipient string, amount float64) (*usecase.RewardReceipt, error) {
	owner, err := solana.PublicKeyFromBase58(recipient)
	if err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}

	treasuryPub := d.treasury.PublicKey()
	source, _, err := solana.FindAssociatedTokenAddress(treasuryPub, d.mint)
	if err != nil {
		return nil, fmt.Errorf("treasury token account: %w", err)
	}
	dest, _, err := solana.FindAssociatedTokenAddress(owner, d.mint)
	if err != nil {
		return nil, fmt.Errorf("recipient token account: %w", err)
	}

	var instructions []solana.Instruction
	if _, err := d.client.GetAccountInfo(ctx, dest); err != nil {
		if !errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("check token account: %w", err)
		}
		instructions = append(instructions, ata.NewCreateInstruction(treasuryPub, owner, d.mint).Build())
	}

	baseUnits := uint64(math.Round(amount * math.Pow10(int(d.decimals))))
	instructions = append(instructions, token.NewTransferCheckedInstruction(
		baseUnits,
		d.decimals,
		source,
		d.mint,
		dest,
		treasuryPub,
		nil,
	).Build())

	recent, err := d.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, fmt.Errorf("latest blockhash: %w", err)
	}
	tx, err := solana.NewTransaction(instructions, recent.Value.Blockhash, solana.TransactionPayer(treasuryPub))
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(treasuryPub) {
			return &d.treasury
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	sig, err := d.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	d.log.Info("token transfer sent",
		zap.String("recipient", recipient),
		zap.String("signature", sig.String()),
		zap.Float64("amount", amount),
	)
	return &usecase.RewardReceipt{
		Signature:   sig.String(),
		ExplorerURL: ExplorerURL(sig.String(), d.network),
		Amount:      amount,
	}, nil
}

// ExplorerURL links a transaction signature on the configured cluster.
func ExplorerURL(signature, network string) string {
	if network == "" || network == "mainnet" || network == "mainnet-beta" {
		return "https://explorer.solana.com/tx/" + signature
	}
	return fmt.Sprintf("https://explorer.solana.com/tx/%s?cluster=%s", signature, network)
}
