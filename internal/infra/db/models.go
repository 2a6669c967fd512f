package db

import "time"

type VerificationModel struct {
	ID            string    `gorm:"type:uuid;primaryKey"`
	Identity      string    `gorm:"column:wallet_address;uniqueIndex;not null"`
	Username      string    `gorm:"uniqueIndex;not null"`
	Email         string    `gorm:"uniqueIndex;not null"`
	Phone         string
	ConsentGiven  bool      `gorm:"not null"`
	Phase         string    `gorm:"index;not null"`
	Code          string    `gorm:"column:verification_code"`
	CodeExpiry    *time.Time
	RewardGranted bool      `gorm:"not null;default:false"`
	RewardTxRef   string    `gorm:"column:reward_tx_ref"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (VerificationModel) TableName() string {
	return "verifications"
}

type TransactionModel struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	TxHash       string    `gorm:"uniqueIndex;not null"`
	DocHash      string    `gorm:"index;not null"`
	SignerPubkey string    `gorm:"index;not null"`
	Amount       float64   `gorm:"column:ssign_amount;not null"`
	SignedAt     time.Time `gorm:"not null"`
	ExplorerURL  string
	CreatedAt    time.Time `gorm:"not null"`
}

func (TransactionModel) TableName() string {
	return "transactions"
}
