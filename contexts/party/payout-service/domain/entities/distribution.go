package entities

import (
	"math/big"
	"strings"
	"time"
)

type DistributionStatus string

const (
	DistributionSubmitting DistributionStatus = "submitting"
	DistributionConfirmed  DistributionStatus = "confirmed"
	DistributionFailed     DistributionStatus = "failed"
)

type ReceiptStatus string

const (
	ReceiptPending   ReceiptStatus = "pending"
	ReceiptDelivered ReceiptStatus = "delivered"
)

// Distribution is one payElection submission. Candidates and Amounts are
// aligned and hold only the rows that were actually paid.
type Distribution struct {
	DistributionID   string
	ElectionID       string
	Account          string
	Candidates       []string
	Amounts          []*big.Int
	Total            *big.Int
	TokenAddress     string
	TxHash           string
	BlockNumber      uint64
	Status           DistributionStatus
	ReceiptStatus    ReceiptStatus
	ReceiptAttempts  int
	LastReceiptError string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Receipt is what the receipt API records for a paid election. Token is empty
// for native-currency payouts.
func (d Distribution) Receipt() Receipt {
	total := new(big.Int)
	if d.Total != nil {
		total.Set(d.Total)
	}
	return Receipt{
		Account: d.Account,
		Amount:  total,
		Token:   d.TokenAddress,
		Txn:     d.TxHash,
	}
}

// HoldsElection reports whether the row blocks another payment for its
// election. Only failed rows release it.
func (d Distribution) HoldsElection() bool {
	return d.Status != DistributionFailed
}

func (d Distribution) NeedsReceipt() bool {
	return d.Status == DistributionConfirmed && d.ReceiptStatus == ReceiptPending
}

type Receipt struct {
	Account string
	Amount  *big.Int
	Token   string
	Txn     string
}

type TransactionReceipt struct {
	TxHash      string
	BlockNumber uint64
	Success     bool
}

// SumAmounts returns a fresh total; nil entries count as zero.
func SumAmounts(amounts []*big.Int) *big.Int {
	total := new(big.Int)
	for _, amount := range amounts {
		if amount != nil {
			total.Add(total, amount)
		}
	}
	return total
}

func CloneAmounts(amounts []*big.Int) []*big.Int {
	out := make([]*big.Int, len(amounts))
	for i, amount := range amounts {
		out[i] = new(big.Int)
		if amount != nil {
			out[i].Set(amount)
		}
	}
	return out
}

func (d Distribution) Clone() Distribution {
	d.Candidates = append([]string(nil), d.Candidates...)
	d.Amounts = CloneAmounts(d.Amounts)
	if d.Total != nil {
		d.Total = new(big.Int).Set(d.Total)
	}
	return d
}

func SameIdentity(a string, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
