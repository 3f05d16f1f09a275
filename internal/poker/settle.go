package poker

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// Epsilon is one cent. Balances closer to zero than this count as settled.
const Epsilon = 0.01

type Balance struct {
	ID      string
	Balance float64
}

// ComputeMinimalSettlement matches the largest debtor with the largest
// creditor until every balance is within Epsilon of zero. Each step settles at
// least one party, so the result has at most n-1 transactions for n unsettled
// balances. Ties go to the lowest player id.
//
// With whole-cent inputs every balance ends within Epsilon. Sub-cent inputs
// can leave up to half a cent of rounding residue per payment, so a single
// balance may end as far as (n-1)*Epsilon from zero.
func ComputeMinimalSettlement(balances []Balance) []Transaction {
	work := make([]Balance, 0, len(balances))
	for _, b := range balances {
		if math.Abs(b.Balance) >= Epsilon {
			work = append(work, b)
		}
	}
	sort.SliceStable(work, func(i, j int) bool { return work[i].ID < work[j].ID })

	transactions := []Transaction{}
	for len(work) > 0 {
		debtor, creditor := 0, 0
		for i := range work {
			if work[i].Balance < work[debtor].Balance {
				debtor = i
			}
			if work[i].Balance > work[creditor].Balance {
				creditor = i
			}
		}

		d, c := &work[debtor], &work[creditor]
		if d.Balance > -Epsilon || c.Balance < Epsilon {
			break
		}

		amount := RoundCents(math.Min(-d.Balance, c.Balance))
		if amount < Epsilon {
			break
		}

		transactions = append(transactions, Transaction{From: d.ID, To: c.ID, Amount: amount})
		d.Balance += amount
		c.Balance -= amount
	}
	return transactions
}

// SettlePlayers runs the solver over the players' current balances.
func SettlePlayers(players []Player) Settlement {
	balances := make([]Balance, len(players))
	for i, p := range players {
		balances[i] = Balance{ID: p.ID, Balance: p.Balance}
	}
	txs := ComputeMinimalSettlement(balances)

	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(decimal.NewFromFloat(tx.Amount))
	}
	return Settlement{Transactions: txs, TotalAmount: total.InexactFloat64()}
}

// RoundCents rounds half away from zero to two decimal places.
func RoundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// FormatAmount renders v with exactly two decimals.
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
