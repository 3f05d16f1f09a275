package poker

import (
	"math"
	"testing"
)

func TestComputeSessionDeltas(t *testing.T) {
	tests := []struct {
		name  string
		start int64
		rate  float64
		ps    []SessionPlayer
		loans []BorrowTransaction
		want  map[string]float64
	}{
		{
			name:  "no loans",
			start: 100,
			rate:  0.01,
			ps:    []SessionPlayer{{PlayerID: "p1", StartingChips: 100, FinalChips: 150}},
			want:  map[string]float64{"p1": 0.5},
		},
		{
			name:  "borrowed from bank",
			start: 100,
			rate:  0.01,
			ps:    []SessionPlayer{{PlayerID: "p1", StartingChips: 100, FinalChips: 150}},
			loans: []BorrowTransaction{{ID: "l1", Borrower: PlayerRef("p1"), Lender: Bank(), Amount: 20}},
			want:  map[string]float64{"p1": 0.3},
		},
		{
			name:  "loan between players",
			start: 1000,
			rate:  0.5,
			ps: []SessionPlayer{
				{PlayerID: "a", FinalChips: 1300},
				{PlayerID: "b", FinalChips: 700},
			},
			loans: []BorrowTransaction{{ID: "l1", Borrower: PlayerRef("a"), Lender: PlayerRef("b"), Amount: 200}},
			want:  map[string]float64{"a": 50, "b": -50},
		},
		{
			name:  "lent to bank",
			start: 500,
			rate:  1,
			ps:    []SessionPlayer{{PlayerID: "a", FinalChips: 400}},
			loans: []BorrowTransaction{{ID: "l1", Borrower: Bank(), Lender: PlayerRef("a"), Amount: 100}},
			want:  map[string]float64{"a": 0},
		},
		{
			name:  "loan for player outside the session",
			start: 100,
			rate:  1,
			ps:    []SessionPlayer{{PlayerID: "a", FinalChips: 90}},
			loans: []BorrowTransaction{{ID: "l1", Borrower: PlayerRef("ghost"), Lender: Bank(), Amount: 50}},
			want:  map[string]float64{"a": -10},
		},
		{
			name:  "empty session",
			start: 100,
			rate:  1,
			want:  map[string]float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeSessionDeltas(tt.start, tt.rate, tt.ps, tt.loans)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d: %v", len(got), len(tt.want), got)
			}
			for id, want := range tt.want {
				if math.Abs(got[id]-want) > 1e-9 {
					t.Errorf("delta[%s] = %v, want %v", id, got[id], want)
				}
			}
		})
	}
}

func TestComputeSessionDeltas_NoLoansIsExact(t *testing.T) {
	ps := []SessionPlayer{
		{PlayerID: "a", FinalChips: 1234},
		{PlayerID: "b", FinalChips: 0},
		{PlayerID: "c", FinalChips: 777},
	}
	got := ComputeSessionDeltas(1000, 0.25, ps, nil)
	for _, p := range ps {
		want := float64(p.FinalChips-1000) * 0.25
		if got[p.PlayerID] != want {
			t.Errorf("delta[%s] = %v, want %v", p.PlayerID, got[p.PlayerID], want)
		}
	}
}

func TestLoanCorrection_Symmetry(t *testing.T) {
	loans := []BorrowTransaction{{Borrower: PlayerRef("a"), Lender: PlayerRef("b"), Amount: 75}}
	if got := LoanCorrection("a", loans); got != 75 {
		t.Errorf("borrower correction = %d, want 75", got)
	}
	if got := LoanCorrection("b", loans); got != -75 {
		t.Errorf("lender correction = %d, want -75", got)
	}
	if LoanCorrection("a", loans)+LoanCorrection("b", loans) != 0 {
		t.Error("corrections between two players should cancel out")
	}

	bank := []BorrowTransaction{{Borrower: PlayerRef("a"), Lender: Bank(), Amount: 75}}
	if got := LoanCorrection("a", bank) + LoanCorrection("bank", bank); got != 75 {
		t.Errorf("bank loan should not be offset, got %d", got)
	}
}

func TestDeltas_Reversible(t *testing.T) {
	s := GameSession{
		StartingChips:  1000,
		ConversionRate: 0.07,
		Players: []SessionPlayer{
			{PlayerID: "a", FinalChips: 1333},
			{PlayerID: "b", FinalChips: 417},
			{PlayerID: "c", FinalChips: 1250},
		},
		BorrowTransactions: []BorrowTransaction{
			{Borrower: PlayerRef("b"), Lender: Bank(), Amount: 300},
			{Borrower: PlayerRef("c"), Lender: PlayerRef("a"), Amount: 111},
		},
	}
	original := map[string]float64{"a": 12.34, "b": -0.1, "c": 0.2, "d": 5}
	balances := make(map[string]float64, len(original))
	for id, v := range original {
		balances[id] = v
	}

	for id, d := range s.Deltas() {
		balances[id] += d
	}
	for id, d := range s.Deltas() {
		balances[id] -= d
	}

	for id, want := range original {
		if math.Abs(balances[id]-want) > 1e-9 {
			t.Errorf("balance[%s] = %v, want %v", id, balances[id], want)
		}
	}
}
