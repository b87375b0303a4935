package domain

// DashboardStats summarizes catalog, membership and ledger state.
type DashboardStats struct {
	TotalBooks         int `json:"totalBooks"`
	AvailableBooks     int `json:"availableBooks"`
	BorrowedBooks      int `json:"borrowedBooks"`
	TotalUsers         int `json:"totalUsers"`
	ActiveTransactions int `json:"activeTransactions"`
	OverdueBooks       int `json:"overdueBooks"`
}
