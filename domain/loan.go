package domain

import "time"

// LoanPeriod is the fixed lending policy.
const LoanPeriod = 14 * 24 * time.Hour

// LoanStatus is the state of a borrowing transaction.
type LoanStatus string

const (
	LoanActive   LoanStatus = "active"
	LoanOverdue  LoanStatus = "overdue"
	LoanReturned LoanStatus = "returned"
)

func (s LoanStatus) Valid() bool {
	switch s {
	case LoanActive, LoanOverdue, LoanReturned:
		return true
	}
	return false
}

// IsOpen reports whether the loan still holds its book.
func (s LoanStatus) IsOpen() bool {
	return s == LoanActive || s == LoanOverdue
}

// OpenLoanStatuses lists the statuses that keep a book borrowed.
var OpenLoanStatuses = []LoanStatus{LoanActive, LoanOverdue}

// CanTransition reports whether from -> to is a forward move of the loan
// state machine: active -> overdue -> returned, or active -> returned.
func CanTransition(from, to LoanStatus) bool {
	switch from {
	case LoanActive:
		return to == LoanOverdue || to == LoanReturned
	case LoanOverdue:
		return to == LoanReturned
	}
	return false
}

// Loan links one book to one member for a bounded period.
type Loan struct {
	ID         string     `json:"id"`
	BookID     string     `json:"bookId"`
	UserID     string     `json:"userId"`
	BorrowDate time.Time  `json:"borrowDate"`
	DueDate    time.Time  `json:"dueDate"`
	ReturnDate *time.Time `json:"returnDate,omitempty"`
	Status     LoanStatus `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// NewLoan opens a loan at now with the fixed due date.
func NewLoan(id, bookID, userID string, now time.Time) *Loan {
	return &Loan{
		ID:         id,
		BookID:     bookID,
		UserID:     userID,
		BorrowDate: now,
		DueDate:    now.Add(LoanPeriod),
		Status:     LoanActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (l *Loan) IsOpen() bool {
	return l != nil && l.Status.IsOpen()
}

// IsOverdue is the read-time overdue check: either already marked overdue
// or still active past its due date.
func (l *Loan) IsOverdue(now time.Time) bool {
	if l == nil {
		return false
	}
	switch l.Status {
	case LoanOverdue:
		return true
	case LoanActive:
		return now.After(l.DueDate)
	}
	return false
}

// Transition moves the loan to status, stamping the return date when the
// loan is closed. It leaves the loan untouched on an illegal move.
func (l *Loan) Transition(to LoanStatus, now time.Time) error {
	if l == nil {
		return ErrLoanNotFound
	}
	if !to.Valid() {
		return Errorf(ErrCodeInvalid, "unknown transaction status %q", to)
	}
	if l.Status == LoanReturned && to == LoanReturned {
		return ErrAlreadyReturned
	}
	if !CanTransition(l.Status, to) {
		return Errorf(ErrCodeInvalidTransition, "cannot move transaction from %s to %s", l.Status, to)
	}
	if to == LoanReturned {
		if now.Before(l.BorrowDate) {
			now = l.BorrowDate
		}
		returned := now
		l.ReturnDate = &returned
	}
	l.Status = to
	l.UpdatedAt = now
	return nil
}

// LoanView is a loan row joined with the book and member it references.
type LoanView struct {
	Loan
	BookTitle    string `json:"bookTitle,omitempty"`
	BookAuthor   string `json:"bookAuthor,omitempty"`
	BookISBN     string `json:"bookIsbn,omitempty"`
	BookCategory string `json:"bookCategory,omitempty"`
	CoverImage   string `json:"coverImage,omitempty"`
	UserName     string `json:"userName,omitempty"`
	UserEmail    string `json:"userEmail,omitempty"`
	// Overdue is computed at read time from the loan status and due date.
	Overdue bool `json:"overdue"`
}

// Attach fills the denormalized columns from the referenced records.
func (v *LoanView) Attach(book *Book, user *User) {
	if book != nil {
		v.BookTitle = book.Title
		v.BookAuthor = book.Author
		v.BookISBN = book.ISBN
		v.BookCategory = book.Category
		v.CoverImage = book.CoverImage
	}
	if user != nil {
		v.UserName = user.Name
		v.UserEmail = user.Email
	}
}
