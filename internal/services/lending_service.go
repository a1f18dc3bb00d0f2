package services

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Pratiksha-287/library-management-system/internal/models"
	"github.com/Pratiksha-287/library-management-system/internal/repositories"
)

// ─── Workflow Constants ───────────────────────────────────────────────────────

const (
	// DefaultLoanDays is the loan period applied when configuration leaves it unset.
	DefaultLoanDays = 14

	// DefaultFinePerDay is the fine (currency units) per day a return is late.
	DefaultFinePerDay = 5.00
)

// Clock supplies "now". Injected so tests can pin the current date.
type Clock func() time.Time

// ─── Sentinel Errors ──────────────────────────────────────────────────────────

var (
	// ErrBookNotFound is returned when the requested book does not exist.
	ErrBookNotFound = errors.New("book not found")

	// ErrUserNotFound is returned when the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrMemberNotFound is returned when the referenced membership does not exist.
	ErrMemberNotFound = errors.New("member not found")

	// ErrTransactionNotFound is returned when the referenced ledger entry does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrUnauthorized is returned when the caller is neither staff nor the
	// borrower the operation concerns. No mutation happens.
	ErrUnauthorized = errors.New("not authorized for this transaction")

	// ErrBookUnavailable is returned when no copy is left at issuance time,
	// including when a concurrent request takes the last copy first.
	ErrBookUnavailable = errors.New("book is not available for issuing")

	// ErrUserInactive is returned when the would-be borrower is deactivated.
	ErrUserInactive = errors.New("borrower account is inactive")

	// ErrAlreadyReturned signals the idempotent no-op of returning a transaction
	// twice. The unchanged transaction accompanies it.
	ErrAlreadyReturned = errors.New("transaction already returned")

	// ErrNoFineDue signals the idempotent no-op of paying a zero fine.
	ErrNoFineDue = errors.New("no fine due for this transaction")
)

// ─── Service Interface ────────────────────────────────────────────────────────

// LedgerFilter narrows ledger listings. Non-staff callers are always scoped to
// their own transactions regardless of UserID.
type LedgerFilter struct {
	Status      models.TransactionStatus
	OverdueOnly bool
	UserID      *uuid.UUID
}

// Summary is the staff dashboard snapshot.
type Summary struct {
	BooksCount  int64                `json:"books_count"`
	IssuedCount int64                `json:"issued_count"`
	RecentTx    []models.Transaction `json:"recent_tx"`
}

// LendingService is the lending workflow engine: issuance, returns, fines and
// the read-only ledger queries built on top of them.
type LendingService interface {
	IssueBook(bookID, callerID uuid.UUID, targetUserID *uuid.UUID) (*models.Transaction, error)
	ReturnBook(transactionID, callerID uuid.UUID) (*models.Transaction, error)
	PayFine(transactionID, callerID uuid.UUID) (*models.Transaction, error)

	GetTransaction(transactionID, callerID uuid.UUID) (*models.Transaction, error)
	ListTransactions(callerID uuid.UUID, f LedgerFilter) ([]models.Transaction, error)
	DashboardSummary(callerID uuid.UUID) (*Summary, error)
}

// ─── Implementation ───────────────────────────────────────────────────────────

type lendingService struct {
	db         *gorm.DB
	userRepo   repositories.UserRepository
	bookRepo   repositories.BookRepository
	txRepo     repositories.TransactionRepository
	clock      Clock
	loanDays   int
	finePerDay float64
}

// NewLendingService wires up the workflow engine. Zero loanDays/finePerDay fall
// back to the defaults; a nil clock uses wall-clock UTC.
func NewLendingService(
	db *gorm.DB,
	userRepo repositories.UserRepository,
	bookRepo repositories.BookRepository,
	txRepo repositories.TransactionRepository,
	clock Clock,
	loanDays int,
	finePerDay float64,
) LendingService {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	if loanDays <= 0 {
		loanDays = DefaultLoanDays
	}
	if finePerDay <= 0 {
		finePerDay = DefaultFinePerDay
	}
	return &lendingService{
		db:         db,
		userRepo:   userRepo,
		bookRepo:   bookRepo,
		txRepo:     txRepo,
		clock:      clock,
		loanDays:   loanDays,
		finePerDay: finePerDay,
	}
}

// today truncates the injected clock to a calendar date (midnight UTC).
func (s *lendingService) today() time.Time {
	return s.clock().UTC().Truncate(24 * time.Hour)
}

// ─── Issue ────────────────────────────────────────────────────────────────────

// IssueBook lends one copy of a book.
//
// Only staff may issue to a user other than themselves. The outer availability
// check is a cheap early exit; the authoritative guard is the conditional
// decrement inside the transaction, so two concurrent requests for the last
// copy cannot both succeed.
func (s *lendingService) IssueBook(bookID, callerID uuid.UUID, targetUserID *uuid.UUID) (*models.Transaction, error) {
	caller, err := s.getUser(callerID)
	if err != nil {
		return nil, err
	}

	borrower := caller
	if targetUserID != nil && *targetUserID != callerID {
		if !caller.IsStaff {
			log.Printf("[WARN] IssueBook: non-staff user %s attempted to issue to user %s", callerID, *targetUserID)
			return nil, ErrUnauthorized
		}
		if borrower, err = s.getUser(*targetUserID); err != nil {
			return nil, err
		}
	}
	if !borrower.IsActive {
		return nil, ErrUserInactive
	}

	book, err := s.bookRepo.GetByID(nil, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	if book.AvailableCopies <= 0 {
		return nil, ErrBookUnavailable
	}

	var result *models.Transaction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		taken, err := s.bookRepo.DecrementAvailable(tx, bookID)
		if err != nil {
			log.Printf("[ERROR] IssueBook: failed to decrement availability for book %s: %v", bookID, err)
			return err
		}
		if !taken {
			// Another request took the last copy between the early check and here.
			return ErrBookUnavailable
		}

		issueDate := s.today()
		dueDate := issueDate.AddDate(0, 0, s.loanDays)
		record := &models.Transaction{
			UserID:    borrower.ID,
			BookID:    bookID,
			IssueDate: issueDate,
			DueDate:   dueDate,
			Fine:      0,
			FinePaid:  false,
			Status:    models.TransactionStatusIssued,
		}
		if err := s.txRepo.Create(tx, record); err != nil {
			log.Printf("[ERROR] IssueBook: failed to create ledger entry for book %s: %v", bookID, err)
			return err
		}
		result = record
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrBookUnavailable) {
			log.Printf("[WARN] IssueBook: book %s became unavailable during issuance for user %s", bookID, borrower.ID)
		}
		return nil, err
	}

	log.Printf("[INFO] IssueBook: issued %q to %s, due %s", book.Title, borrower.Username, result.DueDate.Format("2006-01-02"))
	return result, nil
}

// ─── Return ───────────────────────────────────────────────────────────────────

// ReturnBook closes an issued transaction: records the return date, computes the
// fine once, and shelves the copy back (clamped to total_copies) in the same
// database transaction. Returning an already-returned transaction is a no-op
// reported as ErrAlreadyReturned alongside the unchanged record.
func (s *lendingService) ReturnBook(transactionID, callerID uuid.UUID) (*models.Transaction, error) {
	caller, err := s.getUser(callerID)
	if err != nil {
		return nil, err
	}

	record, err := s.getTransaction(transactionID)
	if err != nil {
		return nil, err
	}
	if !canActOn(caller, record) {
		log.Printf("[WARN] ReturnBook: user %s not authorized for transaction %s", callerID, transactionID)
		return nil, ErrUnauthorized
	}
	if record.Status != models.TransactionStatusIssued {
		return record, ErrAlreadyReturned
	}

	returnDate := s.today()
	fine := CalculateFine(record.DueDate, returnDate, s.finePerDay)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		won, err := s.txRepo.MarkReturned(tx, transactionID, returnDate, fine)
		if err != nil {
			log.Printf("[ERROR] ReturnBook: failed to mark transaction %s returned: %v", transactionID, err)
			return err
		}
		if !won {
			// A concurrent return got there first; nothing to shelve again.
			return ErrAlreadyReturned
		}
		if err := s.bookRepo.IncrementAvailable(tx, record.BookID); err != nil {
			log.Printf("[ERROR] ReturnBook: failed to shelve copy of book %s: %v", record.BookID, err)
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyReturned) {
			reloaded, rerr := s.getTransaction(transactionID)
			if rerr != nil {
				return nil, rerr
			}
			return reloaded, ErrAlreadyReturned
		}
		return nil, err
	}

	updated, err := s.getTransaction(transactionID)
	if err != nil {
		return nil, err
	}
	if updated.Fine > 0 {
		log.Printf("[WARN] ReturnBook: transaction %s returned with fine %.2f due", transactionID, updated.Fine)
	} else {
		log.Printf("[INFO] ReturnBook: transaction %s returned on time, no fine", transactionID)
	}
	return updated, nil
}

// ─── Pay Fine ─────────────────────────────────────────────────────────────────

// PayFine marks the fine on a transaction as settled. Simulated payment only —
// the fine amount and the transaction status never change here.
func (s *lendingService) PayFine(transactionID, callerID uuid.UUID) (*models.Transaction, error) {
	caller, err := s.getUser(callerID)
	if err != nil {
		return nil, err
	}

	record, err := s.getTransaction(transactionID)
	if err != nil {
		return nil, err
	}
	if !canActOn(caller, record) {
		log.Printf("[WARN] PayFine: user %s not authorized for transaction %s", callerID, transactionID)
		return nil, ErrUnauthorized
	}
	if record.Fine <= 0 {
		return record, ErrNoFineDue
	}

	if err := s.txRepo.MarkFinePaid(nil, transactionID); err != nil {
		log.Printf("[ERROR] PayFine: failed to mark fine paid for transaction %s: %v", transactionID, err)
		return nil, err
	}

	updated, err := s.getTransaction(transactionID)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] PayFine: fine of %.2f on transaction %s marked as paid", updated.Fine, transactionID)
	return updated, nil
}

// ─── Queries ──────────────────────────────────────────────────────────────────

// GetTransaction fetches one ledger entry, subject to the same staff-or-borrower
// visibility rule as the mutating operations.
func (s *lendingService) GetTransaction(transactionID, callerID uuid.UUID) (*models.Transaction, error) {
	caller, err := s.getUser(callerID)
	if err != nil {
		return nil, err
	}
	record, err := s.getTransaction(transactionID)
	if err != nil {
		return nil, err
	}
	if !canActOn(caller, record) {
		return nil, ErrUnauthorized
	}
	return record, nil
}

// ListTransactions lists ledger entries newest first. Staff may scope to any
// user via the filter; non-staff callers only ever see their own entries.
func (s *lendingService) ListTransactions(callerID uuid.UUID, f LedgerFilter) ([]models.Transaction, error) {
	caller, err := s.getUser(callerID)
	if err != nil {
		return nil, err
	}

	filter := repositories.TransactionFilter{
		Status: f.Status,
		UserID: f.UserID,
	}
	if !caller.IsStaff {
		filter.UserID = &caller.ID
	}
	if f.OverdueOnly {
		today := s.today()
		filter.Status = models.TransactionStatusIssued
		filter.DueBefore = &today
	}
	return s.txRepo.ListFiltered(nil, filter)
}

// DashboardSummary returns the staff home snapshot: catalog size, open
// issuances, and the most recent ledger activity.
func (s *lendingService) DashboardSummary(callerID uuid.UUID) (*Summary, error) {
	caller, err := s.getUser(callerID)
	if err != nil {
		return nil, err
	}
	if !caller.IsStaff {
		return nil, ErrUnauthorized
	}

	books, err := s.bookRepo.Count(nil)
	if err != nil {
		return nil, err
	}
	issued, err := s.txRepo.CountByStatus(nil, models.TransactionStatusIssued)
	if err != nil {
		return nil, err
	}
	recent, err := s.txRepo.ListRecent(nil, 8)
	if err != nil {
		return nil, err
	}
	return &Summary{BooksCount: books, IssuedCount: issued, RecentTx: recent}, nil
}

// ─── Internal Helpers ─────────────────────────────────────────────────────────

func (s *lendingService) getUser(id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *lendingService) getTransaction(id uuid.UUID) (*models.Transaction, error) {
	record, err := s.txRepo.GetByID(nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return record, nil
}

// canActOn is the single authorization policy for transaction-scoped operations:
// staff may act on any transaction, everyone else only on their own.
func canActOn(caller *models.User, tx *models.Transaction) bool {
	return caller.IsStaff || tx.UserID == caller.ID
}

// ─── Fine Calculation ─────────────────────────────────────────────────────────

// CalculateFine computes the overdue fine for a return.
//
// Both dates are truncated to calendar days (midnight UTC); the fine is the
// number of whole days late times perDay, zero when the return is on or before
// the due date. Computed exactly once, at return time.
func CalculateFine(dueDate, returnDate time.Time, perDay float64) float64 {
	due := dueDate.UTC().Truncate(24 * time.Hour)
	returned := returnDate.UTC().Truncate(24 * time.Hour)

	daysLate := int(returned.Sub(due).Hours() / 24)
	if daysLate <= 0 {
		return 0
	}
	return float64(daysLate) * perDay
}
