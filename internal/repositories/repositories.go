package repositories

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Pratiksha-287/library-management-system/internal/models"
)

// Every method takes an optional *gorm.DB so calls can participate in a service
// level transaction; nil falls back to the repository's own handle.

type UserRepository interface {
	Create(db *gorm.DB, user *models.User) error
	Update(db *gorm.DB, user *models.User) error
	GetByID(db *gorm.DB, id uuid.UUID) (*models.User, error)
	List(db *gorm.DB) ([]models.User, error)
}

type BookRepository interface {
	Create(db *gorm.DB, book *models.Book) error
	Update(db *gorm.DB, book *models.Book) error
	GetByID(db *gorm.DB, id uuid.UUID) (*models.Book, error)
	List(db *gorm.DB) ([]models.Book, error)
	SearchByTitle(db *gorm.DB, q string) ([]models.Book, error)
	Count(db *gorm.DB) (int64, error)

	// DecrementAvailable conditionally takes one copy. It reports false when no
	// copy was available at execution time, which is the authoritative guard
	// against two concurrent issuances of the last copy.
	DecrementAvailable(db *gorm.DB, bookID uuid.UUID) (bool, error)

	// IncrementAvailable returns one copy to the shelf, clamped so the counter
	// never exceeds total_copies.
	IncrementAvailable(db *gorm.DB, bookID uuid.UUID) error
}

type MemberRepository interface {
	Create(db *gorm.DB, member *models.Member) error
	Update(db *gorm.DB, member *models.Member) error
	Delete(db *gorm.DB, id uuid.UUID) error
	GetByID(db *gorm.DB, id uuid.UUID) (*models.Member, error)
	GetByUserID(db *gorm.DB, userID uuid.UUID) (*models.Member, error)
	List(db *gorm.DB) ([]models.Member, error)
}

// TransactionFilter narrows ledger listings. Zero values mean "no restriction".
type TransactionFilter struct {
	Status    models.TransactionStatus
	DueBefore *time.Time // overdue cutoff, matched against due_date
	UserID    *uuid.UUID
}

type TransactionRepository interface {
	Create(db *gorm.DB, tx *models.Transaction) error
	GetByID(db *gorm.DB, id uuid.UUID) (*models.Transaction, error)

	// MarkReturned closes an issued transaction. Guarded by status = issued so a
	// concurrent double-return affects zero rows; reports whether this call won.
	MarkReturned(db *gorm.DB, id uuid.UUID, returnedAt time.Time, fine float64) (bool, error)

	MarkFinePaid(db *gorm.DB, id uuid.UUID) error
	ListFiltered(db *gorm.DB, f TransactionFilter) ([]models.Transaction, error)
	ListRecent(db *gorm.DB, limit int) ([]models.Transaction, error)
	CountByStatus(db *gorm.DB, status models.TransactionStatus) (int64, error)
}

// concrete implementations

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(db *gorm.DB, user *models.User) error {
	if db == nil {
		db = r.db
	}
	return db.Create(user).Error
}

func (r *userRepository) Update(db *gorm.DB, user *models.User) error {
	if db == nil {
		db = r.db
	}
	return db.Save(user).Error
}

func (r *userRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	if db == nil {
		db = r.db
	}
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(db *gorm.DB) ([]models.User, error) {
	if db == nil {
		db = r.db
	}
	var users []models.User
	if err := db.Order("username").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(db *gorm.DB, book *models.Book) error {
	if db == nil {
		db = r.db
	}
	return db.Create(book).Error
}

func (r *bookRepository) Update(db *gorm.DB, book *models.Book) error {
	if db == nil {
		db = r.db
	}
	return db.Save(book).Error
}

func (r *bookRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.Book, error) {
	if db == nil {
		db = r.db
	}
	var book models.Book
	if err := db.First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) List(db *gorm.DB) ([]models.Book, error) {
	if db == nil {
		db = r.db
	}
	var books []models.Book
	if err := db.Order("title").Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

func (r *bookRepository) SearchByTitle(db *gorm.DB, q string) ([]models.Book, error) {
	if db == nil {
		db = r.db
	}
	var books []models.Book
	err := db.
		Where("LOWER(title) LIKE LOWER(?)", "%"+q+"%").
		Order("title").
		Find(&books).Error
	if err != nil {
		return nil, err
	}
	return books, nil
}

func (r *bookRepository) Count(db *gorm.DB) (int64, error) {
	if db == nil {
		db = r.db
	}
	var n int64
	if err := db.Model(&models.Book{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *bookRepository) DecrementAvailable(db *gorm.DB, bookID uuid.UUID) (bool, error) {
	if db == nil {
		db = r.db
	}
	res := db.Model(&models.Book{}).
		Where("id = ? AND available_copies > 0", bookID).
		UpdateColumn("available_copies", gorm.Expr("available_copies - 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *bookRepository) IncrementAvailable(db *gorm.DB, bookID uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	// Zero rows affected means the counter is already at total_copies; the
	// clamp is deliberately silent.
	return db.Model(&models.Book{}).
		Where("id = ? AND available_copies < total_copies", bookID).
		UpdateColumn("available_copies", gorm.Expr("available_copies + 1")).
		Error
}

type memberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(db *gorm.DB, member *models.Member) error {
	if db == nil {
		db = r.db
	}
	return db.Create(member).Error
}

func (r *memberRepository) Update(db *gorm.DB, member *models.Member) error {
	if db == nil {
		db = r.db
	}
	return db.Save(member).Error
}

func (r *memberRepository) Delete(db *gorm.DB, id uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.Member{}, "id = ?", id).Error
}

func (r *memberRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.Member, error) {
	if db == nil {
		db = r.db
	}
	var member models.Member
	if err := db.First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) GetByUserID(db *gorm.DB, userID uuid.UUID) (*models.Member, error) {
	if db == nil {
		db = r.db
	}
	var member models.Member
	if err := db.First(&member, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) List(db *gorm.DB) ([]models.Member, error) {
	if db == nil {
		db = r.db
	}
	var members []models.Member
	if err := db.Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(db *gorm.DB, tx *models.Transaction) error {
	if db == nil {
		db = r.db
	}
	return db.Create(tx).Error
}

func (r *transactionRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.Transaction, error) {
	if db == nil {
		db = r.db
	}
	var tx models.Transaction
	if err := db.Preload("Book").First(&tx, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) MarkReturned(db *gorm.DB, id uuid.UUID, returnedAt time.Time, fine float64) (bool, error) {
	if db == nil {
		db = r.db
	}
	res := db.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, models.TransactionStatusIssued).
		Updates(map[string]interface{}{
			"return_date": returnedAt,
			"fine":        fine,
			"status":      models.TransactionStatusReturned,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *transactionRepository) MarkFinePaid(db *gorm.DB, id uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.Model(&models.Transaction{}).
		Where("id = ?", id).
		Update("fine_paid", true).
		Error
}

func (r *transactionRepository) ListFiltered(db *gorm.DB, f TransactionFilter) ([]models.Transaction, error) {
	if db == nil {
		db = r.db
	}
	q := db.Model(&models.Transaction{}).Preload("Book")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.DueBefore != nil {
		q = q.Where("due_date < ?", *f.DueBefore)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	var txs []models.Transaction
	if err := q.Order("issue_date DESC").Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *transactionRepository) ListRecent(db *gorm.DB, limit int) ([]models.Transaction, error) {
	if db == nil {
		db = r.db
	}
	var txs []models.Transaction
	err := db.Preload("Book").
		Order("issue_date DESC").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *transactionRepository) CountByStatus(db *gorm.DB, status models.TransactionStatus) (int64, error) {
	if db == nil {
		db = r.db
	}
	var n int64
	err := db.Model(&models.Transaction{}).
		Where("status = ?", status).
		Count(&n).Error
	if err != nil {
		return 0, err
	}
	return n, nil
}
