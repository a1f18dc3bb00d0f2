package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Pratiksha-287/library-management-system/internal/models"
	"github.com/Pratiksha-287/library-management-system/internal/repositories"
)

var (
	// ErrInvalidInput wraps field-level validation failures on catalog and
	// membership maintenance.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateMember is returned when a user already holds a membership.
	ErrDuplicateMember = errors.New("user already has a membership")
)

type BookInput struct {
	CodeNo          string
	Title           string
	Author          string
	Category        string
	ISBN            string
	TotalCopies     int
	AvailableCopies int
}

type MemberInput struct {
	UserID          uuid.UUID
	Phone           string
	Adhaar          string
	MembershipType  string
	MembershipStart time.Time
	MembershipEnd   time.Time
}

type UserInput struct {
	Username string
	IsStaff  bool
	IsActive bool
}

// CatalogService covers the staff maintenance surface: books, memberships and
// identity records. Reads are open; every mutation is staff-gated.
type CatalogService interface {
	CreateBook(callerID uuid.UUID, in BookInput) (*models.Book, error)
	UpdateBook(callerID, bookID uuid.UUID, in BookInput) (*models.Book, error)
	GetBook(bookID uuid.UUID) (*models.Book, error)
	ListBooks() ([]models.Book, error)
	SearchBooks(titleQuery string) ([]models.Book, error)

	CreateMember(callerID uuid.UUID, in MemberInput) (*models.Member, error)
	UpdateMember(callerID, memberID uuid.UUID, in MemberInput) (*models.Member, error)
	DeleteMember(callerID, memberID uuid.UUID) error
	ListMembers(callerID uuid.UUID) ([]models.Member, error)

	CreateUser(callerID uuid.UUID, in UserInput) (*models.User, error)
	UpdateUser(callerID, userID uuid.UUID, in UserInput) (*models.User, error)
	ListUsers(callerID uuid.UUID) ([]models.User, error)
	GetUser(userID uuid.UUID) (*models.User, error)
}

type catalogService struct {
	db         *gorm.DB
	userRepo   repositories.UserRepository
	bookRepo   repositories.BookRepository
	memberRepo repositories.MemberRepository
}

func NewCatalogService(
	db *gorm.DB,
	userRepo repositories.UserRepository,
	bookRepo repositories.BookRepository,
	memberRepo repositories.MemberRepository,
) CatalogService {
	return &catalogService{
		db:         db,
		userRepo:   userRepo,
		bookRepo:   bookRepo,
		memberRepo: memberRepo,
	}
}

// ─── Books ────────────────────────────────────────────────────────────────────

func (s *catalogService) CreateBook(callerID uuid.UUID, in BookInput) (*models.Book, error) {
	if _, err := s.requireStaff(callerID); err != nil {
		return nil, err
	}
	if err := validateBookInput(in); err != nil {
		return nil, err
	}

	book := &models.Book{
		CodeNo:          in.CodeNo,
		Title:           in.Title,
		Author:          in.Author,
		Category:        in.Category,
		ISBN:            in.ISBN,
		TotalCopies:     in.TotalCopies,
		AvailableCopies: in.AvailableCopies,
	}
	if err := s.bookRepo.Create(nil, book); err != nil {
		log.Printf("[ERROR] CreateBook: failed to create book %q: %v", in.Title, err)
		return nil, err
	}
	log.Printf("[INFO] CreateBook: created %q (code=%s) with %d copies", book.Title, book.CodeNo, book.TotalCopies)
	return book, nil
}

func (s *catalogService) UpdateBook(callerID, bookID uuid.UUID, in BookInput) (*models.Book, error) {
	if _, err := s.requireStaff(callerID); err != nil {
		return nil, err
	}
	if err := validateBookInput(in); err != nil {
		return nil, err
	}

	book, err := s.bookRepo.GetByID(nil, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	book.CodeNo = in.CodeNo
	book.Title = in.Title
	book.Author = in.Author
	book.Category = in.Category
	book.ISBN = in.ISBN
	book.TotalCopies = in.TotalCopies
	book.AvailableCopies = in.AvailableCopies
	if err := s.bookRepo.Update(nil, book); err != nil {
		log.Printf("[ERROR] UpdateBook: failed to update book %s: %v", bookID, err)
		return nil, err
	}
	return book, nil
}

func (s *catalogService) GetBook(bookID uuid.UUID) (*models.Book, error) {
	book, err := s.bookRepo.GetByID(nil, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return book, nil
}

func (s *catalogService) ListBooks() ([]models.Book, error) {
	return s.bookRepo.List(nil)
}

// SearchBooks filters the catalog by title substring, case-insensitively,
// ordered by title. An empty query lists everything.
func (s *catalogService) SearchBooks(titleQuery string) ([]models.Book, error) {
	if titleQuery == "" {
		return s.bookRepo.List(nil)
	}
	return s.bookRepo.SearchByTitle(nil, titleQuery)
}

// ─── Members ──────────────────────────────────────────────────────────────────

func (s *catalogService) CreateMember(callerID uuid.UUID, in MemberInput) (*models.Member, error) {
	if _, err := s.requireStaff(callerID); err != nil {
		return nil, err
	}
	if err := s.validateMemberInput(in); err != nil {
		return nil, err
	}

	member := &models.Member{
		UserID:          in.UserID,
		Phone:           in.Phone,
		Adhaar:          in.Adhaar,
		MembershipType:  in.MembershipType,
		MembershipStart: in.MembershipStart,
		MembershipEnd:   in.MembershipEnd,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.memberRepo.GetByUserID(tx, in.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if existing != nil {
			return ErrDuplicateMember
		}
		if err := s.memberRepo.Create(tx, member); err != nil {
			log.Printf("[ERROR] CreateMember: failed to create membership for user %s: %v", in.UserID, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] CreateMember: membership %s created for user %s", member.ID, in.UserID)
	return member, nil
}

func (s *catalogService) UpdateMember(callerID, memberID uuid.UUID, in MemberInput) (*models.Member, error) {
	if _, err := s.requireStaff(callerID); err != nil {
		return nil, err
	}
	if err := s.validateMemberInput(in); err != nil {
		return nil, err
	}

	member, err := s.memberRepo.GetByID(nil, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	if in.UserID != member.UserID {
		return nil, fmt.Errorf("%w: membership cannot be moved to another user", ErrInvalidInput)
	}

	member.Phone = in.Phone
	member.Adhaar = in.Adhaar
	member.MembershipType = in.MembershipType
	member.MembershipStart = in.MembershipStart
	member.MembershipEnd = in.MembershipEnd
	if err := s.memberRepo.Update(nil, member); err != nil {
		log.Printf("[ERROR] UpdateMember: failed to update membership %s: %v", memberID, err)
		return nil, err
	}
	return member, nil
}

func (s *catalogService) DeleteMember(callerID, memberID uuid.UUID) error {
	if _, err := s.requireStaff(callerID); err != nil {
		return err
	}
	if _, err := s.memberRepo.GetByID(nil, memberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return err
	}
	if err := s.memberRepo.Delete(nil, memberID); err != nil {
		log.Printf("[ERROR] DeleteMember: failed to delete membership %s: %v", memberID, err)
		return err
	}
	log.Printf("[INFO] DeleteMember: membership %s deleted", memberID)
	return nil
}

func (s *catalogService) ListMembers(callerID uuid.UUID) ([]models.Member, error) {
	if _, err := s.requireStaff(callerID); err != nil {
		return nil, err
	}
	return s.memberRepo.List(nil)
}

// ─── Users ────────────────────────────────────────────────────────────────────

func (s *catalogService) CreateUser(callerID uuid.UUID, in UserInput) (*models.User, error) {
	if _, err := s.requireStaff(callerID); err != nil {
		return nil, err
	}
	if in.Username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	user := &models.User{
		Username: in.Username,
		IsStaff:  in.IsStaff,
		IsActive: in.IsActive,
	}
	if err := s.userRepo.Create(nil, user); err != nil {
		log.Printf("[ERROR] CreateUser: failed to create user %q: %v", in.Username, err)
		return nil, err
	}
	log.Printf("[INFO] CreateUser: user %q created (staff=%t)", user.Username, user.IsStaff)
	return user, nil
}

func (s *catalogService) UpdateUser(callerID, userID uuid.UUID, in UserInput) (*models.User, error) {
	if _, err := s.requireStaff(callerID); err != nil {
		return nil, err
	}
	if in.Username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	user, err := s.userRepo.GetByID(nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user.Username = in.Username
	user.IsStaff = in.IsStaff
	user.IsActive = in.IsActive
	if err := s.userRepo.Update(nil, user); err != nil {
		log.Printf("[ERROR] UpdateUser: failed to update user %s: %v", userID, err)
		return nil, err
	}
	return user, nil
}

func (s *catalogService) ListUsers(callerID uuid.UUID) ([]models.User, error) {
	if _, err := s.requireStaff(callerID); err != nil {
		return nil, err
	}
	return s.userRepo.List(nil)
}

func (s *catalogService) GetUser(userID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ─── Internal Helpers ─────────────────────────────────────────────────────────

func (s *catalogService) requireStaff(callerID uuid.UUID) (*models.User, error) {
	caller, err := s.userRepo.GetByID(nil, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !caller.IsStaff {
		return nil, ErrUnauthorized
	}
	return caller, nil
}

func validateBookInput(in BookInput) error {
	if in.CodeNo == "" || in.Title == "" || in.Author == "" {
		return fmt.Errorf("%w: code_no, title and author are required", ErrInvalidInput)
	}
	if in.TotalCopies < 0 {
		return fmt.Errorf("%w: total_copies must be non-negative", ErrInvalidInput)
	}
	if in.AvailableCopies < 0 || in.AvailableCopies > in.TotalCopies {
		return fmt.Errorf("%w: available_copies must be between 0 and total_copies", ErrInvalidInput)
	}
	return nil
}

func (s *catalogService) validateMemberInput(in MemberInput) error {
	if in.UserID == uuid.Nil {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if in.MembershipEnd.Before(in.MembershipStart) {
		return fmt.Errorf("%w: membership_end precedes membership_start", ErrInvalidInput)
	}
	if _, err := s.userRepo.GetByID(nil, in.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
