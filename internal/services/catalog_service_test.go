package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Pratiksha-287/library-management-system/internal/models"
	"github.com/Pratiksha-287/library-management-system/internal/repositories"
)

type catalogFixture struct {
	db         *gorm.DB
	userRepo   repositories.UserRepository
	bookRepo   repositories.BookRepository
	memberRepo repositories.MemberRepository
	svc        CatalogService

	staff  *models.User
	member *models.User
}

func setupCatalog(t *testing.T) *catalogFixture {
	t.Helper()
	db := setupTestDB(t)

	f := &catalogFixture{
		db:         db,
		userRepo:   repositories.NewUserRepository(db),
		bookRepo:   repositories.NewBookRepository(db),
		memberRepo: repositories.NewMemberRepository(db),

		staff:  &models.User{Username: "librarian", IsStaff: true, IsActive: true},
		member: &models.User{Username: "reader", IsStaff: false, IsActive: true},
	}
	require.NoError(t, f.userRepo.Create(nil, f.staff))
	require.NoError(t, f.userRepo.Create(nil, f.member))

	f.svc = NewCatalogService(db, f.userRepo, f.bookRepo, f.memberRepo)
	return f
}

func validBookInput() BookInput {
	return BookInput{
		CodeNo:          "BK-001",
		Title:           "Clean Architecture",
		Author:          "Robert C. Martin",
		Category:        "software",
		ISBN:            "978-0134494166",
		TotalCopies:     4,
		AvailableCopies: 4,
	}
}

func TestCreateBook_Success(t *testing.T) {
	f := setupCatalog(t)

	book, err := f.svc.CreateBook(f.staff.ID, validBookInput())

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, book.ID)
	assert.Equal(t, "Clean Architecture", book.Title)
	assert.Equal(t, 4, book.AvailableCopies)
}

func TestCreateBook_NonStaffRejected(t *testing.T) {
	f := setupCatalog(t)

	_, err := f.svc.CreateBook(f.member.ID, validBookInput())

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCreateBook_Validation(t *testing.T) {
	f := setupCatalog(t)

	missing := validBookInput()
	missing.Title = ""
	_, err := f.svc.CreateBook(f.staff.ID, missing)
	assert.ErrorIs(t, err, ErrInvalidInput)

	negative := validBookInput()
	negative.TotalCopies = -1
	_, err = f.svc.CreateBook(f.staff.ID, negative)
	assert.ErrorIs(t, err, ErrInvalidInput)

	over := validBookInput()
	over.AvailableCopies = over.TotalCopies + 1
	_, err = f.svc.CreateBook(f.staff.ID, over)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateBook_Success(t *testing.T) {
	f := setupCatalog(t)
	book, err := f.svc.CreateBook(f.staff.ID, validBookInput())
	require.NoError(t, err)

	in := validBookInput()
	in.Title = "Clean Architecture (2nd printing)"
	in.AvailableCopies = 2

	updated, err := f.svc.UpdateBook(f.staff.ID, book.ID, in)

	require.NoError(t, err)
	assert.Equal(t, "Clean Architecture (2nd printing)", updated.Title)
	assert.Equal(t, 2, updated.AvailableCopies)
}

func TestUpdateBook_NotFound(t *testing.T) {
	f := setupCatalog(t)

	_, err := f.svc.UpdateBook(f.staff.ID, uuid.New(), validBookInput())

	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestSearchBooks_TitleSubstring(t *testing.T) {
	f := setupCatalog(t)
	titles := []string{"Working Effectively with Legacy Code", "The Pragmatic Programmer", "Programming Pearls"}
	for i, title := range titles {
		in := validBookInput()
		in.CodeNo = in.CodeNo + string(rune('A'+i))
		in.Title = title
		_, err := f.svc.CreateBook(f.staff.ID, in)
		require.NoError(t, err)
	}

	found, err := f.svc.SearchBooks("program")

	require.NoError(t, err)
	require.Len(t, found, 2)
	// Ordered by title.
	assert.Equal(t, "Programming Pearls", found[0].Title)
	assert.Equal(t, "The Pragmatic Programmer", found[1].Title)

	all, err := f.svc.SearchBooks("")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func validMemberInput(userID uuid.UUID) MemberInput {
	return MemberInput{
		UserID:          userID,
		Phone:           "9876543210",
		Adhaar:          "1234-5678-9012",
		MembershipType:  "annual",
		MembershipStart: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		MembershipEnd:   time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateMember_Success(t *testing.T) {
	f := setupCatalog(t)

	member, err := f.svc.CreateMember(f.staff.ID, validMemberInput(f.member.ID))

	require.NoError(t, err)
	assert.Equal(t, f.member.ID, member.UserID)
	assert.Equal(t, "annual", member.MembershipType)
}

func TestCreateMember_OnePerUser(t *testing.T) {
	f := setupCatalog(t)
	_, err := f.svc.CreateMember(f.staff.ID, validMemberInput(f.member.ID))
	require.NoError(t, err)

	_, err = f.svc.CreateMember(f.staff.ID, validMemberInput(f.member.ID))

	assert.ErrorIs(t, err, ErrDuplicateMember)
}

func TestCreateMember_UnknownUser(t *testing.T) {
	f := setupCatalog(t)

	_, err := f.svc.CreateMember(f.staff.ID, validMemberInput(uuid.New()))

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateMember_EndBeforeStart(t *testing.T) {
	f := setupCatalog(t)
	in := validMemberInput(f.member.ID)
	in.MembershipEnd = in.MembershipStart.AddDate(0, 0, -1)

	_, err := f.svc.CreateMember(f.staff.ID, in)

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateMember_NonStaffRejected(t *testing.T) {
	f := setupCatalog(t)

	_, err := f.svc.CreateMember(f.member.ID, validMemberInput(f.member.ID))

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUpdateMember_CannotMoveToAnotherUser(t *testing.T) {
	f := setupCatalog(t)
	member, err := f.svc.CreateMember(f.staff.ID, validMemberInput(f.member.ID))
	require.NoError(t, err)

	in := validMemberInput(f.staff.ID)
	_, err = f.svc.UpdateMember(f.staff.ID, member.ID, in)

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteMember(t *testing.T) {
	f := setupCatalog(t)
	member, err := f.svc.CreateMember(f.staff.ID, validMemberInput(f.member.ID))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteMember(f.staff.ID, member.ID))

	err = f.svc.DeleteMember(f.staff.ID, member.ID)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestListMembers_StaffOnly(t *testing.T) {
	f := setupCatalog(t)
	_, err := f.svc.CreateMember(f.staff.ID, validMemberInput(f.member.ID))
	require.NoError(t, err)

	members, err := f.svc.ListMembers(f.staff.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)

	_, err = f.svc.ListMembers(f.member.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCreateUser_Success(t *testing.T) {
	f := setupCatalog(t)

	user, err := f.svc.CreateUser(f.staff.ID, UserInput{Username: "newreader", IsActive: true})

	require.NoError(t, err)
	assert.Equal(t, "newreader", user.Username)
	assert.False(t, user.IsStaff)
	assert.True(t, user.IsActive)
}

func TestCreateUser_NonStaffRejected(t *testing.T) {
	f := setupCatalog(t)

	_, err := f.svc.CreateUser(f.member.ID, UserInput{Username: "sneaky", IsStaff: true, IsActive: true})

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUpdateUser_DeactivateAccount(t *testing.T) {
	f := setupCatalog(t)

	updated, err := f.svc.UpdateUser(f.staff.ID, f.member.ID, UserInput{
		Username: f.member.Username,
		IsActive: false,
	})

	require.NoError(t, err)
	assert.False(t, updated.IsActive)
}

func TestListUsers_StaffOnly(t *testing.T) {
	f := setupCatalog(t)

	users, err := f.svc.ListUsers(f.staff.ID)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = f.svc.ListUsers(f.member.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
