package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Pratiksha-287/library-management-system/internal/models"
	"github.com/Pratiksha-287/library-management-system/internal/services"
)

type LibraryHandler struct {
	lending services.LendingService
	catalog services.CatalogService
}

func RegisterRoutes(r *gin.Engine, lending services.LendingService, catalog services.CatalogService) {
	h := &LibraryHandler{lending: lending, catalog: catalog}

	api := r.Group("/", IdentityMiddleware(catalog))

	// Catalog browsing and the lending workflow
	api.GET("/books", h.searchBooks)
	api.GET("/books/:id", h.getBook)
	api.POST("/issue", h.issueBook)
	api.POST("/transactions/:id/return", h.returnBook)
	api.POST("/transactions/:id/pay-fine", h.payFine)
	api.GET("/transactions", h.listIssued)
	api.GET("/transactions/:id", h.getTransaction)

	// Per-user reports
	api.GET("/my/transactions", h.myTransactions)
	api.GET("/my/active", h.myActive)
	api.GET("/my/overdue", h.myOverdue)

	// Staff dashboard: maintenance and reports
	dash := api.Group("/dashboard", RequireStaff())
	dash.GET("/summary", h.dashboardSummary)

	dash.GET("/books", h.listBooks)
	dash.POST("/books", h.createBook)
	dash.PUT("/books/:id", h.updateBook)

	dash.GET("/members", h.listMembers)
	dash.POST("/members", h.createMember)
	dash.PUT("/members/:id", h.updateMember)
	dash.DELETE("/members/:id", h.deleteMember)

	dash.GET("/users", h.listUsers)
	dash.POST("/users", h.createUser)
	dash.PUT("/users/:id", h.updateUser)

	dash.GET("/reports/pending", h.reportIssued)
	dash.GET("/reports/active", h.reportIssued)
	dash.GET("/reports/overdue", h.reportOverdue)
}

// respondError translates workflow sentinels into HTTP statuses. The idempotent
// no-ops (already returned, no fine due) are handled in their handlers and
// never reach here.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrBookNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrMemberNotFound),
		errors.Is(err, services.ErrTransactionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrBookUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUserInactive),
		errors.Is(err, services.ErrDuplicateMember),
		errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// ─── Lending Workflow ─────────────────────────────────────────────────────────

type issueRequest struct {
	BookID string  `json:"book_id" binding:"required,uuid"`
	UserID *string `json:"user_id" binding:"omitempty,uuid"`
}

func (h *LibraryHandler) issueBook(c *gin.Context) {
	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book id"})
		return
	}

	var target *uuid.UUID
	if req.UserID != nil {
		parsed, err := uuid.Parse(*req.UserID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		target = &parsed
	}

	tx, err := h.lending.IssueBook(bookID, currentUser(c).ID, target)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":     "book issued",
		"due_date":    tx.DueDate.Format("2006-01-02"),
		"transaction": tx,
	})
}

func (h *LibraryHandler) returnBook(c *gin.Context) {
	txID, ok := parseIDParam(c)
	if !ok {
		return
	}

	tx, err := h.lending.ReturnBook(txID, currentUser(c).ID)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyReturned) {
			c.JSON(http.StatusOK, gin.H{
				"message":     "this transaction is already returned",
				"transaction": tx,
			})
			return
		}
		respondError(c, err)
		return
	}

	if tx.Fine > 0 {
		c.JSON(http.StatusOK, gin.H{
			"message":     "book returned, fine due — use pay-fine to mark payment",
			"fine":        tx.Fine,
			"transaction": tx,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "book returned, no fine",
		"transaction": tx,
	})
}

func (h *LibraryHandler) payFine(c *gin.Context) {
	txID, ok := parseIDParam(c)
	if !ok {
		return
	}

	tx, err := h.lending.PayFine(txID, currentUser(c).ID)
	if err != nil {
		if errors.Is(err, services.ErrNoFineDue) {
			c.JSON(http.StatusOK, gin.H{
				"message":     "no fine due for this transaction",
				"transaction": tx,
			})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "fine marked as paid",
		"transaction": tx,
	})
}

func (h *LibraryHandler) getTransaction(c *gin.Context) {
	txID, ok := parseIDParam(c)
	if !ok {
		return
	}
	tx, err := h.lending.GetTransaction(txID, currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// listIssued is the return-book list: open issuances, scoped to the caller
// unless staff.
func (h *LibraryHandler) listIssued(c *gin.Context) {
	txs, err := h.lending.ListTransactions(currentUser(c).ID, services.LedgerFilter{
		Status: models.TransactionStatusIssued,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

// ─── Per-User Reports ─────────────────────────────────────────────────────────

func (h *LibraryHandler) myTransactions(c *gin.Context) {
	txs, err := h.lending.ListTransactions(currentUser(c).ID, services.LedgerFilter{})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

func (h *LibraryHandler) myActive(c *gin.Context) {
	txs, err := h.lending.ListTransactions(currentUser(c).ID, services.LedgerFilter{
		Status: models.TransactionStatusIssued,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

func (h *LibraryHandler) myOverdue(c *gin.Context) {
	txs, err := h.lending.ListTransactions(currentUser(c).ID, services.LedgerFilter{
		OverdueOnly: true,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

// ─── Catalog ──────────────────────────────────────────────────────────────────

func (h *LibraryHandler) searchBooks(c *gin.Context) {
	books, err := h.catalog.SearchBooks(c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (h *LibraryHandler) getBook(c *gin.Context) {
	bookID, ok := parseIDParam(c)
	if !ok {
		return
	}
	book, err := h.catalog.GetBook(bookID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *LibraryHandler) listBooks(c *gin.Context) {
	books, err := h.catalog.ListBooks()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

type bookRequest struct {
	CodeNo          string `json:"code_no" binding:"required"`
	Title           string `json:"title" binding:"required"`
	Author          string `json:"author" binding:"required"`
	Category        string `json:"category"`
	ISBN            string `json:"isbn"`
	TotalCopies     int    `json:"total_copies" binding:"min=0"`
	AvailableCopies int    `json:"available_copies" binding:"min=0"`
}

func (r bookRequest) toInput() services.BookInput {
	return services.BookInput{
		CodeNo:          r.CodeNo,
		Title:           r.Title,
		Author:          r.Author,
		Category:        r.Category,
		ISBN:            r.ISBN,
		TotalCopies:     r.TotalCopies,
		AvailableCopies: r.AvailableCopies,
	}
}

func (h *LibraryHandler) createBook(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	book, err := h.catalog.CreateBook(currentUser(c).ID, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

func (h *LibraryHandler) updateBook(c *gin.Context) {
	bookID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	book, err := h.catalog.UpdateBook(currentUser(c).ID, bookID, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

// ─── Members ──────────────────────────────────────────────────────────────────

type memberRequest struct {
	UserID          string    `json:"user_id" binding:"required,uuid"`
	Phone           string    `json:"phone"`
	Adhaar          string    `json:"adhaar"`
	MembershipType  string    `json:"membership_type"`
	MembershipStart time.Time `json:"membership_start" binding:"required"`
	MembershipEnd   time.Time `json:"membership_end" binding:"required"`
}

func (r memberRequest) toInput() (services.MemberInput, error) {
	userID, err := uuid.Parse(r.UserID)
	if err != nil {
		return services.MemberInput{}, err
	}
	return services.MemberInput{
		UserID:          userID,
		Phone:           r.Phone,
		Adhaar:          r.Adhaar,
		MembershipType:  r.MembershipType,
		MembershipStart: r.MembershipStart,
		MembershipEnd:   r.MembershipEnd,
	}, nil
}

func (h *LibraryHandler) listMembers(c *gin.Context) {
	members, err := h.catalog.ListMembers(currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func (h *LibraryHandler) createMember(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	member, err := h.catalog.CreateMember(currentUser(c).ID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (h *LibraryHandler) updateMember(c *gin.Context) {
	memberID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	member, err := h.catalog.UpdateMember(currentUser(c).ID, memberID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *LibraryHandler) deleteMember(c *gin.Context) {
	memberID, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteMember(currentUser(c).ID, memberID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "member deleted"})
}

// ─── Users ────────────────────────────────────────────────────────────────────

type userRequest struct {
	Username string `json:"username" binding:"required"`
	IsStaff  bool   `json:"is_staff"`
	IsActive *bool  `json:"is_active"`
}

func (r userRequest) toInput() services.UserInput {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return services.UserInput{
		Username: r.Username,
		IsStaff:  r.IsStaff,
		IsActive: active,
	}
}

func (h *LibraryHandler) listUsers(c *gin.Context) {
	users, err := h.catalog.ListUsers(currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *LibraryHandler) createUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.catalog.CreateUser(currentUser(c).ID, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *LibraryHandler) updateUser(c *gin.Context) {
	userID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.catalog.UpdateUser(currentUser(c).ID, userID, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ─── Staff Reports ────────────────────────────────────────────────────────────

func (h *LibraryHandler) dashboardSummary(c *gin.Context) {
	summary, err := h.lending.DashboardSummary(currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *LibraryHandler) reportIssued(c *gin.Context) {
	txs, err := h.lending.ListTransactions(currentUser(c).ID, services.LedgerFilter{
		Status: models.TransactionStatusIssued,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

func (h *LibraryHandler) reportOverdue(c *gin.Context) {
	txs, err := h.lending.ListTransactions(currentUser(c).ID, services.LedgerFilter{
		OverdueOnly: true,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}
