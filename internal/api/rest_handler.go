package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"wisevault/internal/domain"
	"wisevault/internal/ledger"
	"wisevault/internal/service"
	"wisevault/internal/users"
	"wisevault/pkg/crypto"
	"wisevault/pkg/metrics"
	"wisevault/pkg/validator"
)

// UserStore resolves credentials into principals and registers new users.
type UserStore interface {
	Authenticate(ctx context.Context, username, password string) (domain.Principal, error)
	Register(ctx context.Context, username, password, role string) error
}

type APIHandler struct {
	directory      *ledger.LedgerDirectory
	transfers      *ledger.TransferOperations
	users          UserStore
	metrics        *metrics.MetricsCollector
	signer         *crypto.Signer
	notifier       *service.NotificationService
	amounts        *validator.AmountValidator
	logger         *slog.Logger
	requestTimeout time.Duration
}

func NewAPIHandler(
	directory *ledger.LedgerDirectory,
	transfers *ledger.TransferOperations,
	userStore UserStore,
	metricsCollector *metrics.MetricsCollector,
	signer *crypto.Signer,
	notifier *service.NotificationService,
	logger *slog.Logger,
) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &APIHandler{
		directory:      directory,
		transfers:      transfers,
		users:          userStore,
		metrics:        metricsCollector,
		signer:         signer,
		notifier:       notifier,
		amounts:        validator.NewAmountValidator(),
		logger:         logger,
		requestTimeout: 30 * time.Second,
	}
}

type CreateAccountRequest struct {
	HolderName     string  `json:"holder_name"`
	InitialBalance float64 `json:"initial_balance"`
	Type           string  `json:"type"`
	OwnerUsername  string  `json:"owner_username"`
	OwnerPassword  string  `json:"owner_password,omitempty"`
}

type CreateAccountResponse struct {
	AccountNumber int    `json:"account_number"`
	Message       string `json:"message"`
}

type ModifyAccountRequest struct {
	HolderName string `json:"holder_name"`
	Type       string `json:"type"`
}

type AmountRequest struct {
	Amount    float64 `json:"amount"`
	Timestamp int64   `json:"timestamp,omitempty"`
	Signature string  `json:"signature,omitempty"`
}

type ApplyLoanRequest struct {
	BorrowerName      string  `json:"borrower_name"`
	BorrowerUsername  string  `json:"borrower_username,omitempty"`
	Principal         float64 `json:"principal"`
	TenureYears       int     `json:"tenure_years"`
	AnnualRatePercent float64 `json:"annual_rate_percent,omitempty"`
}

type ApplyLoanResponse struct {
	LoanID  int    `json:"loan_id"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *APIHandler) RegisterRoutes(r *mux.Router) {
	v1 := r.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/accounts", h.authorized(h.createAccount)).Methods(http.MethodPost)
	v1.HandleFunc("/accounts", h.authorized(h.listAccounts)).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{number:[0-9]+}", h.authorized(h.getAccount)).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{number:[0-9]+}", h.authorized(h.modifyAccount)).Methods(http.MethodPatch)
	v1.HandleFunc("/accounts/{number:[0-9]+}", h.authorized(h.closeAccount)).Methods(http.MethodDelete)
	v1.HandleFunc("/accounts/{number:[0-9]+}/deposit", h.authorized(h.deposit)).Methods(http.MethodPost)
	v1.HandleFunc("/accounts/{number:[0-9]+}/withdraw", h.authorized(h.withdraw)).Methods(http.MethodPost)
	v1.HandleFunc("/accounts/{number:[0-9]+}/transactions", h.authorized(h.accountTransactions)).Methods(http.MethodGet)

	v1.HandleFunc("/loans", h.authorized(h.applyLoan)).Methods(http.MethodPost)
	v1.HandleFunc("/loans", h.authorized(h.listLoans)).Methods(http.MethodGet)
	v1.HandleFunc("/loans/{id:[0-9]+}", h.authorized(h.getLoan)).Methods(http.MethodGet)
	v1.HandleFunc("/loans/{id:[0-9]+}/payments", h.authorized(h.payLoan)).Methods(http.MethodPost)

	v1.HandleFunc("/transactions", h.authorized(h.globalTransactions)).Methods(http.MethodGet)

	r.HandleFunc("/api/health", h.healthCheck).Methods(http.MethodGet)
}

// authorized resolves HTTP basic auth into a Principal before invoking the
// wrapped handler.
func (h *APIHandler) authorized(next func(http.ResponseWriter, *http.Request, domain.Principal)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="wisevault"`)
			h.sendError(w, "Authentication required", http.StatusUnauthorized, "UNAUTHENTICATED")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, err := h.users.Authenticate(ctx, username, password)
		if err != nil {
			h.sendError(w, "Invalid credentials", http.StatusUnauthorized, "INVALID_CREDENTIALS")
			return
		}

		next(w, r.WithContext(ctx), principal)
	}
}

func (h *APIHandler) createAccount(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	if !p.Manager {
		h.sendError(w, "Only managers may open accounts", http.StatusForbidden, "FORBIDDEN")
		return
	}

	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}
	if req.HolderName == "" || req.OwnerUsername == "" {
		h.sendError(w, "holder_name and owner_username are required", http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}
	// Reject a bad opening balance before touching the user store, so a
	// failed creation never leaves an orphaned credential row behind.
	if err := h.amounts.ValidateInitialBalance(req.InitialBalance); err != nil {
		h.sendDomainError(w, err)
		return
	}

	// Opening an account may register its owner as a new user, matching
	// the manager's account-creation flow.
	if req.OwnerPassword != "" {
		err := h.users.Register(r.Context(), req.OwnerUsername, req.OwnerPassword, domain.RoleUser)
		if err != nil && !errors.Is(err, users.ErrUserExists) {
			h.sendDomainError(w, err)
			return
		}
	}

	number, err := h.directory.CreateAccount(r.Context(), req.HolderName, req.InitialBalance, req.Type, req.OwnerUsername)
	h.metrics.RecordOperation("create_account", 0, err == nil)
	if err != nil {
		h.sendDomainError(w, err)
		return
	}
	h.metrics.SetDirectorySizes(h.directory.Counts())
	h.notifier.NotifyAccountCreated(req.OwnerUsername, number)

	h.sendJSON(w, CreateAccountResponse{
		AccountNumber: number,
		Message:       "Account created successfully",
	}, http.StatusCreated)
}

func (h *APIHandler) listAccounts(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	if r.URL.Query().Get("scope") == "all" {
		accounts, err := h.directory.AllAccounts(r.Context(), p)
		if err != nil {
			h.sendDomainError(w, err)
			return
		}
		h.sendJSON(w, accounts, http.StatusOK)
		return
	}

	accounts := h.directory.AccountsForUser(r.Context(), p.Username)
	if accounts == nil {
		accounts = []domain.Account{}
	}
	h.sendJSON(w, accounts, http.StatusOK)
}

func (h *APIHandler) getAccount(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	number := pathInt(r, "number")
	account, err := h.directory.FindAccount(r.Context(), p, number)
	if err != nil {
		h.sendDomainError(w, err)
		return
	}
	h.sendJSON(w, account, http.StatusOK)
}

func (h *APIHandler) modifyAccount(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	var req ModifyAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	number := pathInt(r, "number")
	account, err := h.directory.ModifyAccount(r.Context(), p, number, req.HolderName, req.Type)
	if err != nil {
		h.sendDomainError(w, err)
		return
	}
	h.sendJSON(w, account, http.StatusOK)
}

func (h *APIHandler) closeAccount(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	number := pathInt(r, "number")
	err := h.directory.CloseAccount(r.Context(), p, number)
	h.metrics.RecordOperation("close_account", 0, err == nil)
	if err != nil {
		h.sendDomainError(w, err)
		return
	}
	h.metrics.SetDirectorySizes(h.directory.Counts())
	h.sendJSON(w, map[string]string{"message": "Account closed successfully"}, http.StatusOK)
}

func (h *APIHandler) deposit(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	h.moveMoney(w, r, p, "deposit", h.transfers.Deposit)
}

func (h *APIHandler) withdraw(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	h.moveMoney(w, r, p, "withdraw", h.transfers.Withdraw)
}

func (h *APIHandler) moveMoney(
	w http.ResponseWriter,
	r *http.Request,
	p domain.Principal,
	operation string,
	apply func(context.Context, domain.Principal, int, float64) (domain.Account, error),
) {
	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	number := pathInt(r, "number")

	if req.Signature != "" && h.signer != nil {
		valid, err := h.signer.VerifyOperation(number, req.Amount, req.Timestamp, req.Signature)
		if !valid || err != nil {
			h.sendError(w, "Invalid signature", http.StatusUnauthorized, "INVALID_SIGNATURE")
			return
		}
	}

	account, err := apply(r.Context(), p, number, req.Amount)
	h.metrics.RecordOperation(operation, req.Amount, err == nil)
	if err != nil {
		h.logger.Warn("Balance operation rejected",
			slog.String("operation", operation),
			slog.Int("account_number", number),
			slog.String("error", err.Error()))
		h.sendDomainError(w, err)
		return
	}

	h.sendJSON(w, account, http.StatusOK)
}

func (h *APIHandler) accountTransactions(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	number := pathInt(r, "number")
	records, err := h.directory.AccountTransactions(r.Context(), p, number)
	if err != nil {
		h.sendDomainError(w, err)
		return
	}
	if records == nil {
		records = []domain.TransactionRecord{}
	}
	h.sendJSON(w, records, http.StatusOK)
}

func (h *APIHandler) applyLoan(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	var req ApplyLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	borrower := req.BorrowerUsername
	if borrower == "" {
		borrower = p.Username
	}
	if !p.CanAccess(borrower) {
		h.sendError(w, "Cannot apply for a loan on behalf of another user", http.StatusForbidden, "FORBIDDEN")
		return
	}

	rate := req.AnnualRatePercent
	if rate == 0 {
		rate = domain.DefaultAnnualRatePercent
	}

	loanID, err := h.directory.ApplyLoan(r.Context(), req.BorrowerName, borrower, req.Principal, req.TenureYears, rate)
	h.metrics.RecordOperation("apply_loan", 0, err == nil)
	if err != nil {
		h.sendDomainError(w, err)
		return
	}
	h.metrics.SetDirectorySizes(h.directory.Counts())

	h.sendJSON(w, ApplyLoanResponse{
		LoanID:  loanID,
		Message: "Loan application successful",
	}, http.StatusCreated)
}

func (h *APIHandler) listLoans(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	if r.URL.Query().Get("scope") == "all" {
		loans, err := h.directory.AllLoans(r.Context(), p)
		if err != nil {
			h.sendDomainError(w, err)
			return
		}
		h.sendJSON(w, loans, http.StatusOK)
		return
	}

	loans := h.directory.LoansForUser(r.Context(), p.Username)
	if loans == nil {
		loans = []domain.Loan{}
	}
	h.sendJSON(w, loans, http.StatusOK)
}

func (h *APIHandler) getLoan(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	loanID := pathInt(r, "id")
	loan, err := h.directory.FindLoan(r.Context(), p, loanID)
	if err != nil {
		h.sendDomainError(w, err)
		return
	}
	h.sendJSON(w, loan, http.StatusOK)
}

func (h *APIHandler) payLoan(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	loanID := pathInt(r, "id")
	result, err := h.directory.PayLoan(r.Context(), p, loanID, req.Amount)
	h.metrics.RecordOperation("loan_payment", req.Amount, err == nil)
	if err != nil {
		h.sendDomainError(w, err)
		return
	}
	if result.PaidOff {
		h.notifier.NotifyLoanPaidOff(p.Username, loanID)
	}

	h.sendJSON(w, result, http.StatusOK)
}

func (h *APIHandler) globalTransactions(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	records, err := h.directory.GlobalTransactions(r.Context(), p)
	if err != nil {
		h.sendDomainError(w, err)
		return
	}
	if records == nil {
		records = []domain.TransactionRecord{}
	}
	h.sendJSON(w, records, http.StatusOK)
}

func (h *APIHandler) healthCheck(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}, http.StatusOK)
}

// sendDomainError maps core sentinels to HTTP statuses. ErrNoAccess keeps
// not-found and not-authorized indistinguishable on the wire.
func (h *APIHandler) sendDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNoAccess):
		h.sendError(w, err.Error(), http.StatusNotFound, "NOT_FOUND_OR_DENIED")
	case errors.Is(err, domain.ErrInsufficientBalance):
		h.sendError(w, err.Error(), http.StatusConflict, "INSUFFICIENT_BALANCE")
	case errors.Is(err, validator.ErrInvalidAmount),
		errors.Is(err, validator.ErrInvalidBalance),
		errors.Is(err, domain.ErrInvalidLoanTerms):
		h.sendError(w, err.Error(), http.StatusBadRequest, "INVALID_INPUT")
	case errors.Is(err, users.ErrUserExists):
		h.sendError(w, err.Error(), http.StatusConflict, "USER_EXISTS")
	default:
		h.sendError(w, fmt.Sprintf("Operation failed: %v", err), http.StatusInternalServerError, "SERVER_ERROR")
	}
}

func (h *APIHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func (h *APIHandler) sendError(w http.ResponseWriter, message string, statusCode int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code})

	h.logger.Warn("API error response",
		slog.String("message", message),
		slog.String("code", code),
		slog.Int("status", statusCode))
}

// pathInt reads a numeric mux path variable. Routes constrain the pattern
// to digits, so parse failures cannot happen for registered paths.
func pathInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(mux.Vars(r)[name])
	return n
}
