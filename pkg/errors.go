package pkg

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var ExposeErrorDetails = false

func init() {
	if gin.DebugMode == gin.Mode() || gin.TestMode == gin.Mode() {
		ExposeErrorDetails = true
	}
}

// ErrorCode defines a standardized error code
type ErrorCode struct {
	Code    string
	Status  int
	Message string // default message
}

var (
	// Generic app
	ErrInvalidInputCode   = ErrorCode{Code: "APP_INVALID_INPUT", Status: http.StatusBadRequest, Message: "invalid input"}
	ErrUnauthorizedCode   = ErrorCode{Code: "APP_UNAUTHORIZED", Status: http.StatusUnauthorized, Message: "unauthorized access"}
	ErrForbiddenCode      = ErrorCode{Code: "APP_FORBIDDEN", Status: http.StatusForbidden, Message: "forbidden access"}
	ErrServerCode         = ErrorCode{Code: "APP_INTERNAL", Status: http.StatusInternalServerError, Message: "internal server error"}
	ErrRecordNotFoundCode = ErrorCode{Code: "APP_NOT_FOUND", Status: http.StatusNotFound, Message: "record not found"}
	ErrRateLimitedCode    = ErrorCode{Code: "APP_RATE_LIMITED", Status: http.StatusTooManyRequests, Message: "too many requests"}
	ErrConflictCode       = ErrorCode{Code: "APP_CONFLICT", Status: http.StatusConflict, Message: "conflicting record"}

	// Business/domain rules
	ErrOrderAlreadyPaidCode = ErrorCode{Code: "ORDER_ALREADY_PAID", Status: http.StatusConflict, Message: "order already paid"}

	// External collaborators
	ErrGatewayCode = ErrorCode{Code: "GATEWAY_ERROR", Status: http.StatusBadGateway, Message: "payment gateway error"}
	ErrStoreCode   = ErrorCode{Code: "STORE_ERROR", Status: http.StatusInternalServerError, Message: "store error"}
)

type AppError struct {
	Code    ErrorCode
	Message string // public-facing message
	Cause   error  // internal cause (wrapped)
}

func (e AppError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}
func (e AppError) Unwrap() error { return e.Cause }

func NewAppError(code ErrorCode, msg string, cause error) error {
	return AppError{Code: code, Message: msg, Cause: cause}
}

// HasCode reports whether err is an AppError carrying the given code.
func HasCode(err error, code ErrorCode) bool {
	var appErr AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code.Code == code.Code
}

// ErrorResponse defines the standardized error response format
type ErrorResponse struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ToErrorResponse renders err for the client and logs it; 5xx at error level, the rest at warn.
// Errors that are not an AppError become APP_INTERNAL with the default message.
func ToErrorResponse(logger *zap.Logger, traceID string, err error) ErrorResponse {
	appErr := AppError{Code: ErrServerCode, Message: ErrServerCode.Message}
	errors.As(err, &appErr)

	resp := ErrorResponse{
		Status:  appErr.Code.Status,
		Code:    appErr.Code.Code,
		Message: appErr.Message,
	}
	log := logger.Warn
	if resp.Status >= http.StatusInternalServerError {
		log = logger.Error
	}
	log("application_error", zap.String(TraceId, traceID), zap.String("code", resp.Code), zap.Error(err))
	if ExposeErrorDetails {
		resp.Details = err.Error()
	}
	return resp
}

type pgMapping struct {
	code    ErrorCode
	message string
}

// pgErrorCodes holds the postgres SQLSTATEs a client can cause. Anything else is a store failure.
var pgErrorCodes = map[string]pgMapping{
	"23505": {ErrConflictCode, "record already exists"},
	"23503": {ErrConflictCode, "referenced record does not exist"},
	"22P02": {ErrInvalidInputCode, "malformed value"},
	"22001": {ErrInvalidInputCode, "value too long"},
	"22003": {ErrInvalidInputCode, "numeric value out of range"},
}

// HandleSQLError turns a repository error into an AppError. pgx.ErrNoRows is a 404.
func HandleSQLError(traceID string, logger *zap.Logger, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		logger.Warn("record_not_found", zap.String(TraceId, traceID))
		return NewAppError(ErrRecordNotFoundCode, "no records found", err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		logger.Error("store_error", zap.String(TraceId, traceID), zap.Error(err))
		return NewAppError(ErrStoreCode, "store error", err)
	}
	logger.Error("store_error",
		zap.String(TraceId, traceID),
		zap.String("sqlstate", pgErr.Code),
		zap.String("table", pgErr.TableName),
		zap.String("constraint", pgErr.ConstraintName),
		zap.String("detail", pgErr.Detail),
	)
	if m, ok := pgErrorCodes[pgErr.Code]; ok {
		return NewAppError(m.code, m.message, err)
	}
	return NewAppError(ErrStoreCode, "store error", err)
}
