package errors

// ErrorCode represents a specific error code in the system.
type ErrorCode string

const (
	// GeneralInternalServerError represents a generic internal server error.
	GeneralInternalServerError ErrorCode = "general_internal_server_error"
	// GeneralBadRequestError represents a generic bad request error.
	GeneralBadRequestError ErrorCode = "general_bad_request_error"
	// GeneralRepositoryError represents a generic repository error.
	GeneralRepositoryError ErrorCode = "general_repository_error"

	// AdmissionRejectedError is raised when a generated candidate fails the holdings or capital check.
	AdmissionRejectedError ErrorCode = "admission_rejected"
	// SettlementDuplicateError is raised when a terminal order arrives for an already applied order id.
	SettlementDuplicateError ErrorCode = "settlement_duplicate"
	// LedgerInvariantViolationError groups the ledger guard failures below.
	LedgerInvariantViolationError ErrorCode = "ledger_invariant_violation"
	// InsufficientCapitalError is raised when a completed buy costs more than the available capital.
	InsufficientCapitalError ErrorCode = "insufficient_capital"
	// InsufficientSharesError is raised when a completed sell exceeds the held quantity.
	InsufficientSharesError ErrorCode = "insufficient_shares"
	// TransportDecodeError is raised when an inbound message cannot be decoded.
	TransportDecodeError ErrorCode = "transport_decode_error"
	// InvalidOrderError is raised when an order is missing required fields or carries an unsupported action.
	InvalidOrderError ErrorCode = "invalid_order"
	// ForeignClientError is raised when a settlement is delivered to a broker that does not own the client.
	ForeignClientError ErrorCode = "foreign_client"
	// UnknownBrokerError is raised when a settlement names a broker that is not running.
	UnknownBrokerError ErrorCode = "unknown_broker"
	// SnapshotUnavailableError is raised when a client account cannot be loaded from the ledger store.
	SnapshotUnavailableError ErrorCode = "snapshot_unavailable"
	// SettlementGateUnavailableError is raised when the settlement dedupe gate cannot be consulted.
	SettlementGateUnavailableError ErrorCode = "settlement_gate_unavailable"
	// AccountNotFoundError is raised by ledger stores when no account exists for a client.
	AccountNotFoundError ErrorCode = "account_not_found"
	// ShuttingDownError is raised when a command reaches a component that is already stopping.
	ShuttingDownError ErrorCode = "shutting_down"

	// RedisConfigError represents an error when the Redis configuration is invalid or nil.
	RedisConfigError ErrorCode = "redis_config_error"
	// RedisConnectionError represents an error when connecting to Redis.
	RedisConnectionError ErrorCode = "redis_connection_error"
	// RedisDisconnectionError represents an error when disconnecting from Redis.
	RedisDisconnectionError ErrorCode = "redis_disconnection_error"
	// RedisPingError represents an error when pinging Redis.
	RedisPingError ErrorCode = "redis_pinging_error"
	// RedisGetError represents an error when getting a value from Redis.
	RedisGetError ErrorCode = "redis_get_error"
	// RedisSetError represents an error when setting a value in Redis.
	RedisSetError ErrorCode = "redis_set_error"
	// RedisDelError represents an error when deleting a value from Redis.
	RedisDelError ErrorCode = "redis_del_error"
	// RedisSetNXError represents an error when setting a value in Redis with SetNX.
	RedisSetNXError ErrorCode = "redis_setnx_error"
)

// IsLedgerInvariantViolation reports whether code belongs to the ledger guard family.
func IsLedgerInvariantViolation(code ErrorCode) bool {
	switch code {
	case LedgerInvariantViolationError, InsufficientCapitalError, InsufficientSharesError:
		return true
	default:
		return false
	}
}
