package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	WalletErrorBadInput           = "WALLET_BAD_INPUT"
	WalletErrorNotReady           = "WALLET_NOT_READY"
	WalletErrorUnsupportedChain   = "WALLET_UNSUPPORTED_CHAIN"
	WalletErrorNoAccounts         = "WALLET_NO_ACCOUNTS"
	WalletErrorChainNotRecognized = "WALLET_CHAIN_NOT_RECOGNIZED"
	WalletErrorUserRejected       = "WALLET_USER_REJECTED"
	WalletErrorConnectionExpired  = "WALLET_CONNECTION_EXPIRED"
	WalletErrorConnectorMissing   = "WALLET_CONNECTOR_MISSING"
	WalletErrorNotAuthorized      = "WALLET_NOT_AUTHORIZED"
	WalletErrorLastNetwork        = "WALLET_LAST_NETWORK"
	WalletErrorNetworkNotFound    = "WALLET_NETWORK_NOT_FOUND"
	WalletErrorStorageFailed      = "WALLET_STORAGE_FAILED"
	WalletErrorInternal           = "WALLET_INTERNAL_ERROR"
)

var (
	ErrNotReady              = errors.New("core: connector not ready")
	ErrUnsupportedChain      = errors.New("core: unsupported chain")
	ErrNoAccounts            = errors.New("core: no accounts authorized")
	ErrChainNotRecognized    = errors.New("core: chain not recognized by wallet")
	ErrUserRejected          = errors.New("core: user rejected the request")
	ErrConnectionExpired     = errors.New("core: persisted connection expired")
	ErrConnectorMissing      = errors.New("core: connector not registered")
	ErrNotAuthorized         = errors.New("core: connector not authorized")
	ErrLastNetworkProtection = errors.New("core: cannot disable the last enabled network")
	ErrNetworkNotFound       = errors.New("core: network not found")
	ErrInvalidNetwork        = errors.New("core: invalid network config")
	ErrStorage               = errors.New("core: storage failure")
)

// EIP-1193 provider error codes.
const (
	ProviderCodeUserRejected       = 4001
	ProviderCodeUnauthorized       = 4100
	ProviderCodeUnsupportedMethod  = 4200
	ProviderCodeDisconnected       = 4900
	ProviderCodeChainDisconnected  = 4901
	ProviderCodeChainNotRecognized = 4902
)

type ProviderError struct {
	Code    int
	Message string
	Data    any
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "provider error"
	}
	return fmt.Sprintf("provider error %d: %s", e.Code, msg)
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	switch e.Code {
	case ProviderCodeUserRejected:
		return ErrUserRejected
	case ProviderCodeUnauthorized:
		return ErrNotAuthorized
	case ProviderCodeUnsupportedMethod:
		return ErrUnsupportedChain
	case ProviderCodeDisconnected, ProviderCodeChainDisconnected:
		return ErrNotReady
	case ProviderCodeChainNotRecognized:
		return ErrChainNotRecognized
	default:
		return nil
	}
}

func NormalizeProviderError(err error) error {
	if err == nil {
		return nil
	}
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		return err
	}
	sentinel := providerErr.Unwrap()
	if sentinel == nil {
		return err
	}
	return fmt.Errorf("%w: %s", sentinel, providerErr.Error())
}

func IsUserRejected(err error) bool {
	return errors.Is(err, ErrUserRejected)
}

func IsChainNotRecognized(err error) bool {
	return errors.Is(err, ErrChainNotRecognized)
}

func FriendlyMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUserRejected):
		return "The request was declined in your wallet."
	case errors.Is(err, ErrNotReady):
		return "The wallet is not available. Make sure it is installed and unlocked."
	case errors.Is(err, ErrUnsupportedChain):
		return "This network is not supported by the selected wallet."
	case errors.Is(err, ErrChainNotRecognized):
		return "Your wallet does not know this network yet."
	case errors.Is(err, ErrNoAccounts):
		return "No accounts were shared by the wallet."
	case errors.Is(err, ErrNotAuthorized):
		return "The wallet has not authorized this site."
	default:
		return "Something went wrong while talking to the wallet."
	}
}

func walletErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureWalletErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrUserRejected):
		return wrapWalletError(err, goerrors.CategoryAuthz, WalletErrorUserRejected)
	case errors.Is(err, ErrNotReady):
		return wrapWalletError(err, goerrors.CategoryOperation, WalletErrorNotReady)
	case errors.Is(err, ErrUnsupportedChain):
		return wrapWalletError(err, goerrors.CategoryBadInput, WalletErrorUnsupportedChain)
	case errors.Is(err, ErrChainNotRecognized):
		return wrapWalletError(err, goerrors.CategoryExternal, WalletErrorChainNotRecognized)
	case errors.Is(err, ErrNoAccounts):
		return wrapWalletError(err, goerrors.CategoryAuth, WalletErrorNoAccounts)
	case errors.Is(err, ErrNotAuthorized):
		return wrapWalletError(err, goerrors.CategoryAuth, WalletErrorNotAuthorized)
	case errors.Is(err, ErrConnectionExpired):
		return wrapWalletError(err, goerrors.CategoryAuth, WalletErrorConnectionExpired)
	case errors.Is(err, ErrConnectorMissing):
		return wrapWalletError(err, goerrors.CategoryNotFound, WalletErrorConnectorMissing)
	case errors.Is(err, ErrNetworkNotFound):
		return wrapWalletError(err, goerrors.CategoryNotFound, WalletErrorNetworkNotFound)
	case errors.Is(err, ErrLastNetworkProtection):
		return wrapWalletError(err, goerrors.CategoryConflict, WalletErrorLastNetwork)
	case errors.Is(err, ErrInvalidNetwork), errors.Is(err, ErrInvalidPersistedSession):
		return wrapWalletError(err, goerrors.CategoryValidation, WalletErrorBadInput)
	case errors.Is(err, ErrStorage):
		return wrapWalletError(err, goerrors.CategoryInternal, WalletErrorStorageFailed)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	if strings.Contains(msg, "required") || strings.Contains(msg, "invalid") {
		return wrapWalletError(err, goerrors.CategoryBadInput, WalletErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureWalletErrorEnvelope(mapped)
}

func wrapWalletError(err error, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureWalletErrorEnvelope(
		goerrors.Wrap(err, category, err.Error()).
			WithTextCode(textCode),
	)
}

func ensureWalletErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = walletHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultWalletTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultWalletTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return WalletErrorBadInput
	case goerrors.CategoryNotFound:
		return WalletErrorConnectorMissing
	case goerrors.CategoryAuth:
		return WalletErrorNotAuthorized
	case goerrors.CategoryAuthz:
		return WalletErrorUserRejected
	case goerrors.CategoryConflict:
		return WalletErrorLastNetwork
	case goerrors.CategoryOperation:
		return WalletErrorNotReady
	default:
		return WalletErrorInternal
	}
}

func walletHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	case goerrors.CategoryOperation:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
