package protocolinit

import "errors"

// Errors raised by the initializer. Messages match the on-chain custom error
// names so revert data maps back onto them.
var (
	ErrVersionMustBeSet                = errors.New("VersionMustBeSet")
	ErrAlreadyInitialized              = errors.New("AlreadyInitialized")
	ErrAddressesCalldataLengthMismatch = errors.New("AddressesCalldataLengthMismatch")
	ErrDirectInitializationNotAllowed  = errors.New("DirectInitializationNotAllowed")
	ErrProtocolInitializationFailed    = errors.New("ProtocolInitializationFailed")
	ErrWrongCurrentVersion             = errors.New("WrongCurrentVersion")
	ErrValueZeroNotAllowed             = errors.New("ValueZeroNotAllowed")
	ErrArrayLengthMismatch             = errors.New("ArrayLengthMismatch")
	ErrNoSuchSeller                    = errors.New("NoSuchSeller")
)

var errorsByName = map[string]error{}

func init() {
	for _, err := range []error{
		ErrVersionMustBeSet,
		ErrAlreadyInitialized,
		ErrAddressesCalldataLengthMismatch,
		ErrDirectInitializationNotAllowed,
		ErrProtocolInitializationFailed,
		ErrWrongCurrentVersion,
		ErrValueZeroNotAllowed,
		ErrArrayLengthMismatch,
		ErrNoSuchSeller,
	} {
		errorsByName[err.Error()] = err
	}
}

// ErrorByName maps a decoded revert name to its sentinel.
func ErrorByName(name string) (error, bool) {
	err, ok := errorsByName[name]
	return err, ok
}

// RevertError is a sub-initializer failure. An empty Reason is reported as
// ErrProtocolInitializationFailed.
type RevertError struct {
	Target string
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return ErrProtocolInitializationFailed.Error()
	}
	return e.Reason
}
