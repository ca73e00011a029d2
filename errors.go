package roleauth

import "errors"

var (
	// ErrInvalidCredentials is an exported constant or variable used by the session machine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionBusy is an exported constant or variable used by the session machine.
	ErrSessionBusy = errors.New("session operation already in progress")
	// ErrLoginTimeout is an exported constant or variable used by the session machine.
	ErrLoginTimeout = errors.New("credential check timed out")
	// ErrNotAuthenticated is an exported constant or variable used by the session machine.
	ErrNotAuthenticated = errors.New("no authenticated session")
	// ErrMachineNotReady is an exported constant or variable used by the session machine.
	ErrMachineNotReady = errors.New("machine not initialized")
)
