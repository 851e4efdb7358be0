package protocol

import "errors"

// Error kinds, matching the taxonomy in the error-handling design: Config,
// Encoding, Decoding, Protocol, CrcMismatch and Timeout. Callers use
// errors.Is against these sentinels (wrapped with fmt.Errorf("%w: ...")
// by the code that raises them) rather than matching on message text.
var (
	// ErrConfig marks invalid or unsupported parameters, raised
	// synchronously at construction time.
	ErrConfig = errors.New("invalid configuration")

	// ErrEncoding marks a failure to serialize an outgoing message.
	ErrEncoding = errors.New("encoding failed")

	// ErrDecoding marks a batch of samples or bytes that could not be
	// turned back into bits or a message.
	ErrDecoding = errors.New("decoding failed")

	// ErrProtocol marks a semantic violation of the message schema.
	ErrProtocol = errors.New("protocol violation")

	// ErrCrcMismatch marks a checksum verification failure. Raised only
	// by explicit verification calls; the streaming decoder does not
	// surface this, it drops the message and logs a warning instead.
	ErrCrcMismatch = errors.New("crc mismatch")

	// ErrTimeout is reserved for application-level listen loops; the
	// protocol and modem packages never raise it themselves.
	ErrTimeout = errors.New("timeout waiting for signal")
)
