package battleye

// payloadType specifies the message type of the payload.
type payloadType byte

// BattlEye payload types.
const (
	loginType payloadType = iota
	commandType
	serverMessageType

	// fragmentMarker is the byte a commandType payload leads with when the
	// response is split across multiple packets: {fragmentMarker, total,
	// index}. A payload that doesn't start with it is a single, complete
	// response (equivalent to total=1, index=0).
	fragmentMarker byte = 0x00
)

// loginResult specified the result of a login attempt.
type loginResult byte

// loginResponse messages.
const (
	loginFailed loginResult = iota
	loginSuccess
)
