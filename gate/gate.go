// Package gate decides whether a request may reach the browser: the access
// check looks at where the requester is and whether their camera is on, the
// cooldown spaces accepted commands across all users.
package gate

// Presence is what the chat platform reports about a user at request time.
// An empty ChannelID means the user is not in any voice channel.
type Presence struct {
	ChannelID string
	CameraOn  bool
}

// Decision is the outcome of CheckAccess.
type Decision int

const (
	Allowed Decision = iota
	DeniedWrongChannel
	DeniedCameraOff
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case DeniedWrongChannel:
		return "wrong-channel"
	case DeniedCameraOff:
		return "camera-off"
	default:
		return "unknown"
	}
}

// CheckAccess allows p only when it is in streamingChannelID with the camera
// on. The channel is checked first.
func CheckAccess(streamingChannelID string, p Presence) Decision {
	if p.ChannelID == "" || p.ChannelID != streamingChannelID {
		return DeniedWrongChannel
	}
	if !p.CameraOn {
		return DeniedCameraOff
	}
	return Allowed
}
