package device

import "context"

// Credentials authentication material for talking to a camera device
type Credentials struct {
	// Username device account name
	Username string `json:"username"`
	// Password device account password
	Password string `json:"password"`
}

// DiscoveredDevice one camera device found on the local network
type DiscoveredDevice struct {
	// Address device service endpoint
	Address string `json:"address"`
	// Name device advertised name
	Name string `json:"name"`
	// Hardware device advertised hardware model
	Hardware string `json:"hardware"`
}

// MediaProfile one media profile offered by a camera device
type MediaProfile struct {
	// Token profile identifier used in control calls
	Token string `json:"token"`
	// Name profile display name
	Name string `json:"name"`
	// StreamURL profile stream locator
	StreamURL string `json:"streamUrl"`
	// Resolution profile video resolution, e.g. "1920x1080"
	Resolution string `json:"resolution"`
}

// PTZVelocity continuous pan-tilt-zoom movement vector, each axis in [-1, 1]
type PTZVelocity struct {
	// Pan horizontal velocity
	Pan float64 `json:"pan" validate:"gte=-1,lte=1"`
	// Tilt vertical velocity
	Tilt float64 `json:"tilt" validate:"gte=-1,lte=1"`
	// Zoom zoom velocity
	Zoom float64 `json:"zoom" validate:"gte=-1,lte=1"`
}

// BackchannelInfo audio backchannel parameters of a camera device
type BackchannelInfo struct {
	// Supported whether the device offers an audio backchannel
	Supported bool `json:"supported"`
	// StreamURL backchannel stream locator
	StreamURL string `json:"streamUrl"`
}

// Client camera device discovery and control operations. The wire protocol is
// an integration detail behind this interface; the control plane only consumes
// the results.
type Client interface {
	/*
		Discover search the local network for camera devices

			@param ctxt context.Context - execution context
			@returns devices found
	*/
	Discover(ctxt context.Context) ([]DiscoveredDevice, error)

	/*
		GetProfiles list the media profiles a device offers

			@param ctxt context.Context - execution context
			@param address string - device service endpoint
			@param creds Credentials - device credentials
			@returns media profiles
	*/
	GetProfiles(ctxt context.Context, address string, creds Credentials) ([]MediaProfile, error)

	/*
		Move start continuous PTZ movement

			@param ctxt context.Context - execution context
			@param address string - device service endpoint
			@param creds Credentials - device credentials
			@param velocity PTZVelocity - movement vector
	*/
	Move(ctxt context.Context, address string, creds Credentials, velocity PTZVelocity) error

	/*
		Stop halt PTZ movement

			@param ctxt context.Context - execution context
			@param address string - device service endpoint
			@param creds Credentials - device credentials
	*/
	Stop(ctxt context.Context, address string, creds Credentials) error

	/*
		GetAudioBackchannelInfo query a device's audio backchannel parameters

			@param ctxt context.Context - execution context
			@param address string - device service endpoint
			@param creds Credentials - device credentials
			@returns backchannel parameters
	*/
	GetAudioBackchannelInfo(
		ctxt context.Context, address string, creds Credentials,
	) (BackchannelInfo, error)
}
