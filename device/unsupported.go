package device

import (
	"context"
	"fmt"
)

// unsupportedClientImpl implements Client for deployments without a device
// control integration
type unsupportedClientImpl struct{}

/*
NewUnsupportedClient define a device client for deployments without a device
control integration. Every operation fails with a descriptive error.

	@returns new Client
*/
func NewUnsupportedClient() (Client, error) {
	return &unsupportedClientImpl{}, nil
}

func (c *unsupportedClientImpl) Discover(ctxt context.Context) ([]DiscoveredDevice, error) {
	return nil, fmt.Errorf("device discovery is not supported in this deployment")
}

func (c *unsupportedClientImpl) GetProfiles(
	ctxt context.Context, address string, creds Credentials,
) ([]MediaProfile, error) {
	return nil, fmt.Errorf("device control is not supported in this deployment")
}

func (c *unsupportedClientImpl) Move(
	ctxt context.Context, address string, creds Credentials, velocity PTZVelocity,
) error {
	return fmt.Errorf("device control is not supported in this deployment")
}

func (c *unsupportedClientImpl) Stop(
	ctxt context.Context, address string, creds Credentials,
) error {
	return fmt.Errorf("device control is not supported in this deployment")
}

func (c *unsupportedClientImpl) GetAudioBackchannelInfo(
	ctxt context.Context, address string, creds Credentials,
) (BackchannelInfo, error) {
	return BackchannelInfo{}, fmt.Errorf("device control is not supported in this deployment")
}
