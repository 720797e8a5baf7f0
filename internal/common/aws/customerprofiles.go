// internal/common/aws/customerprofiles.go
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/customerprofiles"
)

type CustomerProfilesClient struct {
	client *customerprofiles.Client
}

func NewCustomerProfilesClient(ctx context.Context, region string) (*CustomerProfilesClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &CustomerProfilesClient{client: customerprofiles.NewFromConfig(cfg)}, nil
}

func (c *CustomerProfilesClient) SearchProfiles(ctx context.Context, input *customerprofiles.SearchProfilesInput) (*customerprofiles.SearchProfilesOutput, error) {
	return c.client.SearchProfiles(ctx, input)
}

func (c *CustomerProfilesClient) CreateProfile(ctx context.Context, input *customerprofiles.CreateProfileInput) (*customerprofiles.CreateProfileOutput, error) {
	return c.client.CreateProfile(ctx, input)
}
