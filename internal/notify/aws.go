// internal/notify/aws.go
package notify

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// NewSESClient builds the raw SES client; it satisfies SESService directly.
func NewSESClient(ctx context.Context, region string) (*ses.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return ses.NewFromConfig(cfg), nil
}

// NewSNSClient builds the raw SNS client; it satisfies SNSService directly.
func NewSNSClient(ctx context.Context, region string) (*sns.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return sns.NewFromConfig(cfg), nil
}
