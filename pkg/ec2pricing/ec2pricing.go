// Copyright Amazon.com Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"). You may
// not use this file except in compliance with the License. A copy of the
// License is located at
//
//     http://aws.amazon.com/apache2.0/
//
// or in the "license" file accompanying this file. This file is distributed
// on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either
// express or implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package ec2pricing annotates match candidates with on-demand prices from the AWS Pricing API.
package ec2pricing

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"go.uber.org/zap"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/awsapi"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/selector"
)

const (
	// DefaultCacheTTL is how long fetched prices are trusted before a full refresh
	DefaultCacheTTL = 168 * time.Hour
	// DefaultCacheDir holds the on-disk price caches
	DefaultCacheDir = "~/.ec2-instance-interchange"
	// PricingAPIRegion is a region serving the Pricing API endpoint
	PricingAPIRegion = "us-east-1"
)

// EC2Pricing is the public struct to interface with AWS pricing APIs
type EC2Pricing struct {
	ODPricing *OnDemandPricing
	Logger    *zap.Logger
}

// EC2PricingIface is the EC2Pricing interface mainly used to mock out ec2pricing during testing
type EC2PricingIface interface {
	GetOnDemandInstanceTypeCost(ctx context.Context, instanceType string) (float64, error)
	RefreshOnDemandCache(ctx context.Context) error
	Annotate(ctx context.Context, candidates []selector.Candidate) []selector.Candidate
	Save() error
}

// New creates an EC2Pricing for the given region with an on-disk cache under directoryPath
func New(ctx context.Context, pricingClient awsapi.PricingInterface, region string, cacheTTL time.Duration, directoryPath string, logger *zap.Logger) *EC2Pricing {
	odPricing := LoadODCacheOrNew(ctx, pricingClient, region, cacheTTL, directoryPath)
	odPricing.Logger = logger
	return &EC2Pricing{
		ODPricing: odPricing,
		Logger:    logger,
	}
}

// GetOnDemandInstanceTypeCost retrieves the on-demand hourly cost for the specified instance type
func (p *EC2Pricing) GetOnDemandInstanceTypeCost(ctx context.Context, instanceType string) (float64, error) {
	return p.ODPricing.Get(ctx, instanceType)
}

// RefreshOnDemandCache makes a bulk request to the pricing api to retrieve all instance type pricing and stores them in the cache
func (p *EC2Pricing) RefreshOnDemandCache(ctx context.Context) error {
	return p.ODPricing.Refresh(ctx)
}

// Save persists the price cache
func (p *EC2Pricing) Save() error {
	return p.ODPricing.Save()
}

// Annotate returns a copy of the candidates with OndemandPricePerHour filled in.
// Prices that can't be fetched are logged and left nil.
func (p *EC2Pricing) Annotate(ctx context.Context, candidates []selector.Candidate) []selector.Candidate {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	annotated := make([]selector.Candidate, len(candidates))
	copy(annotated, candidates)
	for i := range annotated {
		record := &annotated[i].Record
		price, err := p.GetOnDemandInstanceTypeCost(ctx, record.InstanceType)
		if err != nil {
			logger.Warn("unable to fetch on-demand price",
				zap.String("instance_type", record.InstanceType),
				zap.String("region", p.ODPricing.Region),
				zap.Error(err))
			record.OndemandPricePerHour = nil
			continue
		}
		record.OndemandPricePerHour = aws.Float64(price)
	}
	return annotated
}
