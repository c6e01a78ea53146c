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

// Package awsapi holds the narrow AWS SDK client contracts used across the module so that
// every AWS dependency can be mocked in tests.
package awsapi

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

// DescribeRegionsAPIClient is a client that implements the
// DescribeRegions operation.
type DescribeRegionsAPIClient interface {
	DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
}

// CatalogSourceInterface is everything the catalog builder needs from EC2 in a single region.
type CatalogSourceInterface interface {
	ec2.DescribeInstanceTypesAPIClient
	DescribeRegionsAPIClient
}

// ClientFactory returns an EC2 client bound to the given region.
type ClientFactory func(region string) CatalogSourceInterface

// NewClientFactory returns a ClientFactory which builds regional EC2 clients from a shared aws.Config.
func NewClientFactory(cfg aws.Config) ClientFactory {
	return func(region string) CatalogSourceInterface {
		return ec2.NewFromConfig(cfg, func(o *ec2.Options) {
			o.Region = region
		})
	}
}
