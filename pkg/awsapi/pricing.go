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

package awsapi

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
)

// PricingInterface is the Price List API surface used to look up on-demand prices.
type PricingInterface interface {
	pricing.GetProductsAPIClient
}

// NewPricingClient returns a Price List client bound to endpointRegion. The Price List API is only
// served from a few regions, independent of the region being priced.
func NewPricingClient(cfg aws.Config, endpointRegion string) PricingInterface {
	return pricing.NewFromConfig(cfg, func(o *pricing.Options) {
		o.Region = endpointRegion
	})
}
