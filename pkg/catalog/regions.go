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

package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/samber/lo"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/awsapi"
)

const (
	optInNotRequired = "opt-in-not-required"
	optedIn          = "opted-in"
)

// DiscoverRegions returns the sorted names of the regions enabled for the account
func DiscoverRegions(ctx context.Context, client awsapi.DescribeRegionsAPIClient) ([]string, error) {
	out, err := client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{AllRegions: aws.Bool(true)})
	if err != nil {
		return nil, fmt.Errorf("unable to describe regions: %w", err)
	}
	var regions []string
	for _, region := range out.Regions {
		status := aws.ToString(region.OptInStatus)
		if status != optInNotRequired && status != optedIn {
			continue
		}
		regions = append(regions, aws.ToString(region.RegionName))
	}
	regions = lo.Uniq(lo.Compact(regions))
	sort.Strings(regions)
	return regions, nil
}
