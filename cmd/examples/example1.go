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

package main

import (
	"context"
	"fmt"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/bytequantity"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/catalog"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/selector"
)

func main() {
	// Initialize a context for the application
	ctx := context.Background()

	// Open the catalog written by `ec2-instance-interchange refresh`
	store, err := catalog.NewStore(catalog.DefaultLocation, nil)
	if err != nil {
		fmt.Printf("Oh no, the catalog location is invalid: %v", err)
		return
	}
	c, err := store.Load(ctx)
	if err != nil {
		fmt.Printf("Oh no, the catalog cannot be loaded: %v", err)
		return
	}

	// Instantiate a new instance of a selector with the catalog
	instanceSelector := selector.New(c)

	// Ask for the instance types that can replace an m5.large with at least 4 vcpus and 16 GiB of memory
	// The full struct definition can be found here:
	// https://github.com/aws/amazon-ec2-instance-interchange/blob/main/pkg/selector/types.go
	req := selector.MatchRequest{
		CurrentInstanceType: "m5.large",
		RequiredVCpus:       4,
		RequiredMemoryMiB:   int64(bytequantity.FromGiB(16).Quantity),
		StoragePolicy:       selector.StoragePolicyStrict,
		MaxResults:          3,
	}

	result, err := instanceSelector.FindCompatible(req)
	if err != nil {
		fmt.Printf("Oh no, there was an error :( %v", err)
		return
	}
	// Print the ranked instance types
	fmt.Println(result.InstanceTypes())
}
