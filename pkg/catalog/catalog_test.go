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

package catalog_test

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/catalog"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/instancetypes"
	h "github.com/aws/amazon-ec2-instance-interchange/pkg/test"
)

func record(region, instanceType string, vcpus int32, memoryMiB int64) instancetypes.Record {
	return instancetypes.Record{
		Region:               region,
		InstanceType:         instanceType,
		Architecture:         ec2types.ArchitectureTypeX8664,
		VirtualizationTypes:  []ec2types.VirtualizationType{ec2types.VirtualizationTypeHvm},
		EnaSupported:         true,
		IPv6Supported:        true,
		MaxNetworkInterfaces: 3,
		NvmeSupport:          instancetypes.NvmeRequired,
		Hypervisor:           instancetypes.HypervisorNitro,
		VCpus:                vcpus,
		MemoryMiB:            memoryMiB,
	}
}

func TestNew_SortsByRegionAndType(t *testing.T) {
	c, err := catalog.New([]instancetypes.Record{
		record("us-west-2", "m5.large", 2, 8192),
		record("us-east-1", "m5.xlarge", 4, 16384),
		record("us-east-1", "c5.large", 2, 4096),
	})
	h.Ok(t, err)
	h.Equals(t, 3, c.Len())
	h.Equals(t, []string{"us-east-1", "us-west-2"}, c.Regions())
	keys := []string{}
	for _, r := range c.Records() {
		keys = append(keys, r.Key())
	}
	h.Equals(t, []string{"us-east-1/c5.large", "us-east-1/m5.xlarge", "us-west-2/m5.large"}, keys)
}

func TestNew_Duplicate(t *testing.T) {
	_, err := catalog.New([]instancetypes.Record{
		record("us-east-1", "m5.large", 2, 8192),
		record("us-east-1", "m5.large", 2, 8192),
	})
	h.Assert(t, errors.Is(err, catalog.ErrDuplicateRecord), "expected ErrDuplicateRecord, got %v", err)
}

func TestNew_Invalid(t *testing.T) {
	_, err := catalog.New([]instancetypes.Record{record("us-east-1", "m5.large", 0, 8192)})
	h.Assert(t, errors.Is(err, instancetypes.ErrMalformedRecord), "expected ErrMalformedRecord, got %v", err)
}

func TestNew_DropsPrice(t *testing.T) {
	r := record("us-east-1", "m5.large", 2, 8192)
	r.OndemandPricePerHour = aws.Float64(0.096)
	c, err := catalog.New([]instancetypes.Record{r})
	h.Ok(t, err)
	got, ok := c.Lookup("m5.large", nil)
	h.Assert(t, ok, "m5.large should be found")
	h.Assert(t, got.OndemandPricePerHour == nil, "price should not be kept in the catalog")
}

func TestNew_IsolatedFromInput(t *testing.T) {
	records := []instancetypes.Record{record("us-east-1", "m5.large", 2, 8192)}
	c, err := catalog.New(records)
	h.Ok(t, err)
	records[0].VirtualizationTypes[0] = ec2types.VirtualizationTypeParavirtual
	records[0].VCpus = 64
	got, _ := c.Lookup("m5.large", nil)
	h.Equals(t, int32(2), got.VCpus)
	h.Equals(t, []ec2types.VirtualizationType{ec2types.VirtualizationTypeHvm}, got.VirtualizationTypes)

	got.VirtualizationTypes[0] = ec2types.VirtualizationTypeParavirtual
	again, _ := c.Lookup("m5.large", nil)
	h.Equals(t, ec2types.VirtualizationTypeHvm, again.VirtualizationTypes[0])
}

func TestLookup(t *testing.T) {
	usWest2 := record("us-west-2", "m5.large", 2, 8192)
	usWest2.MaxNetworkInterfaces = 4
	c, err := catalog.New([]instancetypes.Record{usWest2, record("us-east-1", "m5.large", 2, 8192)})
	h.Ok(t, err)

	got, ok := c.Lookup("m5.large", nil)
	h.Assert(t, ok, "m5.large should be found")
	h.Equals(t, "us-east-1", got.Region)

	got, ok = c.Lookup("m5.large", aws.String("us-west-2"))
	h.Assert(t, ok, "m5.large should be found in us-west-2")
	h.Equals(t, int32(4), got.MaxNetworkInterfaces)

	_, ok = c.Lookup("m5.large", aws.String("eu-west-1"))
	h.Assert(t, !ok, "m5.large should not be found in eu-west-1")
	_, ok = c.Lookup("does-not-exist", nil)
	h.Assert(t, !ok, "does-not-exist should not be found")
}

func TestOfferedIn(t *testing.T) {
	c, err := catalog.New([]instancetypes.Record{
		record("us-west-2", "m5.large", 2, 8192),
		record("eu-west-1", "m5.large", 2, 8192),
		record("us-east-1", "c5.large", 2, 4096),
	})
	h.Ok(t, err)
	h.Equals(t, []string{"eu-west-1", "us-west-2"}, c.OfferedIn("m5.large"))
	h.Equals(t, 0, len(c.OfferedIn("m5.metal")))
}

func TestEach_Stops(t *testing.T) {
	c, err := catalog.New([]instancetypes.Record{
		record("us-east-1", "c5.large", 2, 4096),
		record("us-east-1", "m5.large", 2, 8192),
	})
	h.Ok(t, err)
	visited := 0
	c.Each(func(instancetypes.Record) bool {
		visited++
		return false
	})
	h.Equals(t, 1, visited)
}

func TestLen_Nil(t *testing.T) {
	var c *catalog.Catalog
	h.Equals(t, 0, c.Len())
}
