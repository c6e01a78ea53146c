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

// Package instancetypes defines the strictly typed instance type record stored in the catalog
// and the mapping from the EC2 DescribeInstanceTypes response shape into it.
package instancetypes

import (
	"errors"
	"fmt"
	"sort"

	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/samber/lo"
)

// ErrMalformedRecord is returned when a row cannot be mapped into a Record
var ErrMalformedRecord = errors.New("malformed instance type record")

// NvmeSupport describes whether EBS volumes are exposed as NVMe block devices
type NvmeSupport string

// Hypervisor is the hypervisor of an instance type. Bare metal types report HypervisorUnknown.
type Hypervisor string

const (
	NvmeSupported   NvmeSupport = "supported"
	NvmeUnsupported NvmeSupport = "unsupported"
	NvmeRequired    NvmeSupport = "required"

	HypervisorNitro   Hypervisor = "nitro"
	HypervisorXen     Hypervisor = "xen"
	HypervisorUnknown Hypervisor = "unknown"
)

// Record holds the attributes of one instance type offered in one region
type Record struct {
	Region                   string                        `json:"region"`
	InstanceType             string                        `json:"instance_type"`
	Architecture             ec2types.ArchitectureType     `json:"architecture"`
	VirtualizationTypes      []ec2types.VirtualizationType `json:"virtualization_types"`
	EnaSupported             bool                          `json:"ena_supported"`
	IPv6Supported            bool                          `json:"ipv6_supported"`
	MaxNetworkInterfaces     int32                         `json:"max_network_interfaces"`
	NvmeSupport              NvmeSupport                   `json:"nvme_support"`
	InstanceStorageSupported bool                          `json:"instance_storage_supported"`
	Hypervisor               Hypervisor                    `json:"hypervisor"`
	BareMetal                bool                          `json:"bare_metal"`
	VCpus                    int32                         `json:"vcpus"`
	MemoryMiB                int64                         `json:"memory_mib"`
	GpuCount                 int32                         `json:"gpu_count"`
	OndemandPricePerHour     *float64                      `json:"ondemand_price_per_hour"`
}

// Key uniquely identifies a record within a catalog
func (r Record) Key() string {
	return r.Region + "/" + r.InstanceType
}

// Validate checks the invariants a record must satisfy before it can be stored
func (r Record) Validate() error {
	switch {
	case r.Region == "":
		return malformed(r.InstanceType, "region is empty")
	case r.InstanceType == "":
		return malformed(r.InstanceType, "instance type is empty")
	case r.VCpus <= 0:
		return malformed(r.InstanceType, "vcpus must be positive, got %d", r.VCpus)
	case r.MemoryMiB <= 0:
		return malformed(r.InstanceType, "memory must be positive, got %d MiB", r.MemoryMiB)
	case r.GpuCount < 0:
		return malformed(r.InstanceType, "gpu count must not be negative, got %d", r.GpuCount)
	case r.MaxNetworkInterfaces <= 0:
		return malformed(r.InstanceType, "max network interfaces must be positive, got %d", r.MaxNetworkInterfaces)
	case len(r.VirtualizationTypes) == 0:
		return malformed(r.InstanceType, "no virtualization types")
	}
	if _, err := ParseArchitecture(string(r.Architecture)); err != nil {
		return malformed(r.InstanceType, "%v", err)
	}
	for _, vt := range r.VirtualizationTypes {
		if _, err := ParseVirtualizationType(string(vt)); err != nil {
			return malformed(r.InstanceType, "%v", err)
		}
	}
	if _, err := ParseNvmeSupport(string(r.NvmeSupport)); err != nil {
		return malformed(r.InstanceType, "%v", err)
	}
	if _, err := ParseHypervisor(string(r.Hypervisor)); err != nil {
		return malformed(r.InstanceType, "%v", err)
	}
	return nil
}

// FromInstanceTypeInfo maps one DescribeInstanceTypes entry into a Record.
// Entries missing required attributes return an error wrapping ErrMalformedRecord.
func FromInstanceTypeInfo(region string, info ec2types.InstanceTypeInfo) (Record, error) {
	name := string(info.InstanceType)
	if name == "" {
		return Record{}, malformed("", "instance type is empty")
	}
	if info.ProcessorInfo == nil || len(info.ProcessorInfo.SupportedArchitectures) == 0 {
		return Record{}, malformed(name, "no supported architectures")
	}
	if info.VCpuInfo == nil || info.VCpuInfo.DefaultVCpus == nil {
		return Record{}, malformed(name, "no vcpu info")
	}
	if info.MemoryInfo == nil || info.MemoryInfo.SizeInMiB == nil {
		return Record{}, malformed(name, "no memory info")
	}

	record := Record{
		Region:                   region,
		InstanceType:             name,
		Architecture:             info.ProcessorInfo.SupportedArchitectures[0],
		VirtualizationTypes:      normalizeVirtualizationTypes(info.SupportedVirtualizationTypes),
		NvmeSupport:              NvmeUnsupported,
		InstanceStorageSupported: lo.FromPtr(info.InstanceStorageSupported),
		Hypervisor:               HypervisorUnknown,
		BareMetal:                lo.FromPtr(info.BareMetal),
		VCpus:                    *info.VCpuInfo.DefaultVCpus,
		MemoryMiB:                *info.MemoryInfo.SizeInMiB,
	}
	if info.NetworkInfo != nil {
		record.EnaSupported = info.NetworkInfo.EnaSupport == ec2types.EnaSupportSupported ||
			info.NetworkInfo.EnaSupport == ec2types.EnaSupportRequired
		record.IPv6Supported = lo.FromPtr(info.NetworkInfo.Ipv6Supported)
		record.MaxNetworkInterfaces = lo.FromPtr(info.NetworkInfo.MaximumNetworkInterfaces)
	}
	if info.EbsInfo != nil && info.EbsInfo.NvmeSupport != "" {
		record.NvmeSupport = NvmeSupport(info.EbsInfo.NvmeSupport)
	}
	if info.Hypervisor != "" {
		record.Hypervisor = Hypervisor(info.Hypervisor)
	}
	if info.GpuInfo != nil {
		for _, gpu := range info.GpuInfo.Gpus {
			record.GpuCount += lo.FromPtr(gpu.Count)
		}
	}

	if err := record.Validate(); err != nil {
		return Record{}, err
	}
	return record, nil
}

// ParseArchitecture converts a string into a known CPU architecture
func ParseArchitecture(val string) (ec2types.ArchitectureType, error) {
	arch := ec2types.ArchitectureType(val)
	if !lo.Contains(arch.Values(), arch) {
		return "", fmt.Errorf("unknown architecture %q", val)
	}
	return arch, nil
}

// ParseVirtualizationType converts a string into a known virtualization type
func ParseVirtualizationType(val string) (ec2types.VirtualizationType, error) {
	vt := ec2types.VirtualizationType(val)
	if !lo.Contains(vt.Values(), vt) {
		return "", fmt.Errorf("unknown virtualization type %q", val)
	}
	return vt, nil
}

// ParseNvmeSupport converts a string into a NvmeSupport value
func ParseNvmeSupport(val string) (NvmeSupport, error) {
	switch nvme := NvmeSupport(val); nvme {
	case NvmeSupported, NvmeUnsupported, NvmeRequired:
		return nvme, nil
	}
	return "", fmt.Errorf("unknown nvme support %q", val)
}

// CompatibleWith returns true if both values are equal or both expose NVMe
func (n NvmeSupport) CompatibleWith(other NvmeSupport) bool {
	if n == other {
		return true
	}
	return n != NvmeUnsupported && other != NvmeUnsupported
}

// ParseHypervisor converts a string into a Hypervisor value
func ParseHypervisor(val string) (Hypervisor, error) {
	switch hv := Hypervisor(val); hv {
	case HypervisorNitro, HypervisorXen, HypervisorUnknown:
		return hv, nil
	}
	return "", fmt.Errorf("unknown hypervisor %q", val)
}

func normalizeVirtualizationTypes(vts []ec2types.VirtualizationType) []ec2types.VirtualizationType {
	normalized := lo.Uniq(vts)
	sort.Slice(normalized, func(i, j int) bool { return normalized[i] < normalized[j] })
	return normalized
}

func malformed(instanceType string, format string, args ...interface{}) error {
	return fmt.Errorf("%w %q: %s", ErrMalformedRecord, instanceType, fmt.Sprintf(format, args...))
}
