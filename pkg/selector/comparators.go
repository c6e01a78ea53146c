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

package selector

import (
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/samber/lo"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/instancetypes"
)

// isCompatible checks the hardware class attributes of a candidate against the source.
// storageMismatch is reported when instance storage differs and the policy tolerates it.
func isCompatible(source, candidate instancetypes.Record, policy StoragePolicy) (compatible bool, storageMismatch bool) {
	if candidate.Architecture != source.Architecture ||
		!isSupportedFromVirtualizationTypes(source.VirtualizationTypes, candidate.VirtualizationTypes) ||
		candidate.EnaSupported != source.EnaSupported ||
		candidate.IPv6Supported != source.IPv6Supported ||
		candidate.Hypervisor != source.Hypervisor ||
		candidate.BareMetal != source.BareMetal ||
		!source.NvmeSupport.CompatibleWith(candidate.NvmeSupport) {
		return false, false
	}
	if candidate.InstanceStorageSupported == source.InstanceStorageSupported {
		return true, false
	}
	return policy != StoragePolicyStrict, true
}

// isSufficient returns true if the candidate has at least the requested resources
func isSufficient(candidate instancetypes.Record, req MatchRequest) bool {
	return isSupportedWithMinimum(int64(candidate.VCpus), int64(req.RequiredVCpus)) &&
		isSupportedWithMinimum(candidate.MemoryMiB, req.RequiredMemoryMiB) &&
		isSupportedWithMinimum(int64(candidate.GpuCount), int64(req.RequiredGpus))
}

func isSupportedFromVirtualizationTypes(source, target []ec2types.VirtualizationType) bool {
	return len(lo.Intersect(source, target)) > 0
}

func isSupportedWithMinimum(value, minimum int64) bool {
	return value >= minimum
}

func slackOf(candidate instancetypes.Record, req MatchRequest) Slack {
	return Slack{
		VCpus:     candidate.VCpus - req.RequiredVCpus,
		MemoryMiB: candidate.MemoryMiB - req.RequiredMemoryMiB,
		Gpus:      candidate.GpuCount - req.RequiredGpus,
	}
}

// candidateLess orders candidates best first
func candidateLess(a, b Candidate, policy StoragePolicy) bool {
	if policy == StoragePolicyPenalize && a.StorageMismatch != b.StorageMismatch {
		return !a.StorageMismatch
	}
	if a.Slack != b.Slack {
		return a.Slack.Less(b.Slack)
	}
	return a.Record.InstanceType < b.Record.InstanceType
}
