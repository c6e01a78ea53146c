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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/instancetypes"
)

var (
	// ErrUnknownInstanceType is returned when the current instance type is not in the catalog
	ErrUnknownInstanceType = errors.New("unknown instance type")
	// ErrInvalidRequest is returned when a MatchRequest fails validation
	ErrInvalidRequest = errors.New("invalid match request")
)

// StoragePolicy controls how a difference in instance storage support between the current
// instance type and a candidate is treated
type StoragePolicy string

const (
	// StoragePolicyStrict excludes candidates whose instance storage support differs
	StoragePolicyStrict StoragePolicy = "strict"
	// StoragePolicyPenalize keeps mismatched candidates but ranks them after every matching candidate
	StoragePolicyPenalize StoragePolicy = "penalize"
	// StoragePolicyIgnore keeps mismatched candidates without affecting their rank
	StoragePolicyIgnore StoragePolicy = "ignore"
)

// StoragePolicies lists the accepted storage policies
var StoragePolicies = []string{string(StoragePolicyStrict), string(StoragePolicyPenalize), string(StoragePolicyIgnore)}

// MatchRequest is the input to FindCompatible
type MatchRequest struct {
	// CurrentInstanceType is the instance type to find replacements for
	CurrentInstanceType string `json:"current_instance_type"`
	// Region restricts the source and candidates to a single region. When nil every region is considered.
	Region            *string       `json:"region,omitempty"`
	RequiredVCpus     int32         `json:"required_vcpus"`
	RequiredMemoryMiB int64         `json:"required_memory_mib"`
	RequiredGpus      int32         `json:"required_gpus"`
	StoragePolicy     StoragePolicy `json:"storage_policy,omitempty"`
	// MaxResults limits the number of candidates returned. 0 returns every candidate.
	MaxResults int `json:"max_results,omitempty"`
}

// MatchResult holds the ranked candidates for a MatchRequest
type MatchResult struct {
	Source     instancetypes.Record `json:"source"`
	Request    MatchRequest         `json:"request"`
	Candidates []Candidate          `json:"candidates"`
	// Truncated is the number of ranked candidates left out because of MaxResults
	Truncated int `json:"truncated"`
}

// Candidate is an instance type that can replace the current instance type
type Candidate struct {
	Record instancetypes.Record `json:"record"`
	Slack  Slack                `json:"slack"`
	// StorageMismatch is true when instance storage support differs from the current instance type
	StorageMismatch bool `json:"storage_mismatch"`
	// Regions offering the candidate that satisfied the request
	Regions []string `json:"regions"`
}

// Slack is the capacity a candidate has over the requested resources
type Slack struct {
	VCpus     int32 `json:"vcpus"`
	MemoryMiB int64 `json:"memory_mib"`
	Gpus      int32 `json:"gpus"`
}

// Less compares slack lexicographically by vcpus, memory and then gpus
func (s Slack) Less(other Slack) bool {
	if s.VCpus != other.VCpus {
		return s.VCpus < other.VCpus
	}
	if s.MemoryMiB != other.MemoryMiB {
		return s.MemoryMiB < other.MemoryMiB
	}
	return s.Gpus < other.Gpus
}

// Best returns the top ranked candidate, or false if there are none
func (r MatchResult) Best() (Candidate, bool) {
	if len(r.Candidates) == 0 {
		return Candidate{}, false
	}
	return r.Candidates[0], true
}

// InstanceTypes returns the ranked candidate instance type names
func (r MatchResult) InstanceTypes() []string {
	names := make([]string, 0, len(r.Candidates))
	for _, c := range r.Candidates {
		names = append(names, c.Record.InstanceType)
	}
	return names
}

// Validate checks a request and returns an error wrapping ErrInvalidRequest if it cannot be served
func (r MatchRequest) Validate() error {
	switch {
	case r.CurrentInstanceType == "":
		return fmt.Errorf("%w: current instance type is required", ErrInvalidRequest)
	case r.RequiredVCpus < 0:
		return fmt.Errorf("%w: required vcpus must not be negative, got %d", ErrInvalidRequest, r.RequiredVCpus)
	case r.RequiredMemoryMiB < 0:
		return fmt.Errorf("%w: required memory must not be negative, got %d MiB", ErrInvalidRequest, r.RequiredMemoryMiB)
	case r.RequiredGpus < 0:
		return fmt.Errorf("%w: required gpus must not be negative, got %d", ErrInvalidRequest, r.RequiredGpus)
	case r.MaxResults < 0:
		return fmt.Errorf("%w: max results must not be negative, got %d", ErrInvalidRequest, r.MaxResults)
	case r.Region != nil && *r.Region == "":
		return fmt.Errorf("%w: region must not be empty when set", ErrInvalidRequest)
	}
	switch r.StoragePolicy {
	case "", StoragePolicyStrict, StoragePolicyPenalize, StoragePolicyIgnore:
		return nil
	}
	return fmt.Errorf("%w: unknown storage policy %q, expected one of %v", ErrInvalidRequest, r.StoragePolicy, StoragePolicies)
}

// MarshalIndent is used to return a pretty-print json representation of the request
func (r MatchRequest) MarshalIndent(prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(r, prefix, indent)
}
