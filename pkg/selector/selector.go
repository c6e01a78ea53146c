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

// Package selector finds instance types that can stand in for a given instance type.
// Matching runs entirely against an immutable catalog snapshot and performs no I/O.
package selector

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/catalog"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/instancetypes"
)

// Selector matches requests against a single catalog snapshot
type Selector struct {
	catalog *catalog.Catalog
}

// New creates a Selector over the catalog snapshot
func New(c *catalog.Catalog) *Selector {
	return &Selector{catalog: c}
}

// Catalog returns the snapshot the selector matches against
func (s *Selector) Catalog() *catalog.Catalog {
	return s.catalog
}

// FindCompatible returns the instance types which share the hardware class of the current instance
// type and meet the requested resources, ranked by the least surplus capacity first.
// An empty candidate list is not an error.
func (s *Selector) FindCompatible(req MatchRequest) (MatchResult, error) {
	if err := req.Validate(); err != nil {
		return MatchResult{}, err
	}
	policy := req.StoragePolicy
	if policy == "" {
		policy = StoragePolicyStrict
	}
	source, ok := s.catalog.Lookup(req.CurrentInstanceType, req.Region)
	if !ok {
		if req.Region != nil {
			if offered := s.catalog.OfferedIn(req.CurrentInstanceType); len(offered) > 0 {
				return MatchResult{}, fmt.Errorf("%w: %s in %s, offered in %s", ErrUnknownInstanceType,
					req.CurrentInstanceType, aws.ToString(req.Region), strings.Join(offered, ", "))
			}
			return MatchResult{}, fmt.Errorf("%w: %s in %s", ErrUnknownInstanceType, req.CurrentInstanceType, aws.ToString(req.Region))
		}
		return MatchResult{}, fmt.Errorf("%w: %s", ErrUnknownInstanceType, req.CurrentInstanceType)
	}

	candidates := []Candidate{}
	byType := map[string]int{}
	s.catalog.Each(func(record instancetypes.Record) bool {
		if req.Region != nil && record.Region != *req.Region {
			return true
		}
		if record.InstanceType == source.InstanceType {
			return true
		}
		compatible, storageMismatch := isCompatible(source, record, policy)
		if !compatible || !isSufficient(record, req) {
			return true
		}
		if i, ok := byType[record.InstanceType]; ok {
			candidates[i].Regions = append(candidates[i].Regions, record.Region)
			return true
		}
		byType[record.InstanceType] = len(candidates)
		candidates = append(candidates, Candidate{
			Record:          record,
			Slack:           slackOf(record, req),
			StorageMismatch: storageMismatch,
			Regions:         []string{record.Region},
		})
		return true
	})

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidateLess(candidates[i], candidates[j], policy)
	})
	result := MatchResult{Source: source, Request: req, Candidates: candidates}
	if req.MaxResults > 0 && len(candidates) > req.MaxResults {
		result.Truncated = len(candidates) - req.MaxResults
		result.Candidates = candidates[:req.MaxResults]
	}
	return result, nil
}
