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

// Package catalog builds, persists and loads the per-region instance type catalog.
// A Catalog is an immutable snapshot; a refresh always produces a new one.
package catalog

import (
	"fmt"
	"slices"
	"sort"

	"github.com/samber/lo"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/instancetypes"
)

// Catalog is an immutable snapshot of instance type records keyed by (region, instance type)
type Catalog struct {
	records     []instancetypes.Record
	byKey       map[string]int
	byType      map[string][]int
	regions     []string
	quarantined []error
}

// New validates the records and returns a snapshot sorted by region and instance type.
// The records are copied so later changes to the passed in slice are not observed.
func New(records []instancetypes.Record) (*Catalog, error) {
	return newCatalog(records, nil)
}

func newCatalog(records []instancetypes.Record, quarantined []error) (*Catalog, error) {
	sorted := make([]instancetypes.Record, 0, len(records))
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return nil, err
		}
		record.VirtualizationTypes = slices.Clone(record.VirtualizationTypes)
		record.OndemandPricePerHour = nil
		sorted = append(sorted, record)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Region != sorted[j].Region {
			return sorted[i].Region < sorted[j].Region
		}
		return sorted[i].InstanceType < sorted[j].InstanceType
	})

	c := &Catalog{
		records:     sorted,
		byKey:       make(map[string]int, len(sorted)),
		byType:      map[string][]int{},
		quarantined: quarantined,
	}
	for i, record := range sorted {
		if _, ok := c.byKey[record.Key()]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRecord, record.Key())
		}
		c.byKey[record.Key()] = i
		c.byType[record.InstanceType] = append(c.byType[record.InstanceType], i)
	}
	c.regions = lo.Uniq(lo.Map(sorted, func(r instancetypes.Record, _ int) string { return r.Region }))
	return c, nil
}

// Len returns the number of records in the catalog
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

// Regions returns the sorted list of regions present in the catalog
func (c *Catalog) Regions() []string {
	return slices.Clone(c.regions)
}

// Records returns a copy of every record, sorted by region and instance type
func (c *Catalog) Records() []instancetypes.Record {
	out := make([]instancetypes.Record, 0, len(c.records))
	c.Each(func(r instancetypes.Record) bool {
		out = append(out, r)
		return true
	})
	return out
}

// Each calls fn for every record in catalog order until fn returns false
func (c *Catalog) Each(fn func(instancetypes.Record) bool) {
	for _, record := range c.records {
		record.VirtualizationTypes = slices.Clone(record.VirtualizationTypes)
		if !fn(record) {
			return
		}
	}
}

// Lookup resolves an instance type to its record. When region is nil the record from the
// first region (in sorted order) offering the instance type is returned.
func (c *Catalog) Lookup(instanceType string, region *string) (instancetypes.Record, bool) {
	if region != nil {
		i, ok := c.byKey[*region+"/"+instanceType]
		if !ok {
			return instancetypes.Record{}, false
		}
		return c.at(i), true
	}
	indices := c.byType[instanceType]
	if len(indices) == 0 {
		return instancetypes.Record{}, false
	}
	return c.at(indices[0]), true
}

// OfferedIn returns the sorted regions where the instance type is offered
func (c *Catalog) OfferedIn(instanceType string) []string {
	return lo.Map(c.byType[instanceType], func(i int, _ int) string { return c.records[i].Region })
}

// Quarantined returns the problems found with rows that were left out of the catalog
func (c *Catalog) Quarantined() []error {
	return slices.Clone(c.quarantined)
}

func (c *Catalog) at(i int) instancetypes.Record {
	record := c.records[i]
	record.VirtualizationTypes = slices.Clone(record.VirtualizationTypes)
	return record
}
