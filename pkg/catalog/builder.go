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
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/awsapi"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/instancetypes"
)

const (
	// DefaultConcurrency is the number of regions fetched at the same time
	DefaultConcurrency = 4
	// DefaultRegionTimeout bounds all calls made to a single region
	DefaultRegionTimeout = 2 * time.Minute
)

// Builder fetches instance types from every requested region and persists the assembled catalog
type Builder struct {
	ClientFactory awsapi.ClientFactory
	Store         Store
	Logger        *zap.Logger
	Concurrency   int
	RegionTimeout time.Duration
}

// BuildReport summarizes a catalog build
type BuildReport struct {
	Catalog *Catalog
	// Regions that contributed records
	Regions []string
	// Skipped holds a *RegionUnavailableError per region that could not be queried
	Skipped []error
	// Quarantined holds a wrapped instancetypes.ErrMalformedRecord or ErrDuplicateRecord per rejected row
	Quarantined []error
}

// Warnings combines every non fatal problem found during the build
func (r *BuildReport) Warnings() error {
	return multierr.Combine(append(append([]error{}, r.Skipped...), r.Quarantined...)...)
}

// SkippedRegions returns the names of the regions that were skipped
func (r *BuildReport) SkippedRegions() []string {
	return lo.FilterMap(r.Skipped, func(err error, _ int) (string, bool) {
		var regionErr *RegionUnavailableError
		if errors.As(err, &regionErr) {
			return regionErr.Region, true
		}
		return "", false
	})
}

type regionResult struct {
	region      string
	records     []instancetypes.Record
	quarantined []error
}

// Build queries every region, assembles a new catalog snapshot and writes it to the store.
// Regions that cannot be queried are skipped and reported. The build fails only when no region
// was available or the store write fails.
func (b *Builder) Build(ctx context.Context, regions []string) (*BuildReport, error) {
	if b.ClientFactory == nil {
		return nil, fmt.Errorf("a client factory is required to build a catalog")
	}
	logger := b.logger()
	regions = lo.Uniq(regions)
	sort.Strings(regions)
	if len(regions) == 0 {
		return nil, ErrNoRegionsAvailable
	}

	var (
		mu      sync.Mutex
		results []regionResult
		skipped []error
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(b.concurrency())
	for _, region := range regions {
		region := region
		eg.Go(func() error {
			start := time.Now()
			result, err := b.fetchRegion(egCtx, region)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				regionErr := newRegionUnavailableError(region, err)
				logger.Warn("skipping region",
					zap.String("region", region),
					zap.String("reason", regionErr.Reason),
					zap.Error(err))
				skipped = append(skipped, regionErr)
				return nil
			}
			logger.Debug("fetched region",
				zap.String("region", region),
				zap.Int("records", len(result.records)),
				zap.Int("quarantined", len(result.quarantined)),
				zap.Duration("duration", time.Since(start)))
			results = append(results, result)
			return nil
		})
	}
	// region failures are collected, never returned to the group
	_ = eg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &BuildReport{Skipped: sortSkipped(skipped)}, fmt.Errorf("%w: %d of %d regions skipped", ErrNoRegionsAvailable, len(skipped), len(regions))
	}

	sort.Slice(results, func(i, j int) bool { return results[i].region < results[j].region })
	var records []instancetypes.Record
	var quarantined []error
	for _, result := range results {
		records = append(records, result.records...)
		quarantined = append(quarantined, result.quarantined...)
	}
	for _, err := range quarantined {
		logger.Warn("quarantined malformed instance type", zap.Error(err))
	}
	snapshot, err := newCatalog(records, quarantined)
	if err != nil {
		return nil, err
	}
	report := &BuildReport{
		Catalog:     snapshot,
		Regions:     lo.Map(results, func(r regionResult, _ int) string { return r.region }),
		Skipped:     sortSkipped(skipped),
		Quarantined: quarantined,
	}
	if b.Store != nil {
		if err := b.Store.Save(ctx, snapshot); err != nil {
			return report, err
		}
		logger.Info("catalog written",
			zap.String("location", b.Store.Location()),
			zap.Int("records", snapshot.Len()),
			zap.Strings("regions", report.Regions),
			zap.Strings("skipped", report.SkippedRegions()))
	}
	return report, nil
}

func (b *Builder) fetchRegion(ctx context.Context, region string) (regionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, b.regionTimeout())
	defer cancel()
	result := regionResult{region: region}
	client := b.ClientFactory(region)
	paginator := ec2.NewDescribeInstanceTypesPaginator(client, &ec2.DescribeInstanceTypesInput{})
	seen := map[string]bool{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return regionResult{}, err
		}
		for _, info := range page.InstanceTypes {
			record, err := instancetypes.FromInstanceTypeInfo(region, info)
			if err != nil {
				result.quarantined = append(result.quarantined, fmt.Errorf("%s: %w", region, err))
				continue
			}
			// the first row wins, a repeat across pages must not fail the whole refresh
			if seen[record.InstanceType] {
				result.quarantined = append(result.quarantined, fmt.Errorf("%s: %w: %s", region, ErrDuplicateRecord, record.Key()))
				continue
			}
			seen[record.InstanceType] = true
			result.records = append(result.records, record)
		}
	}
	return result, nil
}

func (b *Builder) logger() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}

func (b *Builder) concurrency() int {
	if b.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return b.Concurrency
}

func (b *Builder) regionTimeout() time.Duration {
	if b.RegionTimeout <= 0 {
		return DefaultRegionTimeout
	}
	return b.RegionTimeout
}

func sortSkipped(skipped []error) []error {
	sort.Slice(skipped, func(i, j int) bool {
		return skipped[i].(*RegionUnavailableError).Region < skipped[j].(*RegionUnavailableError).Region
	})
	return skipped
}
