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
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/awsapi"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/catalog"
	commandline "github.com/aws/amazon-ec2-instance-interchange/pkg/cli"
)

// Refresh Flag Constants
const (
	regions       = "regions"
	concurrency   = "concurrency"
	regionTimeout = "region-timeout"
)

func newRefreshCLI(g *globalConfig) commandline.CommandLineInterface {
	shortUsage := "Build the instance type catalog from every region"
	longUsage := `Describes the instance types offered in every requested region and writes them to the catalog.
Regions that cannot be queried are skipped and reported. The previous catalog is only replaced
when at least one region was available.`
	examples := fmt.Sprintf(`%s refresh
%s refresh --regions us-east-1,us-west-2 --catalog s3://my-bucket/catalog.csv`, binName, binName)

	cli := commandline.New("refresh", shortUsage, longUsage, examples, nil)
	cli.StringSliceFlag(regions, nil, nil, "Regions to include (defaults to every region enabled for the account)")
	cli.IntFlag(concurrency, nil, cli.IntMe(catalog.DefaultConcurrency), "Number of regions queried at the same time")
	cli.DurationFlag(regionTimeout, nil, cli.DurationMe(catalog.DefaultRegionTimeout), "Time allowed to describe a single region")

	cli.Command.RunE = func(cmd *cobra.Command, args []string) error {
		flags, err := cli.ProcessFlags()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		cfg, err := g.loadAWSConfig(ctx)
		if err != nil {
			return err
		}
		store, err := g.store(ctx)
		if err != nil {
			return err
		}
		var requested []string
		if r := cli.StringSliceMe(flags[regions]); r != nil {
			requested = *r
		}
		builder := &catalog.Builder{
			ClientFactory: awsapi.NewClientFactory(cfg),
			Store:         store,
			Logger:        g.logger,
			Concurrency:   *cli.IntMe(flags[concurrency]),
			RegionTimeout: *cli.DurationMe(flags[regionTimeout]),
		}
		return runRefresh(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), builder, cfg.Region, requested)
	}
	return cli
}

// runRefresh builds the catalog. When no regions are requested they are discovered from homeRegion.
func runRefresh(ctx context.Context, stdout, stderr io.Writer, builder *catalog.Builder, homeRegion string, requested []string) error {
	start := time.Now()
	if len(requested) == 0 {
		discovered, err := catalog.DiscoverRegions(ctx, builder.ClientFactory(homeRegion))
		if err != nil {
			return err
		}
		requested = discovered
	}
	report, err := builder.Build(ctx, requested)
	if err != nil {
		return err
	}
	location := "memory"
	if builder.Store != nil {
		location = builder.Store.Location()
	}
	fmt.Fprintf(stdout, "Wrote %d instance types from %d regions to %s in %s\n",
		report.Catalog.Len(), len(report.Regions), location, time.Since(start).Round(time.Millisecond))
	if skipped := report.SkippedRegions(); len(skipped) > 0 {
		note(stderr, "%d regions were skipped: %s", len(skipped), strings.Join(skipped, ", "))
	}
	if len(report.Quarantined) > 0 {
		note(stderr, "%d malformed or duplicate instance types were left out of the catalog", len(report.Quarantined))
		if builder.Logger != nil {
			builder.Logger.Debug("build warnings", zap.Error(report.Warnings()))
		}
	}
	return nil
}
