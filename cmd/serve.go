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
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	commandline "github.com/aws/amazon-ec2-instance-interchange/pkg/cli"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/server"
)

// Serve Flag Constants
const (
	listen         = "listen"
	reloadInterval = "reload-interval"
	memoTTL        = "memo-ttl"
)

func newServeCLI(g *globalConfig) commandline.CommandLineInterface {
	shortUsage := "Serve compatibility matches over HTTP"
	longUsage := `Loads the catalog and answers match requests on /v1/compatible.
POST /v1/catalog/reload swaps in the latest catalog without restarting. Prometheus metrics are
served on /metrics and /healthz reports whether a catalog is loaded.`
	examples := fmt.Sprintf(`%s serve
%s serve --listen :9090 --reload-interval 1h --pricing`, binName, binName)

	cli := commandline.New("serve", shortUsage, longUsage, examples, nil)
	cli.StringFlag(listen, nil, cli.StringMe(server.DefaultListenAddress), "Address to listen on", nil)
	cli.DurationFlag(reloadInterval, nil, nil, "Reload the catalog periodically (disabled by default)")
	cli.DurationFlag(memoTTL, nil, cli.DurationMe(server.DefaultMemoTTL), "How long match results are memoized")
	cli.BoolFlag(withPricing, nil, nil, "Annotate candidates with on-demand prices for the home region")

	cli.Command.RunE = func(cmd *cobra.Command, args []string) error {
		flags, err := cli.ProcessFlags()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := g.store(ctx)
		if err != nil {
			return err
		}
		opts := server.Options{
			Store:   store,
			Logger:  g.logger,
			MemoTTL: *cli.DurationMe(flags[memoTTL]),
		}
		if d := cli.DurationMe(flags[reloadInterval]); d != nil {
			opts.ReloadInterval = *d
		}
		if flags[withPricing] != nil && *cli.BoolMe(flags[withPricing]) {
			cfg, err := g.loadAWSConfig(ctx)
			if err != nil {
				return err
			}
			ec2Pricing, err := g.pricing(ctx, cfg.Region)
			if err != nil {
				return err
			}
			if err := ec2Pricing.RefreshOnDemandCache(ctx); err != nil {
				g.logger.Warn("unable to warm the on-demand price cache", zap.Error(err))
			} else if err := ec2Pricing.Save(); err != nil {
				g.logger.Warn("unable to save the on-demand price cache", zap.Error(err))
			}
			opts.Pricing = ec2Pricing
		}
		srv := server.New(opts)
		if _, err := srv.Reload(ctx); err != nil {
			g.logger.Warn("initial catalog load failed, match requests return 503 until a reload succeeds",
				zap.Error(err))
		}
		return srv.Run(ctx, *cli.StringMe(flags[listen]))
	}
	return cli
}
