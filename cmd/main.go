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
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/awsapi"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/catalog"
	commandline "github.com/aws/amazon-ec2-instance-interchange/pkg/cli"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/ec2pricing"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/logging"
)

const (
	binName             = "ec2-instance-interchange"
	catalogEnvVar       = "EC2_INTERCHANGE_CATALOG"
	awsRegionEnvVar     = "AWS_REGION"
	defaultRegionEnvVar = "AWS_DEFAULT_REGION"
	awsConfigFile       = "~/.aws/config"
)

// Configuration Flag Constants
const (
	catalogLocation = "catalog"
	profile         = "profile"
	region          = "region"
	logLevel        = "log-level"
	logFormat       = "log-format"
)

var (
	// versionID is overridden at compilation with the version based on the git tag
	versionID = "dev"
)

func main() {
	cli := newRootCLI()
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalConfig holds what the config flags resolve to. It is filled in before any subcommand runs.
type globalConfig struct {
	catalogLocation string
	region          *string
	profile         *string
	logger          *zap.Logger

	awsConfig *aws.Config
}

func newRootCLI() commandline.CommandLineInterface {
	shortUsage := "A tool to find compatible replacements for an EC2 instance type"
	longUsage := binName + ` is a CLI tool that builds a catalog of EC2 instance types across regions
and ranks the instance types that can replace a current instance type with more resources.
The catalog is a CSV file kept locally or in S3. Run "` + binName + ` refresh" to build it.`
	examples := fmt.Sprintf(`%s refresh --regions us-east-1,us-west-2
%s match -t m5.large --vcpus 4 --memory 16gib
%s serve --listen :8080 --reload-interval 1h`, binName, binName, binName)

	g := &globalConfig{logger: zap.NewNop()}
	cli := commandline.New(binName, shortUsage, longUsage, examples, nil)
	cli.Command.Version = versionID

	// Configuration Flags - These are inherited by every subcommand and grouped at the bottom of the help flags

	cli.ConfigStringFlag(catalogLocation, nil, nil, fmt.Sprintf("Catalog location, a file path or s3://bucket/key (defaults to $%s or %s)", catalogEnvVar, catalog.DefaultLocation), nil)
	cli.ConfigStringFlag(profile, nil, nil, "AWS CLI profile to use for credentials and config", nil)
	cli.ConfigStringFlag(region, cli.StringMe("r"), nil, "AWS Region to use for API requests (NOTE: if not passed in, uses AWS SDK default precedence)", nil)
	cli.ConfigStringOptionsFlag(logLevel, nil, cli.StringMe(logging.DefaultLevel), fmt.Sprintf("Log level (%s)", strings.Join(logging.Levels, ", ")), logging.Levels)
	cli.ConfigStringOptionsFlag(logFormat, nil, cli.StringMe(logging.FormatConsole), fmt.Sprintf("Log format (%s)", strings.Join(logging.Formats, ", ")), logging.Formats)
	cli.SetUsageTemplate()

	cli.Command.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return g.load(&cli)
	}
	cli.Command.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		_ = g.logger.Sync()
	}

	cli.AddCommand(
		newRefreshCLI(g),
		newMatchCLI(g),
		newServeCLI(g),
		newRegionsCLI(g),
	)
	return cli
}

func (g *globalConfig) load(cli *commandline.CommandLineInterface) error {
	flags, err := cli.ProcessFlags()
	if err != nil {
		return fmt.Errorf("there was an error while parsing the commandline flags: %w", err)
	}
	logger, err := logging.New(*cli.StringMe(flags[logLevel]), *cli.StringMe(flags[logFormat]))
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	g.logger = logger
	g.region = cli.StringMe(flags[region])
	g.profile = cli.StringMe(flags[profile])
	g.catalogLocation = resolveCatalogLocation(cli.StringMe(flags[catalogLocation]))
	return nil
}

// resolveCatalogLocation prefers the flag, then the environment, then the default location
func resolveCatalogLocation(flagValue *string) string {
	if flagValue != nil && *flagValue != "" {
		return *flagValue
	}
	if location, ok := os.LookupEnv(catalogEnvVar); ok && location != "" {
		return location
	}
	return catalog.DefaultLocation
}

// loadAWSConfig loads the SDK config once per invocation
func (g *globalConfig) loadAWSConfig(ctx context.Context) (aws.Config, error) {
	if g.awsConfig != nil {
		return *g.awsConfig, nil
	}
	var opts []func(*config.LoadOptions) error
	if g.region != nil && *g.region != "" {
		opts = append(opts, config.WithRegion(*g.region))
	}
	if g.profile != nil && *g.profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(*g.profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load AWS config: %w", err)
	}
	if cfg.Region == "" {
		defaultRegion, ok := os.LookupEnv(defaultRegionEnvVar)
		if !ok || defaultRegion == "" {
			return aws.Config{}, regionNotFoundError(g.profile != nil)
		}
		cfg.Region = defaultRegion
	}
	g.awsConfig = &cfg
	return cfg, nil
}

func regionNotFoundError(withProfile bool) error {
	errorMsg := "Unable to find a region in the usual places: \n"
	errorMsg = errorMsg + fmt.Sprintf("\t - --%s flag\n", region)
	errorMsg = errorMsg + fmt.Sprintf("\t - %s environment variable\n", awsRegionEnvVar)
	if withProfile {
		errorMsg = errorMsg + fmt.Sprintf("\t - profile region in %s\n", awsConfigFile)
	}
	errorMsg = errorMsg + fmt.Sprintf("\t - default profile region in %s\n", awsConfigFile)
	errorMsg = errorMsg + fmt.Sprintf("\t - %s environment variable\n", defaultRegionEnvVar)
	return fmt.Errorf("%s", errorMsg)
}

// store opens the catalog store. AWS config is only loaded for S3 locations.
func (g *globalConfig) store(ctx context.Context) (catalog.Store, error) {
	if !catalog.IsS3Location(g.catalogLocation) {
		return catalog.NewStore(g.catalogLocation, nil)
	}
	cfg, err := g.loadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.NewStore(g.catalogLocation, s3.NewFromConfig(cfg))
}

// pricing returns an on-demand price annotator for region backed by the local price cache
func (g *globalConfig) pricing(ctx context.Context, priceRegion string) (*ec2pricing.EC2Pricing, error) {
	cfg, err := g.loadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	client := awsapi.NewPricingClient(cfg, ec2pricing.PricingAPIRegion)
	return ec2pricing.New(ctx, client, priceRegion, ec2pricing.DefaultCacheTTL, ec2pricing.DefaultCacheDir, g.logger), nil
}

func note(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "NOTE: "+format+"\n", args...)
}
