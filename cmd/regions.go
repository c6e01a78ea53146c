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

	"github.com/spf13/cobra"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/awsapi"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/catalog"
	commandline "github.com/aws/amazon-ec2-instance-interchange/pkg/cli"
)

func newRegionsCLI(g *globalConfig) commandline.CommandLineInterface {
	shortUsage := "List the regions refresh would query"
	examples := fmt.Sprintf(`%s regions --profile prod`, binName)
	cli := commandline.New("regions", shortUsage, shortUsage, examples, nil)
	cli.Command.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := g.loadAWSConfig(ctx)
		if err != nil {
			return err
		}
		discovered, err := catalog.DiscoverRegions(ctx, awsapi.NewClientFactory(cfg)(cfg.Region))
		if err != nil {
			return err
		}
		for _, r := range discovered {
			fmt.Fprintln(cmd.OutOrStdout(), r)
		}
		return nil
	}
	return cli
}
