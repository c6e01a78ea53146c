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
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/catalog"
	commandline "github.com/aws/amazon-ec2-instance-interchange/pkg/cli"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/selector"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/selector/outputs"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/sorter"
)

const (
	defaultMaxResults = 3

	simpleOutput      = "simple"
	oneLine           = "one-line"
	tableOutput       = "table"
	tableWideOutput   = "table-wide"
	jsonOutput        = "json"
	yamlOutput        = "yaml"
	interactiveOutput = "interactive"
)

// Match Flag Constants
const (
	currentInstanceType = "current-instance-type"
	vcpus               = "vcpus"
	memory              = "memory"
	memoryMiB           = "memory-mib"
	gpus                = "gpus"
	matchRegion         = "match-region"
	storagePolicy       = "storage-policy"
	maxResults          = "max-results"
	output              = "output"
	sortBy              = "sort-by"
	sortDirection       = "sort-direction"
	withPricing         = "pricing"
	verbose             = "verbose"
)

var cliOutputTypes = []string{
	simpleOutput,
	oneLine,
	tableOutput,
	tableWideOutput,
	jsonOutput,
	yamlOutput,
	interactiveOutput,
}

func newMatchCLI(g *globalConfig) commandline.CommandLineInterface {
	shortUsage := "Rank the instance types that can replace a current instance type"
	longUsage := `Finds the instance types in the catalog that are hard compatible with the current instance type
(architecture, virtualization, ENA, IPv6, hypervisor, bare metal and NVMe) and offer at least the
requested vcpus, memory and GPUs. Candidates are ranked by how little capacity they waste.`
	examples := fmt.Sprintf(`%s match -t m5.large --vcpus 4 --memory 16gib
%s match -t c5.large --memory-mib 6144 --match-region us-west-2 -o table-wide --pricing
%s match -t g4dn.xlarge --gpus 1 --storage-policy penalize --max-results 0 -o interactive`, binName, binName, binName)

	cli := commandline.New("match", shortUsage, longUsage, examples, nil)
	cli.StringFlag(currentInstanceType, cli.StringMe("t"), nil, "Instance type to find replacements for (Example: m5.large)", func(val interface{}) error {
		if val == nil || *val.(*string) == "" {
			return fmt.Errorf("--%s is required", currentInstanceType)
		}
		return nil
	})
	cli.IntFlag(vcpus, cli.StringMe("c"), nil, "Minimum number of vcpus the replacement must have")
	cli.ByteQuantityFlag(memory, cli.StringMe("m"), nil, "Minimum amount of memory the replacement must have (Example: 16 GiB)")
	cli.IntFlag(memoryMiB, nil, nil, fmt.Sprintf("Minimum amount of memory in MiB, an alternative to --%s", memory))
	cli.IntFlag(gpus, cli.StringMe("g"), nil, "Minimum number of GPUs the replacement must have")
	cli.StringFlag(matchRegion, nil, nil, "Only match within this region (defaults to every region in the catalog)", nil)
	cli.StringOptionsFlag(storagePolicy, nil, cli.StringMe(string(selector.StoragePolicyStrict)), "How a difference in instance storage support is treated", selector.StoragePolicies)
	cli.IntFlag(maxResults, nil, cli.IntMe(defaultMaxResults), "The maximum number of candidates to return, 0 returns every candidate")
	cli.StringOptionsFlag(output, cli.StringMe("o"), cli.StringMe(simpleOutput), "Specify the output format", cliOutputTypes)
	cli.StringFlag(sortBy, nil, nil, fmt.Sprintf("Re-sort the ranked candidates by a field (%s) or a json path", strings.Join(sorter.Shorthands, ", ")), nil)
	cli.StringOptionsFlag(sortDirection, nil, cli.StringMe("ascending"), "Direction of --sort-by", []string{"ascending", "asc", "descending", "desc"})
	cli.BoolFlag(withPricing, nil, nil, "Annotate candidates with on-demand prices from the AWS Pricing API")
	cli.BoolFlag(verbose, cli.StringMe("v"), nil, "Verbose - will print out the match request")

	cli.Command.RunE = func(cmd *cobra.Command, args []string) error {
		flags, err := cli.ProcessFlags()
		if err != nil {
			return err
		}
		req, err := matchRequestFromFlags(&cli, flags)
		if err != nil {
			return err
		}
		return runMatch(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), g, req, matchOptions{
			output:        *cli.StringMe(flags[output]),
			sortBy:        cli.StringMe(flags[sortBy]),
			sortDirection: *cli.StringMe(flags[sortDirection]),
			pricing:       flags[withPricing] != nil && *cli.BoolMe(flags[withPricing]),
			verbose:       flags[verbose] != nil && *cli.BoolMe(flags[verbose]),
		})
	}
	return cli
}

type matchOptions struct {
	output        string
	sortBy        *string
	sortDirection string
	pricing       bool
	verbose       bool
}

func matchRequestFromFlags(cli *commandline.CommandLineInterface, flags map[string]interface{}) (selector.MatchRequest, error) {
	req := selector.MatchRequest{
		CurrentInstanceType: *cli.StringMe(flags[currentInstanceType]),
		Region:              cli.StringMe(flags[matchRegion]),
		StoragePolicy:       selector.StoragePolicy(*cli.StringMe(flags[storagePolicy])),
		MaxResults:          *cli.IntMe(flags[maxResults]),
	}
	if v := cli.IntMe(flags[vcpus]); v != nil {
		if *v > math.MaxInt32 {
			return req, outOfRange(vcpus, int64(*v), math.MaxInt32)
		}
		req.RequiredVCpus = int32(*v)
	}
	if v := cli.IntMe(flags[gpus]); v != nil {
		if *v > math.MaxInt32 {
			return req, outOfRange(gpus, int64(*v), math.MaxInt32)
		}
		req.RequiredGpus = int32(*v)
	}
	mem := cli.ByteQuantityMe(flags[memory])
	memMiB := cli.IntMe(flags[memoryMiB])
	if mem != nil && memMiB != nil {
		return req, fmt.Errorf("--%s and --%s are mutually exclusive", memory, memoryMiB)
	}
	if mem != nil {
		if mem.Quantity > math.MaxInt64 {
			return req, fmt.Errorf("invalid input for --%s: %d MiB is too large", memory, mem.Quantity)
		}
		req.RequiredMemoryMiB = int64(mem.Quantity)
	}
	if memMiB != nil {
		req.RequiredMemoryMiB = int64(*memMiB)
	}
	return req, req.Validate()
}

func outOfRange(name string, value int64, max int64) error {
	return fmt.Errorf("invalid input for --%s: %d is larger than the maximum of %d", name, value, max)
}

func runMatch(ctx context.Context, stdout, stderr io.Writer, g *globalConfig, req selector.MatchRequest, opts matchOptions) error {
	store, err := g.store(ctx)
	if err != nil {
		return err
	}
	c, err := store.Load(ctx)
	if errors.Is(err, catalog.ErrCatalogNotFound) {
		return fmt.Errorf("%w, run `%s refresh` to build it", err, binName)
	}
	if err != nil {
		return err
	}

	if opts.verbose {
		reqJSON, err := req.MarshalIndent("", "    ")
		if err != nil {
			return fmt.Errorf("an error occurred when printing the match request due to --%s being specified: %w", verbose, err)
		}
		note(stderr, "\n\n\"Request\": %s", string(reqJSON))
	}

	result, err := selector.New(c).FindCompatible(req)
	if err != nil {
		return err
	}
	candidates := result.Candidates
	if len(candidates) == 0 {
		note(stderr, "No instance type in the catalog can replace %s with the requested resources. Consider lowering --%s, --%s or --%s, or using --%s ignore.",
			req.CurrentInstanceType, vcpus, memory, gpus, storagePolicy)
		return nil
	}

	if opts.pricing {
		priceRegion := result.Source.Region
		if req.Region != nil {
			priceRegion = *req.Region
		}
		ec2Pricing, err := g.pricing(ctx, priceRegion)
		if err != nil {
			return err
		}
		candidates = ec2Pricing.Annotate(ctx, candidates)
		if err := ec2Pricing.Save(); err != nil {
			g.logger.Warn("unable to save the on-demand price cache", zap.Error(err))
		}
	}

	if opts.sortBy != nil {
		candidates, err = sorter.Sort(candidates, *opts.sortBy, opts.sortDirection)
		if err != nil {
			return fmt.Errorf("unable to sort candidates: %w", err)
		}
	}

	if opts.output == interactiveOutput {
		// honor NO_COLOR and CLICOLOR_FORCE
		lipgloss.SetColorProfile(termenv.NewOutput(os.Stdout).EnvColorProfile())
		p := tea.NewProgram(outputs.NewBubbleTeaModel(candidates), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("an error occurred in the interactive output: %w", err)
		}
		return nil
	}

	for _, line := range getOutputFn(opts.output)(candidates) {
		fmt.Fprintln(stdout, line)
	}
	if result.Truncated > 0 {
		note(stderr, "%d entries were truncated, increase --%s to see more", result.Truncated, maxResults)
	}
	return nil
}

func getOutputFn(outputFlag string) outputs.OutputFn {
	switch outputFlag {
	case oneLine:
		return outputs.OneLineOutput
	case tableOutput:
		return outputs.TableOutputShort
	case tableWideOutput:
		return outputs.TableOutputWide
	case jsonOutput:
		return outputs.VerboseInstanceTypeOutput
	case yamlOutput:
		return outputs.YAMLOutput
	}
	return outputs.SimpleInstanceTypeOutput
}
