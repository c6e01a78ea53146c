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

package cli_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/bytequantity"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/cli"
	h "github.com/aws/amazon-ec2-instance-interchange/pkg/test"
)

// Helpers

func getTestCLI() cli.CommandLineInterface {
	runFunc := func(cmd *cobra.Command, args []string) error { return nil }
	return cli.New("test", "test short usage", "test long usage", "test examples", runFunc)
}

// Tests

func TestValidateFlags(t *testing.T) {
	// Nil validator should succeed validation
	cli := getTestCLI()
	flagName := "test-flag"
	cli.StringFlag(flagName, nil, nil, "Test String w/o validation", nil)
	err := cli.ValidateFlags()
	h.Ok(t, err)

	// Validator which returns nil error should succeed validation
	cli = getTestCLI()
	cli.StringFlag(flagName, nil, nil, "Test String w/ successful validation", func(val interface{}) error {
		return nil
	})
	err = cli.ValidateFlags()
	h.Ok(t, err)

	// Validator which returns error should fail validation
	cli = getTestCLI()
	cli.StringFlag(flagName, nil, nil, "Test String w/ validation failure", func(val interface{}) error {
		return fmt.Errorf("validation failed")
	})
	err = cli.ValidateFlags()
	h.Nok(t, err)
}

func TestParseFlags(t *testing.T) {
	cli := getTestCLI()
	flagName := "test-flag"
	flagArg := fmt.Sprintf("--%s", flagName)
	cli.StringFlag(flagName, nil, nil, "Test String w/o validation", nil)
	flags, err := cli.ParseFlags([]string{flagArg, "test"})
	h.Ok(t, err)
	flagOutput := flags[flagName].(*string)
	h.Assert(t, *flagOutput == "test", "Flag %s should have been parsed", flagArg)
}

func TestParseFlags_Shorthand(t *testing.T) {
	cli := getTestCLI()
	cli.IntFlag("test-int", cli.StringMe("i"), nil, "Test Int")
	flags, err := cli.ParseFlags([]string{"-i", "7"})
	h.Ok(t, err)
	h.Equals(t, 7, *flags["test-int"].(*int))
}

func TestParseFlags_RootErr(t *testing.T) {
	cli := getTestCLI()
	_, err := cli.ParseFlags([]string{"--test", "test"})
	h.Nok(t, err)
}

func TestParseFlags_ConfigFlags(t *testing.T) {
	cli := getTestCLI()
	flagName := "test-flag"
	flagArg := fmt.Sprintf("--%s", flagName)
	cli.ConfigBoolFlag(flagName, nil, nil, "Test Config Flag")
	flags, err := cli.ParseFlags([]string{flagArg})
	h.Ok(t, err)
	flagOutput := flags[flagName].(*bool)
	h.Assert(t, *flagOutput == true, "Config Flag %s should have been parsed", flagArg)
}

func TestParseFlags_UntouchedFlags(t *testing.T) {
	cli := getTestCLI()
	flagName := "test-flag"
	flagArg := fmt.Sprintf("--%s", flagName)

	cli.BoolFlag(flagName, nil, nil, "Test Filter Flag")
	flags, err := cli.ParseFlags([]string{})
	h.Ok(t, err)
	val, ok := flags[flagName]
	h.Assert(t, ok, "Flag %s should exist in flags map", flagArg)
	h.Assert(t, val == nil, "Flag %s should be set to nil when not explicitly set", flagArg)
	h.Assert(t, !cli.IsSet(flagName), "Flag %s should not be reported as set", flagArg)
}

func TestParseFlags_UntouchedFlagsAllTypes(t *testing.T) {
	cli := getTestCLI()
	names := []string{"test-int", "test-string", "test-config", "test-slice", "test-duration", "test-memory", "test-options"}

	cli.IntFlag(names[0], nil, nil, "Test Int Flag")
	cli.StringFlag(names[1], nil, nil, "Test String Flag", nil)
	cli.ConfigStringFlag(names[2], nil, nil, "Test Config Flag", nil)
	cli.StringSliceFlag(names[3], nil, nil, "Test Slice Flag")
	cli.DurationFlag(names[4], nil, nil, "Test Duration Flag")
	cli.ByteQuantityFlag(names[5], nil, nil, "Test Byte Quantity Flag")
	cli.StringOptionsFlag(names[6], nil, nil, "Test Options Flag", []string{"a", "b"})

	flags, err := cli.ParseAndValidateFlags([]string{})
	h.Ok(t, err)
	for _, name := range names {
		val, ok := flags[name]
		h.Assert(t, ok, "Flag %s should exist in flags map", name)
		h.Assert(t, val == nil, "Flag %s should be set to nil when not explicitly set", name)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	cli := getTestCLI()
	cli.IntFlag("max-results", nil, cli.IntMe(3), "Max results")
	cli.DurationFlag("timeout", nil, cli.DurationMe(2*time.Minute), "Timeout")
	cli.StringSliceFlag("regions", nil, []string{"us-east-1"}, "Regions")
	cli.ByteQuantityFlag("memory", nil, cli.ByteQuantityMe(bytequantity.FromGiB(1)), "Memory")

	flags, err := cli.ParseAndValidateFlags([]string{})
	h.Ok(t, err)
	h.Equals(t, 3, *cli.IntMe(flags["max-results"]))
	h.Equals(t, 2*time.Minute, *cli.DurationMe(flags["timeout"]))
	h.Equals(t, []string{"us-east-1"}, *cli.StringSliceMe(flags["regions"]))
	h.Equals(t, uint64(1024), cli.ByteQuantityMe(flags["memory"]).Quantity)
}

func TestParseFlags_ByteQuantity(t *testing.T) {
	for arg, expectedMiB := range map[string]uint64{"16": 16384, "16gib": 16384, "512mb": 512, "1.5 gb": 1536, "1t": 1048576} {
		cli := getTestCLI()
		cli.ByteQuantityFlag("memory", cli.StringMe("m"), nil, "Memory")
		flags, err := cli.ParseAndValidateFlags([]string{"--memory", arg})
		h.Ok(t, err)
		h.Equals(t, expectedMiB, cli.ByteQuantityMe(flags["memory"]).Quantity)
	}

	cli := getTestCLI()
	cli.ByteQuantityFlag("memory", nil, nil, "Memory")
	_, err := cli.ParseAndValidateFlags([]string{"--memory", "lots"})
	h.Nok(t, err)
}

func TestParseFlags_StringOptions(t *testing.T) {
	cli := getTestCLI()
	cli.StringOptionsFlag("output", cli.StringMe("o"), cli.StringMe("simple"), "Output", []string{"simple", "table-wide"})
	flags, err := cli.ParseAndValidateFlags([]string{"-o", "TABLE-WIDE"})
	h.Ok(t, err)
	h.Equals(t, "table-wide", *cli.StringMe(flags["output"]))

	cli = getTestCLI()
	cli.StringOptionsFlag("output", nil, cli.StringMe("simple"), "Output", []string{"simple", "table-wide"})
	_, err = cli.ParseAndValidateFlags([]string{"--output", "csv"})
	h.Nok(t, err)
}

func TestParseAndValidateFlags_Negative(t *testing.T) {
	cli := getTestCLI()
	cli.IntFlag("vcpus", nil, nil, "vcpus")
	_, err := cli.ParseAndValidateFlags([]string{"--vcpus", "-1"})
	h.Nok(t, err)

	cli = getTestCLI()
	cli.DurationFlag("timeout", nil, nil, "timeout")
	_, err = cli.ParseAndValidateFlags([]string{"--timeout", "-1s"})
	h.Nok(t, err)
}

func TestSubcommandInheritsConfigFlags(t *testing.T) {
	root := getTestCLI()
	root.ConfigStringFlag("catalog", nil, root.StringMe("~/catalog.csv"), "Catalog location", nil)
	root.ConfigStringFlag("profile", nil, nil, "Profile", nil)

	var rootFlags, subFlags map[string]interface{}
	var rootErr, subErr error
	sub := cli.New("match", "match", "match", "", nil)
	sub.StringFlag("current-instance-type", sub.StringMe("t"), nil, "Current instance type", nil)
	sub.Command.RunE = func(cmd *cobra.Command, args []string) error {
		rootFlags, rootErr = root.ProcessFlags()
		subFlags, subErr = sub.ProcessFlags()
		return nil
	}
	root.AddCommand(sub)
	root.Command.SetArgs([]string{"match", "--catalog", "s3://bucket/catalog.csv", "-t", "m5.large"})
	h.Ok(t, root.Execute())
	h.Ok(t, rootErr)
	h.Ok(t, subErr)
	h.Equals(t, "s3://bucket/catalog.csv", *root.StringMe(rootFlags["catalog"]))
	h.Assert(t, rootFlags["profile"] == nil, "unset config flag should be nil")
	h.Equals(t, "m5.large", *sub.StringMe(subFlags["current-instance-type"]))
}
