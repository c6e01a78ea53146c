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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/smithy-go"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/awsapi"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/catalog"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/selector"
	h "github.com/aws/amazon-ec2-instance-interchange/pkg/test"
)

const (
	mockFilesPath  = "../test/static"
	catalogFixture = mockFilesPath + "/catalog/two_regions.csv"
)

// Helpers

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cli := newRootCLI()
	var stdout, stderr bytes.Buffer
	cli.Command.SetArgs(append(args, "--log-level", "error"))
	cli.Command.SetOut(&stdout)
	cli.Command.SetErr(&stderr)
	err := cli.Execute()
	return stdout.String(), stderr.String(), err
}

type mockedEC2 struct {
	awsapi.CatalogSourceInterface
	DescribeInstanceTypesResp ec2.DescribeInstanceTypesOutput
	DescribeRegionsResp       ec2.DescribeRegionsOutput
	DescribeRegionsErr        error
}

func (m mockedEC2) DescribeInstanceTypes(ctx context.Context, input *ec2.DescribeInstanceTypesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstanceTypesOutput, error) {
	return &m.DescribeInstanceTypesResp, nil
}

func (m mockedEC2) DescribeRegions(ctx context.Context, input *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error) {
	return &m.DescribeRegionsResp, m.DescribeRegionsErr
}

func readMock(t *testing.T, api string, file string, v interface{}) {
	mockFilename := fmt.Sprintf("%s/%s/%s", mockFilesPath, api, file)
	mockFile, err := os.ReadFile(mockFilename)
	h.Assert(t, err == nil, "Error reading mock file "+mockFilename)
	h.Assert(t, json.Unmarshal(mockFile, v) == nil, "Error parsing mock json file contents "+mockFilename)
}

func mockFactory(t *testing.T) awsapi.ClientFactory {
	useast1 := mockedEC2{}
	readMock(t, "DescribeInstanceTypes", "us_east_1.json", &useast1.DescribeInstanceTypesResp)
	readMock(t, "DescribeRegions", "all_regions.json", &useast1.DescribeRegionsResp)
	uswest2 := mockedEC2{}
	readMock(t, "DescribeInstanceTypes", "us_west_2.json", &uswest2.DescribeInstanceTypesResp)
	clients := map[string]mockedEC2{"us-east-1": useast1, "us-west-2": uswest2}
	return func(region string) awsapi.CatalogSourceInterface {
		if client, ok := clients[region]; ok {
			return client
		}
		return failingEC2{}
	}
}

type failingEC2 struct {
	awsapi.CatalogSourceInterface
}

func (failingEC2) DescribeInstanceTypes(ctx context.Context, input *ec2.DescribeInstanceTypesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstanceTypesOutput, error) {
	return nil, &smithy.GenericAPIError{Code: "OptInRequired", Message: "region is not enabled"}
}

func (failingEC2) DescribeRegions(ctx context.Context, input *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error) {
	return nil, &smithy.GenericAPIError{Code: "UnauthorizedOperation", Message: "not allowed"}
}

// Tests

func TestResolveCatalogLocation(t *testing.T) {
	t.Setenv(catalogEnvVar, "")
	h.Equals(t, catalog.DefaultLocation, resolveCatalogLocation(nil))
	t.Setenv(catalogEnvVar, "s3://bucket/env.csv")
	h.Equals(t, "s3://bucket/env.csv", resolveCatalogLocation(nil))
	flagValue := "/tmp/flag.csv"
	h.Equals(t, flagValue, resolveCatalogLocation(&flagValue))
}

func TestRegionNotFoundError(t *testing.T) {
	withoutProfile := regionNotFoundError(false).Error()
	h.Assert(t, strings.Contains(withoutProfile, "--region flag"), "should mention the region flag")
	h.Assert(t, strings.Contains(withoutProfile, defaultRegionEnvVar), "should mention %s", defaultRegionEnvVar)
	h.Assert(t, !strings.Contains(withoutProfile, "\t - profile region"), "should not mention the profile region")
	h.Assert(t, strings.Contains(regionNotFoundError(true).Error(), "\t - profile region"), "should mention the profile region")
}

func TestMatch_OneLine(t *testing.T) {
	stdout, stderr, err := execute(t, "match", "--catalog", catalogFixture, "-t", "m5.large", "-c", "3", "--memory-mib", "10000", "-o", "one-line")
	h.Ok(t, err)
	h.Equals(t, "m5.xlarge,m5.2xlarge\n", stdout)
	h.Equals(t, "", stderr)
}

func TestMatch_CatalogFromEnv(t *testing.T) {
	t.Setenv(catalogEnvVar, catalogFixture)
	stdout, _, err := execute(t, "match", "--current-instance-type", "m5.large", "--vcpus", "3", "--memory", "10000mib")
	h.Ok(t, err)
	h.Equals(t, "m5.xlarge\nm5.2xlarge\n", stdout)
}

func TestMatch_Truncated(t *testing.T) {
	stdout, stderr, err := execute(t, "match", "--catalog", catalogFixture, "-t", "m5.large", "-c", "3", "--memory-mib", "10000", "--max-results", "1")
	h.Ok(t, err)
	h.Equals(t, "m5.xlarge\n", stdout)
	h.Assert(t, strings.Contains(stderr, "NOTE: 1 entries were truncated, increase --max-results to see more"), "expected a truncation note, got %q", stderr)
}

func TestMatch_Region(t *testing.T) {
	stdout, _, err := execute(t, "match", "--catalog", catalogFixture, "-t", "m5.large", "--match-region", "us-west-2", "-c", "3", "-o", "one-line")
	h.Ok(t, err)
	h.Equals(t, "c5.xlarge,m5.xlarge\n", stdout)

	_, _, err = execute(t, "match", "--catalog", catalogFixture, "-t", "c5.large", "--match-region", "us-west-2")
	h.Assert(t, errors.Is(err, selector.ErrUnknownInstanceType), "c5.large is not offered in us-west-2, got %v", err)
}

func TestMatch_SortBy(t *testing.T) {
	stdout, _, err := execute(t, "match", "--catalog", catalogFixture, "-t", "m5.large", "-c", "3", "--memory-mib", "10000", "--sort-by", "vcpus", "--sort-direction", "desc", "-o", "one-line")
	h.Ok(t, err)
	h.Equals(t, "m5.2xlarge,m5.xlarge\n", stdout)
}

func TestMatch_NoCandidates(t *testing.T) {
	stdout, stderr, err := execute(t, "match", "--catalog", catalogFixture, "-t", "m5.large", "-c", "1000")
	h.Ok(t, err)
	h.Equals(t, "", stdout)
	h.Assert(t, strings.HasPrefix(stderr, "NOTE: No instance type in the catalog can replace m5.large"), "expected a no candidates note, got %q", stderr)
}

func TestMatch_Verbose(t *testing.T) {
	_, stderr, err := execute(t, "match", "--catalog", catalogFixture, "-t", "m5.large", "-c", "3", "-v")
	h.Ok(t, err)
	h.Assert(t, strings.Contains(stderr, `"current_instance_type": "m5.large"`), "expected the request in the verbose note, got %q", stderr)
}

func TestMatch_Errors(t *testing.T) {
	_, _, err := execute(t, "match", "--catalog", catalogFixture, "-t", "x9.nonexistent")
	h.Assert(t, errors.Is(err, selector.ErrUnknownInstanceType), "expected ErrUnknownInstanceType, got %v", err)

	_, _, err = execute(t, "match", "--catalog", catalogFixture, "-c", "2")
	h.Nok(t, err)
	h.Assert(t, strings.Contains(err.Error(), "--current-instance-type is required"), "unexpected error %v", err)

	_, _, err = execute(t, "match", "--catalog", catalogFixture, "-t", "m5.large", "-m", "8", "--memory-mib", "8192")
	h.Nok(t, err)
	h.Assert(t, strings.Contains(err.Error(), "mutually exclusive"), "unexpected error %v", err)

	_, _, err = execute(t, "match", "--catalog", catalogFixture, "-t", "m5.large", "--storage-policy", "sometimes")
	h.Nok(t, err)

	_, _, err = execute(t, "match", "--catalog", catalogFixture, "-t", "m5.large", "-o", "xml")
	h.Nok(t, err)

	_, _, err = execute(t, "match", "--catalog", filepath.Join(t.TempDir(), "missing.csv"), "-t", "m5.large")
	h.Assert(t, errors.Is(err, catalog.ErrCatalogNotFound), "expected ErrCatalogNotFound, got %v", err)
	h.Assert(t, strings.Contains(err.Error(), "refresh"), "should suggest running refresh, got %v", err)
}

func TestMatch_ResourceOverflow(t *testing.T) {
	_, _, err := execute(t, "match", "--catalog", catalogFixture, "-t", "m5.large", "--vcpus", "4294967298")
	h.Nok(t, err)
	h.Assert(t, strings.Contains(err.Error(), "invalid input for --vcpus"), "unexpected error %v", err)

	_, _, err = execute(t, "match", "--catalog", catalogFixture, "-t", "m5.large", "--gpus", "2147483648")
	h.Nok(t, err)
	h.Assert(t, strings.Contains(err.Error(), "invalid input for --gpus"), "unexpected error %v", err)

	_, _, err = execute(t, "match", "--catalog", catalogFixture, "-t", "m5.large", "--memory", "18446744073709551615mib")
	h.Nok(t, err)
	h.Assert(t, strings.Contains(err.Error(), "invalid input for --memory"), "unexpected error %v", err)

	stdout, _, err := execute(t, "match", "--catalog", catalogFixture, "-t", "m5.large", "--vcpus", "2147483647", "-o", "one-line")
	h.Ok(t, err)
	h.Equals(t, "", stdout)
}

func TestInvalidLogFormat(t *testing.T) {
	_, _, err := execute(t, "match", "--catalog", catalogFixture, "-t", "m5.large", "--log-format", "xml")
	h.Nok(t, err)
}

func TestGetOutputFn(t *testing.T) {
	candidates := []selector.Candidate{{}, {}}
	candidates[0].Record.InstanceType = "m5.xlarge"
	candidates[1].Record.InstanceType = "m5.2xlarge"
	h.Equals(t, []string{"m5.xlarge,m5.2xlarge"}, getOutputFn(oneLine)(candidates))
	h.Equals(t, []string{"m5.xlarge", "m5.2xlarge"}, getOutputFn(simpleOutput)(candidates))
	h.Equals(t, []string{"m5.xlarge", "m5.2xlarge"}, getOutputFn("")(candidates))
}

func TestRunRefresh_RequestedRegions(t *testing.T) {
	store, err := catalog.NewFileStore(filepath.Join(t.TempDir(), "catalog.csv"))
	h.Ok(t, err)
	builder := &catalog.Builder{ClientFactory: mockFactory(t), Store: store}
	var stdout, stderr bytes.Buffer
	err = runRefresh(context.Background(), &stdout, &stderr, builder, "us-east-1", []string{"us-west-2", "us-east-1", "eu-north-1"})
	h.Ok(t, err)
	h.Assert(t, strings.Contains(stdout.String(), "from 2 regions to "+store.Location()), "unexpected summary %q", stdout.String())
	h.Equals(t, "NOTE: 1 regions were skipped: eu-north-1\nNOTE: 1 malformed or duplicate instance types were left out of the catalog\n", stderr.String())

	c, err := store.Load(context.Background())
	h.Ok(t, err)
	h.Equals(t, []string{"us-east-1", "us-west-2"}, c.Regions())
}

func TestRunRefresh_DiscoveredRegions(t *testing.T) {
	store, err := catalog.NewFileStore(filepath.Join(t.TempDir(), "catalog.csv"))
	h.Ok(t, err)
	builder := &catalog.Builder{ClientFactory: mockFactory(t), Store: store}
	var stdout, stderr bytes.Buffer
	err = runRefresh(context.Background(), &stdout, &stderr, builder, "us-east-1", nil)
	h.Ok(t, err)
	h.Equals(t, "NOTE: 1 regions were skipped: ap-east-1\nNOTE: 1 malformed or duplicate instance types were left out of the catalog\n", stderr.String())

	_, _, err = execute(t, "match", "--catalog", store.Location(), "-t", "m5.large", "-c", "3", "--memory-mib", "10000", "-o", "one-line")
	h.Ok(t, err)
}

func TestRunRefresh_Failures(t *testing.T) {
	var stdout, stderr bytes.Buffer
	builder := &catalog.Builder{ClientFactory: mockFactory(t)}
	err := runRefresh(context.Background(), &stdout, &stderr, builder, "eu-north-1", nil)
	h.Nok(t, err)

	err = runRefresh(context.Background(), &stdout, &stderr, builder, "us-east-1", []string{"eu-north-1"})
	h.Assert(t, errors.Is(err, catalog.ErrNoRegionsAvailable), "expected ErrNoRegionsAvailable, got %v", err)
	h.Equals(t, "", stdout.String())
}
