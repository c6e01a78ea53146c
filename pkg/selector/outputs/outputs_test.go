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

package outputs_test

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"sigs.k8s.io/yaml"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/catalog"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/selector"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/selector/outputs"
	h "github.com/aws/amazon-ec2-instance-interchange/pkg/test"
)

const mockFilesPath = "../../../test/static"

// getCandidates returns the candidates for m5.large that need at least 3 vcpus and 10000 MiB:
// m5.xlarge (us-east-1, us-west-2) and m5.2xlarge (us-east-1)
func getCandidates(t *testing.T) []selector.Candidate {
	f, err := os.Open(mockFilesPath + "/catalog/two_regions.csv")
	h.Ok(t, err)
	defer f.Close()
	c, err := catalog.ReadCSV(f)
	h.Ok(t, err)
	result, err := selector.New(c).FindCompatible(selector.MatchRequest{
		CurrentInstanceType: "m5.large",
		RequiredVCpus:       3,
		RequiredMemoryMiB:   10000,
	})
	h.Ok(t, err)
	h.Assert(t, len(result.Candidates) == 2, "fixture should produce 2 candidates, got %d", len(result.Candidates))
	return result.Candidates
}

func TestSimpleInstanceTypeOutput(t *testing.T) {
	candidates := getCandidates(t)
	instanceTypeOut := outputs.SimpleInstanceTypeOutput(candidates)
	h.Equals(t, []string{"m5.xlarge", "m5.2xlarge"}, instanceTypeOut)

	instanceTypeOut = outputs.SimpleInstanceTypeOutput([]selector.Candidate{})
	h.Assert(t, len(instanceTypeOut) == 0, "Should return 0 instance types when passed empty slice")

	instanceTypeOut = outputs.SimpleInstanceTypeOutput(nil)
	h.Assert(t, len(instanceTypeOut) == 0, "Should return 0 instance types when passed nil")
}

func TestVerboseInstanceTypeOutput(t *testing.T) {
	candidates := getCandidates(t)
	outputExpectation, err := json.MarshalIndent(candidates, "", "    ")
	h.Ok(t, err)

	instanceTypeOut := outputs.VerboseInstanceTypeOutput(candidates)
	h.Assert(t, len(instanceTypeOut) == 1, "Should return a single JSON document")
	h.Equals(t, string(outputExpectation), instanceTypeOut[0])
	for _, field := range []string{`"instance_type": "m5.xlarge"`, `"memory_mib": 6384`, `"storage_mismatch": false`, `"ondemand_price_per_hour": null`} {
		h.Assert(t, strings.Contains(instanceTypeOut[0], field), "verbose output should contain %s", field)
	}

	decoded := []selector.Candidate{}
	h.Ok(t, json.Unmarshal([]byte(instanceTypeOut[0]), &decoded))
	h.Equals(t, candidates, decoded)

	instanceTypeOut = outputs.VerboseInstanceTypeOutput([]selector.Candidate{})
	h.Assert(t, len(instanceTypeOut) == 0, "Should return 0 instance types when passed empty slice")

	instanceTypeOut = outputs.VerboseInstanceTypeOutput(nil)
	h.Assert(t, len(instanceTypeOut) == 0, "Should return 0 instance types when passed nil")
}

func TestYAMLOutput(t *testing.T) {
	candidates := getCandidates(t)
	instanceTypeOut := outputs.YAMLOutput(candidates)
	h.Assert(t, len(instanceTypeOut) == 1, "Should return a single YAML document")
	outputStr := instanceTypeOut[0]
	h.Assert(t, strings.Contains(outputStr, "instance_type: m5.xlarge"), "YAML should include m5.xlarge, got %s", outputStr)

	_, err := yaml.YAMLToJSON([]byte(outputStr))
	h.Ok(t, err)
	decoded := []selector.Candidate{}
	h.Ok(t, yaml.Unmarshal([]byte(outputStr), &decoded))
	h.Equals(t, candidates, decoded)

	h.Assert(t, len(outputs.YAMLOutput(nil)) == 0, "Should return nothing when passed nil")
}

func TestTableOutputShort(t *testing.T) {
	candidates := getCandidates(t)
	instanceTypeOut := outputs.TableOutputShort(candidates)
	outputStr := strings.Join(instanceTypeOut, "")
	lines := strings.Split(outputStr, "\n")
	h.Assert(t, len(lines) == 4, "table should include a 2 header lines and 2 candidate lines")
	h.Assert(t, strings.Contains(outputStr, "m5.xlarge"), "short table should include instance type")
	h.Assert(t, strings.Contains(outputStr, "16"), "short table should include memory in GiB")

	h.Assert(t, outputs.TableOutputShort(nil) == nil, "empty input should not render a table")
}

func TestTableOutputWide(t *testing.T) {
	candidates := getCandidates(t)
	candidates[0].Record.OndemandPricePerHour = aws.Float64(0.192)
	instanceTypeOut := outputs.TableOutputWide(candidates)
	outputStr := strings.Join(instanceTypeOut, "")
	lines := strings.Split(outputStr, "\n")
	h.Assert(t, len(lines) == 4, "table should include a 2 header lines and 2 candidate lines")
	h.Assert(t, strings.Contains(outputStr, "m5.2xlarge"), "table should include instance type")
	h.Assert(t, strings.Contains(outputStr, "us-east-1, us-west-2"), "wide table should include the regions")
	h.Assert(t, strings.Contains(outputStr, "1/6384/0"), "wide table should include the slack")
	h.Assert(t, strings.Contains(outputStr, "$0.192"), "wide table should include the on-demand price")
	h.Assert(t, strings.Contains(outputStr, "-Not Fetched-"), "wide table should mark missing prices")
}

func TestTableOutput_MiBtoGiB(t *testing.T) {
	candidates := getCandidates(t)
	candidates[0].Record.MemoryMiB = 15360 + 512
	outputStr := strings.Join(outputs.TableOutputWide(candidates), "")
	h.Assert(t, strings.Contains(outputStr, "15.5"), "table should include 15.5 GiB of memory")

	outputStr = strings.Join(outputs.TableOutputShort(candidates), "")
	h.Assert(t, strings.Contains(outputStr, "15.5"), "table should include 15.5 GiB of memory")
}

func TestOneLineOutput(t *testing.T) {
	candidates := getCandidates(t)
	instanceTypeOut := outputs.OneLineOutput(candidates)
	h.Assert(t, len(instanceTypeOut) == 1, "Should always return 1 line")
	h.Assert(t, instanceTypeOut[0] == "m5.xlarge,m5.2xlarge", "Should return both instance types separated by a comma")

	instanceTypeOut = outputs.OneLineOutput([]selector.Candidate{})
	h.Assert(t, len(instanceTypeOut) == 0, "Should return 0 instance types when passed empty slice")

	instanceTypeOut = outputs.OneLineOutput(nil)
	h.Assert(t, len(instanceTypeOut) == 0, "Should return 0 instance types when passed nil")
}
