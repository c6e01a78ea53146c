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

// Package outputs provides prebuilt output functions for match candidates.
package outputs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"
	"sigs.k8s.io/yaml"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/instancetypes"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/selector"
)

const (
	columnTag   = "column"
	notFetched  = "-Not Fetched-"
	noneDisplay = "none"
)

// OutputFn renders a list of candidates into printable lines
type OutputFn = func(candidates []selector.Candidate) []string

// wideColumnsData stores the data that should be displayed on each column
// of a wide output row
type wideColumnsData struct {
	instanceName      string `column:"Instance Type"`
	vcpu              int32  `column:"VCPUs"`
	memory            string `column:"Mem (GiB)"`
	gpus              int32  `column:"GPUs"`
	cpuArchitecture   string `column:"CPU Arch"`
	hypervisor        string `column:"Hypervisor"`
	networkInterfaces int32  `column:"ENIs"`
	nvme              string `column:"NVMe"`
	instanceStorage   bool   `column:"Instance Storage"`
	slack             string `column:"Slack (vCPU/MiB/GPU)"`
	regions           string `column:"Regions"`
	odPrice           string `column:"On-Demand Price/Hr"`
	storageMismatch   bool   `column:"Storage Mismatch"`
}

// getWideColumnsData returns the column data necessary for a wide output for each candidate
func getWideColumnsData(candidates []selector.Candidate) []*wideColumnsData {
	columnsData := []*wideColumnsData{}

	for _, candidate := range candidates {
		record := candidate.Record
		newColumn := wideColumnsData{
			instanceName:      record.InstanceType,
			vcpu:              record.VCpus,
			memory:            formatFloat(float64(record.MemoryMiB) / 1024.0),
			gpus:              record.GpuCount,
			cpuArchitecture:   string(record.Architecture),
			hypervisor:        hypervisorDisplay(record),
			networkInterfaces: record.MaxNetworkInterfaces,
			nvme:              string(record.NvmeSupport),
			instanceStorage:   record.InstanceStorageSupported,
			slack:             formatSlack(candidate.Slack),
			regions:           strings.Join(candidate.Regions, ", "),
			odPrice:           formatPrice(record.OndemandPricePerHour),
			storageMismatch:   candidate.StorageMismatch,
		}

		columnsData = append(columnsData, &newColumn)
	}

	return columnsData
}

// SimpleInstanceTypeOutput is an OutputFn which outputs a slice of instance type names
func SimpleInstanceTypeOutput(candidates []selector.Candidate) []string {
	instanceTypeStrings := []string{}
	for _, candidate := range candidates {
		instanceTypeStrings = append(instanceTypeStrings, candidate.Record.InstanceType)
	}
	return instanceTypeStrings
}

// VerboseInstanceTypeOutput is an OutputFn which outputs the candidates as indented JSON
func VerboseInstanceTypeOutput(candidates []selector.Candidate) []string {
	output, err := json.MarshalIndent(candidates, "", "    ")
	if err != nil {
		zap.S().Errorf("Unable to convert candidates to JSON: %v", err)
		return []string{}
	}
	if string(output) == "[]" || string(output) == "null" {
		return []string{}
	}
	return []string{string(output)}
}

// YAMLOutput is an OutputFn which outputs the candidates as YAML
func YAMLOutput(candidates []selector.Candidate) []string {
	if len(candidates) == 0 {
		return []string{}
	}
	output, err := yaml.Marshal(candidates)
	if err != nil {
		zap.S().Errorf("Unable to convert candidates to YAML: %v", err)
		return []string{}
	}
	return []string{string(output)}
}

// TableOutputShort is an OutputFn which returns a CLI table for easy reading
func TableOutputShort(candidates []selector.Candidate) []string {
	if len(candidates) == 0 {
		return nil
	}
	w := new(tabwriter.Writer)
	buf := new(bytes.Buffer)
	w.Init(buf, 8, 8, 8, ' ', 0)
	defer w.Flush()

	headers := []interface{}{
		"Instance Type",
		"VCPUs",
		"Mem (GiB)",
		"GPUs",
	}
	separators := []interface{}{}

	headerFormat := ""
	for _, header := range headers {
		headerFormat = headerFormat + "%s\t"
		separators = append(separators, strings.Repeat("-", len(header.(string))))
	}
	fmt.Fprintf(w, headerFormat, headers...)
	fmt.Fprintf(w, "\n"+headerFormat, separators...)

	for _, candidate := range candidates {
		fmt.Fprintf(w, "\n%s\t%d\t%s\t%d\t",
			candidate.Record.InstanceType,
			candidate.Record.VCpus,
			formatFloat(float64(candidate.Record.MemoryMiB)/1024.0),
			candidate.Record.GpuCount,
		)
	}
	w.Flush()
	return []string{buf.String()}
}

// TableOutputWide is an OutputFn which returns a detailed CLI table for easy reading
func TableOutputWide(candidates []selector.Candidate) []string {
	if len(candidates) == 0 {
		return nil
	}
	w := new(tabwriter.Writer)
	buf := new(bytes.Buffer)
	w.Init(buf, 8, 8, 2, ' ', 0)
	defer w.Flush()

	columnDataStruct := wideColumnsData{}
	headers := []interface{}{}
	structType := reflect.TypeOf(columnDataStruct)
	for i := 0; i < structType.NumField(); i++ {
		headers = append(headers, structType.Field(i).Tag.Get(columnTag))
	}
	separators := make([]interface{}, 0)

	headerFormat := ""
	for _, header := range headers {
		headerFormat = headerFormat + "%s\t"
		separators = append(separators, strings.Repeat("-", len(header.(string))))
	}
	fmt.Fprintf(w, headerFormat, headers...)
	fmt.Fprintf(w, "\n"+headerFormat, separators...)

	columnsData := getWideColumnsData(candidates)

	for _, data := range columnsData {
		fmt.Fprintf(w, "\n%s\t%d\t%s\t%d\t%s\t%s\t%d\t%s\t%t\t%s\t%s\t%s\t%t\t",
			data.instanceName,
			data.vcpu,
			data.memory,
			data.gpus,
			data.cpuArchitecture,
			data.hypervisor,
			data.networkInterfaces,
			data.nvme,
			data.instanceStorage,
			data.slack,
			data.regions,
			data.odPrice,
			data.storageMismatch,
		)
	}
	w.Flush()
	return []string{buf.String()}
}

// OneLineOutput is an output function which prints the instance type names on a single line separated by commas
func OneLineOutput(candidates []selector.Candidate) []string {
	instanceTypeNames := []string{}
	for _, candidate := range candidates {
		instanceTypeNames = append(instanceTypeNames, candidate.Record.InstanceType)
	}
	if len(instanceTypeNames) == 0 {
		return []string{}
	}
	return []string{strings.Join(instanceTypeNames, ",")}
}

func hypervisorDisplay(record instancetypes.Record) string {
	if record.Hypervisor == "" {
		return noneDisplay
	}
	return string(record.Hypervisor)
}

// formatSlack renders slack as vCPU/MiB/GPU
func formatSlack(slack selector.Slack) string {
	return fmt.Sprintf("%d/%d/%d", slack.VCpus, slack.MemoryMiB, slack.Gpus)
}

func formatPrice(price *float64) string {
	if price == nil {
		return notFetched
	}
	return "$" + formatFloat(*price)
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', 5, 64)
	parts := strings.Split(s, ".")
	if len(parts) == 1 {
		return s
	}
	reversed := reverse(parts[0])
	withCommas := ""
	for i, p := range reversed {
		if i%3 == 0 && i != 0 {
			withCommas += ","
		}
		withCommas += string(p)
	}
	s = strings.Join([]string{reverse(withCommas), parts[1]}, ".")
	return strings.TrimRight(strings.TrimRight(s, "0"), ".")
}

func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
