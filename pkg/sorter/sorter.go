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

// Package sorter re-orders match candidates for display
package sorter

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/oliveagle/jsonpath"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/selector"
)

const (
	sortAscending  = "ascending"
	sortAsc        = "asc"
	sortDescending = "descending"
	sortDesc       = "desc"

	// Shorthand sort fields
	VCpus             = "vcpus"
	Memory            = "memory"
	Gpus              = "gpus"
	InstanceType      = "instance-type"
	NetworkInterfaces = "network-interfaces"
	ODPrice           = "price"
	Slack             = "slack"
)

// Shorthands lists the accepted shorthand sort fields
var Shorthands = []string{VCpus, Memory, Gpus, InstanceType, NetworkInterfaces, ODPrice, Slack}

var shorthandPaths = map[string]string{
	VCpus:             "$.record.vcpus",
	Memory:            "$.record.memory_mib",
	Gpus:              "$.record.gpu_count",
	InstanceType:      "$.record.instance_type",
	NetworkInterfaces: "$.record.max_network_interfaces",
	ODPrice:           "$.record.ondemand_price_per_hour",
}

// sorterNode holds a candidate and the value to sort it by
type sorterNode struct {
	candidate  selector.Candidate
	fieldValue reflect.Value
}

// Sort returns the candidates ordered by the sort field and direction. The input is not modified.
//
// sortField is either a shorthand (see Shorthands) or a JSON path into the selector.Candidate
// struct (Ex: "$.record.memory_mib"). A leading "$" may be omitted.
//
// sortDirection represents the direction to sort in. Valid options: "ascending", "asc", "descending", "desc".
//
// The sort is stable and candidates without a value for the field are always placed last.
func Sort(candidates []selector.Candidate, sortField string, sortDirection string) ([]selector.Candidate, error) {
	var isDescending bool
	switch sortDirection {
	case sortDescending, sortDesc:
		isDescending = true
	case sortAscending, sortAsc:
		isDescending = false
	default:
		return nil, fmt.Errorf("invalid sort direction: %s (valid options: %s, %s, %s, %s)", sortDirection, sortAscending, sortAsc, sortDescending, sortDesc)
	}

	sorted := make([]selector.Candidate, len(candidates))
	copy(sorted, candidates)
	if sortField == Slack {
		sort.SliceStable(sorted, func(i, j int) bool {
			if isDescending {
				return sorted[j].Slack.Less(sorted[i].Slack)
			}
			return sorted[i].Slack.Less(sorted[j].Slack)
		})
		return sorted, nil
	}

	jsonPath := formatSortField(sortField)
	nodes := make([]*sorterNode, 0, len(candidates))
	for _, candidate := range sorted {
		node, err := newSorterNode(candidate, jsonPath)
		if err != nil {
			return nil, fmt.Errorf("error creating sorting node: %v", err)
		}
		nodes = append(nodes, node)
	}

	var sortErr error
	sort.SliceStable(nodes, func(i, j int) bool {
		less, err := isLess(nodes[i].fieldValue, nodes[j].fieldValue, isDescending)
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return less
	})
	if sortErr != nil {
		return nil, fmt.Errorf("unable to sort by %s: %w", sortField, sortErr)
	}
	for i, node := range nodes {
		sorted[i] = node.candidate
	}
	return sorted, nil
}

// formatSortField expands shorthands and ensures the JSON path starts with "$"
func formatSortField(sortField string) string {
	if path, ok := shorthandPaths[sortField]; ok {
		return path
	}
	if strings.HasPrefix(sortField, "$") {
		return sortField
	}
	if strings.HasPrefix(sortField, ".") {
		return "$" + sortField
	}
	return "$." + sortField
}

// newSorterNode creates a new sorterNode which holds the value found at the json path
func newSorterNode(candidate selector.Candidate, jsonPath string) (*sorterNode, error) {
	jsonCandidate, err := json.Marshal(candidate)
	if err != nil {
		return nil, err
	}

	// unmarshal into generic types for json path parsing
	var jsonData interface{}
	if err := json.Unmarshal(jsonCandidate, &jsonData); err != nil {
		return nil, err
	}

	result, err := jsonpath.JsonPathLookup(jsonData, jsonPath)
	if err != nil {
		return nil, err
	}

	return &sorterNode{
		candidate:  candidate,
		fieldValue: reflect.ValueOf(result),
	}, nil
}

// isLess determines whether valI sorts strictly before valJ. Invalid (nil) values sort after
// every valid value regardless of the direction.
func isLess(valI, valJ reflect.Value, isDescending bool) (bool, error) {
	if !valI.IsValid() {
		return false, nil
	}
	if !valJ.IsValid() {
		return true, nil
	}
	if valI.Kind() != valJ.Kind() {
		return false, fmt.Errorf("unable to compare %s with %s", valI.Kind(), valJ.Kind())
	}
	switch valI.Kind() {
	case reflect.Float64:
		if isDescending {
			return valI.Float() > valJ.Float(), nil
		}
		return valI.Float() < valJ.Float(), nil
	case reflect.String:
		if isDescending {
			return strings.Compare(valI.String(), valJ.String()) > 0, nil
		}
		return strings.Compare(valI.String(), valJ.String()) < 0, nil
	case reflect.Bool:
		// false sorts before true when ascending
		if isDescending {
			return valI.Bool() && !valJ.Bool(), nil
		}
		return !valI.Bool() && valJ.Bool(), nil
	default:
		// unsortable value
		return false, fmt.Errorf("unsortable value of kind %s", valI.Kind())
	}
}
