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
	"reflect"
	"testing"
	"time"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/bytequantity"
	h "github.com/aws/amazon-ec2-instance-interchange/pkg/test"
)

// Tests

func TestBoolMe(t *testing.T) {
	cli := getTestCLI()
	boolTrue := true
	val := cli.BoolMe(boolTrue)
	h.Assert(t, *val == true, "Should return true from passed in value bool")
	val = cli.BoolMe(&boolTrue)
	h.Assert(t, *val == true, "Should return true from passed in pointer bool")
	val = cli.BoolMe(7)
	h.Assert(t, val == nil, "Should return nil from other data type passed in")
	val = cli.BoolMe(nil)
	h.Assert(t, val == nil, "Should return nil if nil is passed in")
}

func TestStringMe(t *testing.T) {
	cli := getTestCLI()
	stringVal := "test"
	val := cli.StringMe(stringVal)
	h.Assert(t, *val == stringVal, "Should return %s from passed in string value", stringVal)
	val = cli.StringMe(&stringVal)
	h.Assert(t, *val == stringVal, "Should return %s from passed in string pointer", stringVal)
	val = cli.StringMe(7)
	h.Assert(t, val == nil, "Should return nil from other data type passed in")
	val = cli.StringMe(nil)
	h.Assert(t, val == nil, "Should return nil if nil is passed in")
}

func TestStringSliceMe(t *testing.T) {
	cli := getTestCLI()
	stringSliceVal := []string{"test"}
	val := cli.StringSliceMe(stringSliceVal)
	h.Assert(t, reflect.DeepEqual(*val, stringSliceVal), "Should return %s from passed in string slice value", stringSliceVal)
	val = cli.StringSliceMe(&stringSliceVal)
	h.Assert(t, reflect.DeepEqual(*val, stringSliceVal), "Should return %s from passed in string slice pointer", stringSliceVal)
	val = cli.StringSliceMe(7)
	h.Assert(t, val == nil, "Should return nil from other data type passed in")
	val = cli.StringSliceMe(nil)
	h.Assert(t, val == nil, "Should return nil if nil is passed in")
}

func TestIntMe(t *testing.T) {
	cli := getTestCLI()
	intVal := 10
	int32Val := int32(intVal)
	val := cli.IntMe(intVal)
	h.Assert(t, *val == intVal, "Should return %d from passed in int value", intVal)
	val = cli.IntMe(&intVal)
	h.Assert(t, *val == intVal, "Should return %d from passed in int pointer", intVal)
	val = cli.IntMe(int32Val)
	h.Assert(t, *val == intVal, "Should return %d from passed in int32 value", intVal)
	val = cli.IntMe(&int32Val)
	h.Assert(t, *val == intVal, "Should return %d from passed in int32 pointer", intVal)
	val = cli.IntMe(true)
	h.Assert(t, val == nil, "Should return nil from other data type passed in")
	val = cli.IntMe(nil)
	h.Assert(t, val == nil, "Should return nil if nil is passed in")
}

func TestInt32Me(t *testing.T) {
	cli := getTestCLI()
	intVal := 10
	val := cli.Int32Me(&intVal)
	h.Assert(t, *val == int32(intVal), "Should return %d from passed in int pointer", intVal)
	val = cli.Int32Me("10")
	h.Assert(t, val == nil, "Should return nil from other data type passed in")
}

func TestFloat64Me(t *testing.T) {
	cli := getTestCLI()
	fVal := 10.01
	val := cli.Float64Me(fVal)
	h.Assert(t, *val == fVal, "Should return %f from passed in float64 value", fVal)
	val = cli.Float64Me(&fVal)
	h.Assert(t, *val == fVal, "Should return %f from passed in float64 pointer", fVal)
	val = cli.Float64Me(true)
	h.Assert(t, val == nil, "Should return nil from other data type passed in")
	val = cli.Float64Me(nil)
	h.Assert(t, val == nil, "Should return nil if nil is passed in")
}

func TestDurationMe(t *testing.T) {
	cli := getTestCLI()
	dVal := 2 * time.Minute
	val := cli.DurationMe(dVal)
	h.Assert(t, *val == dVal, "Should return %s from passed in duration value", dVal)
	val = cli.DurationMe(&dVal)
	h.Assert(t, *val == dVal, "Should return %s from passed in duration pointer", dVal)
	val = cli.DurationMe(120)
	h.Assert(t, val == nil, "Should return nil from other data type passed in")
	val = cli.DurationMe(nil)
	h.Assert(t, val == nil, "Should return nil if nil is passed in")
}

func TestByteQuantityMe(t *testing.T) {
	cli := getTestCLI()
	bq := bytequantity.FromGiB(2)
	val := cli.ByteQuantityMe(bq)
	h.Assert(t, val.Quantity == 2048, "Should return %d MiB from passed in byte quantity value", bq.Quantity)
	val = cli.ByteQuantityMe(&bq)
	h.Assert(t, val.Quantity == 2048, "Should return %d MiB from passed in byte quantity pointer", bq.Quantity)
	val = cli.ByteQuantityMe("2gib")
	h.Assert(t, val == nil, "Should return nil from other data type passed in")
	val = cli.ByteQuantityMe(nil)
	h.Assert(t, val == nil, "Should return nil if nil is passed in")
}
