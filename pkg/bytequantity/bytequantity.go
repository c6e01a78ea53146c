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

// Package bytequantity parses human friendly memory sizes into MiB.
package bytequantity

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	// Examples: 1mb, 1 gb, 1.0tb, 1mib, 2g, 2.001 t
	byteQuantityRegex = `^([0-9]+\.?[0-9]{0,3})[ ]?(mi?b?|gi?b?|ti?b?)?$`
	mib               = "MiB"
	gib               = "GiB"
	tib               = "TiB"
	gbConvert         = 1 << 10
	tbConvert         = gbConvert << 10
	maxGiB            = math.MaxUint64 / gbConvert
	maxTiB            = math.MaxUint64 / tbConvert
)

var bqRegexp = regexp.MustCompile(byteQuantityRegex)

// ByteQuantity is a memory size held in MiB
type ByteQuantity struct {
	Quantity uint64
}

// ParseToByteQuantity parses a string representation of a byte quantity to a ByteQuantity type.
// A unit can be appended such as 16 GiB. If no unit is appended, GiB is assumed.
func ParseToByteQuantity(byteQuantityStr string) (ByteQuantity, error) {
	matches := bqRegexp.FindStringSubmatch(strings.ToLower(strings.TrimSpace(byteQuantityStr)))
	if len(matches) < 2 {
		return ByteQuantity{}, fmt.Errorf("%s is not a valid byte quantity", byteQuantityStr)
	}

	quantityStr := matches[1]
	unit := strings.ToLower(gib)
	if len(matches) > 2 && matches[2] != "" {
		unit = matches[2]
	}

	var quantity uint64
	switch unit[0] {
	case 'm':
		parts := strings.Split(quantityStr, ".")
		if len(parts) == 2 && strings.Trim(parts[1], "0") != "" {
			return ByteQuantity{}, fmt.Errorf("cannot accept floating point %s value, only integers are accepted", mib)
		}
		var err error
		quantity, err = strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return ByteQuantity{}, err
		}
	case 'g':
		quantityDec, err := strconv.ParseFloat(quantityStr, 64)
		if err != nil {
			return ByteQuantity{}, err
		}
		if quantityDec > maxGiB {
			return ByteQuantity{}, fmt.Errorf("%s value is too large", gib)
		}
		quantity = uint64(quantityDec * gbConvert)
	case 't':
		quantityDec, err := strconv.ParseFloat(quantityStr, 64)
		if err != nil {
			return ByteQuantity{}, err
		}
		if quantityDec > maxTiB {
			return ByteQuantity{}, fmt.Errorf("%s value is too large", tib)
		}
		quantity = uint64(quantityDec * tbConvert)
	default:
		return ByteQuantity{}, fmt.Errorf("unit %s is not supported", unit)
	}

	return ByteQuantity{Quantity: quantity}, nil
}

// FromGiB returns a byte quantity of the passed in gibibytes quantity
func FromGiB(gib uint64) ByteQuantity {
	return ByteQuantity{Quantity: gib * gbConvert}
}

// StringMiB returns a byte quantity in a mebibytes string representation
func (bq ByteQuantity) StringMiB() string {
	return fmt.Sprintf("%.0f %s", bq.MiB(), mib)
}

// MiB returns a byte quantity in mebibytes
func (bq ByteQuantity) MiB() float64 {
	return float64(bq.Quantity)
}
