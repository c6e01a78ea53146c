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

package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

var (
	// ErrStoreWrite is matched by every StoreWriteError
	ErrStoreWrite = errors.New("unable to write catalog")
	// ErrNoRegionsAvailable is returned when every requested region was skipped
	ErrNoRegionsAvailable = errors.New("no regions were available")
	// ErrDuplicateRecord is returned when a (region, instance type) pair appears twice
	ErrDuplicateRecord = errors.New("duplicate catalog record")
	// ErrUnsupportedSchema is returned when a persisted catalog was written by an incompatible version
	ErrUnsupportedSchema = errors.New("unsupported catalog schema")
	// ErrCatalogNotFound is returned when no catalog has been persisted at the store location yet
	ErrCatalogNotFound = errors.New("catalog not found")
)

// RegionUnavailableError records a region skipped during a build
type RegionUnavailableError struct {
	Region string
	// Reason is the AWS error code when one was returned, e.g. AuthFailure or OptInRequired
	Reason string
	Err    error
}

func newRegionUnavailableError(region string, err error) *RegionUnavailableError {
	reason := "RequestFailure"
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		reason = apiErr.ErrorCode()
	} else if errors.Is(err, context.DeadlineExceeded) {
		reason = "Timeout"
	}
	return &RegionUnavailableError{Region: region, Reason: reason, Err: err}
}

func (e *RegionUnavailableError) Error() string {
	return fmt.Sprintf("region %s unavailable (%s): %v", e.Region, e.Reason, e.Err)
}

func (e *RegionUnavailableError) Unwrap() error {
	return e.Err
}

// StoreWriteError is returned when the catalog could not be persisted
type StoreWriteError struct {
	Location string
	Err      error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("%v to %s: %v", ErrStoreWrite, e.Location, e.Err)
}

func (e *StoreWriteError) Unwrap() []error {
	return []error{ErrStoreWrite, e.Err}
}
