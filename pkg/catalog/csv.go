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
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/blang/semver/v4"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/instancetypes"
)

const (
	schemaPrefix          = "# ec2-instance-interchange catalog v"
	virtualizationListSep = ";"
)

// SchemaVersion is the version of the CSV layout written by WriteCSV
var SchemaVersion = semver.MustParse("1.0.0")

var columns = []string{
	"region",
	"instance_type",
	"architecture",
	"virtualization_types",
	"ena_supported",
	"ipv6_supported",
	"max_network_interfaces",
	"nvme_support",
	"instance_storage_supported",
	"hypervisor",
	"bare_metal",
	"vcpus",
	"memory_mib",
	"gpu_count",
}

// WriteCSV writes the catalog as CSV, preceded by a schema version comment line
func WriteCSV(w io.Writer, c *Catalog) error {
	if _, err := fmt.Fprintf(w, "%s%s\n", schemaPrefix, SchemaVersion); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	var writeErr error
	c.Each(func(r instancetypes.Record) bool {
		writeErr = cw.Write(toRow(r))
		return writeErr == nil
	})
	if writeErr != nil {
		return writeErr
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV decodes a catalog written by WriteCSV. Rows which fail validation are left out and
// reported by Catalog.Quarantined; a bad header or an incompatible schema version fails the read.
func ReadCSV(r io.Reader) (*Catalog, error) {
	br := bufio.NewReader(r)
	versionLine, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	version, err := checkSchema(strings.TrimSpace(versionLine))
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(br)
	cr.Comment = '#'
	// every row must have as many fields as the header
	cr.FieldsPerRecord = 0
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("unable to read catalog header: %w", err)
	}
	if err := checkHeader(header, version); err != nil {
		return nil, err
	}

	records := []instancetypes.Record{}
	var quarantined []error
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) && errors.Is(parseErr.Err, csv.ErrFieldCount) {
				quarantined = append(quarantined, err)
				continue
			}
			return nil, err
		}
		record, err := fromRow(row)
		if err != nil {
			// the version line was consumed before the csv reader started counting
			line, _ := cr.FieldPos(0)
			quarantined = append(quarantined, fmt.Errorf("line %d: %w", line+1, err))
			continue
		}
		records = append(records, record)
	}
	return newCatalog(records, quarantined)
}

func checkSchema(line string) (semver.Version, error) {
	if !strings.HasPrefix(line, schemaPrefix) {
		return semver.Version{}, fmt.Errorf("%w: missing schema version line", ErrUnsupportedSchema)
	}
	version, err := semver.Parse(strings.TrimPrefix(line, schemaPrefix))
	if err != nil {
		return semver.Version{}, fmt.Errorf("%w: %v", ErrUnsupportedSchema, err)
	}
	if version.Major != SchemaVersion.Major {
		return semver.Version{}, fmt.Errorf("%w: catalog is v%s, this build reads v%d.x", ErrUnsupportedSchema, version, SchemaVersion.Major)
	}
	return version, nil
}

// checkHeader requires the known columns in order. Catalogs of a newer minor version may
// append columns, which are ignored.
func checkHeader(header []string, version semver.Version) error {
	if len(header) < len(columns) {
		return fmt.Errorf("catalog header has %d columns, want %d", len(header), len(columns))
	}
	if len(header) > len(columns) && version.Minor <= SchemaVersion.Minor {
		return fmt.Errorf("catalog v%s header has %d columns, want %d", version, len(header), len(columns))
	}
	for i, col := range columns {
		if header[i] != col {
			return fmt.Errorf("unexpected catalog column %d: got %q, want %q", i, header[i], col)
		}
	}
	return nil
}

func toRow(r instancetypes.Record) []string {
	return []string{
		r.Region,
		r.InstanceType,
		string(r.Architecture),
		strings.Join(lo.Map(r.VirtualizationTypes, func(vt ec2types.VirtualizationType, _ int) string { return string(vt) }), virtualizationListSep),
		strconv.FormatBool(r.EnaSupported),
		strconv.FormatBool(r.IPv6Supported),
		strconv.FormatInt(int64(r.MaxNetworkInterfaces), 10),
		string(r.NvmeSupport),
		strconv.FormatBool(r.InstanceStorageSupported),
		string(r.Hypervisor),
		strconv.FormatBool(r.BareMetal),
		strconv.FormatInt(int64(r.VCpus), 10),
		strconv.FormatInt(r.MemoryMiB, 10),
		strconv.FormatInt(int64(r.GpuCount), 10),
	}
}

func fromRow(row []string) (instancetypes.Record, error) {
	var errs error
	parseBool := func(col int) bool {
		v, err := strconv.ParseBool(row[col])
		errs = multierr.Append(errs, columnErr(col, err))
		return v
	}
	parseInt := func(col int, bits int) int64 {
		v, err := strconv.ParseInt(row[col], 10, bits)
		errs = multierr.Append(errs, columnErr(col, err))
		return v
	}

	record := instancetypes.Record{
		Region:                   row[0],
		InstanceType:             row[1],
		EnaSupported:             parseBool(4),
		IPv6Supported:            parseBool(5),
		MaxNetworkInterfaces:     int32(parseInt(6, 32)),
		InstanceStorageSupported: parseBool(8),
		BareMetal:                parseBool(10),
		VCpus:                    int32(parseInt(11, 32)),
		MemoryMiB:                parseInt(12, 64),
		GpuCount:                 int32(parseInt(13, 32)),
	}

	var err error
	record.Architecture, err = instancetypes.ParseArchitecture(row[2])
	errs = multierr.Append(errs, columnErr(2, err))
	for _, vt := range strings.Split(row[3], virtualizationListSep) {
		parsed, err := instancetypes.ParseVirtualizationType(vt)
		errs = multierr.Append(errs, columnErr(3, err))
		record.VirtualizationTypes = append(record.VirtualizationTypes, parsed)
	}
	record.NvmeSupport, err = instancetypes.ParseNvmeSupport(row[7])
	errs = multierr.Append(errs, columnErr(7, err))
	record.Hypervisor, err = instancetypes.ParseHypervisor(row[9])
	errs = multierr.Append(errs, columnErr(9, err))

	if errs != nil {
		return instancetypes.Record{}, fmt.Errorf("%w %q: %v", instancetypes.ErrMalformedRecord, record.InstanceType, errs)
	}
	return record, record.Validate()
}

func columnErr(col int, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", columns[col], err)
}
