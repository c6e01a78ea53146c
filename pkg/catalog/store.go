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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	homedir "github.com/mitchellh/go-homedir"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/awsapi"
)

const (
	s3Scheme       = "s3://"
	csvContentType = "text/csv"
	// DefaultLocation is where the catalog is kept when no location is configured
	DefaultLocation = "~/.ec2-instance-interchange/catalog.csv"
)

// Store persists and loads whole catalog snapshots. Save always replaces what was stored before.
type Store interface {
	Save(ctx context.Context, c *Catalog) error
	Load(ctx context.Context) (*Catalog, error)
	Location() string
}

// IsS3Location returns true if the location is an s3://bucket/key URI
func IsS3Location(location string) bool {
	return strings.HasPrefix(location, s3Scheme)
}

// NewStore returns a Store for the location. An S3 client is only required for s3:// locations.
func NewStore(location string, objects awsapi.ObjectStoreInterface) (Store, error) {
	if location == "" {
		location = DefaultLocation
	}
	if !IsS3Location(location) {
		return NewFileStore(location)
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(location, s3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("invalid S3 catalog location %q, expected s3://bucket/key", location)
	}
	if objects == nil {
		return nil, fmt.Errorf("an S3 client is required for catalog location %s", location)
	}
	return &S3Store{Client: objects, Bucket: bucket, Key: key}, nil
}

// FileStore keeps the catalog CSV on the local filesystem
type FileStore struct {
	Path string
}

// NewFileStore returns a FileStore after expanding a leading ~ in the path
func NewFileStore(path string) (*FileStore, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("unable to expand catalog path %s: %w", path, err)
	}
	return &FileStore{Path: expanded}, nil
}

// Location returns the file path
func (s *FileStore) Location() string {
	return s.Path
}

// Save writes the catalog to a temp file in the same directory and renames it over the old one
func (s *FileStore) Save(_ context.Context, c *Catalog) error {
	if err := s.save(c); err != nil {
		return &StoreWriteError{Location: s.Path, Err: err}
	}
	return nil
}

func (s *FileStore) save(c *Catalog) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".catalog-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := WriteCSV(tmp, c); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}

// Load reads the catalog from the file
func (s *FileStore) Load(_ context.Context) (*Catalog, error) {
	f, err := os.Open(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w at %s", ErrCatalogNotFound, s.Path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// S3Store keeps the catalog CSV as a single S3 object
type S3Store struct {
	Client awsapi.ObjectStoreInterface
	Bucket string
	Key    string
}

// Location returns the s3:// URI of the object
func (s *S3Store) Location() string {
	return s3Scheme + s.Bucket + "/" + s.Key
}

// Save uploads the catalog, replacing the object
func (s *S3Store) Save(ctx context.Context, c *Catalog) error {
	buf := &bytes.Buffer{}
	if err := WriteCSV(buf, c); err != nil {
		return &StoreWriteError{Location: s.Location(), Err: err}
	}
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(s.Key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(int64(buf.Len())),
		ContentType:   aws.String(csvContentType),
	})
	if err != nil {
		return &StoreWriteError{Location: s.Location(), Err: err}
	}
	return nil
}

// Load downloads and decodes the catalog object
func (s *S3Store) Load(ctx context.Context) (*Catalog, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return nil, fmt.Errorf("%w at %s", ErrCatalogNotFound, s.Location())
	}
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return ReadCSV(out.Body)
}
