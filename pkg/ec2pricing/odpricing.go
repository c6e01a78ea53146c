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

package ec2pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	pricingtypes "github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/mitchellh/go-homedir"
	"github.com/patrickmn/go-cache"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/awsapi"
)

const (
	// ODCacheFileName is the on-disk cache file name, formatted with the region
	ODCacheFileName = "%s-od-price-cache.json"

	serviceCode = "AmazonEC2"
)

// ErrPriceNotFound is returned when the pricing API has no on-demand price for an instance type
var ErrPriceNotFound = errors.New("on-demand price not found")

// OnDemandPricing caches Linux on-demand hourly prices for a single region
type OnDemandPricing struct {
	Region         string
	FullRefreshTTL time.Duration
	DirectoryPath  string
	Logger         *zap.Logger

	pricingClient awsapi.PricingInterface
	cache         *cache.Cache
}

// LoadODCacheOrNew returns an OnDemandPricing seeded from the on-disk cache in directoryPath
// when the file exists and is younger than fullRefreshTTL. A non-positive fullRefreshTTL
// disables persistence and cached entries never expire.
func LoadODCacheOrNew(ctx context.Context, pricingClient awsapi.PricingInterface, region string, fullRefreshTTL time.Duration, directoryPath string) *OnDemandPricing {
	expandedDirPath, err := homedir.Expand(directoryPath)
	if err != nil {
		expandedDirPath = directoryPath
	}
	odPricing := &OnDemandPricing{
		Region:         region,
		FullRefreshTTL: fullRefreshTTL,
		DirectoryPath:  expandedDirPath,
		pricingClient:  pricingClient,
	}
	if fullRefreshTTL <= 0 || expandedDirPath == "" {
		odPricing.cache = cache.New(cache.NoExpiration, cache.NoExpiration)
		return odPricing
	}
	items, err := loadODCacheFile(odPricing.cacheFilePath(), fullRefreshTTL)
	if err != nil {
		odPricing.logger().Debug("starting with an empty on-demand price cache", zap.String("region", region), zap.Error(err))
		odPricing.cache = cache.New(fullRefreshTTL, fullRefreshTTL)
		return odPricing
	}
	odPricing.cache = cache.NewFrom(fullRefreshTTL, fullRefreshTTL, items)
	return odPricing
}

func loadODCacheFile(path string, ttl time.Duration) (map[string]cache.Item, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if time.Since(info.ModTime()) > ttl {
		return nil, fmt.Errorf("cache file %s is older than %s", path, ttl)
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	items := map[string]cache.Item{}
	if err := json.Unmarshal(contents, &items); err != nil {
		return nil, fmt.Errorf("unable to decode cache file %s: %w", path, err)
	}
	return items, nil
}

func (c *OnDemandPricing) cacheFilePath() string {
	return filepath.Join(c.DirectoryPath, fmt.Sprintf(ODCacheFileName, c.Region))
}

func (c *OnDemandPricing) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Refresh replaces the cache with every on-demand price in the region
func (c *OnDemandPricing) Refresh(ctx context.Context) error {
	prices, err := c.fetchOnDemandPricing(ctx, "")
	if len(prices) == 0 && err != nil {
		return err
	}
	c.cache.Flush()
	for instanceType, price := range prices {
		c.cache.SetDefault(instanceType, price)
	}
	if err != nil {
		c.logger().Debug("some pricing documents could not be parsed", zap.Error(err))
	}
	return nil
}

// Get returns the on-demand hourly price of the instance type, calling the pricing API on a cache miss
func (c *OnDemandPricing) Get(ctx context.Context, instanceType string) (float64, error) {
	if price, ok := c.cache.Get(instanceType); ok {
		return price.(float64), nil
	}
	prices, err := c.fetchOnDemandPricing(ctx, instanceType)
	price, ok := prices[instanceType]
	if !ok {
		if err != nil {
			return -1, err
		}
		return -1, fmt.Errorf("%w: %s in %s", ErrPriceNotFound, instanceType, c.Region)
	}
	c.cache.SetDefault(instanceType, price)
	return price, nil
}

// Count returns the number of cached prices
func (c *OnDemandPricing) Count() int {
	return c.cache.ItemCount()
}

// Save writes the cache to DirectoryPath. It is a no-op when persistence is disabled.
func (c *OnDemandPricing) Save() error {
	if c.FullRefreshTTL <= 0 || c.DirectoryPath == "" || c.Count() == 0 {
		return nil
	}
	cacheBytes, err := json.Marshal(c.cache.Items())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.DirectoryPath, 0o755); err != nil {
		return err
	}
	return os.WriteFile(c.cacheFilePath(), cacheBytes, 0o600)
}

// fetchOnDemandPricing pages through the pricing API. An empty instanceType fetches the whole region.
// Documents that can't be parsed are skipped and reported through the returned error.
func (c *OnDemandPricing) fetchOnDemandPricing(ctx context.Context, instanceType string) (map[string]float64, error) {
	prices := map[string]float64{}
	filters := []pricingtypes.Filter{
		{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("ServiceCode"), Value: aws.String(serviceCode)},
		{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("operatingSystem"), Value: aws.String("linux")},
		{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("regionCode"), Value: aws.String(c.Region)},
		{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("capacitystatus"), Value: aws.String("used")},
		{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("preInstalledSw"), Value: aws.String("NA")},
		{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("tenancy"), Value: aws.String("shared")},
	}
	if instanceType != "" {
		filters = append(filters, pricingtypes.Filter{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("instanceType"), Value: aws.String(instanceType)})
	}

	var errs error
	p := pricing.NewGetProductsPaginator(c.pricingClient, &pricing.GetProductsInput{
		ServiceCode: aws.String(serviceCode),
		Filters:     filters,
	})
	for p.HasMorePages() {
		pricingOutput, err := p.NextPage(ctx)
		if err != nil {
			return prices, fmt.Errorf("failed to get next pricing page: %w", err)
		}
		for _, priceDoc := range pricingOutput.PriceList {
			instanceTypeName, price, err := parseOndemandUnitPrice(priceDoc)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			prices[instanceTypeName] = price
		}
	}
	return prices, errs
}

// parseOndemandUnitPrice takes a price document from the pricing API and parses its weirdness
func parseOndemandUnitPrice(priceDoc string) (string, float64, error) {
	var priceList map[string]interface{}
	if err := json.Unmarshal([]byte(priceDoc), &priceList); err != nil {
		return "", -1, fmt.Errorf("unable to decode pricing document: %w", err)
	}
	product, ok := priceList["product"].(map[string]interface{})
	if !ok {
		return "", -1, errors.New("unable to find product")
	}
	attributes, ok := product["attributes"].(map[string]interface{})
	if !ok {
		return "", -1, errors.New("unable to find product attributes")
	}
	instanceTypeName, ok := attributes["instanceType"].(string)
	if !ok {
		return "", -1, errors.New("unable to find instance type name from product attributes")
	}
	terms, ok := priceList["terms"].(map[string]interface{})
	if !ok {
		return instanceTypeName, -1, errors.New("unable to find pricing terms")
	}
	ondemandTerms, ok := terms["OnDemand"].(map[string]interface{})
	if !ok {
		return instanceTypeName, -1, errors.New("unable to find on-demand pricing terms")
	}
	for _, term := range ondemandTerms {
		priceDimensions, ok := term.(map[string]interface{})["priceDimensions"].(map[string]interface{})
		if !ok {
			return instanceTypeName, -1, errors.New("unable to find on-demand pricing dimensions")
		}
		for _, dimension := range priceDimensions {
			pricePerUnit, ok := dimension.(map[string]interface{})["pricePerUnit"].(map[string]interface{})
			if !ok {
				return instanceTypeName, -1, errors.New("unable to find on-demand price per unit in pricing dimensions")
			}
			pricePerUnitInUSDStr, ok := pricePerUnit["USD"].(string)
			if !ok {
				return instanceTypeName, -1, errors.New("unable to find on-demand price per unit in USD")
			}
			pricePerUnitInUSD, err := strconv.ParseFloat(pricePerUnitInUSDStr, 64)
			if err != nil {
				return instanceTypeName, -1, fmt.Errorf("could not convert price per unit in USD to a float64: %w", err)
			}
			return instanceTypeName, pricePerUnitInUSD, nil
		}
	}
	return instanceTypeName, -1, errors.New("unable to parse pricing doc")
}
