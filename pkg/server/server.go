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

// Package server exposes the compatibility matcher over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"dario.cat/mergo"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/catalog"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/ec2pricing"
	"github.com/aws/amazon-ec2-instance-interchange/pkg/selector"
)

const (
	DefaultListenAddress = ":8080"
	DefaultMaxResults    = 3
	DefaultMemoTTL       = 10 * time.Minute

	shutdownTimeout = 10 * time.Second
)

// ErrNoCatalog is returned while no catalog snapshot has been published
var ErrNoCatalog = errors.New("no catalog loaded")

// DefaultRequest holds the values merged into every request that leaves them unset
var DefaultRequest = selector.MatchRequest{
	StoragePolicy: selector.StoragePolicyStrict,
	MaxResults:    DefaultMaxResults,
}

// Options configures a Server
type Options struct {
	// Store is where Reload reads the catalog from
	Store catalog.Store
	// Pricing annotates responses with on-demand prices when set
	Pricing ec2pricing.EC2PricingIface
	Logger  *zap.Logger
	// ReloadInterval reloads the catalog periodically when positive
	ReloadInterval time.Duration
	// MemoTTL is how long match results are memoized, DefaultMemoTTL when zero
	MemoTTL time.Duration
	// Defaults overrides DefaultRequest
	Defaults *selector.MatchRequest
}

// Server answers match requests against the most recently published catalog snapshot
type Server struct {
	store          catalog.Store
	pricing        ec2pricing.EC2PricingIface
	logger         *zap.Logger
	reloadInterval time.Duration
	defaults       selector.MatchRequest

	snapshot   atomic.Pointer[snapshot]
	generation atomic.Uint64
	memo       *cache.Cache

	registry *prometheus.Registry
	metrics  *metrics
}

type snapshot struct {
	generation uint64
	selector   *selector.Selector
}

// CompatibleResponse is the body of a successful match
type CompatibleResponse struct {
	Current    string                `json:"current"`
	Requested  selector.MatchRequest `json:"requested"`
	Best       *selector.Candidate   `json:"best"`
	Candidates []selector.Candidate  `json:"candidates"`
	Truncated  int                   `json:"truncated"`
}

// New creates a Server with no catalog published
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultRequest
	if opts.Defaults != nil {
		defaults = *opts.Defaults
	}
	memoTTL := opts.MemoTTL
	if memoTTL <= 0 {
		memoTTL = DefaultMemoTTL
	}
	registry := prometheus.NewRegistry()
	return &Server{
		store:          opts.Store,
		pricing:        opts.Pricing,
		logger:         logger,
		reloadInterval: opts.ReloadInterval,
		defaults:       defaults,
		memo:           cache.New(memoTTL, 2*memoTTL),
		registry:       registry,
		metrics:        newMetrics(registry),
	}
}

// Publish atomically replaces the served snapshot with c
func (s *Server) Publish(c *catalog.Catalog) uint64 {
	generation := s.generation.Add(1)
	s.snapshot.Store(&snapshot{generation: generation, selector: selector.New(c)})
	s.memo.Flush()
	s.metrics.catalogRecords.Set(float64(c.Len()))
	s.metrics.catalogGeneration.Set(float64(generation))
	s.logger.Info("catalog published",
		zap.Uint64("generation", generation),
		zap.Int("records", c.Len()),
		zap.Strings("regions", c.Regions()))
	return generation
}

// Reload loads the catalog from the store and publishes it. The current snapshot is kept on failure.
func (s *Server) Reload(ctx context.Context) (uint64, error) {
	if s.store == nil {
		return 0, errors.New("no catalog store configured")
	}
	c, err := s.store.Load(ctx)
	if err != nil {
		s.metrics.reloadFailures.Inc()
		return 0, fmt.Errorf("unable to reload catalog from %s: %w", s.store.Location(), err)
	}
	return s.Publish(c), nil
}

// Catalog returns the published catalog, or nil
func (s *Server) Catalog() (*catalog.Catalog, uint64) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, 0
	}
	return snap.selector.Catalog(), snap.generation
}

// Match merges the defaults into req and ranks the candidates from the published snapshot
func (s *Server) Match(ctx context.Context, req selector.MatchRequest) (CompatibleResponse, error) {
	if err := mergo.Merge(&req, s.defaults); err != nil {
		return CompatibleResponse{}, fmt.Errorf("unable to apply request defaults: %w", err)
	}
	if err := req.Validate(); err != nil {
		return CompatibleResponse{}, err
	}
	snap := s.snapshot.Load()
	if snap == nil {
		return CompatibleResponse{}, ErrNoCatalog
	}

	key := memoKey(snap.generation, req)
	if cached, ok := s.memo.Get(key); ok {
		s.metrics.memoHits.Inc()
		return s.annotate(ctx, cached.(CompatibleResponse)), nil
	}

	result, err := snap.selector.FindCompatible(req)
	if err != nil {
		return CompatibleResponse{}, err
	}
	response := CompatibleResponse{
		Current:    result.Source.InstanceType,
		Requested:  result.Request,
		Candidates: result.Candidates,
		Truncated:  result.Truncated,
	}
	if best, ok := result.Best(); ok {
		response.Best = &best
	}
	s.memo.SetDefault(key, response)
	return s.annotate(ctx, response), nil
}

func (s *Server) annotate(ctx context.Context, response CompatibleResponse) CompatibleResponse {
	if s.pricing == nil || len(response.Candidates) == 0 {
		return response
	}
	response.Candidates = s.pricing.Annotate(ctx, response.Candidates)
	best := response.Candidates[0]
	response.Best = &best
	return response
}

func memoKey(generation uint64, req selector.MatchRequest) string {
	region := "*"
	if req.Region != nil {
		region = *req.Region
	}
	return fmt.Sprintf("%d|%s|%s|%d|%d|%d|%s|%d", generation, req.CurrentInstanceType, region,
		req.RequiredVCpus, req.RequiredMemoryMiB, req.RequiredGpus, req.StoragePolicy, req.MaxResults)
}

// Run serves on addr until ctx is cancelled, reloading the catalog every ReloadInterval when set
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", zap.String("address", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if s.reloadInterval > 0 {
		g.Go(func() error {
			s.reloadLoop(gctx)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) reloadLoop(ctx context.Context) {
	ticker := time.NewTicker(s.reloadInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Reload(ctx); err != nil {
				s.logger.Warn("periodic catalog reload failed", zap.Error(err))
			}
		}
	}
}
