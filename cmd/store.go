package main

import (
	"context"

	"github.com/efda-insights/permit-analytics/internal/analytics"
	"github.com/efda-insights/permit-analytics/internal/canonical"
	"github.com/efda-insights/permit-analytics/internal/store"
)

func initStore(ctx context.Context) (*store.PostgresStore, error) {
	return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
		MaxConns: cfg.Store.Pool.MaxConns,
		MinConns: cfg.Store.Pool.MinConns,
	})
}

func initAnalytics(st *store.PostgresStore) *analytics.Service {
	det := canonical.NewCapabilityDetector(st.Pool())
	return analytics.New(st.Pool(), det, st, cfg.Analytics)
}
