package cache

import (
	"context"
	"time"

	"tokolaris/backend/internal/report"
)

type DashboardCache interface {
	Get(ctx context.Context, key string) (*report.Dashboard, bool, error)
	Set(ctx context.Context, key string, value *report.Dashboard, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type NoopDashboardCache struct{}

func (NoopDashboardCache) Get(_ context.Context, _ string) (*report.Dashboard, bool, error) {
	return nil, false, nil
}

func (NoopDashboardCache) Set(_ context.Context, _ string, _ *report.Dashboard, _ time.Duration) error {
	return nil
}

func (NoopDashboardCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
