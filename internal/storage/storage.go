// Package storage keeps a catalog of index builds and measures artifact sizes.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/resumechat/internal/models"
)

// ErrNoBuilds is returned by LatestBuild when nothing has been recorded yet.
var ErrNoBuilds = errors.New("no builds recorded")

// Catalog records completed builds and the sources that went into them.
type Catalog interface {
	RecordBuild(ctx context.Context, b *models.BuildRecord) error
	LatestBuild(ctx context.Context) (*models.BuildRecord, error)
	ListBuilds(ctx context.Context, limit int) ([]*models.BuildRecord, error)
	CountBuilds(ctx context.Context) (int64, error)

	Close() error
}
