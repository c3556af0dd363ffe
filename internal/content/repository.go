package content

import (
	"context"

	"github.com/JonMunkholm/eduadmin/internal/dataview"
)

// Scope narrows every query to one academic year. It is built once at
// startup from configuration and passed down explicitly.
type Scope struct {
	AcademicYear string
}

// Repository loads and writes the rows of a screen. Writes only touch rows
// the screen shows within scope.
type Repository interface {
	Fetch(ctx context.Context, s Screen, scope Scope) ([]dataview.Record, error)
	Get(ctx context.Context, s Screen, scope Scope, key string) (dataview.Record, error)
	Insert(ctx context.Context, s Screen, scope Scope, fields map[string]any) (dataview.Record, error)
	Update(ctx context.Context, s Screen, scope Scope, key string, fields map[string]any) (dataview.Record, error)
	// UpdateMany writes fields to every key or to none of them.
	UpdateMany(ctx context.Context, s Screen, scope Scope, keys []string, fields map[string]any) (int64, error)
	Delete(ctx context.Context, s Screen, scope Scope, keys []string) (int64, error)
	Count(ctx context.Context, s Screen, scope Scope) (int, error)
	Invalidate(s Screen, scope Scope)
}
