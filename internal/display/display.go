// Package display combines a search result with the photo assigned to its
// weather category.
package display

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/weathernow-service/internal/domain"
	"github.com/google/uuid"
)

// PhotoStatus says how the category's photo was resolved.
type PhotoStatus string

const (
	// PhotoResolved means the assigned photo was found in the catalog.
	PhotoResolved PhotoStatus = "resolved"
	// PhotoUnassigned means no photo is assigned to the category.
	PhotoUnassigned PhotoStatus = "unassigned"
	// PhotoDangling means the assigned photo no longer exists.
	PhotoDangling PhotoStatus = "dangling"
	// PhotoUnresolved means the catalog is not configured or could not be reached.
	PhotoUnresolved PhotoStatus = "unresolved"
)

// AssignmentReader is the read side of the assignment store.
type AssignmentReader interface {
	Get(c domain.WeatherCategory) (uuid.UUID, bool)
}

// View is what a client renders for a completed search.
type View struct {
	Result        domain.WeatherQueryResult `json:"result"`
	Temperature   string                    `json:"temperature"`
	Precipitation string                    `json:"precipitation"`
	Icon          string                    `json:"icon"`
	PhotoID       *uuid.UUID                `json:"photo_id,omitempty"`
	Photo         *domain.Photo             `json:"photo,omitempty"`
	PhotoStatus   PhotoStatus               `json:"photo_status"`
}

// Composer builds Views. A nil catalog leaves assigned photos unresolved.
type Composer struct {
	assignments AssignmentReader
	catalog     domain.PhotoCatalog
	logger      *slog.Logger
}

func NewComposer(assignments AssignmentReader, catalog domain.PhotoCatalog, logger *slog.Logger) *Composer {
	return &Composer{assignments: assignments, catalog: catalog, logger: logger.With("component", "display")}
}

// Compose never fails: a missing, dangling or unreachable photo only changes
// PhotoStatus, since the weather readings are still worth showing.
func (c *Composer) Compose(ctx context.Context, result domain.WeatherQueryResult) View {
	v := View{
		Result:        result,
		Temperature:   result.TemperatureLabel(),
		Precipitation: result.PrecipitationLabel(),
		Icon:          result.Category.Icon(),
		PhotoStatus:   PhotoUnassigned,
	}

	id, ok := c.assignments.Get(result.Category)
	if !ok {
		return v
	}
	v.PhotoID = &id

	if c.catalog == nil {
		v.PhotoStatus = PhotoUnresolved
		return v
	}

	photo, found, err := c.catalog.LookupByID(ctx, id)
	switch {
	case err != nil:
		c.logger.Warn("photo lookup failed", "category", result.Category, "photo_id", id, "error", err)
		v.PhotoStatus = PhotoUnresolved
	case !found:
		c.logger.Info("assigned photo no longer exists", "category", result.Category, "photo_id", id)
		v.PhotoStatus = PhotoDangling
	default:
		v.Photo = &photo
		v.PhotoStatus = PhotoResolved
	}
	return v
}
