// Package seed creates the default category registry and demo content for
// development databases.
package seed

import (
	"context"
	"fmt"

	"kasinoforum/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultCategory is a category every forum installation starts with.
type DefaultCategory struct {
	Name        string
	Slug        string
	Description string
}

// DefaultCategories are seeded in display order.
var DefaultCategories = []DefaultCategory{
	{Name: "Bordsspel", Slug: "bordsspel", Description: "Blackjack, roulette, baccarat och andra klassiker."},
	{Name: "Slots", Slug: "slots", Description: "Spelautomater, bonusrundor och RTP."},
	{Name: "Poker", Slug: "poker", Description: "Turneringar, cash games och strategi."},
	{Name: "Sportbetting", Slug: "sportbetting", Description: "Odds, speltips och livebetting."},
	{Name: "Allmänt", Slug: "allmant", Description: "Allt annat som rör casino och spel."},
}

// Categories upserts DefaultCategories by slug. Running it again refreshes
// names, descriptions and order without duplicating rows.
func Categories(ctx context.Context, db *gorm.DB) error {
	for i, item := range DefaultCategories {
		desc := item.Description
		category := models.ForumCategory{
			Name:        item.Name,
			Slug:        item.Slug,
			Description: &desc,
			Order:       (i + 1) * 10,
		}
		err := db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "sort_order", "updated_at"}),
		}).Create(&category).Error
		if err != nil {
			return fmt.Errorf("seed category %s: %w", item.Slug, err)
		}
	}
	return nil
}
