package db

import (
	"context"
	"fmt"

	"Postline/internal/models"
)

// UpsertHotel inserts the hotel or overwrites every column of the existing row.
func (s *Store) UpsertHotel(ctx context.Context, h *models.Hotel) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO hotels (id, name, description, country, city, address, zip, star_rating, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			country = EXCLUDED.country,
			city = EXCLUDED.city,
			address = EXCLUDED.address,
			zip = EXCLUDED.zip,
			star_rating = EXCLUDED.star_rating,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude`,
		h.ID, h.Name, h.Description, h.Country, h.City, h.Address, h.Zip, h.StarRating, h.Latitude, h.Longitude,
	)
	if err != nil {
		return fmt.Errorf("upsert hotel %s: %w", h.ID, err)
	}
	return nil
}
