package service

import (
	"context"

	"go.uber.org/zap"

	"Postline/internal/liteapi"
	"Postline/internal/models"
)

type HotelProvider interface {
	FetchHotel(ctx context.Context, hotelID string) (*liteapi.Hotel, error)
}

type HotelRepository interface {
	UpsertHotel(ctx context.Context, h *models.Hotel) error
}

type Hotels struct {
	provider HotelProvider
	repo     HotelRepository
	log      *zap.Logger
}

func NewHotels(provider HotelProvider, repo HotelRepository, logger *zap.Logger) *Hotels {
	return &Hotels{provider: provider, repo: repo, log: logger}
}

// Sync fetches the hotel from the provider and creates or overwrites the
// local record.
func (s *Hotels) Sync(ctx context.Context, hotelID string) (*models.Hotel, error) {
	s.log.Info("starting hotel sync", zap.String("hotel_id", hotelID))

	data, err := s.provider.FetchHotel(ctx, hotelID)
	if err != nil {
		s.log.Error("failed to fetch hotel data", zap.String("hotel_id", hotelID), zap.Error(err))
		return nil, upstream("Failed to fetch hotel data")
	}
	if data == nil {
		s.log.Warn("no hotel data from provider", zap.String("hotel_id", hotelID))
		return nil, notFound("Hotel data not found from API")
	}

	h := &models.Hotel{
		ID:          hotelID,
		Name:        data.Name,
		Description: data.Description,
		Country:     data.Country,
		City:        data.City,
		Address:     data.Address,
		Zip:         data.Zip,
		StarRating:  data.StarRating,
	}
	if h.Name == "" {
		h.Name = "No Name"
	}
	if loc := data.Location; loc != nil {
		h.Latitude = loc.Latitude
		h.Longitude = loc.Longitude
	}

	if err := s.repo.UpsertHotel(ctx, h); err != nil {
		return nil, err
	}

	s.log.Info("hotel synced", zap.String("hotel_id", hotelID))
	return h, nil
}
