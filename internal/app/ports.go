package app

import (
	"context"

	"spot_explorer/internal/domain"
	"spot_explorer/internal/shared"
)

// Encyclopedia is the tiered article fetcher.
type Encyclopedia interface {
	FetchArticle(ctx context.Context, name, lang string) (*domain.Article, shared.Outcome)
	SearchSpotInfo(ctx context.Context, name, lang string) (string, bool)
}

// KnowledgeGraph resolves titles to entities and reads their facts.
type KnowledgeGraph interface {
	ResolveEntityID(ctx context.Context, title, lang string) (string, error)
	StructuredFacts(ctx context.Context, id, lang string) (*domain.StructuredFacts, error)
}

type ImageSource interface {
	ArticleImages(ctx context.Context, title, lang string) ([]domain.Image, error)
	NearbyFiles(ctx context.Context, lat, lng float64, radiusMeters int) ([]domain.GeoHit, error)
	ImageDetails(ctx context.Context, fileName string) (*domain.Image, error)
}
