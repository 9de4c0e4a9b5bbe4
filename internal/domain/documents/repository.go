package documents

import "context"

type Repository interface {
	Create(ctx context.Context, d Document) error
	GetByID(ctx context.Context, id string) (Document, error)
	ListByClient(ctx context.Context, clientID string) ([]Document, error)
	ListByClinician(ctx context.Context, clinicianID string) ([]Document, error)
	ListUnmatched(ctx context.Context, clinicianID string) ([]Document, error)
	Update(ctx context.Context, d Document) error
}
