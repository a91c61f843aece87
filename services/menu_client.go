package services

import "context"

// MenuClient supplies per-item preparation-time hints from the menu
// catalog. The catalog itself is an external collaborator; only this
// lookup boundary is part of the queue service.
type MenuClient interface {
	AveragePreparationTime(ctx context.Context, menuItemIDs []string) (int, error)
}

// StaticMenuClient answers with a fixed average. It backs development
// setups and deployments where the catalog is unreachable.
type StaticMenuClient struct {
	Minutes int
}

func (c StaticMenuClient) AveragePreparationTime(ctx context.Context, menuItemIDs []string) (int, error) {
	return c.Minutes, nil
}
