//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
)

// InitializeContainer is the Wire injector for the application container.
// The cleanup closes the document store.
func InitializeContainer(ctx context.Context) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
