package app

import (
	"context"
	"sort"

	"github.com/jrsteele09/go-bizadmin-client/resource"
)

// Collection erases the record type of a store so commands can list, show and
// delete records of any kind.
type Collection struct {
	List   func(ctx context.Context, q resource.Query) (items any, total int, err error)
	Detail func(ctx context.Context, id string) (any, error)
	Remove func(ctx context.Context, id string) error
}

type collectionStore[T any] interface {
	FetchList(ctx context.Context, q resource.Query) error
	FetchDetail(ctx context.Context, id string) (T, error)
	Remove(ctx context.Context, id string) error
	Items() []T
	Total() int
}

func collectionOf[T any](s collectionStore[T]) Collection {
	return Collection{
		List: func(ctx context.Context, q resource.Query) (any, int, error) {
			if err := s.FetchList(ctx, q); err != nil {
				return nil, 0, err
			}
			return s.Items(), s.Total(), nil
		},
		Detail: func(ctx context.Context, id string) (any, error) {
			return s.FetchDetail(ctx, id)
		},
		Remove: s.Remove,
	}
}

// CollectionNames lists the keys of Collections in order.
func (a *App) CollectionNames() []string {
	names := make([]string, 0, 8)
	for name := range a.Collections() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
