package usecase

import (
	"context"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
)

// paginate walks list from the first page and calls handle for every item. handle
// reports whether the item was stored. Paging stops after a short page, a page
// without more results, or an empty cursor.
func paginate[T any](
	ctx context.Context,
	list provider.ListFunc[T],
	createdAfter int64,
	pageSize int,
	handle func(ctx context.Context, item T) (bool, error),
) (int, error) {
	if pageSize <= 0 {
		pageSize = provider.DefaultPageSize
	}

	stored := 0
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return stored, err
		}

		page, err := list(ctx, cursor, createdAfter, pageSize)
		if err != nil {
			return stored, err
		}

		for _, item := range page.Items {
			ok, err := handle(ctx, item)
			if err != nil {
				return stored, err
			}
			if ok {
				stored++
			}
		}

		if len(page.Items) < pageSize || !page.HasMore || page.NextCursor == "" {
			return stored, nil
		}
		cursor = page.NextCursor
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
