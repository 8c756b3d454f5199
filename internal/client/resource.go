package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Resource is one CRUD collection of the API, e.g. /expenses.
type Resource[T any] struct {
	c       *Client
	path    string
	family  string
	related []string
}

// ListOptions filter a listing; Year and Month go together.
type ListOptions struct {
	Year  int
	Month int
}

func (o ListOptions) values() url.Values {
	if o.Year == 0 && o.Month == 0 {
		return nil
	}
	q := url.Values{}
	q.Set("year", strconv.Itoa(o.Year))
	q.Set("month", strconv.Itoa(o.Month))
	return q
}

func newResource[T any](c *Client, path string, related ...string) *Resource[T] {
	return &Resource[T]{c: c, path: path, family: path, related: related}
}

func (r *Resource[T]) item(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

func (r *Resource[T]) mutated() []string {
	return append([]string{r.family}, r.related...)
}

// List returns every item, optionally limited to one month.
func (r *Resource[T]) List(ctx context.Context, opts ListOptions) ([]T, error) {
	var out []T
	if err := r.c.get(ctx, r.family, r.path, opts.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	err := r.c.get(ctx, r.family, r.item(id), nil, &out)
	return out, err
}

func (r *Resource[T]) Create(ctx context.Context, in T) (T, error) {
	var out T
	err := r.c.send(ctx, http.MethodPost, r.path, in, &out, r.mutated()...)
	return out, err
}

// Update applies a partial update; patch holds only the fields to change.
func (r *Resource[T]) Update(ctx context.Context, id string, patch any) (T, error) {
	var out T
	err := r.c.send(ctx, http.MethodPatch, r.item(id), patch, &out, r.mutated()...)
	return out, err
}

func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	return r.c.send(ctx, http.MethodDelete, r.item(id), nil, nil, r.mutated()...)
}
