package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// ResourceStore is a typed REST collection on the course API, e.g. /mentors.
type ResourceStore[T any] struct {
	client *APIClient
	path   string
}

func NewResourceStore[T any](client *APIClient, path string) *ResourceStore[T] {
	return &ResourceStore[T]{client: client, path: path}
}

func (s *ResourceStore[T]) Path() string {
	return s.path
}

// List accepts either a bare JSON array or an envelope with "data" or "items".
func (s *ResourceStore[T]) List(ctx context.Context, query url.Values) ([]T, error) {
	var raw json.RawMessage
	if err := s.client.DoJSON(ctx, http.MethodGet, s.path, query, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[T](raw)
}

func (s *ResourceStore[T]) Get(ctx context.Context, id string) (*T, error) {
	var out T
	if err := s.client.DoJSON(ctx, http.MethodGet, s.itemPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ResourceStore[T]) Create(ctx context.Context, item T) (*T, error) {
	var out T
	if err := s.client.DoJSON(ctx, http.MethodPost, s.path, nil, item, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ResourceStore[T]) Update(ctx context.Context, id string, item T) (*T, error) {
	var out T
	if err := s.client.DoJSON(ctx, http.MethodPut, s.itemPath(id), nil, item, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ResourceStore[T]) Delete(ctx context.Context, id string) error {
	return s.client.DoJSON(ctx, http.MethodDelete, s.itemPath(id), nil, nil, nil)
}

func (s *ResourceStore[T]) itemPath(id string) string {
	return s.path + "/" + url.PathEscape(id)
}

func decodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}

	var items []T
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return items, nil
	}

	var envelope struct {
		Data  []T `json:"data"`
		Items []T `json:"items"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if envelope.Data != nil {
		return envelope.Data, nil
	}
	if envelope.Items != nil {
		return envelope.Items, nil
	}
	return []T{}, nil
}
