package syncctl

import (
	"context"
	"fmt"
)

type contextKey string

// ClientKey — ключ, под которым корневая команда кладет клиент в контекст
const ClientKey contextKey = "syncctl-client"

// FromContext достает клиент, созданный корневой командой
func FromContext(ctx context.Context) (*Client, error) {
	client, ok := ctx.Value(ClientKey).(*Client)
	if !ok || client == nil {
		return nil, fmt.Errorf("клиент не инициализирован")
	}
	return client, nil
}
