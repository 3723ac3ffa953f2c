package exchange

import (
	"sort"

	"github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/clients"
)

// StaticRegistry is a fixed map of exchange clients keyed by source code.
// The set of clients is decided at startup; enabling or disabling a source
// at runtime happens through its database row, not the registry.
type StaticRegistry struct {
	byCode map[string]clients.ExchangeClient
}

// NewRegistry builds a registry from the given clients.
func NewRegistry(cs ...clients.ExchangeClient) *StaticRegistry {
	byCode := make(map[string]clients.ExchangeClient, len(cs))
	for _, c := range cs {
		byCode[c.Code()] = c
	}
	return &StaticRegistry{byCode: byCode}
}

// Client implements clients.Registry.
func (r *StaticRegistry) Client(code string) (clients.ExchangeClient, bool) {
	c, ok := r.byCode[code]
	return c, ok
}

// Codes returns the registered source codes in ascending order.
func (r *StaticRegistry) Codes() []string {
	codes := make([]string, 0, len(r.byCode))
	for code := range r.byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
