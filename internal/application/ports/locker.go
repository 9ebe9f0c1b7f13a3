package ports

import (
	"context"
	"sort"
)

// Locker serializa operaciones por clave ("order:<id>", "stock:<variante>:<org>").
// Acquire toma todas las claves en orden ascendente con espera acotada y devuelve
// domain.ErrContention si no lo logra a tiempo. release libera todas las claves.
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

// SortKeys devuelve las claves sin duplicados ni vacías, ordenadas.
func SortKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// OrderKey clave de bloqueo de la cadena de una orden.
func OrderKey(orderID string) string {
	return "order:" + orderID
}
