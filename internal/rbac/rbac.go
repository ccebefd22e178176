// Package rbac evaluates role-based permission checks over hydrated users.
// Decisions are memoized per (user, action, resource) in a TTL-bounded LRU
// cache; role changes must invalidate the affected user.
package rbac

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/halcyonlabs/halcyon/internal/identity"
	"github.com/halcyonlabs/halcyon/internal/metrics"
)

const (
	cacheSize = 10000
	cacheTTL  = 300 * time.Second
)

// Evaluator answers permission checks, caching decisions for cacheTTL.
type Evaluator struct {
	cache *expirable.LRU[string, bool]
}

func NewEvaluator() *Evaluator {
	return &Evaluator{
		cache: expirable.NewLRU[string, bool](cacheSize, nil, cacheTTL),
	}
}

// Permitted reports whether any of the user's roles carries a permission
// matching action on resource. Results are cached; callers that change a
// user's roles must call InvalidateUser afterwards.
func (e *Evaluator) Permitted(user *identity.User, action identity.Action, resource string) bool {
	key := cacheKey(user.ID, action, resource)
	if decision, ok := e.cache.Get(key); ok {
		metrics.RBACCacheHits.Inc()
		return decision
	}
	metrics.RBACCacheMisses.Inc()

	decision := HasPermission(user, action, resource)
	e.cache.Add(key, decision)
	return decision
}

// InvalidateUser drops every cached decision for one user.
func (e *Evaluator) InvalidateUser(userID uuid.UUID) {
	prefix := userID.String() + ":"
	for _, key := range e.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			e.cache.Remove(key)
		}
	}
}

// InvalidateAll drops every cached decision.
func (e *Evaluator) InvalidateAll() {
	e.cache.Purge()
}

// HasPermission is the uncached check. A stored resource of "*" matches any
// requested resource, and a stored action of admin matches any requested
// action.
func HasPermission(user *identity.User, action identity.Action, resource string) bool {
	for _, role := range user.Roles {
		for _, p := range role.Permissions {
			resourceMatch := p.Resource == resource || p.Resource == Wildcard
			actionMatch := p.Action == action || p.Action == identity.ActionAdmin
			if resourceMatch && actionMatch {
				return true
			}
		}
	}
	return false
}

func cacheKey(userID uuid.UUID, action identity.Action, resource string) string {
	return fmt.Sprintf("%s:%s:%s", userID, action, resource)
}
