package worklog

import (
	"sync"

	"github.com/localrivet/tempomcp/internal/tempo"
)

// referenceCache holds the session-scoped copies of the account and
// work-attribute reference data. Both sets change rarely upstream, so
// they are fetched once per process and held until restart.
type referenceCache struct {
	mu               sync.RWMutex
	accounts         []tempo.Account
	accountsLoaded   bool
	attributes       []tempo.WorkAttribute
	attributesLoaded bool
}

func (c *referenceCache) getAccounts() ([]tempo.Account, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accounts, c.accountsLoaded
}

func (c *referenceCache) setAccounts(accounts []tempo.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts = accounts
	c.accountsLoaded = true
}

func (c *referenceCache) getAttributes() ([]tempo.WorkAttribute, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.attributes, c.attributesLoaded
}

func (c *referenceCache) setAttributes(attributes []tempo.WorkAttribute) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attributes = attributes
	c.attributesLoaded = true
}
