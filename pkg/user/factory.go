package user

import (
	"fmt"

	"github.com/jarvisapp/jarvis-idm/pkg/store"
)

// NewRepository creates a user repository based on the persistence type
func NewRepository(persistenceType string, db store.DBTX) (Repository, error) {
	switch persistenceType {
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("database connection required for postgres repository")
		}
		return NewPostgresRepository(db), nil
	case "inmem":
		return NewInMemRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s (supported: postgres, inmem)", persistenceType)
	}
}
