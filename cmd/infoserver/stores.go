package main

import (
	"context"
	"errors"

	"seleniumrobot/infoserver/pkg/commons"
	commonsstorage "seleniumrobot/infoserver/pkg/commons/storage"
	"seleniumrobot/infoserver/pkg/config"
	"seleniumrobot/infoserver/pkg/elementinfo"
	elementstorage "seleniumrobot/infoserver/pkg/elementinfo/storage"
	"seleniumrobot/infoserver/pkg/store"
	"seleniumrobot/infoserver/pkg/variables"
	variablestorage "seleniumrobot/infoserver/pkg/variables/storage"
)

// stores groups the record stores of one backend. db is nil for the memory
// backend.
type stores struct {
	db        *store.DB
	commons   commons.Store
	elements  elementinfo.Store
	variables variables.Store
}

func openStores(ctx context.Context, cfg config.StorageConfig) (*stores, error) {
	if cfg.Driver == "memory" {
		return &stores{
			commons:   commonsstorage.NewMemoryStorage(),
			elements:  elementstorage.NewMemoryStorage(),
			variables: variablestorage.NewMemoryStorage(),
		}, nil
	}

	db, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &stores{
		db:        db,
		commons:   commonsstorage.NewSQLStorage(db),
		elements:  elementstorage.NewSQLStorage(db),
		variables: variablestorage.NewSQLStorage(db),
	}, nil
}

func (s *stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

var errMemoryStore = errors.New("the memory storage driver keeps nothing between runs")
