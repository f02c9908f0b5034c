package db

import (
	"errors"
	"fmt"
	"log"

	"veritas/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var errDBUnavailable = errors.New("db unavailable")

type Store struct {
	DB *gorm.DB
}

func NewStore(cfg config.Config) (*Store, error) {
	if cfg.PostgresDSN == "" {
		log.Printf("POSTGRES_DSN not set; starting in no-db mode.")
		return &Store{DB: nil}, nil
	}

	// TranslateError surfaces unique violations as gorm.ErrDuplicatedKey so
	// the repository can map them onto the version-conflict sentinel.
	gdb, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &Store{DB: gdb}, nil
}

func (s *Store) AutoMigrate() error {
	if s.DB == nil {
		return errDBUnavailable
	}
	return s.DB.AutoMigrate(&ManifestModel{}, &ManifestVersionModel{})
}
