package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"

	"shareit/internal/api"
	"shareit/internal/models"
	"shareit/internal/service"
)

// seedFile lists fixtures created on an empty database.
type seedFile struct {
	Users []seedUser `yaml:"users"`
}

type seedUser struct {
	Name  string     `yaml:"name"`
	Email string     `yaml:"email"`
	Items []seedItem `yaml:"items"`
}

type seedItem struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Available   bool   `yaml:"available"`
}

func loadSeed(path string) (*seedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &seed, nil
}

func seedFromFile(ctx context.Context, path string, svc api.Services, logger *zerolog.Logger) error {
	seed, err := loadSeed(path)
	if err != nil {
		return err
	}
	return applySeed(ctx, seed, svc, logger)
}

// applySeed is a no-op once any user exists.
func applySeed(ctx context.Context, seed *seedFile, svc api.Services, logger *zerolog.Logger) error {
	existing, err := svc.Users.List(ctx, models.Page{From: 0, Size: 1})
	if err != nil {
		return fmt.Errorf("check existing users: %w", err)
	}
	if len(existing) > 0 {
		logger.Info().Msg("Database already populated, skipping seed")
		return nil
	}

	var items int
	for _, u := range seed.Users {
		user, err := svc.Users.Create(ctx, models.UserInput{Name: u.Name, Email: u.Email})
		if err != nil {
			if service.KindOf(err) == service.KindConflict {
				logger.Warn().Str("email", u.Email).Msg("Seed user already exists")
				continue
			}
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}

		for _, it := range u.Items {
			available := it.Available
			_, err := svc.Items.Create(ctx, user.ID, models.ItemInput{
				Name:        it.Name,
				Description: it.Description,
				Available:   &available,
			})
			if err != nil {
				return fmt.Errorf("seed item %s: %w", it.Name, err)
			}
			items++
		}
	}

	logger.Info().Int("users", len(seed.Users)).Int("items", items).Msg("Seed data loaded")
	return nil
}
