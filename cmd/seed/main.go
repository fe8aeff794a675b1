package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"vansales-service/config"
	"vansales-service/internal/models"
	"vansales-service/internal/store"
	"vansales-service/internal/util"
)

const demoPassword = "demo123"

type seedStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	CreateProduct(ctx context.Context, p *models.Product) error
}

func main() {
	cfg := config.Load()
	if err := util.InitLogger(cfg.Server.Env, "vansales-seed"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer util.SyncLogger()
	logger := util.GetLogger()

	st, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users, products, err := seed(ctx, st, bcrypt.DefaultCost)
	if err != nil {
		logger.Fatal("Seed failed", zap.Error(err))
	}
	logger.Info("Seeding complete", zap.Int("users_created", users), zap.Int("products_created", products))
}

// seed inserts the demo accounts and products, skipping rows that already exist
func seed(ctx context.Context, st seedStore, cost int) (int, int, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), cost)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to hash demo password: %w", err)
	}

	usersCreated := 0
	for _, u := range demoUsers() {
		u.Password = string(hash)
		err := st.CreateUser(ctx, &u)
		if errors.Is(err, store.ErrDuplicate) {
			continue
		}
		if err != nil {
			return usersCreated, 0, fmt.Errorf("failed to create user %s: %w", u.Username, err)
		}
		usersCreated++
	}

	productsCreated := 0
	for _, p := range demoProducts() {
		err := st.CreateProduct(ctx, &p)
		if errors.Is(err, store.ErrDuplicate) {
			continue
		}
		if err != nil {
			return usersCreated, productsCreated, fmt.Errorf("failed to create product %d: %w", p.BigCommerceID, err)
		}
		productsCreated++
	}

	return usersCreated, productsCreated, nil
}

func demoUsers() []models.User {
	return []models.User{
		{Username: "admin@vansales.com", Name: "System Admin", Role: models.RoleAdmin, IsEnabled: true},
		{Username: "agent1@vansales.com", Name: "John Doe", Role: models.RoleAgent, IsEnabled: true},
		{Username: "agent2@vansales.com", Name: "Jane Smith", Role: models.RoleAgent, IsEnabled: false},
	}
}

func demoProducts() []models.Product {
	return []models.Product{
		{
			BigCommerceID: 1001,
			Name:          "Pro-Grade Impact Driver",
			SKU:           "TL-IMP-001",
			Price:         decimal.RequireFromString("189.99"),
			Image:         "https://images.unsplash.com/photo-1504148455328-c376907d081c?w=400&q=80",
			Description:   "High-torque impact driver for heavy duty industrial use.",
			StockLevel:    45,
			IsPinned:      true,
		},
		{
			BigCommerceID: 1002,
			Name:          "Precision Socket Set (50pc)",
			SKU:           "TL-SOC-050",
			Price:         decimal.RequireFromString("129.50"),
			Image:         "https://images.unsplash.com/photo-1572981779307-38b8cabb2407?w=400&q=80",
			Description:   "Metric and Imperial socket set with chrome vanadium finish.",
			StockLevel:    12,
			IsPinned:      true,
		},
		{
			BigCommerceID: 1003,
			Name:          "Hydraulic Floor Jack 3T",
			SKU:           "EQ-JK-3000",
			Price:         decimal.RequireFromString("249.00"),
			Image:         "https://images.unsplash.com/photo-1581235720704-06d3acfcb36f?w=400&q=80",
			Description:   "Heavy duty 3-ton capacity floor jack for automotive service.",
			StockLevel:    8,
		},
	}
}
