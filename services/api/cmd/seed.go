package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/database"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/models"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/repositories"
	"github.com/nimeshabuddhika/garmentix-payments/services/api/configs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var garments = []string{"Jacket", "Hoodie", "Denim Shirt", "Chinos", "Linen Dress", "Polo", "Cardigan", "Parka"}

// seedCmd fills the catalogue with sample products inside a single transaction.
func seedCmd(logger *zap.Logger) *cobra.Command {
	var (
		noOfProducts int
		minPrice     float64
		maxPrice     float64
		maxStock     int
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the product catalogue with sample garments",
		RunE: func(cmd *cobra.Command, args []string) error {
			if minPrice <= 0 || maxPrice < minPrice {
				return fmt.Errorf("invalid price range %.2f..%.2f", minPrice, maxPrice)
			}
			cfg, err := configs.Load(logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, closer, err := database.New(ctx, logger, database.Config{
				PrimaryDSN: cfg.PrimaryDbAddr,
				MaxConns:   cfg.MaxDbCons,
				MinConns:   cfg.MinDbCons,
			})
			if err != nil {
				return err
			}
			defer closer()

			if err = database.RunMigrations(logger, cfg.PrimaryDbAddr); err != nil {
				return err
			}

			products := sampleProducts(rand.New(rand.NewSource(rand.Int63())), noOfProducts, minPrice, maxPrice, maxStock)
			productRepo := repositories.NewProductRepository()
			err = db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
				for _, p := range products {
					if _, err := productRepo.Create(ctx, tx, p); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			logger.Info("products_seeded", zap.Int("count", len(products)))
			return nil
		},
	}
	cmd.Flags().IntVar(&noOfProducts, "products", 20, "number of products to seed")
	cmd.Flags().Float64Var(&minPrice, "minPrice", 15, "min product price")
	cmd.Flags().Float64Var(&maxPrice, "maxPrice", 120, "max product price")
	cmd.Flags().IntVar(&maxStock, "maxStock", 50, "max stock per product")
	return cmd
}

func sampleProducts(r *rand.Rand, n int, minPrice, maxPrice float64, maxStock int) []models.Product {
	out := make([]models.Product, 0, n)
	for i := 0; i < n; i++ {
		name := garments[r.Intn(len(garments))]
		price := minPrice + r.Float64()*(maxPrice-minPrice)
		out = append(out, models.Product{
			Name:        fmt.Sprintf("%s #%03d", name, i+1),
			Description: fmt.Sprintf("Sample %s", name),
			Price:       math.Round(price*100) / 100,
			Stock:       r.Intn(maxStock + 1),
		})
	}
	return out
}
