package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jwoo/shopflow-backend/config"
	"github.com/jwoo/shopflow-backend/internal/app/model"
	"github.com/jwoo/shopflow-backend/internal/db"
	"github.com/jwoo/shopflow-backend/pkg/util"
	"github.com/xuri/excelize/v2"
)

// Seeds the catalog and bootstraps an admin account.
// Usage:
//
//	go run cmd/seed/main.go            # built-in sample catalog
//	go run cmd/seed/main.go file.xlsx  # import catalog from XLSX
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	var products []model.Product
	if len(os.Args) > 1 {
		fmt.Printf("Reading XLSX file: %s\n", os.Args[1])
		products, err = readProductsFromXLSX(os.Args[1])
		if err != nil {
			log.Fatal("Failed to read XLSX:", err)
		}
	} else {
		products = sampleProducts()
	}

	fmt.Printf("Seeding %d products...\n", len(products))
	for i := range products {
		if err := db.GetDB().Create(&products[i]).Error; err != nil {
			log.Fatal("Failed to create product:", err)
		}
	}

	if err := seedAdminUser(); err != nil {
		log.Fatal("Failed to seed admin user:", err)
	}

	fmt.Println("Seeding completed successfully!")
}

func sampleProducts() []model.Product {
	return []model.Product{
		{Name: "Wireless Headphones", Description: "Noise cancelling over-ear headphones", Price: 99.99, Category: "Electronics", Stock: 50, Rating: 4.5, ReviewCount: 128},
		{Name: "Smartphone", Description: "6.1 inch display, 128GB storage", Price: 699.99, Category: "Electronics", Stock: 30, Rating: 4.8, ReviewCount: 342},
		{Name: "Laptop Bag", Description: "Water resistant 15 inch laptop bag", Price: 49.99, Category: "Accessories", Stock: 100, Rating: 4.2, ReviewCount: 56},
		{Name: "Coffee Mug", Description: "Ceramic mug, 350ml", Price: 19.99, Category: "Home", Stock: 200, Rating: 4.0, ReviewCount: 89},
	}
}

func seedAdminUser() error {
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@shopflow.local"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "changeme123"
	}

	var count int64
	db.GetDB().Model(&model.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		fmt.Println("Admin user already exists, skipping")
		return nil
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Store Admin",
		Role:         model.RoleAdmin,
	}
	if err := db.GetDB().Create(admin).Error; err != nil {
		return err
	}

	fmt.Printf("Admin user created: %s\n", email)
	return nil
}

// readProductsFromXLSX expects columns: name, description, price, category, stock, image_url
func readProductsFromXLSX(filePath string) ([]model.Product, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	var products []model.Product
	skipped := 0

	for i, row := range rows {
		// First row is the header
		if i == 0 {
			continue
		}
		if len(row) < 5 {
			skipped++
			continue
		}

		name := strings.TrimSpace(row[0])
		if name == "" {
			skipped++
			continue
		}

		price, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if err != nil || price <= 0 {
			skipped++
			continue
		}

		stock, _ := strconv.Atoi(strings.TrimSpace(row[4]))

		product := model.Product{
			Name:        name,
			Description: strings.TrimSpace(row[1]),
			Price:       price,
			Category:    strings.TrimSpace(row[3]),
			Stock:       stock,
		}
		if len(row) > 5 {
			product.ImageURL = strings.TrimSpace(row[5])
		}

		products = append(products, product)
	}

	if skipped > 0 {
		fmt.Printf("Skipped %d invalid rows\n", skipped)
	}

	return products, nil
}
