package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/roamerhq/roamer-api/config"
	"github.com/roamerhq/roamer-api/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "demo@roamer.dev"
	password := "password123"
	name := "Demo Explorer"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var userID string
	err = db.QueryRow(`
		INSERT INTO users (name, email, password_hash, image)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, name, email, hash, "").Scan(&userID)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s password=%s\n", userID, email, password)

	tx, err := db.Begin()
	if err != nil {
		log.Fatalf("begin: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	var placeID string
	err = tx.QueryRow(`
		INSERT INTO places (title, description, address, lat, lng, image, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, "Eiffel Tower", "Wrought-iron lattice tower on the Champ de Mars.",
		"Champ de Mars, 5 Av. Anatole France, 75007 Paris", 48.8584, 2.2945, "", userID).Scan(&placeID)
	if err != nil {
		log.Fatalf("failed to seed place: %v", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO user_places (user_id, place_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, place_id) DO NOTHING
	`, userID, placeID); err != nil {
		log.Fatalf("failed to link place: %v", err)
	}
	if err := tx.Commit(); err != nil {
		log.Fatalf("commit: %v", err)
	}
	fmt.Printf("seeded place: id=%s\n", placeID)
}
