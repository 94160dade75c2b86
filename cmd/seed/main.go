// seed inserts development sample identities for local testing.
// Idempotent: skips inserts if the dev admin (admin@example.com) already exists.
// Goes through the family services so profiles are materialized and, when
// KAFKA_BROKERS is set, registration events are emitted.
package main

import (
	"context"
	"log"
	"os"

	clientservice "github.com/dimaluz/UserService/internal/client/service"
	"github.com/dimaluz/UserService/internal/config"
	"github.com/dimaluz/UserService/internal/db"
	"github.com/dimaluz/UserService/internal/event"
	"github.com/dimaluz/UserService/internal/security"
	userservice "github.com/dimaluz/UserService/internal/user/service"

	clientrepo "github.com/dimaluz/UserService/internal/client/repository"
	userrepo "github.com/dimaluz/UserService/internal/user/repository"
)

const (
	devAdminEmail = "admin@example.com"
	devStaffEmail = "staff@example.com"
	devOwnerEmail = "owner@example.com"
	devUserEmail  = "user@example.com"
	devPassword   = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	var notifier *event.Notifier
	if brokers := cfg.KafkaBrokersList(); len(brokers) > 0 {
		pub, err := event.NewKafkaPublisher(brokers, cfg.EventTopic)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		defer pub.Close()
		notifier = event.NewNotifier(pub, cfg.PublishTimeoutDuration())
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	users := userservice.NewService(
		userrepo.NewPostgresRepository(conn),
		userrepo.NewPostgresProfileRepository(conn),
		hasher, notifier)
	clients := clientservice.NewService(
		clientrepo.NewPostgresRepository(conn),
		clientrepo.NewPostgresProfileRepository(conn),
		hasher, notifier)

	ctx := context.Background()

	if _, err := users.GetByEmail(ctx, devAdminEmail); err == nil {
		log.Println("Seed already applied (admin@example.com exists). Skipping.")
		os.Exit(0)
	}

	admin, err := users.CreateAdmin(ctx, userservice.CreateParams{
		FirstName: "Dev", LastName: "Admin", Email: devAdminEmail, Password: devPassword,
	})
	if err != nil {
		log.Fatalf("create dev admin: %v", err)
	}
	if _, err := users.CreateStaff(ctx, userservice.CreateParams{
		FirstName: "Dev", LastName: "Staff", Email: devStaffEmail, Password: devPassword,
	}); err != nil {
		log.Fatalf("create dev staff: %v", err)
	}

	owner, err := clients.CreateAccountOwner(ctx, clientservice.CreateParams{
		FirstName:   "Alice",
		LastName:    "Smith",
		Email:       devOwnerEmail,
		PhoneNumber: "+19876543210",
		CompanyName: "Example Corp",
		Country:     "Wonderland",
		City:        "Magic City",
		Domain:      "example.com",
		Password:    devPassword,
	})
	if err != nil {
		log.Fatalf("create dev account owner: %v", err)
	}
	if _, err := clients.CreateAccountUser(ctx, clientservice.CreateParams{
		FirstName:   "Bob",
		LastName:    "Johnson",
		Email:       devUserEmail,
		PhoneNumber: "+19876543211",
		CompanyName: "Example Corp",
		Country:     "Wonderland",
		City:        "Magic City",
		Domain:      "app.example.com",
		Password:    devPassword,
	}); err != nil {
		log.Fatalf("create dev account user: %v", err)
	}

	if cfg.JWTSecret != "" {
		tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.AccessTTL())
		token, _, err := tokens.Issue(admin.ID, "user", string(admin.Role))
		if err != nil {
			log.Fatalf("issue dev token: %v", err)
		}
		log.Printf("dev admin access token: %s", token)
	}

	log.Printf("Seeded admin %s, staff %s, account owner %s, account user %s",
		admin.ID, devStaffEmail, owner.ID, devUserEmail)
}
