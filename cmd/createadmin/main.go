package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/joho/godotenv/autoload"

	"patisserie/internal/common"
	"patisserie/internal/config"
	"patisserie/internal/database"
	"patisserie/internal/models"
	"patisserie/internal/repositories"
	"patisserie/internal/services"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// createadmin bootstraps an administrator account from the terminal. An
// existing account is promoted in place; a fresh one is created already
// verified, so no OTP round-trip is needed.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	userRepo := repositories.NewUserRepository(db)
	reader := bufio.NewReader(os.Stdin)

	email := prompt(reader, "Admin email: ")
	email = services.NormalizeEmail(email)
	if !emailPattern.MatchString(email) {
		log.Fatal().Str("email", email).Msg("Invalid email address")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	existing, err := userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsAdmin {
			fmt.Printf("%s is already an admin.\n", email)
			return
		}
		if err := userRepo.SetAdmin(ctx, email, true); err != nil {
			log.Fatal().Err(err).Msg("Failed to promote user")
		}
		if !existing.IsVerified {
			if err := userRepo.MarkVerified(ctx, email); err != nil {
				log.Fatal().Err(err).Msg("Failed to verify promoted admin")
			}
		}
		fmt.Printf("Promoted %s to admin.\n", email)
	case errors.Is(err, common.ErrNotFound):
		name := prompt(reader, "Name: ")
		if name == "" {
			log.Fatal().Msg("Name is required")
		}
		password := prompt(reader, "Password: ")
		if len(password) < 8 {
			log.Fatal().Msg("Password must be at least 8 characters")
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to hash password")
		}

		user := &models.User{
			Email:      email,
			Name:       name,
			Password:   string(hashed),
			IsVerified: true,
			IsAdmin:    true,
		}
		created, err := userRepo.Create(ctx, user)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create admin")
		}
		fmt.Printf("Created admin %s (%s).\n", created.Email, created.ID.Hex())
	default:
		log.Fatal().Err(err).Msg("Failed to look up user")
	}
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, err := reader.ReadString('\n')
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read input")
	}
	return strings.TrimSpace(line)
}
