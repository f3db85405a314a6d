package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/authcore/authcore/internal/auth"
	"github.com/authcore/authcore/internal/repository"
	"github.com/authcore/authcore/internal/service"
	"github.com/authcore/authcore/migrations"
)

type output struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// create-user registers an account directly against the database. The
// password is read from AUTHCORE_PASSWORD or, when unset, from stdin.
func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", "", "User email")
		firstName   = flag.String("first-name", "", "First name")
		lastName    = flag.String("last-name", "", "Last name")
		phoneNo     = flag.String("phone-no", "", "Phone number (optional)")
		location    = flag.String("location", "", "Location (optional)")
		country     = flag.String("country", "", "Country (optional)")
		migrate     = flag.Bool("migrate", true, "Apply database migrations first")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	password, err := readPassword(os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *migrate {
		if err := migrations.Up(ctx, *databaseURL); err != nil {
			fmt.Fprintln(os.Stderr, "apply migrations:", err)
			os.Exit(1)
		}
	}

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	// Tokens are never issued here; the service only needs a store and a hasher.
	svc := service.NewAuthService(repo, auth.NewPasswordHasher(auth.DefaultArgon2Params()), nil, nil, nil, logger)

	user, err := svc.RegisterUser(ctx, service.RegisterInput{
		Email:     *email,
		Password:  password,
		FirstName: *firstName,
		LastName:  *lastName,
		PhoneNo:   *phoneNo,
		Location:  *location,
		Country:   *country,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			fmt.Fprintln(os.Stderr, "email, first-name, last-name and a password are required")
		case errors.Is(err, service.ErrEmailTaken):
			fmt.Fprintln(os.Stderr, "email already registered:", *email)
		default:
			fmt.Fprintln(os.Stderr, "create user:", err)
		}
		os.Exit(1)
	}

	result := output{UserID: user.ID, Email: user.Email}
	if strings.EqualFold(*format, "json") {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			fmt.Fprintln(os.Stderr, "encode output:", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("user_id=%d\nemail=%s\n", result.UserID, result.Email)
}

func readPassword(stdin io.Reader) (string, error) {
	if password := os.Getenv("AUTHCORE_PASSWORD"); password != "" {
		return password, nil
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password is required (AUTHCORE_PASSWORD or stdin)")
	}
	return password, nil
}
