package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/mcdev12/wheelround/go/internal/auth"
	"github.com/mcdev12/wheelround/go/internal/dbconfig"
)

// Operator is one account in the seed file.
type Operator struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func main() {
	path := flag.String("file", "go/internal/assets/users.json", "JSON file with operator accounts")
	username := flag.String("username", "", "seed a single operator instead of reading the file")
	password := flag.String("password", "", "password for -username")
	flag.Parse()

	_ = godotenv.Load()

	// 1) Collect operators
	var operators []Operator
	if *username != "" {
		operators = []Operator{{Username: *username, Password: *password}}
	} else {
		data, err := os.ReadFile(*path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
			os.Exit(1)
		}
		if err := json.Unmarshal(data, &operators); err != nil {
			fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
			os.Exit(1)
		}
	}

	// 2) Connect using shared dbconfig
	ctx := context.Background()
	cfg := dbconfig.NewConfigFromEnv()
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := auth.NewRepository(db, auth.DialectPostgres)
	if err := repo.Migrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	// Seeding never issues tokens.
	app := auth.NewApp(repo, nil)

	// 3) Insert and count
	var (
		total    = len(operators)
		inserted int
		skipped  int
		errs     int
	)

	for _, op := range operators {
		_, err := app.CreateUser(ctx, op.Username, op.Password)
		switch {
		case err == nil:
			inserted++
		case errors.Is(err, auth.ErrUserExists):
			skipped++
		default:
			fmt.Fprintf(os.Stderr, "error creating operator %q: %v\n", op.Username, err)
			errs++
		}
	}

	fmt.Printf("Seeded operators: total=%d inserted=%d skipped=%d errors=%d\n", total, inserted, skipped, errs)
	if errs > 0 {
		os.Exit(1)
	}
}
