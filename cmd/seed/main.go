// Package main seeds the organizational directory from a YAML org
// chart: user accounts with bcrypt passwords and their employee
// records. Idempotent, safe to re-run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"signoff.io/signoff/internal/config"
	"signoff.io/signoff/internal/directory"
	"signoff.io/signoff/internal/infrastructure"
	"signoff.io/signoff/internal/pkg/logger"
	"signoff.io/signoff/internal/repository"
)

// orgChart is the YAML seed file layout.
type orgChart struct {
	Users []seedUser `yaml:"users"`
}

type seedUser struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"` // USER or ADMIN, defaults to USER

	Employee *seedEmployee `yaml:"employee"`
}

type seedEmployee struct {
	IDNo       string `yaml:"id_no"`
	Department string `yaml:"department"`
	RoleName   string `yaml:"role_name"`
	RoleLevel  int    `yaml:"role_level"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		file    = flag.String("file", "orgchart.yaml", "path to the org chart YAML file")
		migrate = flag.Bool("migrate", false, "apply schema migrations before seeding")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	chart, err := loadOrgChart(*file)
	if err != nil {
		return err
	}

	ctx := context.Background()

	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	if *migrate {
		if err := db.AutoMigrate(ctx); err != nil {
			return err
		}
	}

	store := repository.NewPG(db.Pool, nil)
	logger.Info("Starting data seeding...", zap.Int("users", len(chart.Users)))

	for _, u := range chart.Users {
		if err := seedOne(ctx, store, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
	}

	logger.Info("Data seeding completed successfully")
	return nil
}

func loadOrgChart(path string) (*orgChart, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read org chart %s: %w", path, err)
	}

	var chart orgChart
	if err := yaml.Unmarshal(raw, &chart); err != nil {
		return nil, fmt.Errorf("parse org chart %s: %w", path, err)
	}
	if len(chart.Users) == 0 {
		return nil, fmt.Errorf("org chart %s contains no users", path)
	}
	for _, u := range chart.Users {
		if u.Username == "" || u.Password == "" {
			return nil, fmt.Errorf("org chart %s: every user needs a username and password", path)
		}
	}
	return &chart, nil
}

func seedOne(ctx context.Context, store *repository.PG, u seedUser) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	role := u.Role
	if role == "" {
		role = "USER"
	}

	// Keep a stable account id across re-runs.
	existing, err := store.GetUserByUsername(ctx, u.Username)
	if err != nil {
		return err
	}
	accountID := ""
	if existing != nil {
		accountID = existing.ID
	} else {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate account id: %w", err)
		}
		accountID = id.String()
	}

	if err := store.UpsertUser(ctx, &repository.User{
		ID:           accountID,
		Username:     u.Username,
		PasswordHash: string(hash),
		Role:         role,
	}); err != nil {
		return err
	}

	if u.Employee != nil {
		if err := store.UpsertEmployee(ctx, &directory.Employee{
			IDNo:       u.Employee.IDNo,
			Department: u.Employee.Department,
			RoleName:   u.Employee.RoleName,
			RoleLevel:  u.Employee.RoleLevel,
			AccountID:  accountID,
		}); err != nil {
			return err
		}
	}

	logger.Info("seeded user",
		zap.String("username", u.Username),
		zap.String("role", role),
		zap.Bool("employee", u.Employee != nil),
	)
	return nil
}
