package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/wikimedia/readinglists/internal/auth"
	"github.com/wikimedia/readinglists/internal/config"
	"github.com/wikimedia/readinglists/internal/database"
)

// CreateUserCommand registers a user and prints their API token.
type CreateUserCommand struct {
	Username     string
	DatabasePath string
}

// NewCreateUserCommand creates a new CreateUserCommand.
func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{}
}

// ParseFlags parses command line flags.
func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username for the new user (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a user and print their API token.\n")
		fmt.Fprintf(os.Stderr, "The token is shown exactly once; store it somewhere safe.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s create-user -username alice\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s create-user -username alice -db /data/readinglists.db\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		return fmt.Errorf("-username is required")
	}
	return nil
}

// Run executes the create-user command.
func (cmd *CreateUserCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	cfg := config.NewConfig()
	service := auth.NewService(db.DB, cfg.Auth)

	user, token, err := service.CreateUser(cmd.Username)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("Created user %q (id %d)\n", user.Username, user.ID)
	fmt.Printf("API token (shown once): %s\n", token)
	return nil
}
