package cli

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/wikimedia/readinglists/internal/config"
	"github.com/wikimedia/readinglists/internal/database"
	"github.com/wikimedia/readinglists/internal/database/readinglists"
)

// PurgeCommand runs the maintenance deletions once and exits.
type PurgeCommand struct {
	DatabasePath  string
	RetentionDays int
	Sortkeys      bool
}

// NewPurgeCommand creates a new PurgeCommand.
func NewPurgeCommand() *PurgeCommand {
	return &PurgeCommand{}
}

// ParseFlags parses command line flags.
func (cmd *PurgeCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("purge", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.IntVar(&cmd.RetentionDays, "retention-days", 30, "Permanently remove rows soft-deleted more than this many days ago")
	fs.BoolVar(&cmd.Sortkeys, "sortkeys", false, "Also remove orphan manual ordering rows")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s purge [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Permanently remove rows whose soft-delete retention has expired.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s purge\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s purge -retention-days 7 -sortkeys\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.RetentionDays <= 0 {
		return fmt.Errorf("-retention-days must be positive")
	}
	return nil
}

// Run executes the purge command.
func (cmd *PurgeCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	maintenance := readinglists.NewMaintenanceRepository(db.DB, nil)

	before := time.Now().UTC().AddDate(0, 0, -cmd.RetentionDays)
	fmt.Printf("Purging rows deleted before %s...\n", before.Format(time.RFC3339))
	if err := maintenance.PurgeOldDeleted(before); err != nil {
		return fmt.Errorf("failed to purge old rows: %w", err)
	}

	if cmd.Sortkeys {
		fmt.Println("Purging orphan sortkeys...")
		if err := maintenance.PurgeSortkeys(); err != nil {
			return fmt.Errorf("failed to purge sortkeys: %w", err)
		}
	}

	fmt.Println("Purge complete")
	return nil
}
