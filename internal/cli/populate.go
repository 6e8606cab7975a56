package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/wikimedia/readinglists/internal/config"
	"github.com/wikimedia/readinglists/internal/database"
	"github.com/wikimedia/readinglists/internal/database/projects"
	"github.com/wikimedia/readinglists/internal/database/readinglists"
)

// PopulateCommand fills the database with generated lists and entries,
// useful for exercising pagination and sync against realistic volumes.
type PopulateCommand struct {
	DatabasePath string
	OwnerID      int64
	Lists        int
	Entries      int
}

// NewPopulateCommand creates a new PopulateCommand.
func NewPopulateCommand() *PopulateCommand {
	return &PopulateCommand{}
}

// ParseFlags parses command line flags.
func (cmd *PopulateCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("populate", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.Int64Var(&cmd.OwnerID, "owner", 1, "Owner id to populate data for")
	fs.IntVar(&cmd.Lists, "lists", 10, "Number of lists to create")
	fs.IntVar(&cmd.Entries, "entries", 25, "Number of entries per list")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s populate [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Generate lists and entries for one owner.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s populate -owner 1 -lists 20 -entries 50\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Lists <= 0 || cmd.Entries < 0 {
		return fmt.Errorf("-lists must be positive and -entries non-negative")
	}
	return nil
}

// Run executes the populate command.
func (cmd *PopulateCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	repo := readinglists.NewRepository(db.DB, db.DB, cmd.OwnerID, projects.NewRepository(db.DB), readinglists.Options{})

	setUp, err := repo.IsSetupForUser(false)
	if err != nil {
		return fmt.Errorf("failed to check owner %d: %w", cmd.OwnerID, err)
	}
	if !setUp {
		if _, err := repo.SetupForUser(); err != nil {
			return fmt.Errorf("failed to set up owner %d: %w", cmd.OwnerID, err)
		}
		fmt.Printf("Set up owner %d with a default list\n", cmd.OwnerID)
	}

	project := "https://en.wikipedia.org"
	var created, merged int
	for i := 1; i <= cmd.Lists; i++ {
		list, wasMerged, err := repo.AddList(fmt.Sprintf("Generated list %03d", i), "generated for load testing")
		if err != nil {
			return fmt.Errorf("failed to create list %d: %w", i, err)
		}
		if wasMerged {
			merged++
		} else {
			created++
		}

		for j := 1; j <= cmd.Entries; j++ {
			title := fmt.Sprintf("Generated_page_%03d_%03d", i, j)
			if _, _, err := repo.AddListEntry(list.ID, project, title); err != nil {
				return fmt.Errorf("failed to add entry %q to list %d: %w", title, list.ID, err)
			}
		}
	}

	fmt.Printf("Created %d lists (%d merged) with %d entries each for owner %d\n",
		created, merged, cmd.Entries, cmd.OwnerID)
	return nil
}
