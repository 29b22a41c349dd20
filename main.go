package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"rowed/internal/connlib"
	"rowed/internal/gridlib"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rowed [connection] [table.col,col]",
	Short: "rowed is a row editor for query results",
	Long: `rowed runs a query against a saved connection, lets you edit the
result grid from the command line, and writes the edits back as UPDATE
statements that locate each row by its full baseline value.

Examples:
  rowed local users.id,name
  rowed local -c "select * from users where name = 'eric'"
  rowed local users --set "0:name=eric" --dry-run`,
	Args: cobra.MaximumNArgs(2),
	Run:  runRowed,
}

var (
	database string
	command  string
	setEdits []string
	dryRun   bool
	copyGrid bool
)

func init() {
	rootCmd.Flags().BoolP("help", "", false, "help for rowed")
	rootCmd.Flags().StringVarP(&database, "database", "d", "", "Database name")
	rootCmd.Flags().StringVarP(&command, "command", "c", "", "SQL command to execute")
	rootCmd.Flags().StringArrayVar(&setEdits, "set", nil, "Cell edit as row:column=value (repeatable)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the UPDATE statements instead of executing them")
	rootCmd.Flags().BoolVar(&copyGrid, "copy", false, "Copy the result grid to the system clipboard")

	rootCmd.AddCommand(connectionsCmd)
	connectionsCmd.AddCommand(connectionsAddCmd, connectionsListCmd, connectionsRemoveCmd, connectionsTestCmd, connectionsDatabasesCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func fatal(err error) {
	CaptureError(err)
	FlushAndShutdown()
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

func runRowed(cmd *cobra.Command, args []string) {
	settings, err := LoadSettings()
	if err != nil {
		fatal(err)
	}
	InitBreadcrumbs(50)
	if settings.TelemetryEnabled {
		if dsn := os.Getenv("ROWED_SENTRY_DSN"); dsn != "" {
			if err := InitSentry(dsn); err != nil {
				debugLog("sentry init: %v\n", err)
			}
			defer FlushAndShutdown()
		}
	}
	if !settings.FirstRunComplete {
		settings.FirstRunComplete = true
		if err := SaveSettings(settings); err != nil {
			debugLog("settings save: %v\n", err)
		}
	}

	if len(args) < 1 {
		fatal(fmt.Errorf("must specify a connection"))
	}

	var query string
	if command != "" {
		query = command
	} else if len(args) >= 2 {
		parts := strings.SplitN(args[1], ".", 2)
		if len(parts) == 2 {
			query = fmt.Sprintf("SELECT %s FROM %s", parts[1], parts[0])
		} else {
			query = fmt.Sprintf("SELECT * FROM %s", args[1])
		}
	}

	if query != "" {
		query, err = cleanStatement(query)
		if err != nil {
			fatal(err)
		}
	}

	configDir, err := getConfigDir()
	if err != nil {
		fatal(err)
	}
	store := connlib.NewStore(configDir)
	pools := connlib.NewPoolManager()
	defer pools.Close()
	histStore := connlib.NewHistoryStore(configDir, settings.MaxHistoryCount)
	executor := connlib.NewExecutor(store, pools, histStore)

	conn, err := store.Resolve(args[0])
	if err != nil {
		fatal(err)
	}
	dbType, err := conn.DBType()
	if err != nil {
		fatal(err)
	}

	ctx := context.Background()

	// Connection alone: show what there is to edit.
	if query == "" {
		tables, err := executor.ListTables(ctx, conn.ID, database)
		if err != nil {
			fatal(err)
		}
		for _, table := range tables {
			fmt.Println(table)
		}
		return
	}
	breadcrumbs.RecordDatabase("query")
	result, err := executor.Execute(ctx, conn.ID, query, database)
	if err != nil {
		fatal(err)
	}

	engine := gridlib.NewEngine(executor, nil, dbType, conn.ID, query, database, result)

	for _, edit := range setEdits {
		if err := applySetEdit(engine, edit); err != nil {
			fatal(err)
		}
	}

	if dryRun {
		statements, err := engine.PendingStatements()
		if err != nil {
			fatal(err)
		}
		for _, stmt := range statements {
			fmt.Println(stmt)
		}
		return
	}

	if engine.Dirty() {
		breadcrumbs.RecordDatabase("save")
		if err := engine.Save(ctx); err != nil {
			fatal(err)
		}
	}

	fmt.Print(renderResult(engine.Grid(), engine.Ledger()))

	if copyGrid {
		grid := engine.Grid()
		if len(grid.Rows) > 0 && len(grid.Columns) > 0 {
			engine.SelectRect(0, 0, len(grid.Rows)-1, len(grid.Columns)-1)
			if err := engine.CopyToClipboard(); err != nil {
				fatal(err)
			}
			breadcrumbs.RecordClipboard("copy", len(grid.Rows)*len(grid.Columns))
			engine.ClearSelection()
		}
	}
}

// applySetEdit applies one row:column=value edit through the normal cell
// edit flow. The column may be a name or a zero-based index.
func applySetEdit(engine *gridlib.Engine, edit string) error {
	addr, value, ok := strings.Cut(edit, "=")
	if !ok {
		return fmt.Errorf("invalid --set %q, expected row:column=value", edit)
	}
	rowText, colText, ok := strings.Cut(addr, ":")
	if !ok {
		return fmt.Errorf("invalid --set %q, expected row:column=value", edit)
	}
	row, err := strconv.Atoi(rowText)
	if err != nil {
		return fmt.Errorf("invalid --set row %q: %w", rowText, err)
	}

	grid := engine.Grid()
	col := -1
	for i, name := range grid.Columns {
		if name == colText {
			col = i
			break
		}
	}
	if col == -1 {
		if i, err := strconv.Atoi(colText); err == nil && i >= 0 && i < len(grid.Columns) {
			col = i
		} else {
			return fmt.Errorf("unknown column %q", colText)
		}
	}

	if err := engine.BeginCellEdit(row, col); err != nil {
		return err
	}
	if err := engine.SetEditingValue(value); err != nil {
		return err
	}
	if err := engine.CommitCellEdit(row, col); err != nil {
		return err
	}
	breadcrumbs.RecordEdit(grid.Columns[col], 1)
	return nil
}

// cleanStatement validates SQL input, removes trailing semicolons, and
// rejects multiple statements.
func cleanStatement(sqlStr string) (string, error) {
	sqlStr = strings.TrimSpace(sqlStr)

	// Remove trailing semicolon if present
	sqlStr = strings.TrimSuffix(sqlStr, ";")
	sqlStr = strings.TrimSpace(sqlStr)

	// Check for multiple statements by looking for semicolons
	// (after removing the trailing one, any remaining semicolon indicates multiple statements)
	if strings.Contains(sqlStr, ";") {
		return "", fmt.Errorf("multiple SQL statements are not supported, enter a single query")
	}

	return sqlStr, nil
}

var connectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "Manage saved connections",
}

var (
	addType     string
	addFilepath string
	addHost     string
	addPort     int
	addUser     string
	addPassword string
	addDatabase string
	addSSL      bool
)

func init() {
	connectionsAddCmd.Flags().StringVar(&addType, "type", "", "Connection type: sqlite, mysql, postgres")
	connectionsAddCmd.Flags().StringVar(&addFilepath, "file", "", "SQLite database file")
	connectionsAddCmd.Flags().StringVar(&addHost, "host", "localhost", "Database host")
	connectionsAddCmd.Flags().IntVar(&addPort, "port", 0, "Database port")
	connectionsAddCmd.Flags().StringVar(&addUser, "user", "", "Database user")
	connectionsAddCmd.Flags().StringVar(&addPassword, "password", "", "Database password")
	connectionsAddCmd.Flags().StringVar(&addDatabase, "database", "", "Default database")
	connectionsAddCmd.Flags().BoolVar(&addSSL, "ssl", false, "Require SSL")
	connectionsAddCmd.MarkFlagRequired("type")
}

var connectionsAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Save a new connection",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configDir, err := getConfigDir()
		if err != nil {
			fatal(err)
		}
		store := connlib.NewStore(configDir)
		if addPort == 0 {
			switch addType {
			case "postgres":
				addPort = 5432
			case "mysql":
				addPort = 3306
			}
		}
		conn, err := store.Create(args[0], addType, connlib.Config{
			Filepath: addFilepath,
			Host:     addHost,
			Port:     addPort,
			User:     addUser,
			Password: addPassword,
			Database: addDatabase,
			SSL:      addSSL,
		})
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Saved connection %s (%s)\n", conn.Name, conn.ID)
	},
}

var connectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved connections",
	Run: func(cmd *cobra.Command, args []string) {
		configDir, err := getConfigDir()
		if err != nil {
			fatal(err)
		}
		connections, err := connlib.NewStore(configDir).List()
		if err != nil {
			fatal(err)
		}
		for _, conn := range connections {
			fmt.Printf("%s\t%s\t%s\n", conn.ID, conn.Name, conn.Type)
		}
	},
}

var connectionsRemoveCmd = &cobra.Command{
	Use:   "remove [name]",
	Short: "Delete a saved connection",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configDir, err := getConfigDir()
		if err != nil {
			fatal(err)
		}
		store := connlib.NewStore(configDir)
		conn, err := store.Resolve(args[0])
		if err != nil {
			fatal(err)
		}
		if err := store.Delete(conn.ID); err != nil {
			fatal(err)
		}
		fmt.Printf("Removed connection %s\n", conn.Name)
	},
}

var connectionsDatabasesCmd = &cobra.Command{
	Use:   "databases [name]",
	Short: "List the databases visible on a connection",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := LoadSettings()
		if err != nil {
			fatal(err)
		}
		configDir, err := getConfigDir()
		if err != nil {
			fatal(err)
		}
		store := connlib.NewStore(configDir)
		conn, err := store.Resolve(args[0])
		if err != nil {
			fatal(err)
		}
		pools := connlib.NewPoolManager()
		defer pools.Close()
		executor := connlib.NewExecutor(store, pools, connlib.NewHistoryStore(configDir, settings.MaxHistoryCount))
		databases, err := executor.ListDatabases(context.Background(), conn.ID)
		if err != nil {
			fatal(err)
		}
		for _, name := range databases {
			fmt.Println(name)
		}
	},
}

var connectionsTestCmd = &cobra.Command{
	Use:   "test [name]",
	Short: "Open and ping a saved connection",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configDir, err := getConfigDir()
		if err != nil {
			fatal(err)
		}
		conn, err := connlib.NewStore(configDir).Resolve(args[0])
		if err != nil {
			fatal(err)
		}
		if err := connlib.Test(conn); err != nil {
			fatal(err)
		}
		fmt.Println("Connection OK")
	},
}

var (
	historyConnection string
	historyLimit      int
)

func init() {
	historyCmd.Flags().StringVar(&historyConnection, "connection", "", "Filter by connection name or id")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum entries to show")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show executed statements, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := LoadSettings()
		if err != nil {
			fatal(err)
		}
		configDir, err := getConfigDir()
		if err != nil {
			fatal(err)
		}
		connectionID := ""
		if historyConnection != "" {
			conn, err := connlib.NewStore(configDir).Resolve(historyConnection)
			if err != nil {
				fatal(err)
			}
			connectionID = conn.ID
		}
		entries, err := connlib.NewHistoryStore(configDir, settings.MaxHistoryCount).List(connectionID, historyLimit)
		if err != nil {
			fatal(err)
		}
		for _, entry := range entries {
			status := "ok"
			if !entry.Success {
				status = "failed"
			}
			fmt.Printf("%s\t%s\t%s\t%s\n", entry.ExecutedAt, entry.ConnectionName, status, entry.SQL)
		}
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all history",
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := LoadSettings()
		if err != nil {
			fatal(err)
		}
		configDir, err := getConfigDir()
		if err != nil {
			fatal(err)
		}
		if err := connlib.NewHistoryStore(configDir, settings.MaxHistoryCount).Clear(); err != nil {
			fatal(err)
		}
		fmt.Println("History cleared")
	},
}
