package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lib/pq"
)

// autopromoteTables are the tables this schema owns, for -list.
var autopromoteTables = []string{"content", "promotion_schedules", "ab_tests"}

func main() {
	dir := flag.String("dir", "migrations", "directory of .sql files to apply in name order")
	list := flag.Bool("list", false, "list the autopromote tables present in the database and exit")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	if *list {
		if err := listTables(db); err != nil {
			log.Fatal(err)
		}
		return
	}

	applied, failed, err := applyDir(db, *dir)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Applied %d migration(s), %d failed", applied, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func listTables(db *sql.DB) error {
	rows, err := db.Query(
		`SELECT tablename FROM pg_tables WHERE schemaname = 'public' AND tablename = ANY($1) ORDER BY tablename`,
		pq.Array(autopromoteTables))
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	present := map[string]bool{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return fmt.Errorf("scan table name: %w", err)
		}
		present[t] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	for _, t := range autopromoteTables {
		state := "missing"
		if present[t] {
			state = "present"
		}
		fmt.Printf("%-24s %s\n", t, state)
	}
	return nil
}

// applyDir runs every .sql file in dir in lexical order, each in its own
// transaction so one bad file does not leave a partial migration behind.
func applyDir(db *sql.DB, dir string) (applied, failed int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("read migrations dir %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		path := filepath.Join(dir, f)
		data, err := os.ReadFile(path)
		if err != nil {
			return applied, failed, fmt.Errorf("read %s: %w", path, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return applied, failed, fmt.Errorf("begin %s: %w", f, err)
		}
		if _, err := tx.Exec(string(data)); err != nil {
			tx.Rollback()
			log.Printf("%s: %v", f, err)
			failed++
			continue
		}
		if err := tx.Commit(); err != nil {
			return applied, failed, fmt.Errorf("commit %s: %w", f, err)
		}
		log.Printf("%s: applied", f)
		applied++
	}
	return applied, failed, nil
}
