// check-deps verifies the external tools and analysis state a deployment
// depends on: ffmpeg/ffprobe for frame access, tesseract for OCR, and the
// evidence tables themselves.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"os/exec"

	_ "github.com/mattn/go-sqlite3"
)

func main() {
	fmt.Println("Checking analysis dependencies")
	fmt.Println("==============================")

	ok := true
	for _, tool := range []string{"ffmpeg", "ffprobe", "tesseract"} {
		path, err := exec.LookPath(tool)
		if err != nil {
			fmt.Printf("MISSING  %s\n", tool)
			ok = false
			continue
		}
		fmt.Printf("found    %s (%s)\n", tool, path)
	}
	fmt.Println()

	dbPath := os.Getenv("DASHFORENSICS_DATABASE_SQLITE_PATH")
	if dbPath == "" {
		dbPath = "./dashforensics.db"
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err == nil {
		err = db.Ping()
	}
	if err != nil {
		fmt.Printf("Database %s not reachable: %v\n", dbPath, err)
	} else {
		defer db.Close()
		fmt.Printf("Database: %s\n", dbPath)
		for _, table := range []string{"uploads", "tamper_records", "tampers", "timestamps", "license_results"} {
			var count int
			if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
				fmt.Printf("  %-15s (missing)\n", table)
				continue
			}
			fmt.Printf("  %-15s %d rows\n", table, count)
		}
	}

	if !ok {
		fmt.Println("\nInstall the missing tools before running the server.")
		os.Exit(1)
	}
	fmt.Println("\nAll dependencies present.")
}
