package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/m04kA/SMC-ConsultationService/internal/config"
	"github.com/m04kA/SMC-ConsultationService/migrations"
)

// migrate [up|down|force <version>]
func main() {
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	url := cfg.Database.URL()
	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "up":
		err = migrations.Up(url)
	case "down":
		err = migrations.Down(url)
	case "force":
		if len(os.Args) < 3 {
			fmt.Println("usage: migrate force <version>")
			os.Exit(2)
		}
		version, convErr := strconv.Atoi(os.Args[2])
		if convErr != nil {
			fmt.Printf("invalid version: %v\n", convErr)
			os.Exit(2)
		}
		err = migrations.Force(url, version)
	default:
		fmt.Printf("unknown command %q\n", cmd)
		os.Exit(2)
	}

	if err != nil {
		fmt.Printf("Migration failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("migrate %s: done\n", cmd)
}
