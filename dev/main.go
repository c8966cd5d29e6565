package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	devenv "regassist-backend/dev/env"
	"regassist-backend/lib/sqliteutil"
	"regassist-backend/services/enrollment/db"
)

const portalConfigTemplate = `{
  // used by tests that talk to the real portal, they skip without this file
  base_url: "",
  term_id: "",
  username: "",
  password: "",
  course: "",
}
`

func create(recreate bool) error {
	_, err := os.Stat("go.mod")
	if os.IsNotExist(err) {
		return fmt.Errorf("the dev environment must be created in the repository root (the same directory as the 'go.mod' file)")
	}

	if recreate {
		err = os.RemoveAll("dev/.state")
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	err = os.MkdirAll("dev/.state", 0700)
	if err != nil {
		return err
	}

	portalConfig, err := devenv.GetStateFilePath("portal_config.json5")
	if err != nil {
		return err
	}
	_, err = os.Stat(portalConfig)
	if os.IsNotExist(err) {
		err = os.WriteFile(portalConfig, []byte(portalConfigTemplate), 0600)
		if err != nil {
			return err
		}
		fmt.Println("portal test config template written to", portalConfig)
	}

	enrollmentDb, err := sqliteutil.OpenDB(db.Schema, "<dev_state>/enrollment.db")
	if err != nil {
		return err
	}
	fmt.Println("enrollment database ready")
	return enrollmentDb.Close()
}

func main() {
	recreate := flag.Bool("recreate", false, "recreate the dev environment from scratch")
	flag.Parse()

	err := create(*recreate)
	if err != nil {
		slog.Error("failed to create dev environment", "err", err.Error())
		os.Exit(1)
	}
}
