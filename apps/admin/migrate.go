package main

import (
	"github.com/pressly/goose/v3"

	appfs "github.com/yardimel/yardimel/fs"
	"github.com/yardimel/yardimel/storage/database"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect(database.GooseDialect(cli.conf)); err != nil {
		return err
	}

	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db, "migrations", arguments...)
}
