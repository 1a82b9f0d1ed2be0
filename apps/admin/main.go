package main

import (
	"context"
	"log"
	"os"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/madrasahapp/madrasah/core"
	mongodb "github.com/madrasahapp/madrasah/storage/database/mongo"
)

var logger *log.Logger // todo: logger service

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(err)

	// set up DB
	db, err := mongodb.Open(conf)
	errAndDie(err)
	defer mongodb.Close(context.Background(), db)

	// start CLI
	cli := commandLine{
		usrRepo: mongodb.NewUserRepository(db),
		pingDB: func(ctx context.Context) error {
			return db.Client().Ping(ctx, readpref.Primary())
		},
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
