package main

import (
	"context"
	"fmt"
	"time"
)

func (cli *commandLine) checkDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := cli.pingDB(ctx); err != nil {
		return err
	}
	fmt.Println("database OK")
	return nil
}
