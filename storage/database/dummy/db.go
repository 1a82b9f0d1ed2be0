package dummydb

import (
	"sync"

	"github.com/madrasahapp/madrasah/core/class"
	"github.com/madrasahapp/madrasah/core/user"
)

// DB is an in-memory stand-in for the document store, used by tests and
// local tinkering.
type DB struct {
	users   *userTable
	classes *classTable
}

func Open() *DB {
	return &DB{
		users:   &userTable{table: make(map[string]*user.User)},
		classes: &classTable{table: make(map[string]*class.Class)},
	}
}

type userTable struct {
	sync.RWMutex
	table map[string]*user.User
}

type classTable struct {
	sync.RWMutex
	table map[string]*class.Class
}
