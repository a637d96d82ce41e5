package domain

import (
	"fmt"
	"strings"
	"time"
)

// Table names a watched entity table.
type Table string

const (
	TableOrders     Table = "orders"
	TableBoxes      Table = "boxes"
	TableContainers Table = "containers"
)

// Tables lists every watched table.
var Tables = []Table{TableOrders, TableBoxes, TableContainers}

// ParseTable maps a raw name onto a Table.
func ParseTable(raw string) (Table, error) {
	switch t := Table(strings.TrimSpace(strings.ToLower(raw))); t {
	case TableOrders, TableBoxes, TableContainers:
		return t, nil
	}
	return "", fmt.Errorf("unknown table %q", raw)
}

// Change says that some row in Table changed. It deliberately carries no row data;
// observers re-read what they display.
type Change struct {
	Table Table     `json:"table"`
	At    time.Time `json:"at"`
	// Origin identifies the publishing instance.
	Origin string `json:"origin,omitempty"`
}
