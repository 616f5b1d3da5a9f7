package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// inspect dumps the live and archived message rows of a running (or
// stopped) relay store. The database is opened read-only with the lock
// guard bypassed so the tool can run next to a live server.
func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg: live, arch: archived)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "ID", "Room", "Author", "Created", "Archived", "Body"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	type row struct {
		ID         uint64 `json:"id"`
		Room       string `json:"room"`
		Author     string `json:"author"`
		Body       string `json:"body"`
		CreatedAt  int64  `json:"created_at"`
		ArchivedAt int64  `json:"archived_at"`
	}

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()

			err := item.Value(func(v []byte) error {
				var r row
				if err := json.Unmarshal(v, &r); err != nil {
					// Keep scanning instead of aborting on one bad row
					fmt.Printf("Error unmarshaling key %s: %v\n", string(item.Key()), err)
					return nil
				}

				archived := ""
				if r.ArchivedAt != 0 {
					archived = time.Unix(0, r.ArchivedAt).Format("15:04:05")
				}

				body := r.Body
				if len(body) > 48 {
					body = body[:48] + "..."
				}

				table.Append([]string{
					string(item.Key()),
					fmt.Sprintf("%d", r.ID),
					r.Room,
					r.Author,
					time.Unix(0, r.CreatedAt).Format("15:04:05"),
					archived,
					body,
				})
				count++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	color.New(color.BgBlack, color.FgGreen).Printf("\n%d rows under %q\n", count, *prefix)
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil {
		// A crashed server can leave the value log in need of truncation.
		// Open once in write mode to repair, then reopen read-only.
		if strings.Contains(err.Error(), "Log truncate required") {
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}

			db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
