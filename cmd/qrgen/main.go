// Command qrgen writes one QR code PNG per server in the inventory file.
// Technicians scan these on the rack to pull up the server's detail page.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"fieldops/internal/store"
)

func main() {
	inventory := flag.String("inventory", os.Getenv("SERVER_INVENTORY"), "path to server inventory YAML")
	outDir := flag.String("out", "qr_codes", "output directory for PNG files")
	size := flag.Int("size", 256, "image size in pixels")
	flag.Parse()

	if *inventory == "" {
		log.Fatal("qrgen: -inventory or SERVER_INVENTORY required")
	}
	servers, err := store.LoadServerInventory(*inventory)
	if err != nil {
		log.Fatalf("qrgen: load inventory: %v", err)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("qrgen: %v", err)
	}
	for _, srv := range servers {
		name := "server_" + strings.ReplaceAll(srv.ID, "-", "_") + ".png"
		path := filepath.Join(*outDir, name)
		if err := qrcode.WriteFile(srv.ID, qrcode.Medium, *size, path); err != nil {
			log.Fatalf("qrgen: %s: %v", srv.ID, err)
		}
		log.Printf("wrote %s", path)
	}
	log.Printf("generated %d QR codes in %s", len(servers), *outDir)
}
