package main

import (
	_ "embed"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"
)

//go:embed data.json
var productData []byte

//go:embed families.json
var familyData []byte

type product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func main() {
	var catalog struct {
		GenericProducts []json.RawMessage `json:"generic_products"`
	}
	if err := json.Unmarshal(productData, &catalog); err != nil {
		log.Fatalf("[Zecat] bad embedded data: %v", err)
	}

	http.HandleFunc("/generic_product", func(w http.ResponseWriter, r *http.Request) {
		// Simulate network latency (50-200ms)
		time.Sleep(time.Duration(50+time.Now().UnixNano()%150) * time.Millisecond)

		matched := filterByName(catalog.GenericProducts, r.URL.Query().Get("name"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]any{
			"total_pages":      1,
			"count":            len(matched),
			"generic_products": matched,
		}); err != nil {
			log.Printf("[Zecat] Write error: %v", err)
		}

		log.Printf("[Zecat] %s %s - 200 OK (%d products)", r.Method, r.URL.Path, len(matched))
	})

	http.HandleFunc("/generic_product/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		w.Header().Set("Content-Type", "application/json")

		for _, raw := range catalog.GenericProducts {
			var p product
			if json.Unmarshal(raw, &p) == nil && p.ID == id {
				w.WriteHeader(http.StatusOK)
				if _, err := w.Write(raw); err != nil {
					log.Printf("[Zecat] Write error: %v", err)
				}
				log.Printf("[Zecat] %s %s - 200 OK", r.Method, r.URL.Path)

				return
			}
		}

		w.WriteHeader(http.StatusNotFound)
		if _, err := w.Write([]byte(`{"error":"not found"}`)); err != nil {
			log.Printf("[Zecat] Write error: %v", err)
		}
		log.Printf("[Zecat] %s %s - 404", r.Method, r.URL.Path)
	})

	http.HandleFunc("/family/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(familyData); err != nil {
			log.Printf("[Zecat] Family write error: %v", err)
		}
		log.Printf("[Zecat] %s %s - 200 OK", r.Method, r.URL.Path)
	})

	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
			log.Printf("[Zecat] Health write error: %v", err)
		}
	})

	log.Println("Mock Zecat running on :8081")
	server := &http.Server{
		Addr:         ":8081",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}

func filterByName(products []json.RawMessage, name string) []json.RawMessage {
	if name == "" {
		return products
	}

	matched := make([]json.RawMessage, 0, len(products))
	for _, raw := range products {
		var p product
		if json.Unmarshal(raw, &p) == nil &&
			strings.Contains(strings.ToLower(p.Name), strings.ToLower(name)) {
			matched = append(matched, raw)
		}
	}

	return matched
}
