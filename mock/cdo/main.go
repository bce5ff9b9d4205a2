package main

import (
	_ "embed"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

//go:embed data.json
var productData []byte

type product struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Categories []struct {
		ID int `json:"id"`
	} `json:"categories"`
}

func main() {
	var catalog []json.RawMessage
	if err := json.Unmarshal(productData, &catalog); err != nil {
		log.Fatalf("[CDO] bad embedded data: %v", err)
	}

	http.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		// Simulate network latency (50-200ms)
		time.Sleep(time.Duration(50+time.Now().UnixNano()%150) * time.Millisecond)

		if r.URL.Query().Get("auth_token") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			if _, err := w.Write([]byte(`{"error":"auth_token required"}`)); err != nil {
				log.Printf("[CDO] Write error: %v", err)
			}
			log.Printf("[CDO] %s %s - 401", r.Method, r.URL.Path)

			return
		}

		matched := filterProducts(catalog, r.URL.Query().Get("search"), r.URL.Query().Get("category_id"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(matched); err != nil {
			log.Printf("[CDO] Write error: %v", err)
		}

		log.Printf("[CDO] %s %s - 200 OK (%d products)", r.Method, r.URL.Path, len(matched))
	})

	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
			log.Printf("[CDO] Health write error: %v", err)
		}
	})

	log.Println("Mock CDO running on :8082")
	server := &http.Server{
		Addr:         ":8082",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}

// filterProducts applies the two filters the real API honors on this
// endpoint: a name search and a single category id.
func filterProducts(products []json.RawMessage, search, categoryID string) []json.RawMessage {
	matched := make([]json.RawMessage, 0, len(products))
	for _, raw := range products {
		var p product
		if json.Unmarshal(raw, &p) != nil {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			continue
		}
		if categoryID != "" && !inCategory(p, categoryID) {
			continue
		}
		matched = append(matched, raw)
	}

	return matched
}

func inCategory(p product, categoryID string) bool {
	for _, c := range p.Categories {
		if strconv.Itoa(c.ID) == categoryID {
			return true
		}
	}

	return false
}
