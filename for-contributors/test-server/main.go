package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
)

func main() {
	port := flag.Int("port", 8080, "Port to run the server on")
	flag.Parse()

	server := NewTestServer()

	log.Printf("🚀 Starting fixture server on port %d...", *port)
	log.Printf("📝 Sign-up form:  http://localhost:%d/signup", *port)
	log.Printf("📰 Article admin: http://localhost:%d/admin/articles/new", *port)
	log.Printf("💾 Submissions:   http://localhost:%d/api/signups, /api/articles", *port)

	if err := http.ListenAndServe(fmt.Sprintf(":%d", *port), server); err != nil {
		log.Fatalf("❌ Server failed to start: %v", err)
	}
}
